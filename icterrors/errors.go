// Package icterrors defines the error types produced while building and
// running a parser front-end: malformed grammars, lexical failures, parse
// table conflicts, and syntax errors encountered while parsing input.
package icterrors

import (
	"fmt"

	"github.com/dekarrin/ictiobus/types"
)

// SyntaxError is an error encountered while lexing or parsing input text,
// with enough position information to point at the offending source.
type SyntaxError struct {
	sourceLine string
	source     string

	// line the error occurred on, 1-indexed. 0 means unset.
	line int

	// pos is the character-of-line the error occurred on, 1-indexed. 0
	// means unset.
	pos     int
	message string
}

// NewSyntaxError creates a SyntaxError not tied to a specific token, such as
// one describing an unexpected end of input.
func NewSyntaxError(msg string) *SyntaxError {
	return &SyntaxError{message: msg}
}

// NewSyntaxErrorFromToken creates a SyntaxError whose position information
// is drawn from tok.
func NewSyntaxErrorFromToken(msg string, tok types.Token) *SyntaxError {
	return &SyntaxError{
		message:    msg,
		sourceLine: tok.FullLine(),
		source:     tok.Lexeme(),
		pos:        tok.LinePos(),
		line:       tok.Line(),
	}
}

func (se *SyntaxError) Error() string {
	if se.line == 0 {
		return fmt.Sprintf("syntax error: %s", se.message)
	}
	return fmt.Sprintf("syntax error: around line %d, char %d: %s", se.line, se.pos, se.message)
}

// Source returns the exact source text that caused the error, or an empty
// string if no particular source text is responsible.
func (se *SyntaxError) Source() string {
	return se.source
}

// Line returns the 1-indexed line the error occurred on, or 0 if unset.
func (se *SyntaxError) Line() int {
	return se.line
}

// Position returns the 1-indexed character position the error occurred on,
// or 0 if unset.
func (se *SyntaxError) Position() int {
	return se.pos
}

// FullMessage shows the error along with the offending source line and a
// cursor pointing at the problem position.
func (se *SyntaxError) FullMessage() string {
	msg := se.Error()
	if se.line != 0 {
		msg = se.SourceLineWithCursor() + "\n" + msg
	}
	return msg
}

// SourceLineWithCursor returns the offending line of source and, on the line
// below it, a cursor pointing at the error position. Returns an empty
// string if no source line is available.
func (se *SyntaxError) SourceLineWithCursor() string {
	if se.sourceLine == "" {
		return ""
	}

	cursorLine := ""
	for i := 0; i < se.pos-1; i++ {
		cursorLine += " "
	}

	return se.sourceLine + "\n" + cursorLine
}

// GrammarError describes a problem found while validating or transforming a
// grammar, such as a missing start symbol or an undefined terminal.
type GrammarError struct {
	message string
}

func NewGrammarError(msg string) *GrammarError {
	return &GrammarError{message: msg}
}

func (ge *GrammarError) Error() string {
	return fmt.Sprintf("grammar error: %s", ge.message)
}

// LexError describes a failure encountered while building or running a
// lexer: an unparsable pattern, an unresolvable lexical state, or input
// that matched no defined token class.
type LexError struct {
	sourceLine string
	line       int
	pos        int
	message    string
}

func NewLexError(msg string) *LexError {
	return &LexError{message: msg}
}

func NewLexErrorAt(msg, sourceLine string, line, pos int) *LexError {
	return &LexError{message: msg, sourceLine: sourceLine, line: line, pos: pos}
}

func (le *LexError) Error() string {
	if le.line == 0 {
		return fmt.Sprintf("lexing error: %s", le.message)
	}
	return fmt.Sprintf("lexing error: around line %d, char %d: %s", le.line, le.pos, le.message)
}

// TableConflictError describes a shift/reduce or reduce/reduce conflict
// found while constructing a parse table, making a grammar unsuitable for
// the parsing algorithm in use.
type TableConflictError struct {
	State   string
	Symbol  string
	message string
}

func NewTableConflictError(state, symbol, msg string) *TableConflictError {
	return &TableConflictError{State: state, Symbol: symbol, message: msg}
}

func (tce *TableConflictError) Error() string {
	return fmt.Sprintf("table conflict in state %s on %q: %s", tce.State, tce.Symbol, tce.message)
}

// ParseError wraps a SyntaxError encountered mid-parse along with the parser
// mode that was active when it occurred, for front-ends that run multiple
// parsing strategies and need to report which one failed.
type ParseError struct {
	Mode string
	Err  *SyntaxError
}

func NewParseError(mode string, err *SyntaxError) *ParseError {
	return &ParseError{Mode: mode, Err: err}
}

func (pe *ParseError) Error() string {
	return fmt.Sprintf("%s parse error: %s", pe.Mode, pe.Err.Error())
}

func (pe *ParseError) Unwrap() error {
	return pe.Err
}
