// Package ictiobus is a parser-generator toolkit: it builds lexers from
// regex-based lex rules with stackable start conditions, constructs LR(0),
// SLR(1), CLR(1), and LALR(1) parse tables (or an LL(1) predictive table)
// from a context-free grammar, and drives a syntax-directed translation
// scheme over the resulting parse tree to produce a caller-defined
// intermediate representation.
package ictiobus

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/dekarrin/ictiobus/grammar"
	"github.com/dekarrin/ictiobus/lex"
	"github.com/dekarrin/ictiobus/parse"
	"github.com/dekarrin/ictiobus/translate"
	"github.com/dekarrin/ictiobus/types"
)

// Lexer builds up a tokenizer specification and produces a token stream over
// source text. It mirrors lex.Lexer so callers of this package don't need to
// import the lex package directly for the common case.
type Lexer interface {
	// Lex returns a token stream over input.
	Lex(input io.Reader) (types.TokenStream, error)

	// RegisterClass makes a token class available for use in a pattern's
	// Action.
	RegisterClass(cl types.TokenClass, forState string)

	// AddMacro defines a named regex fragment usable as {name} in later
	// patterns.
	AddMacro(name string, regexFragment string) error

	// DefineState declares a start condition's inclusive/exclusive behavior.
	DefineState(name string, exclusive bool)

	// AddPattern adds a lex rule, with an optional explicit tie-break
	// priority.
	AddPattern(pat string, action lex.Action, forState string, priority ...int) error
}

// Parser produces a parse tree from a stream of tokens, or reports a
// SyntaxError describing where and why parsing failed.
type Parser interface {
	Parse(stream types.TokenStream) (types.ParseTree, error)
}

// SDD is a series of syntax-directed definitions bound to syntactic rules of
// a grammar, used to evaluate a parse tree into a caller-defined
// intermediate representation.
type SDD = translate.SDD

// NewLexer returns a Lexer whose Lex method tokenizes all of its input
// up-front; errors are returned immediately rather than surfacing as tokens
// in the stream.
func NewLexer() Lexer {
	return lex.NewLexer(false)
}

// NewLazyLexer returns a Lexer whose Lex method tokenizes on demand. The
// returned TokenStream may produce a types.TokenError token at the point in
// the stream where a lexical error occurs, rather than failing Lex itself.
func NewLazyLexer() Lexer {
	return lex.NewLexer(true)
}

// NewParser returns the parser for the most capable table construction this
// package can build for g, trying LALR(1) first, then CLR(1), then SLR(1),
// then LR(0), then falling back to LL(1). Returns an error describing every
// failed attempt if none succeed.
func NewParser(g grammar.Grammar) (Parser, error) {
	var errs []string

	if p, err := NewLALR1Parser(g); err == nil {
		return p, nil
	} else {
		errs = append(errs, fmt.Sprintf("LALR(1): %s", err.Error()))
	}

	if p, err := NewCLR1Parser(g); err == nil {
		return p, nil
	} else {
		errs = append(errs, fmt.Sprintf("CLR(1): %s", err.Error()))
	}

	if p, _, err := NewSLR1Parser(g, false); err == nil {
		return p, nil
	} else {
		errs = append(errs, fmt.Sprintf("SLR(1): %s", err.Error()))
	}

	if p, _, err := NewLR0Parser(g, false); err == nil {
		return p, nil
	} else {
		errs = append(errs, fmt.Sprintf("LR(0): %s", err.Error()))
	}

	if p, err := NewLL1Parser(g); err == nil {
		return p, nil
	} else {
		errs = append(errs, fmt.Sprintf("LL(1): %s", err.Error()))
	}

	return nil, fmt.Errorf("grammar is not parsable by any available table construction:\n%s", strings.Join(errs, "\n"))
}

// NewLALR1Parser returns an LALR(1) parser for g, or an error if g is not
// LALR(1).
func NewLALR1Parser(g grammar.Grammar) (Parser, error) {
	p, err := parse.GenerateLALR1Parser(g)
	return &p, err
}

// NewCLR1Parser returns a canonical-LR(1) parser for g, or an error if g is
// not CLR(1).
func NewCLR1Parser(g grammar.Grammar) (Parser, error) {
	p, err := parse.GenerateCanonicalLR1Parser(g)
	return &p, err
}

// NewSLR1Parser returns an SLR(1) parser for g, or an error if g is not
// SLR(1). allowAmbig and the returned ambiguity warnings behave as in
// parse.GenerateSimpleLRParser.
func NewSLR1Parser(g grammar.Grammar, allowAmbig bool) (Parser, []string, error) {
	return parse.GenerateSimpleLRParser(g, allowAmbig)
}

// NewLR0Parser returns an LR(0) parser for g, or an error if g is not
// LR(0). allowAmbig and the returned ambiguity warnings behave as in
// parse.GenerateLR0Parser.
func NewLR0Parser(g grammar.Grammar, allowAmbig bool) (Parser, []string, error) {
	return parse.GenerateLR0Parser(g, allowAmbig)
}

// NewLL1Parser returns an LL(1) predictive parser for g, or an error if g is
// not LL(1).
func NewLL1Parser(g grammar.Grammar) (Parser, error) {
	return parse.GenerateLL1Parser(g)
}

// NewSDD returns a new, empty Syntax-Directed Definition Scheme.
func NewSDD() SDD {
	return translate.NewSDD()
}

// Frontend is a complete input-to-intermediate-representation compiler
// front-end: it lexes, parses, and then evaluates a syntax-directed
// translation scheme over the resulting parse tree to produce E.
type Frontend[E any] struct {
	Lexer  Lexer
	Parser Parser
	SDT    SDD

	// IRAttribute is the name of the synthesized attribute on the parse
	// tree's root node that Analyze returns as the final intermediate
	// representation.
	IRAttribute translate.NodeAttrName
}

// NewFrontend builds a Frontend from its three analysis phases and the name
// of the root attribute that holds the final intermediate representation.
func NewFrontend[E any](lx Lexer, p Parser, sdt SDD, irAttr translate.NodeAttrName) *Frontend[E] {
	return &Frontend[E]{Lexer: lx, Parser: p, SDT: sdt, IRAttribute: irAttr}
}

// AnalyzeString is Analyze over a string, provided for convenience.
func (fe *Frontend[E]) AnalyzeString(s string) (ir E, err error) {
	return fe.Analyze(strings.NewReader(s))
}

// Analyze runs all three phases of the front-end over the text read from r:
// lexical analysis produces a token stream, syntactic analysis consumes it
// to produce a parse tree, and semantic analysis evaluates fe.SDT over that
// tree to produce the final intermediate representation.
func (fe *Frontend[E]) Analyze(r io.Reader) (ir E, err error) {
	tokStream, err := fe.Lexer.Lex(r)
	if err != nil {
		return ir, err
	}

	parseTree, err := fe.Parser.Parse(tokStream)
	if err != nil {
		return ir, err
	}

	attrVals, err := fe.SDT.Evaluate(parseTree, fe.IRAttribute)
	if err != nil {
		return ir, err
	}

	if len(attrVals) != 1 {
		return ir, fmt.Errorf("requested final IR attribute %q from root node but got %d values back", fe.IRAttribute, len(attrVals))
	}

	irUncast := attrVals[0]
	ir, ok := irUncast.(E)
	if !ok {
		irType := reflect.TypeOf(ir).Name()
		actualType := reflect.TypeOf(irUncast).Name()
		return ir, fmt.Errorf("expected final IR attribute %q to be of type %q at the root node, but result was of type %q", fe.IRAttribute, irType, actualType)
	}

	return ir, nil
}
