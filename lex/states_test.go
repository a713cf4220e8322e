package lex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/ictiobus/types"
)

var (
	testClassNumber          = NewTokenClass("number", "number")
	testClassNumberInComment = NewTokenClass("number-in-comment", "number found inside a comment")
)

// commentLexer builds a lexer with an exclusive "comment" start condition:
// "/*" pushes into it, "*/" pops back out, and digits lex differently
// depending on whether the comment state is active.
func commentLexer(t *testing.T) Lexer {
	lx := NewLexer(true)
	lx.RegisterClass(testClassNumber, "")
	lx.RegisterClass(testClassNumberInComment, "")

	if err := lx.AddMacro("DIGIT", `[0-9]+`); err != nil {
		t.Fatalf("AddMacro: %v", err)
	}

	lx.DefineState("comment", true)

	mustAdd := func(pat string, act Action, forState string) {
		if err := lx.AddPattern(pat, act, forState); err != nil {
			t.Fatalf("AddPattern(%q, forState=%q): %v", pat, forState, err)
		}
	}

	// whitespace is skipped in every state, active or not
	mustAdd(`\s+`, Discard(), "*")

	// entering/leaving the comment state never emits a token
	mustAdd(`/\*`, PushState("comment"), "")
	mustAdd(`\*/`, PopState(), "comment")

	// the same lexeme shape means two different things depending on state
	mustAdd(`{DIGIT}`, LexAs(testClassNumber.ID()), "")
	mustAdd(`{DIGIT}`, LexAs(testClassNumberInComment.ID()), "comment")

	return lx
}

func drainClasses(t *testing.T, stream types.TokenStream) []string {
	var got []string
	for stream.HasNext() {
		tok := stream.Next()
		got = append(got, tok.Class().ID())
		if tok.Class().ID() == types.TokenError.ID() {
			t.Fatalf("lexer produced error token: %s", tok.Lexeme())
		}
	}
	return got
}

// models scenario S6: a grammar with an exclusive comment state where "/*"
// pushes the state, "*/" pops it, and digits lex as NUMBER_IN_COMMENT while
// inside the comment and NUMBER everywhere else.
func Test_Lexer_StateStack_ExclusiveCommentState(t *testing.T) {
	lx := commentLexer(t)

	stream, err := lx.Lex(strings.NewReader("1 /* 2 */ 3"))
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}

	got := drainClasses(t, stream)

	expect := []string{
		testClassNumber.ID(),
		testClassNumberInComment.ID(),
		testClassNumber.ID(),
		types.TokenEndOfText.ID(),
	}

	assert.Equal(t, expect, got)
}

// a comment with no digits inside it should push and pop cleanly without
// producing any token for the delimiters themselves.
func Test_Lexer_StateStack_EmptyComment(t *testing.T) {
	lx := commentLexer(t)

	stream, err := lx.Lex(strings.NewReader("7 /* */ 8"))
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}

	got := drainClasses(t, stream)

	expect := []string{
		testClassNumber.ID(),
		testClassNumber.ID(),
		types.TokenEndOfText.ID(),
	}

	assert.Equal(t, expect, got)
}

// nested pushes of the same exclusive state must be popped back out in
// order; popping past the last remaining state is a no-op rather than a
// panic, since INITIAL can never be popped away.
func Test_Lexer_StateStack_PopOnlyOneLevelAtATime(t *testing.T) {
	lx := NewLexer(true)
	lx.RegisterClass(testClassNumber, "")

	mustAdd := func(pat string, act Action, forState string) {
		if err := lx.AddPattern(pat, act, forState); err != nil {
			t.Fatalf("AddPattern(%q, forState=%q): %v", pat, forState, err)
		}
	}

	lx.DefineState("nested", true)
	mustAdd(`\s+`, Discard(), "*")
	mustAdd(`\(`, PushState("nested"), "")
	mustAdd(`\(`, PushState("nested"), "nested")
	mustAdd(`\)`, PopState(), "nested")
	mustAdd(`[0-9]+`, LexAs(testClassNumber.ID()), "nested")

	stream, err := lx.Lex(strings.NewReader("( ( 5 ) )"))
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}

	got := drainClasses(t, stream)
	assert.Equal(t, []string{testClassNumber.ID(), types.TokenEndOfText.ID()}, got)
}

// a skip handler (Discard) inside an exclusive state must keep lexing in
// that same state rather than falling back to INITIAL's rules.
func Test_Lexer_StateStack_DiscardStaysInState(t *testing.T) {
	lx := commentLexer(t)

	stream, err := lx.Lex(strings.NewReader("/*    4 */"))
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}

	got := drainClasses(t, stream)
	assert.Equal(t, []string{testClassNumberInComment.ID(), types.TokenEndOfText.ID()}, got)
}

// macro expansion must substitute named fragments before the pattern is
// compiled, including a macro that itself references another macro.
func Test_Lexer_MacroExpansion_Nested(t *testing.T) {
	lx := NewLexer(true)
	lx.RegisterClass(testClassNumber, "")

	if err := lx.AddMacro("DIGIT", `[0-9]`); err != nil {
		t.Fatalf("AddMacro(DIGIT): %v", err)
	}
	if err := lx.AddMacro("INT", `{DIGIT}+`); err != nil {
		t.Fatalf("AddMacro(INT): %v", err)
	}
	if err := lx.AddPattern(`{INT}`, LexAs(testClassNumber.ID()), ""); err != nil {
		t.Fatalf("AddPattern: %v", err)
	}

	stream, err := lx.Lex(strings.NewReader("42"))
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}

	got := drainClasses(t, stream)
	assert.Equal(t, []string{testClassNumber.ID(), types.TokenEndOfText.ID()}, got)
}

// a self-referencing macro must be rejected at AddMacro time rather than
// hanging or panicking during pattern compilation.
func Test_Lexer_MacroExpansion_CycleRejected(t *testing.T) {
	lx := NewLexer(true)

	err := lx.AddMacro("LOOP", `{LOOP}x`)
	assert.Error(t, err)
}

// a multi-token action must return its first class immediately and queue
// the rest, all sharing the triggering lexeme, before any further input is
// consumed.
func Test_Lexer_MultiTokenAction_QueuesRemainder(t *testing.T) {
	lx := NewLexer(true)
	lx.RegisterClass(testClassNumber, "")
	lx.RegisterClass(testClassNumberInComment, "")

	if err := lx.AddPattern(`[0-9]+`, LexAsMulti(testClassNumber.ID(), testClassNumberInComment.ID()), ""); err != nil {
		t.Fatalf("AddPattern: %v", err)
	}

	stream, err := lx.Lex(strings.NewReader("9"))
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}

	first := stream.Next()
	assert.Equal(t, testClassNumber.ID(), first.Class().ID())
	assert.Equal(t, "9", first.Lexeme())

	second := stream.Next()
	assert.Equal(t, testClassNumberInComment.ID(), second.Class().ID())
	assert.Equal(t, "9", second.Lexeme())

	eot := stream.Next()
	assert.Equal(t, types.TokenEndOfText.ID(), eot.Class().ID())
}
