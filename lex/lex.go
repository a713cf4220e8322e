package lex

import (
	"fmt"
	"io"
	"regexp"
	"sort"

	"github.com/dekarrin/ictiobus/types"
)

// patAct is one compiled lex rule: its source pattern (after macro
// expansion), the action to take on match, the start conditions it is
// declared under, and the priority used to break same-length match ties.
type patAct struct {
	src      string
	act      Action
	priority int

	// forState is exactly what was passed to AddPattern: "" (no start
	// condition, applies to every inclusive state), a named state, or "*"
	// (applies to every state regardless of inclusive/exclusive).
	forState string
}

// Lexer builds up a tokenizer specification (lex rules, macros, classes,
// and start conditions) and produces a types.TokenStream over input once
// the specification is complete.
type Lexer interface {
	// Lex returns a token stream. If the Lexer was created with lazy
	// tokenization, errors surface as error-class tokens at the point in
	// the stream where they occur; otherwise all input is tokenized
	// up-front and an error is returned immediately if lexing fails.
	Lex(input io.Reader) (types.TokenStream, error)

	// RegisterClass makes a token class available for use in a pattern's
	// Action. forState is reserved for future per-state class scoping;
	// classes are currently registered globally regardless of its value.
	RegisterClass(cl types.TokenClass, forState string)

	// AddMacro defines a named regex fragment that can be referenced as
	// {name} in any pattern passed to AddPattern, including other macros.
	AddMacro(name string, regexFragment string) error

	// DefineState declares a start condition explicitly, marking it
	// exclusive or inclusive (see §3 "Lex grammar"). States referenced by
	// AddPattern but never declared default to inclusive. INITIAL is always
	// inclusive.
	DefineState(name string, exclusive bool)

	// AddPattern adds a lex rule matching pat (after macro expansion),
	// active under the given start condition ("" for "no start condition",
	// a named state, or "*" for all states), with the given action. An
	// optional priority overrides the default tie-break order (earliest
	// added wins) when two rules match lexemes of the same length.
	AddPattern(pat string, action Action, forState string, priority ...int) error
}

type lexerTemplate struct {
	lazy bool

	macros map[string]string

	allPatterns  []patAct
	nextPriority int

	classes map[string]types.TokenClass

	// stateExclusive records explicit DefineState calls; states not present
	// here are inclusive by default.
	stateExclusive map[string]bool
	knownStates    map[string]bool
}

// NewLexer creates a new, empty Lexer. If lazy is true, the returned Lexer's
// Lex method tokenizes on demand (errors surface as tokens in the stream);
// otherwise the entire input is tokenized eagerly at Lex-time.
func NewLexer(lazy bool) Lexer {
	return &lexerTemplate{
		lazy:           lazy,
		macros:         map[string]string{},
		classes:        map[string]types.TokenClass{},
		stateExclusive: map[string]bool{},
		knownStates:    map[string]bool{"INITIAL": true},
	}
}

func (lx *lexerTemplate) Lex(input io.Reader) (types.TokenStream, error) {
	if lx.lazy {
		return lx.LazyLex(input)
	}
	return lx.ImmediatelyLex(input)
}

// RegisterClass adds the given token class to the lexer, making it
// available for use in the Action of an AddPattern call. If the given token
// class's ID() matches one already registered, the new one replaces it.
func (lx *lexerTemplate) RegisterClass(cl types.TokenClass, forState string) {
	lx.classes[cl.ID()] = cl
}

// AddMacro defines {name} as regexFragment for later expansion in pattern
// source text. Macros may reference other macros; cycles are rejected.
func (lx *lexerTemplate) AddMacro(name string, regexFragment string) error {
	if name == "" {
		return fmt.Errorf("macro name cannot be empty")
	}
	lx.macros[name] = regexFragment

	// make sure this doesn't introduce a cycle by trying a bounded expansion
	// of the newly added (or updated) macro right away.
	if _, err := expandMacros(fmt.Sprintf("{%s}", name), lx.macros); err != nil {
		delete(lx.macros, name)
		return err
	}

	return nil
}

// DefineState declares forState's inclusive/exclusive start-condition
// behavior explicitly (see §3 "Lex grammar").
func (lx *lexerTemplate) DefineState(name string, exclusive bool) {
	lx.knownStates[name] = true
	lx.stateExclusive[name] = exclusive
}

func (lx *lexerTemplate) AddPattern(pat string, action Action, forState string, priority ...int) error {
	expanded, err := expandMacros(pat, lx.macros)
	if err != nil {
		return err
	}

	compiled, err := regexp.Compile(expanded)
	if err != nil {
		return fmt.Errorf("cannot compile regex: %w", err)
	}
	// compiled is only used here to validate the pattern; the lazy/immediate
	// lexers recompile it as part of a combined per-state "super-pattern".
	_ = compiled

	if action.Type == ActionScan || action.Type == ActionScanAndState {
		if len(action.ClassIDs) == 0 {
			return fmt.Errorf("action emits a token but names no token class")
		}
		for _, id := range action.ClassIDs {
			if _, ok := lx.classes[id]; !ok {
				return fmt.Errorf("%q is not a defined token class on this lexer; add it with RegisterClass first", id)
			}
		}
	}
	if action.Type == ActionState || action.Type == ActionScanAndState {
		switch action.StateOp {
		case StateOpPush, StateOpBegin:
			if action.State == "" {
				return fmt.Errorf("action pushes or begins a state but does not name one")
			}
		case StateOpPop:
			// no target state needed
		default:
			return fmt.Errorf("action includes a state change but specifies no state operation")
		}
	}

	p := lx.nextPriority
	lx.nextPriority++
	if len(priority) > 0 {
		p = priority[0]
	}

	if forState != "" && forState != "*" {
		lx.knownStates[forState] = true
	}

	lx.allPatterns = append(lx.allPatterns, patAct{
		src:      expanded,
		act:      action,
		priority: p,
		forState: forState,
	})

	return nil
}

// expandMacros replaces every {name} occurrence in pat with macros[name],
// repeatedly, until no further expansion is possible. Returns an error if
// expansion does not terminate (a macro cycle) or references an undefined
// macro.
func expandMacros(pat string, macros map[string]string) (string, error) {
	const maxDepth = 32

	ref := regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

	cur := pat
	for depth := 0; depth < maxDepth; depth++ {
		var missing string
		found := false
		next := ref.ReplaceAllStringFunc(cur, func(m string) string {
			name := m[1 : len(m)-1]
			frag, ok := macros[name]
			if !ok {
				missing = name
				return m
			}
			found = true
			return "(?:" + frag + ")"
		})
		if missing != "" {
			return "", fmt.Errorf("undefined macro %q referenced in pattern %q", missing, pat)
		}
		if !found {
			return cur, nil
		}
		cur = next
	}

	return "", fmt.Errorf("macro expansion did not terminate (possible cycle) in pattern %q", pat)
}

// effectivePatterns returns, for the given state, the rules that apply to
// it per the inclusive/exclusive resolution in §3 "Lex grammar", sorted by
// priority (declaration order unless explicitly overridden).
func (lx *lexerTemplate) effectivePatterns(state string) []patAct {
	exclusive := lx.stateExclusive[state]

	var matched []patAct
	for _, p := range lx.allPatterns {
		switch {
		case p.forState == "*":
			matched = append(matched, p)
		case p.forState == state:
			matched = append(matched, p)
		case p.forState == "" && !exclusive:
			matched = append(matched, p)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].priority < matched[j].priority
	})

	return matched
}

// allKnownStates returns every start condition the lexer knows about:
// INITIAL plus any state named in a DefineState or AddPattern call.
func (lx *lexerTemplate) allKnownStates() []string {
	states := make([]string, 0, len(lx.knownStates))
	for s := range lx.knownStates {
		states = append(states, s)
	}
	sort.Strings(states)
	return states
}
