package lex

// ActionType classifies what a rule's Action does with the matched lexeme.
type ActionType int

const (
	// ActionNone discards the lexeme (a skip handler) and continues lexing.
	ActionNone ActionType = iota
	// ActionScan emits one or more tokens for the lexeme.
	ActionScan
	// ActionState performs a start-condition stack operation and emits no
	// token; lexing continues in the (possibly new) state.
	ActionState
	// ActionScanAndState emits one or more tokens and also performs a
	// start-condition stack operation.
	ActionScanAndState
)

// StateOp is a start-condition stack operation a rule handler may perform,
// mirroring the pushState/popState/begin operations of §4.I.
type StateOp int

const (
	// StateOpNone performs no stack operation.
	StateOpNone StateOp = iota
	// StateOpPush pushes State onto the stack, making it the active state.
	StateOpPush
	// StateOpPop pops the stack, returning to the previous state. Popping
	// the last remaining state is a no-op; INITIAL can never be popped away.
	StateOpPop
	// StateOpBegin replaces the top of the stack with State, the
	// single-state "swap" used when a rule doesn't need stack nesting.
	StateOpBegin
)

// Action describes what happens when a lex rule's pattern matches:
// optionally emitting one or more token classes (the first is returned
// immediately, the rest queued for subsequent reads), and optionally
// performing a start-condition stack operation.
type Action struct {
	Type ActionType

	// ClassIDs are the token classes to emit, in order, when Type is
	// ActionScan or ActionScanAndState. The first is returned by this match;
	// any remaining are queued and returned by subsequent calls to Next
	// before further input is consumed.
	ClassIDs []string

	StateOp StateOp
	State   string
}

// PushState returns an Action that pushes toState onto the lexer's
// start-condition stack without emitting a token.
func PushState(toState string) Action {
	return Action{Type: ActionState, StateOp: StateOpPush, State: toState}
}

// PopState returns an Action that pops the lexer's start-condition stack
// without emitting a token.
func PopState() Action {
	return Action{Type: ActionState, StateOp: StateOpPop}
}

// BeginState returns an Action that replaces the current start condition
// with toState without emitting a token.
func BeginState(toState string) Action {
	return Action{Type: ActionState, StateOp: StateOpBegin, State: toState}
}

// LexAs returns an Action that emits a single token of the given class.
func LexAs(classID string) Action {
	return Action{
		Type:     ActionScan,
		ClassIDs: []string{classID},
	}
}

// LexAsMulti returns an Action that emits a token for each given class, in
// order. The first is returned by the match that triggered it; the rest are
// queued and drained by subsequent reads before any further input is
// consumed.
func LexAsMulti(classIDs ...string) Action {
	return Action{
		Type:     ActionScan,
		ClassIDs: append([]string{}, classIDs...),
	}
}

// LexAndPushState returns an Action that emits a token of the given class
// and pushes toState onto the start-condition stack.
func LexAndPushState(classID string, toState string) Action {
	return Action{
		Type:     ActionScanAndState,
		ClassIDs: []string{classID},
		StateOp:  StateOpPush,
		State:    toState,
	}
}

// LexAndPopState returns an Action that emits a token of the given class and
// pops the start-condition stack.
func LexAndPopState(classID string) Action {
	return Action{
		Type:     ActionScanAndState,
		ClassIDs: []string{classID},
		StateOp:  StateOpPop,
	}
}

// LexAndBeginState returns an Action that emits a token of the given class
// and replaces the current start condition with toState.
func LexAndBeginState(classID string, toState string) Action {
	return Action{
		Type:     ActionScanAndState,
		ClassIDs: []string{classID},
		StateOp:  StateOpBegin,
		State:    toState,
	}
}

// Discard returns an Action that drops the matched lexeme and continues
// lexing (a skip handler).
func Discard() Action {
	return Action{}
}
