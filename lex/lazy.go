package lex

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dekarrin/ictiobus/types"
)

type lazyLex struct {
	// buffered reader that can run regex and retrieve results
	r *regexReader

	// stateStack is the start-condition stack; the active state is always
	// the top. INITIAL is pushed at construction and can never be popped
	// away.
	stateStack []string

	// pending holds tokens queued by a multi-class Action that have not yet
	// been returned; drained before any further input is consumed.
	pending []types.Token

	// track these for placement in tokens, for later error reporting
	curLine     int
	curPos      int
	curFullLine string

	// set to true when the lazyLex has reached end of input, causing all
	// subsequent calls to Next() to return a Token with class
	// types.TokenEndOfText and all subsequent calls to HasNext() to return
	// false.
	done bool

	// panic mode is entered when no lexeme is found; the next call to Next()
	// will begin discarding characters until a valid one is found
	panicMode bool

	// classes mapping, by ID
	classes map[string]types.TokenClass

	// one compiled "super pattern" and matching action list per known state.
	patterns map[string]*regexp.Regexp
	actions  map[string][]Action
}

func (lx *lexerTemplate) LazyLex(input io.Reader) (types.TokenStream, error) {
	// okay, we're going to run some operations on our reader that will require
	// knowing exactly what was read by regex, so wrap our reader in a
	// regexReader, which buffers what it reads

	active := &lazyLex{
		r:          NewRegexReader(input),
		patterns:   make(map[string]*regexp.Regexp),
		actions:    make(map[string][]Action),
		classes:    make(map[string]types.TokenClass),
		stateStack: []string{"INITIAL"},
	}

	// build one "super pattern" per known state, honoring inclusive/exclusive
	// start-condition resolution (see lexerTemplate.effectivePatterns).
	for _, state := range lx.allKnownStates() {
		statePats := lx.effectivePatterns(state)

		var superRegex strings.Builder
		superRegex.WriteString("^(?:")
		stateActions := make([]Action, len(statePats))

		for i := range statePats {
			superRegex.WriteString("(" + statePats[i].src + ")")
			if i+1 < len(statePats) {
				superRegex.WriteRune('|')
			}
			stateActions[i] = statePats[i].act
		}

		superRegex.WriteRune(')')

		compiled, err := regexp.Compile(superRegex.String())
		if err != nil {
			// should never happen; each individual pattern was already
			// validated at AddPattern time
			return nil, fmt.Errorf("composing token regexes for state %q: %w", state, err)
		}

		active.patterns[state] = compiled
		active.actions[state] = stateActions
	}

	for k := range lx.classes {
		active.classes[k] = lx.classes[k]
	}

	// set current line and pos
	active.curLine = 1
	active.curPos = 1

	return active, nil
}

func (lx *lazyLex) currentState() string {
	return lx.stateStack[len(lx.stateStack)-1]
}

func (lx *lazyLex) applyStateOp(act Action) {
	switch act.StateOp {
	case StateOpPush:
		lx.stateStack = append(lx.stateStack, act.State)
	case StateOpPop:
		if len(lx.stateStack) > 1 {
			lx.stateStack = lx.stateStack[:len(lx.stateStack)-1]
		}
	case StateOpBegin:
		lx.stateStack[len(lx.stateStack)-1] = act.State
	}
}

// Next returns the next token in the stream and advances the stream by one
// token. If at the end of the stream, this will return a token whose Class()
// is types.TokenEndOfText. If an error in lexing occurs, it will return a token
// whose Class() is types.TokenError and whose lexeme is a message explaining
// the error.
func (lx *lazyLex) Next() types.Token {
	if len(lx.pending) > 0 {
		tok := lx.pending[0]
		lx.pending = lx.pending[1:]
		return tok
	}

	if lx.done {
		return lx.makeEOTToken()
	}

	var matches []string
	var readError error
	for {
		// re-fetch the pattern/action set every iteration: a StateOp applied
		// earlier in this same loop (e.g. popping out of a comment state to
		// hit a digit the same Next() call must still classify correctly)
		// changes which rule set is active.
		state := lx.currentState()
		pat := lx.patterns[state]
		stateActions := lx.actions[state]

		// retrieve the current matches, discarding runes until we find a match
		// if in panic mode.

		if lx.panicMode {
			for lx.panicMode {
				// track the rune we are dropping to add to source text context
				// tracking
				var ch rune
				ch, _, readError = lx.r.ReadRune()

				if readError != nil {
					return lx.tokenForIOError(readError)
				}

				if ch == '\n' {
					lx.curLine++
					lx.curPos = 0
					lx.curFullLine = ""
				}
				lx.curPos++
				lx.curFullLine += string(ch)

				matches, readError = lx.r.SearchAndAdvance(pat)
				if readError != nil {
					return lx.tokenForIOError(readError)
				}

				if len(matches) > 0 {
					// we found something. exit panic mode and continue
					lx.panicMode = false
				}
			}
		} else {
			matches, readError = lx.r.SearchAndAdvance(pat)
			if readError != nil {
				return lx.tokenForIOError(readError)
			}

			if len(matches) < 1 {
				// no match at start of reader. return an error token and enter
				// panic mode
				lx.panicMode = true
				return lx.makeErrorTokenf("unknown input")
			}
		}

		actionIdx, lexeme := lx.selectMatch(matches)

		// update source text context tracking
		for _, ch := range lexeme {
			if ch == '\n' {
				lx.curLine++
				lx.curPos = 0
				lx.curFullLine = ""
			}
			lx.curPos++

			lx.curFullLine += string(ch)
		}

		action := stateActions[actionIdx]

		switch action.Type {
		case ActionNone:
			// discard the lexeme (do nothing), then keep lexing
		case ActionScan:
			return lx.emit(action.ClassIDs, lexeme)
		case ActionState:
			lx.applyStateOp(action)
		case ActionScanAndState:
			// doing token creation first in case a state shift alters which
			// rule set is in effect for lookahead purposes; the emitted
			// token's own class/value are unaffected either way.
			tok := lx.emit(action.ClassIDs, lexeme)
			lx.applyStateOp(action)
			return tok
		}
	}
}

// emit builds one token per classID sharing the matched lexeme and current
// position, returning the first and queuing the rest in lx.pending.
func (lx *lazyLex) emit(classIDs []string, lexeme string) types.Token {
	first := lx.makeToken(lx.classes[classIDs[0]], lexeme)
	for _, id := range classIDs[1:] {
		lx.pending = append(lx.pending, lx.makeToken(lx.classes[id], lexeme))
	}
	return first
}

// Peek returns the next token in the stream without advancing the stream.
func (lx *lazyLex) Peek() types.Token {
	// preserve all parts of the lexer that might change during a call to Next()
	// so we can restore it afterward
	lx.r.Mark("peek")
	oldStack := append([]string{}, lx.stateStack...)
	oldPending := append([]types.Token{}, lx.pending...)
	oldFullLine := lx.curFullLine
	oldLine := lx.curLine
	oldPos := lx.curPos
	oldDone := lx.done
	oldPanic := lx.panicMode

	// run lexing as normal:
	tok := lx.Next()

	// restore original data
	lx.r.Restore("peek")
	lx.stateStack = oldStack
	lx.pending = oldPending
	lx.curFullLine = oldFullLine
	lx.curLine = oldLine
	lx.curPos = oldPos
	lx.done = oldDone
	lx.panicMode = oldPanic

	// and finally, return the token
	return tok
}

// HasNext returns whether the stream has any additional tokens.
func (lx *lazyLex) HasNext() bool {
	return len(lx.pending) > 0 || !lx.done
}

func (lx *lazyLex) makeToken(class types.TokenClass, lexeme string) types.Token {
	return lexerToken{
		class:   class,
		line:    lx.curFullLine,
		linePos: lx.curPos,
		lineNum: lx.curLine,
		lexed:   lexeme,
	}
}

func (lx *lazyLex) makeEOTToken() types.Token {
	return lx.makeToken(types.TokenEndOfText, "")
}

func (lx *lazyLex) makeErrorTokenf(formatMsg string, args ...any) types.Token {
	msg := fmt.Sprintf(formatMsg, args...)
	return lx.makeToken(types.TokenError, msg)
}

// token for read error takes the given error returned from an I/O operation,
// sets state on lx based on whether the error is io.EOF or some other error,
// then returns a token appropriate for the error, either one of class
// types.TokenEndOfText for io.EOF or types.TokenError for all other errors.
func (lx *lazyLex) tokenForIOError(err error) types.Token {
	lx.done = true

	if err == io.EOF {
		lx.panicMode = false
		return lx.makeEOTToken()
	}
	return lx.makeErrorTokenf("I/O error: %s", err.Error())
}

// select match from slice of all regex matches. If there is exactly 1 match,
// return that. assumes that the first element of candidates is a 'full match'
// and therefore useless, and that blank entries in subsequent indexes indicates
// non-match.
//
// Returns the index of the action associated with the match, and the match
// itself.
func (lx *lazyLex) selectMatch(candidates []string) (int, string) {
	// we now have our list of matches. which sub-expression(s) matched?
	// (and consider a blank match to be 'no match' at this time)
	// TODO: distinguish between blank match and no match in regexReader.

	// toss them all into a 'sparse array' at their index-1 so they have
	// direct correspondance to the index of the action they imply.
	subExprMatches := map[int]string{}
	for i := 1; i < len(candidates); i++ {
		if candidates[i] != "" {
			subExprMatches[i-1] = candidates[i]
		}
	}

	// do we have a conflict between two lexemes? if so, do gnu lex style
	// resolution: prefer the longer one, and if all are equal, prefer the
	// one with highest priority (lowest priority number).
	if len(subExprMatches) > 1 {
		// find the longest length
		var longest int
		for i := range subExprMatches {
			m := subExprMatches[i]
			runeCount := utf8.RuneCountInString(m)
			if runeCount > longest {
				longest = runeCount
			}
		}

		// eliminate all but the longest length one(s)
		keep := map[int]string{}
		for i := range subExprMatches {
			m := subExprMatches[i]
			runeCount := utf8.RuneCountInString(m)
			if runeCount == longest {
				keep[i] = m
			}
		}
		subExprMatches = keep

		// do we still have multiple matches? if so, take the one that was
		// declared first (lowest action-list index, which is already
		// sorted by priority)
		if len(subExprMatches) > 1 {
			lowestIndex := math.MaxInt
			for i := range subExprMatches {
				if i < lowestIndex {
					lowestIndex = i
				}
			}

			keep := map[int]string{
				lowestIndex: subExprMatches[lowestIndex],
			}
			subExprMatches = keep
		}
	}

	// we now have exactly one candidate match in our map, so iteration will
	// give us this value

	var matchIndex int
	var matchText string
	for i := range subExprMatches {
		matchIndex = i
		matchText = subExprMatches[i]
		break
	}

	return matchIndex, matchText
}
