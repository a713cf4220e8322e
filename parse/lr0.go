package parse

import (
	"fmt"
	"sort"

	"github.com/dekarrin/rosed"
	"github.com/dekarrin/ictiobus/automaton"
	"github.com/dekarrin/ictiobus/grammar"
	"github.com/dekarrin/ictiobus/types"
	"github.com/dekarrin/ictiobus/internal/util"
)

// GenerateLR0Parser returns a parser that uses LR(0) bottom-up parsing to
// parse languages in g. It will return an error if g is not an LR(0)
// grammar.
//
// allowAmbig allows the use of ambiguous grammars; in cases where there is a
// shift-reduce conflict, shift will be preferred. If the grammar is detected
// as ambiguous, the 2nd return value will be filled with each ambiguous case
// detected.
func GenerateLR0Parser(g grammar.Grammar, allowAmbig bool) (*lrParser, []string, error) {
	table, ambigWarns, err := constructLR0ParseTable(g, allowAmbig)
	if err != nil {
		return &lrParser{}, ambigWarns, err
	}

	return &lrParser{table: table, parseType: types.ParserLR0, gram: g}, ambigWarns, nil
}

// constructLR0ParseTable constructs the LR(0) table for G. It augments
// grammar G to produce G', then the canonical collection of sets of LR(0)
// items of G' is used to construct a table with applicable GOTO and ACTION
// columns.
//
// This is the same construction `constructSimpleLRParseTable` uses for
// SLR(1) -- the viable-prefix DFA is identical, since "intuitively, the GOTO
// function is used to define the transitions in the LR(0) automaton for a
// grammar" regardless of which lookahead discipline later reads it -- with
// one rule changed: an item [A -> α.] calls for a reduce on every terminal
// in FOLLOW(A) in the SLR(1) construction, but on every terminal (plus $) in
// the LR(0) construction, since LR(0) makes its reduce/shift decision from
// the item set alone and never consults a lookahead set. A grammar where two
// items in the same state both call for a complete (and differing) action on
// the same symbol this way is not an LR(0) grammar.
//
// allowAmbig allows the use of an ambiguous grammar; in this case,
// shift/reduce conflicts are resolved by preferring shift. Grammars which
// result in reduce/reduce conflicts will still be rejected. If the grammar
// is detected as ambiguous, the 2nd arg 'ambiguity warnings' will be filled
// with each ambiguous case detected.
func constructLR0ParseTable(g grammar.Grammar, allowAmbig bool) (LRParseTable, []string, error) {
	lr0Automaton := automaton.NewLR0ViablePrefixNFA(g).ToDFA()
	lr0Automaton.NumberStates()

	table := &lr0Table{
		gPrime:     g.Augmented(),
		gStart:     g.StartSymbol(),
		gTerms:     g.Terminals(),
		gNonTerms:  g.NonTerminals(),
		lr0:        *lr0Automaton,
		itemCache:  map[string]grammar.LR0Item{},
		allowAmbig: allowAmbig,
	}

	for _, item := range table.gPrime.LR0Items() {
		table.itemCache[item.String()] = item
	}

	// check ahead to see if we would get conflicts in the ACTION function
	var ambigWarns []string
	allTermsAndEnd := append(append([]string{}, table.gPrime.Terminals()...), "$")
	for i := range lr0Automaton.States() {
		for _, a := range allTermsAndEnd {
			itemSet := table.lr0.GetValue(i)
			var matchFound bool
			var act LRAction
			for itemStr := range itemSet {
				item := table.itemCache[itemStr]
				A := item.NonTerminal
				alpha := item.Left

				if next, ok := item.NextSymbol(); a != "$" && table.gPrime.IsTerminal(a) && ok && next == a {
					j, err := table.Goto(i, a)
					if err == nil {
						shiftAct := LRAction{Type: LRShift, State: j}
						if matchFound && !shiftAct.Equal(act) {
							if allowAmbig {
								act = shiftAct
								ambigWarns = append(ambigWarns, makeLRConflictError(act, shiftAct, a).Error())
							} else {
								return nil, ambigWarns, fmt.Errorf("grammar is not LR(0): %w", makeLRConflictError(act, shiftAct, a))
							}
						} else {
							act = shiftAct
							matchFound = true
						}
					}
				}

				// the defining difference from SLR(1): reduce on every
				// terminal (and end-of-input), not just FOLLOW(A).
				if item.IsComplete() && A != table.gPrime.StartSymbol() {
					reduceAct := LRAction{Type: LRReduce, Symbol: A, Production: grammar.Production(alpha)}
					if matchFound && !reduceAct.Equal(act) {
						if isSRConflict, _ := isShiftReduceConlict(act, reduceAct); isSRConflict && allowAmbig {
							ambigWarns = append(ambigWarns, makeLRConflictError(act, reduceAct, a).Error())
						} else {
							return nil, ambigWarns, fmt.Errorf("grammar is not LR(0): %w", makeLRConflictError(act, reduceAct, a))
						}
					} else {
						act = reduceAct
						matchFound = true
					}
				}

				if a == "$" && A == table.gPrime.StartSymbol() && len(alpha) == 1 && alpha[0] == table.gStart && item.IsComplete() {
					newAct := LRAction{Type: LRAccept}
					if matchFound && !newAct.Equal(act) {
						return nil, ambigWarns, fmt.Errorf("grammar is not LR(0): %w", makeLRConflictError(act, newAct, a))
					}
					act = newAct
					matchFound = true
				}
			}
		}
	}

	return table, ambigWarns, nil
}

type lr0Table struct {
	gPrime     grammar.Grammar
	gStart     string
	lr0        automaton.DFA[util.SVSet[grammar.LR0Item]]
	itemCache  map[string]grammar.LR0Item
	gTerms     []string
	gNonTerms  []string
	allowAmbig bool
}

func (t *lr0Table) GetDFA() automaton.DFA[util.StringSet] {
	return automaton.TransformDFA(t.lr0, func(old util.SVSet[grammar.LR0Item]) util.StringSet {
		newSet := util.NewStringSet()

		for _, name := range old.Elements() {
			item := old.Get(name)
			newSet.Add(item.String())
		}

		return newSet
	})
}

func (t *lr0Table) String() string {
	stateRefs := map[string]string{}

	stateNames := t.lr0.States().Elements()
	sort.Strings(stateNames)

	for i := range stateNames {
		if stateNames[i] == t.lr0.Start {
			old := stateNames[0]
			stateNames[0] = stateNames[i]
			stateNames[i] = old
			break
		}
	}
	for i := range stateNames {
		stateRefs[stateNames[i]] = fmt.Sprintf("%d", i)
	}

	allTerms := make([]string, len(t.gTerms))
	copy(allTerms, t.gTerms)
	allTerms = append(allTerms, "$")

	data := [][]string{}

	headers := []string{"S", "|"}
	for _, term := range allTerms {
		headers = append(headers, fmt.Sprintf("A:%s", term))
	}
	headers = append(headers, "|")
	for _, nt := range t.gNonTerms {
		headers = append(headers, fmt.Sprintf("G:%s", nt))
	}
	data = append(data, headers)

	for stateIdx := range stateNames {
		i := stateNames[stateIdx]
		row := []string{stateRefs[i], "|"}

		for _, term := range allTerms {
			act := t.Action(i, term)

			cell := ""
			switch act.Type {
			case LRAccept:
				cell = "acc"
			case LRReduce:
				cell = fmt.Sprintf("r%s -> %s", act.Symbol, act.Production.String())
			case LRShift:
				cell = fmt.Sprintf("s%s", stateRefs[act.State])
			case LRError:
				// blank
			}

			row = append(row, cell)
		}

		row = append(row, "|")

		for _, nt := range t.gNonTerms {
			cell := ""
			gotoState, err := t.Goto(i, nt)
			if err == nil {
				cell = stateRefs[gotoState]
			}
			row = append(row, cell)
		}

		data = append(data, row)
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 10, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}

func (t *lr0Table) Initial() string {
	return t.lr0.Start
}

func (t *lr0Table) Goto(state, symbol string) (string, error) {
	newState := t.lr0.Next(state, symbol)

	if newState == "" {
		return "", fmt.Errorf("GOTO[%q, %q] is an error entry", state, symbol)
	}
	return newState, nil
}

// Action computes ACTION[i, a] under the LR(0) rule: unlike SLR(1), a
// complete item [A -> α.] calls for "reduce A -> α" on every terminal and
// end-of-input, without consulting FOLLOW(A).
func (t *lr0Table) Action(i, a string) LRAction {
	itemSet := t.lr0.GetValue(i)

	var alreadySet bool
	var act LRAction

	for itemStr := range itemSet {
		item := t.itemCache[itemStr]

		A := item.NonTerminal
		alpha := item.Left

		if next, ok := item.NextSymbol(); a != "$" && t.gPrime.IsTerminal(a) && ok && next == a {
			j, err := t.Goto(i, a)
			if err == nil {
				shiftAct := LRAction{Type: LRShift, State: j}
				if alreadySet && !shiftAct.Equal(act) {
					if t.allowAmbig {
						act = shiftAct
					} else {
						panic(fmt.Sprintf("grammar is not LR(0): %s", makeLRConflictError(act, shiftAct, a).Error()))
					}
				} else {
					act = shiftAct
					alreadySet = true
				}
			}
		}

		if item.IsComplete() && A != t.gPrime.StartSymbol() {
			reduceAct := LRAction{Type: LRReduce, Symbol: A, Production: grammar.Production(alpha)}
			if alreadySet && !reduceAct.Equal(act) {
				if isSRConflict, _ := isShiftReduceConlict(act, reduceAct); isSRConflict && t.allowAmbig {
					// already set to shift; leave it
				} else {
					panic(fmt.Sprintf("grammar is not LR(0): %s", makeLRConflictError(act, reduceAct, a).Error()))
				}
			} else {
				act = reduceAct
				alreadySet = true
			}
		}

		if a == "$" && A == t.gPrime.StartSymbol() && len(alpha) == 1 && alpha[0] == t.gStart && item.IsComplete() {
			acceptAct := LRAction{Type: LRAccept}
			if alreadySet && !acceptAct.Equal(act) {
				panic(fmt.Sprintf("grammar is not LR(0): %s", makeLRConflictError(act, acceptAct, a).Error()))
			}
			act = acceptAct
			alreadySet = true
		}
	}

	if !alreadySet {
		act.Type = LRError
	}

	return act
}
