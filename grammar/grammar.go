// Package grammar defines context-free grammars and the classic
// compiler-construction algorithms used to analyze and transform them:
// normalization (epsilon, unit-production, and left-recursion elimination,
// left-factoring), FIRST/FOLLOW set computation, LL(1) table construction,
// and the LR(0)/LR(1) item closures used by the automaton package to build
// viable-prefix recognizers.
package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/dekarrin/ictiobus/internal/util"
	"github.com/dekarrin/ictiobus/types"
)

// Production is the right-hand side of a grammar rule: a sequence of
// terminal and non-terminal symbols. The empty string is used as a stand-in
// for epsilon at the individual-symbol level.
type Production []string

// Epsilon is the production consisting of a single empty-string symbol,
// representing the empty string.
var Epsilon = Production{""}

// Error is the zero-value Production, returned by table lookups that have
// no entry. It is distinguished from Epsilon by length (Error has none).
var Error Production

// Equal returns whether p is equal to o, which must be a Production or
// *Production to be considered for equality.
func (p Production) Equal(o any) bool {
	other, ok := o.(Production)
	if !ok {
		otherPtr, ok := o.(*Production)
		if !ok {
			return false
		}
		if otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Copy returns a deep copy of p.
func (p Production) Copy() Production {
	cp := make(Production, len(p))
	copy(cp, p)
	return cp
}

// String shows the production as space-separated symbols, or "ε" for the
// epsilon production.
func (p Production) String() string {
	if p.Equal(Epsilon) {
		return "ε"
	}
	return strings.Join(p, " ")
}

// Rule is a single non-terminal and all of the alternative productions it
// may expand to.
type Rule struct {
	NonTerminal string
	Productions []Production
}

// Equal returns whether r is equal to o, including the exact order of
// alternative productions.
func (r Rule) Equal(o any) bool {
	other, ok := o.(Rule)
	if !ok {
		otherPtr, ok := o.(*Rule)
		if !ok {
			return false
		}
		if otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if r.NonTerminal != other.NonTerminal {
		return false
	}
	if len(r.Productions) != len(other.Productions) {
		return false
	}
	for i := range r.Productions {
		if !r.Productions[i].Equal(other.Productions[i]) {
			return false
		}
	}
	return true
}

// Copy returns a deep copy of r.
func (r Rule) Copy() Rule {
	cp := Rule{NonTerminal: r.NonTerminal, Productions: make([]Production, len(r.Productions))}
	for i := range r.Productions {
		cp.Productions[i] = r.Productions[i].Copy()
	}
	return cp
}

func (r Rule) String() string {
	alts := make([]string, len(r.Productions))
	for i := range r.Productions {
		alts[i] = r.Productions[i].String()
	}
	return fmt.Sprintf("%s -> %s", r.NonTerminal, strings.Join(alts, " | "))
}

// Grammar is a context-free grammar: a set of rules, each with one or more
// productions, plus the terminal symbols those productions may reference.
// The zero value is an empty, usable Grammar.
type Grammar struct {
	rules       []Rule
	ruleIndexes map[string]int
	terminals   map[string]types.TokenClass
}

// AddTerm registers a terminal symbol under the given ID with its token
// class.
func (g *Grammar) AddTerm(id string, cl types.TokenClass) {
	if g.terminals == nil {
		g.terminals = map[string]types.TokenClass{}
	}
	g.terminals[id] = cl
}

// AddRule adds prod as an alternative of nt, creating the rule for nt if it
// doesn't already exist. Exact duplicate alternatives are ignored.
func (g *Grammar) AddRule(nt string, prod Production) {
	if g.ruleIndexes == nil {
		g.ruleIndexes = map[string]int{}
	}
	idx, ok := g.ruleIndexes[nt]
	if !ok {
		g.rules = append(g.rules, Rule{NonTerminal: nt})
		idx = len(g.rules) - 1
		g.ruleIndexes[nt] = idx
	}

	for _, existing := range g.rules[idx].Productions {
		if existing.Equal(prod) {
			return
		}
	}
	g.rules[idx].Productions = append(g.rules[idx].Productions, prod)
}

// Rule returns the rule for nt, or the zero-value Rule if nt has none.
func (g Grammar) Rule(nt string) Rule {
	idx, ok := g.ruleIndexes[nt]
	if !ok {
		return Rule{}
	}
	return g.rules[idx]
}

// NonTerminals returns every non-terminal defined in g, sorted
// alphabetically.
func (g Grammar) NonTerminals() []string {
	nts := make([]string, 0, len(g.rules))
	for _, r := range g.rules {
		nts = append(nts, r.NonTerminal)
	}
	sort.Strings(nts)
	return nts
}

// Terminals returns every terminal registered in g, sorted alphabetically.
func (g Grammar) Terminals() []string {
	terms := make([]string, 0, len(g.terminals))
	for k := range g.terminals {
		terms = append(terms, k)
	}
	sort.Strings(terms)
	return terms
}

// orderedNonTerminals returns non-terminals in the order their rules were
// first added, used by algorithms (left-recursion elimination, left
// factoring) that need a stable processing order rather than a sorted one.
func (g Grammar) orderedNonTerminals() []string {
	nts := make([]string, len(g.rules))
	for i, r := range g.rules {
		nts[i] = r.NonTerminal
	}
	return nts
}

// IsNonTerminal returns whether sym is used as the left-hand side of some
// rule in g.
func (g Grammar) IsNonTerminal(sym string) bool {
	_, ok := g.ruleIndexes[sym]
	return ok
}

// IsTerminal returns whether sym is not a non-terminal of g.
func (g Grammar) IsTerminal(sym string) bool {
	return !g.IsNonTerminal(sym)
}

func (g Grammar) hasTerminal(sym string) bool {
	_, ok := g.terminals[sym]
	return ok
}

// Term retrieves the token class registered for terminal id.
func (g Grammar) Term(id string) types.TokenClass {
	return g.terminals[id]
}

// TermFor returns the terminal ID registered for the given token class. If
// no terminal is registered for it, cl.ID() is returned.
func (g Grammar) TermFor(cl types.TokenClass) string {
	if existing, ok := g.terminals[cl.ID()]; ok && existing.Equal(cl) {
		return cl.ID()
	}
	for id, c := range g.terminals {
		if c.Equal(cl) {
			return id
		}
	}
	return cl.ID()
}

// StartSymbol returns the non-terminal of the first rule added to g.
func (g Grammar) StartSymbol() string {
	if len(g.rules) == 0 {
		return ""
	}
	return g.rules[0].NonTerminal
}

// Copy returns a deep copy of g.
func (g Grammar) Copy() Grammar {
	newG := Grammar{
		rules:       make([]Rule, len(g.rules)),
		ruleIndexes: make(map[string]int, len(g.ruleIndexes)),
		terminals:   cloneTerminals(g.terminals),
	}
	for i := range g.rules {
		newG.rules[i] = g.rules[i].Copy()
	}
	for k, v := range g.ruleIndexes {
		newG.ruleIndexes[k] = v
	}
	return newG
}

func cloneTerminals(m map[string]types.TokenClass) map[string]types.TokenClass {
	if m == nil {
		return nil
	}
	out := make(map[string]types.TokenClass, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// generateUniqueName returns a name derived from base that is not currently
// in use as either a non-terminal or a terminal of g, by repeatedly
// appending "-P" until no collision remains.
func (g Grammar) generateUniqueName(base string) string {
	candidate := base + "-P"
	for g.IsNonTerminal(candidate) || g.hasTerminal(candidate) {
		candidate += "-P"
	}
	return candidate
}

// GenerateUniqueTerminal returns a terminal ID derived from prefix that does
// not collide with any terminal or non-terminal currently in g.
func (g Grammar) GenerateUniqueTerminal(prefix string) string {
	candidate := prefix
	for g.hasTerminal(candidate) || g.IsNonTerminal(candidate) {
		candidate += "-P"
	}
	return candidate
}

// Augmented returns a new grammar with a fresh start symbol S' added, whose
// sole production is the old start symbol: S' -> S.
func (g Grammar) Augmented() Grammar {
	augG := g.Copy()
	oldStart := g.StartSymbol()
	newStart := g.generateUniqueName(oldStart)

	augG.rules = append([]Rule{{NonTerminal: newStart, Productions: []Production{{oldStart}}}}, augG.rules...)
	augG.ruleIndexes = map[string]int{}
	for i := range augG.rules {
		augG.ruleIndexes[augG.rules[i].NonTerminal] = i
	}
	return augG
}

// Validate checks that g has at least one rule and at least one terminal.
func (g Grammar) Validate() error {
	if len(g.rules) == 0 {
		return fmt.Errorf("grammar has no rules")
	}
	if len(g.terminals) == 0 {
		return fmt.Errorf("grammar has no terminals")
	}
	return nil
}

func (g Grammar) String() string {
	var sb strings.Builder
	for i, r := range g.rules {
		sb.WriteString(r.String())
		sb.WriteString(" ;")
		if i+1 < len(g.rules) {
			sb.WriteRune('\n')
		}
	}
	return sb.String()
}

// computeNullable returns the set of non-terminals that can derive the
// empty string.
func (g Grammar) computeNullable() util.StringSet {
	nullable := util.NewStringSet()
	changed := true
	for changed {
		changed = false
		for _, r := range g.rules {
			if nullable.Has(r.NonTerminal) {
				continue
			}
			for _, prod := range r.Productions {
				if prod.Equal(Epsilon) {
					nullable.Add(r.NonTerminal)
					changed = true
					break
				}

				allNullable := len(prod) > 0
				for _, sym := range prod {
					if g.IsNonTerminal(sym) && nullable.Has(sym) {
						continue
					}
					allNullable = false
					break
				}
				if allNullable {
					nullable.Add(r.NonTerminal)
					changed = true
					break
				}
			}
		}
	}
	return nullable
}

// RemoveEpsilons returns a new grammar, equivalent to g except that it has
// no epsilon productions (aside from possibly on the start symbol, which is
// not specially preserved here). Every production that had a nullable
// symbol is split into the alternatives obtained by including or excluding
// that symbol, per the standard elimination algorithm (purple dragon book
// algorithm 4.15).
func (g Grammar) RemoveEpsilons() Grammar {
	nullable := g.computeNullable()

	newG := Grammar{terminals: cloneTerminals(g.terminals)}
	for _, r := range g.rules {
		var newProds []Production
		for _, prod := range r.Productions {
			if prod.Equal(Epsilon) {
				continue
			}

			var nullableIdxs []int
			for i, sym := range prod {
				if g.IsNonTerminal(sym) && nullable.Has(sym) {
					nullableIdxs = append(nullableIdxs, i)
				}
			}

			k := len(nullableIdxs)
			for mask := 0; mask < (1 << k); mask++ {
				dropped := map[int]bool{}
				for j := 0; j < k; j++ {
					if mask&(1<<j) != 0 {
						dropped[nullableIdxs[j]] = true
					}
				}

				var built Production
				for i, sym := range prod {
					if dropped[i] {
						continue
					}
					built = append(built, sym)
				}
				if len(built) == 0 {
					continue
				}

				dup := false
				for _, existing := range newProds {
					if existing.Equal(built) {
						dup = true
						break
					}
				}
				if !dup {
					newProds = append(newProds, built)
				}
			}
		}

		for _, p := range newProds {
			newG.AddRule(r.NonTerminal, p)
		}
	}
	return newG
}

// RemoveUnitProductions returns a new grammar with all unit productions
// (A -> B where B is a single non-terminal) replaced by the productions of
// their target, recursively, with cycles broken by skipping any
// non-terminal already being expanded along the current chain. Rules that
// become unreachable from the start symbol as a result are dropped.
func (g Grammar) RemoveUnitProductions() Grammar {
	isUnit := func(prod Production) (string, bool) {
		if len(prod) == 1 && g.IsNonTerminal(prod[0]) {
			return prod[0], true
		}
		return "", false
	}

	var expand func(nt string, visited map[string]bool) []Production
	expand = func(nt string, visited map[string]bool) []Production {
		rule := g.Rule(nt)
		var result []Production
		for _, prod := range rule.Productions {
			if target, ok := isUnit(prod); ok {
				if visited[target] {
					continue
				}
				visited[target] = true
				result = append(result, expand(target, visited)...)
				continue
			}
			result = append(result, prod)
		}
		return result
	}

	expanded := map[string][]Production{}
	for _, r := range g.rules {
		visited := map[string]bool{r.NonTerminal: true}
		prods := expand(r.NonTerminal, visited)
		if len(prods) > 0 {
			expanded[r.NonTerminal] = prods
		}
	}

	start := g.StartSymbol()
	reachable := util.NewStringSet()
	reachable.Add(start)
	queue := []string{start}
	for len(queue) > 0 {
		nt := queue[0]
		queue = queue[1:]
		for _, prod := range expanded[nt] {
			for _, sym := range prod {
				if g.IsNonTerminal(sym) && !reachable.Has(sym) {
					reachable.Add(sym)
					queue = append(queue, sym)
				}
			}
		}
	}

	newG := Grammar{terminals: cloneTerminals(g.terminals)}
	for _, r := range g.rules {
		if !reachable.Has(r.NonTerminal) {
			continue
		}
		prods, ok := expanded[r.NonTerminal]
		if !ok {
			continue
		}
		seen := map[string]bool{}
		for _, p := range prods {
			key := p.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			newG.AddRule(r.NonTerminal, p)
		}
	}
	return newG
}

// RemoveLeftRecursion returns a new grammar, equivalent to g, with direct
// and indirect left recursion eliminated (purple dragon book algorithm
// 4.19). Non-terminals are processed in the reverse of the order their
// rules were added, substituting already-processed non-terminals' current
// productions wherever they lead a production. When a non-terminal's only
// productions are left-recursive (no base case), epsilon is folded directly
// into it rather than generating an otherwise-unreachable helper
// non-terminal. Rules made unreachable by the transform are dropped.
//
// Epsilon productions interfere with left-recursion elimination, so g is
// first run through RemoveEpsilons.
func (g Grammar) RemoveLeftRecursion() Grammar {
	g = g.RemoveEpsilons()

	allNts := g.orderedNonTerminals()
	order := make([]string, len(allNts))
	for i, nt := range allNts {
		order[len(allNts)-1-i] = nt
	}

	usedNames := util.NewStringSet()
	for _, nt := range g.NonTerminals() {
		usedNames.Add(nt)
	}
	for _, t := range g.Terminals() {
		usedNames.Add(t)
	}
	uniqueName := func(base string) string {
		candidate := base + "-P"
		for usedNames.Has(candidate) {
			candidate += "-P"
		}
		usedNames.Add(candidate)
		return candidate
	}

	fixed := map[string][]Production{}
	var helperRules []Rule

	for _, nt := range order {
		rule := g.Rule(nt)
		prods := make([]Production, len(rule.Productions))
		copy(prods, rule.Productions)

		var substituted []Production
		for _, prod := range prods {
			if len(prod) > 0 && g.IsNonTerminal(prod[0]) {
				if headProds, ok := fixed[prod[0]]; ok {
					rest := prod[1:]
					for _, hp := range headProds {
						np := make(Production, 0, len(hp)+len(rest))
						np = append(np, hp...)
						np = append(np, rest...)
						substituted = append(substituted, np)
					}
					continue
				}
			}
			substituted = append(substituted, prod)
		}

		var alpha []Production
		var beta []Production
		for _, prod := range substituted {
			if len(prod) > 0 && prod[0] == nt {
				alpha = append(alpha, prod[1:])
			} else {
				beta = append(beta, prod)
			}
		}

		if len(alpha) == 0 {
			fixed[nt] = substituted
			continue
		}

		if len(beta) == 0 {
			var result []Production
			for _, a := range alpha {
				np := make(Production, 0, len(a)+1)
				np = append(np, a...)
				np = append(np, nt)
				result = append(result, np)
			}
			result = append(result, Epsilon)
			fixed[nt] = result
			continue
		}

		helperName := uniqueName(nt)

		var ntProds []Production
		for _, b := range beta {
			np := make(Production, 0, len(b)+1)
			np = append(np, b...)
			np = append(np, helperName)
			ntProds = append(ntProds, np)
		}
		fixed[nt] = ntProds

		var helperProds []Production
		for _, a := range alpha {
			np := make(Production, 0, len(a)+1)
			np = append(np, a...)
			np = append(np, helperName)
			helperProds = append(helperProds, np)
		}
		helperProds = append(helperProds, Epsilon)
		helperRules = append(helperRules, Rule{NonTerminal: helperName, Productions: helperProds})
		fixed[helperName] = helperProds
	}

	start := g.StartSymbol()
	reachable := util.NewStringSet()
	reachable.Add(start)
	queue := []string{start}
	for len(queue) > 0 {
		nt := queue[0]
		queue = queue[1:]
		for _, prod := range fixed[nt] {
			for _, sym := range prod {
				if _, ok := fixed[sym]; ok && !reachable.Has(sym) {
					reachable.Add(sym)
					queue = append(queue, sym)
				}
			}
		}
	}

	newG := Grammar{terminals: cloneTerminals(g.terminals)}
	for _, r := range g.rules {
		if !reachable.Has(r.NonTerminal) {
			continue
		}
		for _, p := range fixed[r.NonTerminal] {
			newG.AddRule(r.NonTerminal, p)
		}
	}
	for _, hr := range helperRules {
		if !reachable.Has(hr.NonTerminal) {
			continue
		}
		for _, p := range hr.Productions {
			newG.AddRule(hr.NonTerminal, p)
		}
	}
	return newG
}

func commonPrefixLen(a, b Production) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// LeftFactor returns a new grammar, equivalent to g, with productions that
// share a common prefix factored out into a generated helper non-terminal.
// When the shared-prefix group includes a production that is exactly the
// prefix, the helper's epsilon alternative is placed last regardless of
// that production's original position.
func (g Grammar) LeftFactor() Grammar {
	usedNames := util.NewStringSet()
	for _, nt := range g.NonTerminals() {
		usedNames.Add(nt)
	}
	for _, t := range g.Terminals() {
		usedNames.Add(t)
	}
	uniqueName := func(base string) string {
		candidate := base + "-P"
		for usedNames.Has(candidate) {
			candidate += "-P"
		}
		usedNames.Add(candidate)
		return candidate
	}

	newG := Grammar{terminals: cloneTerminals(g.terminals)}
	var helperRules []Rule

	for _, r := range g.rules {
		prods := make([]Production, len(r.Productions))
		copy(prods, r.Productions)

		var result []Production
		used := make([]bool, len(prods))

		for i := range prods {
			if used[i] {
				continue
			}

			group := []int{i}
			prefixLen := len(prods[i])
			for j := i + 1; j < len(prods); j++ {
				if used[j] {
					continue
				}
				common := commonPrefixLen(prods[i], prods[j])
				if common > 0 {
					group = append(group, j)
					if common < prefixLen {
						prefixLen = common
					}
				}
			}

			if len(group) == 1 {
				result = append(result, prods[i])
				used[i] = true
				continue
			}

			for _, gi := range group {
				common := commonPrefixLen(prods[i][:prefixLen], prods[gi])
				if common < prefixLen {
					prefixLen = common
				}
			}

			prefix := make(Production, prefixLen)
			copy(prefix, prods[i][:prefixLen])

			helperName := uniqueName(r.NonTerminal)

			var nonEmptySuffixes []Production
			hasEmptySuffix := false
			for _, gi := range group {
				used[gi] = true
				suffix := prods[gi][prefixLen:]
				if len(suffix) == 0 {
					hasEmptySuffix = true
					continue
				}
				s := make(Production, len(suffix))
				copy(s, suffix)
				nonEmptySuffixes = append(nonEmptySuffixes, s)
			}

			var helperProds []Production
			helperProds = append(helperProds, nonEmptySuffixes...)
			if hasEmptySuffix {
				helperProds = append(helperProds, Epsilon)
			}
			helperRules = append(helperRules, Rule{NonTerminal: helperName, Productions: helperProds})

			factored := append(Production{}, prefix...)
			factored = append(factored, helperName)
			result = append(result, factored)
		}

		for _, p := range result {
			newG.AddRule(r.NonTerminal, p)
		}
	}

	for _, hr := range helperRules {
		for _, p := range hr.Productions {
			newG.AddRule(hr.NonTerminal, p)
		}
	}

	return newG
}

// firstOfSymbol computes FIRST(sym) for a single grammar symbol, guarding
// against infinite recursion on circular productions via visiting.
func (g Grammar) firstOfSymbol(sym string, visiting util.StringSet) util.ISet[string] {
	result := util.NewStringSet()

	if sym == "" {
		result.Add(Epsilon[0])
		return result
	}

	if g.IsTerminal(sym) {
		result.Add(sym)
		return result
	}

	if visiting.Has(sym) {
		return result
	}
	visiting.Add(sym)
	defer visiting.Remove(sym)

	rule := g.Rule(sym)
	for _, prod := range rule.Productions {
		if prod.Equal(Epsilon) {
			result.Add(Epsilon[0])
			continue
		}

		allNullable := true
		for _, s := range prod {
			symFirst := g.firstOfSymbol(s, visiting)
			for _, f := range symFirst.Elements() {
				if f != Epsilon[0] {
					result.Add(f)
				}
			}
			if !symFirst.Has(Epsilon[0]) {
				allNullable = false
				break
			}
		}
		if allNullable {
			result.Add(Epsilon[0])
		}
	}

	return result
}

// firstOfSequence computes FIRST of a sequence of symbols, which contains
// epsilon only if every symbol in the sequence is nullable (or the sequence
// is empty).
func (g Grammar) firstOfSequence(seq []string) util.ISet[string] {
	result := util.NewStringSet()

	if len(seq) == 0 {
		result.Add(Epsilon[0])
		return result
	}

	allNullable := true
	for _, sym := range seq {
		symFirst := g.firstOfSymbol(sym, util.NewStringSet())
		for _, f := range symFirst.Elements() {
			if f != Epsilon[0] {
				result.Add(f)
			}
		}
		if !symFirst.Has(Epsilon[0]) {
			allNullable = false
			break
		}
	}
	if allNullable {
		result.Add(Epsilon[0])
	}

	return result
}

// FIRST computes the FIRST set of sym: the set of terminals (and possibly
// epsilon) that can begin a string derived from sym.
func (g Grammar) FIRST(sym string) util.ISet[string] {
	return g.firstOfSymbol(sym, util.NewStringSet())
}

// computeFollowSets computes, for every symbol appearing anywhere in a
// production (terminal or non-terminal) plus the start symbol, the set of
// terminals that can immediately follow an occurrence of that symbol.
func (g Grammar) computeFollowSets() map[string]util.StringSet {
	follow := map[string]util.StringSet{}

	ensure := func(sym string) {
		if _, ok := follow[sym]; !ok {
			follow[sym] = util.NewStringSet()
		}
	}

	start := g.StartSymbol()
	if start != "" {
		ensure(start)
		follow[start].Add("$")
	}

	for _, r := range g.rules {
		ensure(r.NonTerminal)
		for _, prod := range r.Productions {
			for _, sym := range prod {
				if sym == "" {
					continue
				}
				ensure(sym)
			}
		}
	}

	changed := true
	for changed {
		changed = false
		for _, r := range g.rules {
			for _, prod := range r.Productions {
				for i, sym := range prod {
					if sym == "" {
						continue
					}

					restFirst := g.firstOfSequence(prod[i+1:])
					before := follow[sym].Len()
					for _, f := range restFirst.Elements() {
						if f != Epsilon[0] {
							follow[sym].Add(f)
						}
					}
					if restFirst.Has(Epsilon[0]) || i == len(prod)-1 {
						follow[sym].AddAll(follow[r.NonTerminal])
					}
					if follow[sym].Len() != before {
						changed = true
					}
				}
			}
		}
	}

	return follow
}

// FOLLOW computes the set of terminals that can immediately follow an
// occurrence of sym in some derivation, including "$" if sym can be last in
// a derivation from the start symbol. Unlike the textbook definition, this
// accepts terminal symbols too, returning what can follow that literal
// occurrence.
func (g Grammar) FOLLOW(sym string) util.ISet[string] {
	all := g.computeFollowSets()
	if s, ok := all[sym]; ok {
		return s
	}
	return util.NewStringSet()
}

// IsLL1 returns whether g can be parsed with a single token of lookahead,
// i.e. whether LLParseTable can build a conflict-free table for it.
func (g Grammar) IsLL1() bool {
	_, err := g.LLParseTable()
	return err == nil
}

// LL1Table is a predictive-parsing table mapping a non-terminal and a
// lookahead terminal to the production to apply.
type LL1Table map[string]map[string]Production

// NonTerminals returns the non-terminals that have rows in t, sorted
// alphabetically.
func (t LL1Table) NonTerminals() []string {
	nts := make([]string, 0, len(t))
	for k := range t {
		nts = append(nts, k)
	}
	sort.Strings(nts)
	return nts
}

// Terminals returns every terminal that has an entry in some row of t,
// sorted alphabetically.
func (t LL1Table) Terminals() []string {
	seen := map[string]bool{}
	for _, row := range t {
		for term := range row {
			seen[term] = true
		}
	}
	terms := make([]string, 0, len(seen))
	for k := range seen {
		terms = append(terms, k)
	}
	sort.Strings(terms)
	return terms
}

// Get returns the production to apply for non-terminal nt on lookahead
// term, or Error if there is no entry.
func (t LL1Table) Get(nt, term string) Production {
	row, ok := t[nt]
	if !ok {
		return Error
	}
	prod, ok := row[term]
	if !ok {
		return Error
	}
	return prod
}

func (t LL1Table) String() string {
	nts := t.NonTerminals()
	terms := t.Terminals()

	data := [][]string{}
	headers := []string{"NT", "|"}
	headers = append(headers, terms...)
	data = append(data, headers)

	for _, nt := range nts {
		row := []string{nt, "|"}
		for _, term := range terms {
			p := t.Get(nt, term)
			cell := ""
			if !p.Equal(Error) {
				cell = p.String()
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

// LLParseTable builds the LL(1) predictive parsing table for g. It returns
// an error describing the conflicting entries if g is not LL(1).
func (g Grammar) LLParseTable() (LL1Table, error) {
	table := LL1Table{}
	var conflicts []string

	for _, r := range g.rules {
		nt := r.NonTerminal
		if _, ok := table[nt]; !ok {
			table[nt] = map[string]Production{}
		}

		for _, prod := range r.Productions {
			var firstSet util.ISet[string]
			if prod.Equal(Epsilon) {
				firstSet = util.NewStringSet()
				firstSet.Add(Epsilon[0])
			} else {
				firstSet = g.firstOfSequence(prod)
			}

			for _, a := range firstSet.Elements() {
				if a == Epsilon[0] {
					continue
				}
				if existing, ok := table[nt][a]; ok && !existing.Equal(prod) {
					conflicts = append(conflicts, fmt.Sprintf("%s on %q", nt, a))
					continue
				}
				table[nt][a] = prod
			}

			if firstSet.Has(Epsilon[0]) {
				followSet := g.FOLLOW(nt)
				for _, b := range followSet.Elements() {
					if existing, ok := table[nt][b]; ok && !existing.Equal(prod) {
						conflicts = append(conflicts, fmt.Sprintf("%s on %q", nt, b))
						continue
					}
					table[nt][b] = prod
				}
			}
		}
	}

	if len(conflicts) > 0 {
		return nil, fmt.Errorf("grammar is not LL(1): conflicting entries for %s", strings.Join(conflicts, ", "))
	}

	return table, nil
}

// LR0Items returns every LR(0) item derivable from g's productions: for
// each production, one item per dot position from the start to the end.
func (g Grammar) LR0Items() []LR0Item {
	var items []LR0Item
	for _, r := range g.rules {
		for _, prod := range r.Productions {
			var symbols []string
			if !prod.Equal(Epsilon) {
				symbols = prod
			}
			for dot := 0; dot <= len(symbols); dot++ {
				item := LR0Item{
					NonTerminal: r.NonTerminal,
					Left:        append([]string{}, symbols[:dot]...),
					Right:       append([]string{}, symbols[dot:]...),
				}
				items = append(items, item)
			}
		}
	}
	return items
}

// LR0_CLOSURE computes the closure of a set of LR(0) items: for every item
// with the dot before a non-terminal X, the initial items of every
// production of X are added, repeated until no more items can be added.
func (g Grammar) LR0_CLOSURE(items util.SVSet[LR0Item]) util.SVSet[LR0Item] {
	closure := util.NewSVSet(items)

	updated := true
	for updated {
		updated = false
		for _, item := range closure {
			if len(item.Right) == 0 {
				continue
			}
			X := item.Right[0]
			if !g.IsNonTerminal(X) {
				continue
			}
			for _, gamma := range g.Rule(X).Productions {
				var symbols []string
				if !gamma.Equal(Epsilon) {
					symbols = gamma
				}
				newItem := LR0Item{NonTerminal: X, Right: append([]string{}, symbols...)}
				key := newItem.String()
				if !closure.Has(key) {
					closure.Set(key, newItem)
					updated = true
				}
			}
		}
	}

	return closure
}

// LR0_GOTO computes GOTO(items, X): the closure of the kernel formed by
// moving the dot over X in every item of items that has the dot
// immediately before X.
func (g Grammar) LR0_GOTO(items util.SVSet[LR0Item], X string) util.SVSet[LR0Item] {
	kernel := util.NewSVSet[LR0Item]()
	for _, item := range items {
		if len(item.Right) > 0 && item.Right[0] == X {
			moved := LR0Item{
				NonTerminal: item.NonTerminal,
				Left:        append(append([]string{}, item.Left...), X),
				Right:       append([]string{}, item.Right[1:]...),
			}
			kernel.Set(moved.String(), moved)
		}
	}
	return g.LR0_CLOSURE(kernel)
}

// LR1_CLOSURE computes the closure of a set of LR(1) items, propagating
// lookaheads via FIRST of the remainder-plus-existing-lookahead for each
// newly-added item (purple dragon book algorithm 4.42).
func (g Grammar) LR1_CLOSURE(items util.SVSet[LR1Item]) util.SVSet[LR1Item] {
	closure := util.NewSVSet(items)

	updated := true
	for updated {
		updated = false
		for _, item := range closure {
			if len(item.Right) == 0 {
				continue
			}
			X := item.Right[0]
			if !g.IsNonTerminal(X) {
				continue
			}

			rest := item.Right[1:]

			for _, gamma := range g.Rule(X).Productions {
				var symbols []string
				if !gamma.Equal(Epsilon) {
					symbols = gamma
				}

				seq := append(append([]string{}, rest...), item.Lookahead)
				lookaheads := g.firstOfSequence(seq)

				for _, b := range lookaheads.Elements() {
					if b == Epsilon[0] {
						continue
					}
					newItem := LR1Item{
						LR0Item:   LR0Item{NonTerminal: X, Right: append([]string{}, symbols...)},
						Lookahead: b,
					}
					key := newItem.String()
					if !closure.Has(key) {
						closure.Set(key, newItem)
						updated = true
					}
				}
			}
		}
	}

	return closure
}

// LR1_GOTO computes GOTO(items, X) for a set of LR(1) items: the closure of
// the kernel formed by moving the dot over X in every item of items that
// has the dot immediately before X, preserving lookaheads.
func (g Grammar) LR1_GOTO(items util.SVSet[LR1Item], X string) util.SVSet[LR1Item] {
	kernel := util.NewSVSet[LR1Item]()
	for _, item := range items {
		if len(item.Right) > 0 && item.Right[0] == X {
			moved := LR1Item{
				LR0Item: LR0Item{
					NonTerminal: item.NonTerminal,
					Left:        append(append([]string{}, item.Left...), X),
					Right:       append([]string{}, item.Right[1:]...),
				},
				Lookahead: item.Lookahead,
			}
			kernel.Set(moved.String(), moved)
		}
	}
	return g.LR1_CLOSURE(kernel)
}

// Parse parses grammar text of the form:
//
//	S -> A b | c ;
//	A -> a A | ε ;
//
// into a Grammar. Every symbol on the right-hand side of some rule that is
// never itself used as a left-hand side is automatically registered as a
// terminal with a default token class.
func Parse(s string) (Grammar, error) {
	g := Grammar{}

	ruleTexts := splitRules(s)

	var parsedRules []Rule
	for _, rt := range ruleTexts {
		rt = strings.TrimSpace(rt)
		if rt == "" {
			continue
		}
		r, err := parseRuleText(rt)
		if err != nil {
			return Grammar{}, err
		}
		parsedRules = append(parsedRules, r)
	}

	for _, r := range parsedRules {
		for _, alt := range r.Productions {
			g.AddRule(r.NonTerminal, alt)
		}
	}

	for _, r := range parsedRules {
		for _, alt := range r.Productions {
			for _, sym := range alt {
				if sym == "" {
					continue
				}
				if g.IsNonTerminal(sym) {
					continue
				}
				if g.hasTerminal(sym) {
					continue
				}
				class := types.MakeDefaultClass(sym)
				g.AddTerm(class.ID(), class)
			}
		}
	}

	return g, nil
}

// MustParse is like Parse but panics if s cannot be parsed.
func MustParse(s string) Grammar {
	g, err := Parse(s)
	if err != nil {
		panic(err.Error())
	}
	return g
}

// splitRules splits grammar text on ";" into individual rule texts.
func splitRules(s string) []string {
	return strings.Split(s, ";")
}

// parseRuleText parses a single rule of the form:
//
//	NONTERM -> SYM SYM | SYM | ε
//
// possibly spread across multiple lines with each continuation beginning
// with "|".
func parseRuleText(s string) (Rule, error) {
	sides := strings.SplitN(s, "->", 2)
	if len(sides) != 2 {
		return Rule{}, fmt.Errorf("not a rule of form 'NONTERM -> ALTS': %q", s)
	}

	nt := strings.TrimSpace(sides[0])
	if nt == "" {
		return Rule{}, fmt.Errorf("empty non-terminal name in rule: %q", s)
	}

	altTexts := strings.Split(sides[1], "|")

	r := Rule{NonTerminal: nt}
	for _, altText := range altTexts {
		altText = strings.TrimSpace(altText)
		if altText == "" {
			continue
		}

		if strings.ToLower(altText) == "ε" || altText == "epsilon" {
			r.Productions = append(r.Productions, Epsilon.Copy())
			continue
		}

		fields := strings.Fields(altText)
		var prod Production
		for _, f := range fields {
			if strings.ToLower(f) == "ε" {
				prod = append(prod, "")
				continue
			}
			prod = append(prod, f)
		}
		r.Productions = append(r.Productions, prod)
	}

	return r, nil
}
