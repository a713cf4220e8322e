package grammar

// mustParseRule parses a single rule of the form "NONTERM -> ALT1 | ALT2",
// panicking on failure. Used by tests to build expected Rule values tersely.
func mustParseRule(s string) Rule {
	r, err := parseRuleText(s)
	if err != nil {
		panic(err.Error())
	}
	return r
}
