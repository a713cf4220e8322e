/*
Ictcc compiles a context-free grammar into a parser, or drives one
in-process for inspection and debugging.

Usage:

	ictcc --grammar FILE [flags]
	ictcc interactive --grammar FILE [flags]

The flags are:

	-g, --grammar FILE
		Read the grammar from FILE. Required unless a config file supplies
		it.

	-m, --mode MODE
		Parsing mode to build: one of LR0, SLR1, LALR1, CLR1, LL1. Defaults
		to LALR1.

	-o, --output FILE
		Write the generated table (or, with --parse, the resulting parse
		tree) to FILE instead of stdout.

	--loc
		Include line/char position info in output, e.g. a cursor under the
		offending token of a syntax error.

	--resolve-conflicts
		Allow an ambiguous grammar in LR0 and SLR1 mode by preferring shift
		over reduce; has no effect in LALR1, CLR1, or LL1 mode, since those
		constructions do not accept an ambiguity-resolution parameter.

	--custom-tokenizer FILE
		Use the tokenizer rules in FILE instead of the built-in default
		whitespace-delimited literal tokenizer.

	--parse TEXT
		Parse TEXT with the generated parser and print the resulting parse
		tree.

	--table
		Print the parsing table.

	--collection
		Print the canonical collection of LR items backing the table. Not
		applicable in LL1 mode.

	--file FILE
		Equivalent to --output FILE; kept as a separate flag name for
		parity with scripts that pass it explicitly.

Exit code is 0 on success, non-zero if the grammar is malformed, the table
construction reports a conflict, or --parse fails with a syntax error.

Defaults for any of the above may also be supplied via a TOML config file
named .ictcc.toml in the current directory; explicit flags always take
precedence over it.
*/
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/chzyer/readline"
	"github.com/spf13/pflag"

	"github.com/dekarrin/ictiobus/automaton"
	"github.com/dekarrin/ictiobus/grammar"
	"github.com/dekarrin/ictiobus/icterrors"
	"github.com/dekarrin/ictiobus/internal/util"
	"github.com/dekarrin/ictiobus/lex"
	"github.com/dekarrin/ictiobus/parse"
	"github.com/dekarrin/ictiobus/types"
)

const (
	ExitSuccess = iota
	ExitUsageError
	ExitGrammarError
	ExitParseError
)

const configFileName = ".ictcc.toml"

// fileConfig holds the subset of flags that may be defaulted from
// .ictcc.toml. Flags given explicitly on the command line override it.
type fileConfig struct {
	Grammar          string `toml:"grammar"`
	Mode             string `toml:"mode"`
	ResolveConflicts bool   `toml:"resolve_conflicts"`
	Loc              bool   `toml:"loc"`
	CustomTokenizer  string `toml:"custom_tokenizer"`
}

var (
	flagGrammar   = pflag.StringP("grammar", "g", "", "Grammar file to compile")
	flagMode      = pflag.StringP("mode", "m", "LALR1", "Parsing mode: LR0, SLR1, LALR1, CLR1, or LL1")
	flagOutput    = pflag.StringP("output", "o", "", "Write output to FILE instead of stdout")
	flagFile      = pflag.String("file", "", "Alias for --output")
	flagLoc       = pflag.Bool("loc", false, "Include line/char position info in output")
	flagResolve   = pflag.Bool("resolve-conflicts", false, "Resolve shift-reduce conflicts by preferring shift (LR0/SLR1 only)")
	flagTokenizer = pflag.String("custom-tokenizer", "", "Tokenizer rules file")
	flagParse     = pflag.String("parse", "", "Parse the given text and print the resulting tree")
	flagTable     = pflag.Bool("table", false, "Print the parsing table")
	flagColl      = pflag.Bool("collection", false, "Print the canonical collection of LR items")
)

func main() {
	pflag.Parse()

	cfg := loadFileConfig()
	applyFileConfigDefaults(cfg)

	if pflag.Arg(0) == "interactive" {
		os.Exit(runInteractive())
	}

	os.Exit(runGenerate())
}

// loadFileConfig reads .ictcc.toml from the working directory if present. A
// missing file is not an error; a malformed one is reported and treated as
// empty so flag-supplied values still work.
func loadFileConfig() fileConfig {
	var cfg fileConfig

	data, err := os.ReadFile(configFileName)
	if err != nil {
		return cfg
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "WARN  could not parse %s: %s\n", configFileName, err.Error())
		return fileConfig{}
	}

	return cfg
}

// applyFileConfigDefaults fills in any flag that was not explicitly set on
// the command line from cfg, the same "env/file supplies a default, flag
// wins" precedence tqserver's main uses for its environment variables.
func applyFileConfigDefaults(cfg fileConfig) {
	if !pflag.Lookup("grammar").Changed && cfg.Grammar != "" {
		*flagGrammar = cfg.Grammar
	}
	if !pflag.Lookup("mode").Changed && cfg.Mode != "" {
		*flagMode = cfg.Mode
	}
	if !pflag.Lookup("resolve-conflicts").Changed && cfg.ResolveConflicts {
		*flagResolve = true
	}
	if !pflag.Lookup("loc").Changed && cfg.Loc {
		*flagLoc = true
	}
	if !pflag.Lookup("custom-tokenizer").Changed && cfg.CustomTokenizer != "" {
		*flagTokenizer = cfg.CustomTokenizer
	}
}

// outputPath resolves --output/--file, preferring whichever was explicitly
// given; empty means stdout.
func outputPath() string {
	if *flagOutput != "" {
		return *flagOutput
	}
	return *flagFile
}

// tableParser is the common surface every generated LR parser exposes for
// table and collection inspection, beyond the bare Parser.Parse this
// package's root facade settles for. LL1 has no conforming value -- its
// table has a different shape and no canonical item collection -- and is
// handled as a separate case throughout.
type tableParser interface {
	Parse(stream types.TokenStream) (types.ParseTree, error)
	TableString() string
	Type() types.ParserType
	GetDFA() *automaton.DFA[util.StringSet]
}

func runGenerate() int {
	if *flagGrammar == "" {
		fmt.Fprintln(os.Stderr, "ERROR: --grammar is required")
		return ExitUsageError
	}

	data, err := os.ReadFile(*flagGrammar)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: reading grammar file: %s\n", err.Error())
		return ExitUsageError
	}

	g, err := grammar.Parse(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitGrammarError
	}
	currentGrammar = g

	var out strings.Builder

	mode := strings.ToUpper(*flagMode)
	if mode == "LL1" {
		code := runLL1(g, &out)
		if code != ExitSuccess {
			return code
		}
	} else {
		p, warns, err := buildLRParser(g, mode)
		for _, w := range warns {
			fmt.Fprintf(os.Stderr, "WARN  %s\n", w)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			return ExitGrammarError
		}

		if *flagTable {
			fmt.Fprintln(&out, p.TableString())
		}
		if *flagColl {
			fmt.Fprintln(&out, p.GetDFA().String())
		}

		if *flagParse != "" {
			code := runParse(p, *flagParse, &out)
			if code != ExitSuccess {
				return code
			}
		}
	}

	return writeOutput(out.String())
}

func buildLRParser(g grammar.Grammar, mode string) (tableParser, []string, error) {
	switch mode {
	case "LR0":
		p, warns, err := parse.GenerateLR0Parser(g, *flagResolve)
		return p, warns, err
	case "SLR1":
		p, warns, err := parse.GenerateSimpleLRParser(g, *flagResolve)
		return p, warns, err
	case "LALR1":
		p, err := parse.GenerateLALR1Parser(g)
		return &p, nil, err
	case "CLR1":
		p, err := parse.GenerateCanonicalLR1Parser(g)
		return &p, nil, err
	default:
		return nil, nil, fmt.Errorf("unsupported mode %q (want one of LR0, SLR1, LALR1, CLR1, LL1)", mode)
	}
}

func runLL1(g grammar.Grammar, out *strings.Builder) int {
	table, err := g.LLParseTable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitGrammarError
	}

	p, err := parse.GenerateLL1Parser(g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitGrammarError
	}

	if *flagTable {
		fmt.Fprintln(out, table.String())
	}
	if *flagColl {
		fmt.Fprintln(os.Stderr, "WARN  --collection has no meaning in LL1 mode; LL(1) has no canonical LR-item collection")
	}

	if *flagParse != "" {
		tree, err := p.Parse(newDefaultTokenStream(g, *flagParse))
		if err != nil {
			return reportParseError(err)
		}
		fmt.Fprintln(out, tree.String())
	}

	return ExitSuccess
}

func runParse(p tableParser, text string, out *strings.Builder) int {
	stream, err := tokenStreamFor(text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitUsageError
	}

	tree, err := p.Parse(stream)
	if err != nil {
		return reportParseError(err)
	}

	fmt.Fprintln(out, tree.String())
	return ExitSuccess
}

// tokenStreamFor lexes text with either the custom tokenizer named by
// --custom-tokenizer, or (having none) a default literal tokenizer built
// from the current grammar's own terminal set. It's a package-level var so
// it can be overridden by each call site with the grammar in scope; see
// runGenerate, runInteractive and newDefaultTokenStream.
var currentGrammar grammar.Grammar

func tokenStreamFor(text string) (types.TokenStream, error) {
	var lx lex.Lexer
	var err error

	if *flagTokenizer != "" {
		lx, err = loadCustomLexer(*flagTokenizer)
	} else {
		lx, err = defaultLexer(currentGrammar)
	}
	if err != nil {
		return nil, err
	}

	return lx.Lex(strings.NewReader(text))
}

func newDefaultTokenStream(g grammar.Grammar, text string) types.TokenStream {
	currentGrammar = g
	stream, err := tokenStreamFor(text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		os.Exit(ExitUsageError)
	}
	return stream
}

// defaultLexer builds a lexer that matches each of g's terminals as a
// literal string equal to the terminal's own ID, with runs of whitespace
// discarded between them. It exists so --parse works out of the box for
// grammars whose terminals are literal keywords/punctuation, without
// requiring a --custom-tokenizer file for the common case.
func defaultLexer(g grammar.Grammar) (lex.Lexer, error) {
	lx := lex.NewLexer(false)

	if err := lx.AddPattern(`\s+`, lex.Discard(), "", 0); err != nil {
		return nil, err
	}

	// longer terminals first, so e.g. "==" is not shadowed by a pattern for
	// "=" when both are terminals of the same grammar.
	terms := g.Terminals()
	sortByLengthDesc(terms)

	for _, t := range terms {
		cl := g.Term(t)
		lx.RegisterClass(cl, "")
		pat := regexQuote(cl.ID())
		if err := lx.AddPattern(pat, lex.LexAs(cl.ID()), "", 0); err != nil {
			return nil, fmt.Errorf("default tokenizer pattern for terminal %q: %w", t, err)
		}
	}

	return lx, nil
}

// loadCustomLexer reads a tokenizer rules file. Each non-blank,
// non-comment line is either:
//
//	skip REGEX
//
// to discard matching text, or:
//
//	TOKEN_CLASS_ID REGEX
//
// to emit a token of the named class for matching text. REGEX runs to the
// end of the line, so it may itself contain whitespace.
func loadCustomLexer(path string) (lex.Lexer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tokenizer file: %w", err)
	}

	lx := lex.NewLexer(false)

	for lineNum, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		fields := strings.SplitN(trimmed, " ", 2)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s:%d: expected \"CLASS REGEX\" or \"skip REGEX\"", path, lineNum+1)
		}

		classOrSkip, regex := fields[0], strings.TrimSpace(fields[1])

		if classOrSkip == "skip" {
			if err := lx.AddPattern(regex, lex.Discard(), "", 0); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNum+1, err)
			}
			continue
		}

		cl := types.MakeDefaultClass(classOrSkip)
		lx.RegisterClass(cl, "")
		if err := lx.AddPattern(regex, lex.LexAs(cl.ID()), "", 0); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNum+1, err)
		}
	}

	return lx, nil
}

func sortByLengthDesc(ss []string) {
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && len(ss[j-1]) < len(ss[j]); j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}

func regexQuote(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func reportParseError(err error) int {
	if *flagLoc {
		if se, ok := err.(*icterrors.SyntaxError); ok {
			fmt.Fprintln(os.Stderr, se.FullMessage())
			return ExitParseError
		}
		if pe, ok := err.(*icterrors.ParseError); ok {
			fmt.Fprintln(os.Stderr, pe.Err.FullMessage())
			return ExitParseError
		}
	}
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
	return ExitParseError
}

func writeOutput(s string) int {
	if s == "" {
		return ExitSuccess
	}

	path := outputPath()
	if path == "" {
		fmt.Print(s)
		return ExitSuccess
	}

	if err := os.WriteFile(path, []byte(s), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: writing %s: %s\n", path, err.Error())
		return ExitUsageError
	}
	return ExitSuccess
}

// runInteractive drives parses in-process from a readline-backed REPL:
// each line of input is lexed and parsed against the loaded grammar, and
// the resulting parse tree (or syntax error) is printed immediately. This
// is the "driving parses in-process for analysis and debugging" mode.
func runInteractive() int {
	if *flagGrammar == "" {
		fmt.Fprintln(os.Stderr, "ERROR: --grammar is required")
		return ExitUsageError
	}

	data, err := os.ReadFile(*flagGrammar)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: reading grammar file: %s\n", err.Error())
		return ExitUsageError
	}

	g, err := grammar.Parse(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitGrammarError
	}
	currentGrammar = g

	mode := strings.ToUpper(*flagMode)

	var p tableParser
	var ll1 bool
	var ll1Parser interface {
		Parse(stream types.TokenStream) (types.ParseTree, error)
	}

	if mode == "LL1" {
		ll1 = true
		ll1Parser, err = parse.GenerateLL1Parser(g)
	} else {
		p, _, err = buildLRParser(g, mode)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitGrammarError
	}

	rl, err := readline.NewEx(&readline.Config{Prompt: "ictcc> "})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not start interactive session: %s\n", err.Error())
		return ExitUsageError
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			return ExitSuccess
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return ExitSuccess
		}

		stream, err := tokenStreamFor(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			continue
		}

		var tree types.ParseTree
		if ll1 {
			tree, err = ll1Parser.Parse(stream)
		} else {
			tree, err = p.Parse(stream)
		}
		if err != nil {
			reportParseError(err)
			continue
		}

		fmt.Println(tree.String())
	}
}
