// Package persist serializes a grammar and its parser mode to and from a
// binary form. Only a format version, the mode name and the grammar's text are
// stored; no parse
// table is stored, so Load re-parses the grammar text and a parser built from
// the result constructs its table again.
package persist

import (
	"fmt"

	"github.com/dekarrin/rezi"
	"github.com/dekarrin/ictiobus/grammar"
	"github.com/dekarrin/ictiobus/types"
)

// formatVersion is bumped whenever compiledGrammar's shape changes in a way
// that is not backward compatible.
const formatVersion = 1

// compiledGrammar is the on-disk representation of a compiled grammar. The
// grammar itself is stored as its textual form (grammar.Grammar.String(),
// round-tripped through grammar.Parse) rather than a reflection-based dump
// of grammar.Grammar's unexported fields, since rezi's struct encoding only
// reaches exported fields.
type compiledGrammar struct {
	Version     int
	Mode        string
	GrammarText string
}

// Save encodes g and the parser mode it was (or will be) compiled for into
// a binary blob suitable for writing to a file.
func Save(mode types.ParserType, g grammar.Grammar) ([]byte, error) {
	cg := compiledGrammar{
		Version:     formatVersion,
		Mode:        mode.String(),
		GrammarText: g.String(),
	}

	data, err := rezi.Enc(cg)
	if err != nil {
		return nil, fmt.Errorf("encoding compiled grammar: %w", err)
	}
	return data, nil
}

// Load decodes a blob produced by Save, re-parsing the stored grammar text
// to rebuild a grammar.Grammar.
func Load(data []byte) (types.ParserType, grammar.Grammar, error) {
	var cg compiledGrammar
	if _, err := rezi.Dec(data, &cg); err != nil {
		return "", grammar.Grammar{}, fmt.Errorf("decoding compiled grammar: %w", err)
	}

	if cg.Version != formatVersion {
		return "", grammar.Grammar{}, fmt.Errorf("compiled grammar has format version %d, this build supports %d", cg.Version, formatVersion)
	}

	g, err := grammar.Parse(cg.GrammarText)
	if err != nil {
		return "", grammar.Grammar{}, fmt.Errorf("re-parsing stored grammar text: %w", err)
	}

	return types.ParserType(cg.Mode), g, nil
}
