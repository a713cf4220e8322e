package persist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/rezi"
	"github.com/dekarrin/ictiobus/grammar"
	"github.com/dekarrin/ictiobus/types"
)

func Test_SaveLoad_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	g := grammar.MustParse(`
		S -> A B ;
		A -> a ;
		B -> b | ε ;
	`)

	data, err := Save(types.ParserSLR1, g)
	if !assert.NoError(err) {
		return
	}

	gotMode, gotGrammar, err := Load(data)
	if !assert.NoError(err) {
		return
	}

	assert.Equal(types.ParserSLR1, gotMode)
	assert.Equal(g.String(), gotGrammar.String())
}

func Test_Load_RejectsWrongVersion(t *testing.T) {
	assert := assert.New(t)

	bad := compiledGrammar{Version: formatVersion + 1, Mode: types.ParserLL1.String(), GrammarText: "S -> a ;"}
	data, err := rezi.Enc(bad)
	if !assert.NoError(err) {
		return
	}

	_, _, err = Load(data)
	assert.Error(err)
}
