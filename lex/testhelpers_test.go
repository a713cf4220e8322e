package lex

import "github.com/dekarrin/ictiobus/types"

var (
	testClassPlus   = NewTokenClass("plus", "+")
	testClassMult   = NewTokenClass("mult", "*")
	testClassLParen = NewTokenClass("lparen", "(")
	testClassRParen = NewTokenClass("rparen", ")")
	testClassId     = NewTokenClass("id", "identifier")
	testClassEq     = NewTokenClass("equals", "=")
	testClassInt    = NewTokenClass("int", "integer literal")

	allTestClasses = []types.TokenClass{
		testClassPlus,
		testClassMult,
		testClassLParen,
		testClassRParen,
		testClassId,
		testClassEq,
		testClassInt,
	}
)
