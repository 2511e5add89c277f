package formula

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// formulaLexer tokenizes a formula body. Rules are tried in order, so Cell
// must precede Ident and multi-character operators precede single ones.
// Invalid catches any other character so it surfaces as a positioned parse
// error instead of a lexer failure.
var formulaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `"(?:[^"]|"")*"`},
	{Name: "Number", Pattern: `(?:[0-9]+(?:\.[0-9]+)?|\.[0-9]+)(?:[eE][-+]?[0-9]+)?`},
	{Name: "Cell", Pattern: `\$?[A-Za-z]{1,3}\$?[0-9]+\b`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Punct", Pattern: `<=|>=|<>|[-+*/^&=<>(),:.]`},
	{Name: "Invalid", Pattern: `.`},
})

var (
	symbols       = formulaLexer.Symbols()
	tokWhitespace = symbols["Whitespace"]
	tokString     = symbols["String"]
	tokNumber     = symbols["Number"]
	tokCell       = symbols["Cell"]
	tokIdent      = symbols["Ident"]
	tokPunct      = symbols["Punct"]
	tokInvalid    = symbols["Invalid"]
)

// tokenize lexes src, dropping whitespace. The returned slice always ends
// with an EOF token.
func tokenize(src string) ([]lexer.Token, error) {
	lex, err := formulaLexer.Lex("", strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	var tokens []lexer.Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.Type == tokWhitespace {
			continue
		}
		tokens = append(tokens, tok)
		if tok.EOF() {
			return tokens, nil
		}
	}
}

// unquote strips the surrounding quotes of a string token and collapses
// doubled quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, `""`, `"`)
}
