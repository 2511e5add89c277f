package formula

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/javajack/xlgrid/cell"
)

var (
	comparisonOps = map[string]Op{"=": OpEq, "<>": OpNe, "<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe}
	concatOps     = map[string]Op{"&": OpConcat}
	additiveOps   = map[string]Op{"+": OpAdd, "-": OpSub}
	termOps       = map[string]Op{"*": OpMul, "/": OpDiv}
	powerOps      = map[string]Op{"^": OpPow}
)

// Parse parses a formula body (the text after '=') into an AST. Failures
// are returned as *Error with Kind ParseError and the byte offset of the
// offending token.
func Parse(src string) (Node, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, parseErrorf(0, "%v", err)
	}
	p := &parser{tokens: tokens}
	if p.peek().EOF() {
		return nil, parseErrorf(0, "empty formula")
	}

	node, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); !tok.EOF() {
		return nil, parseErrorf(tok.Pos.Offset, "unexpected %s after expression", describe(tok))
	}
	return node, nil
}

type parser struct {
	tokens []lexer.Token
	pos    int
}

// peek returns the current token. The token slice always ends with EOF,
// which is never consumed.
func (p *parser) peek() lexer.Token {
	return p.tokens[p.pos]
}

// peekAt returns the token n positions ahead, clamped to EOF.
func (p *parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *parser) next() lexer.Token {
	tok := p.tokens[p.pos]
	if !tok.EOF() {
		p.pos++
	}
	return tok
}

func isPunct(tok lexer.Token, value string) bool {
	return tok.Type == tokPunct && tok.Value == value
}

func (p *parser) expect(value string) (lexer.Token, error) {
	tok := p.peek()
	if !isPunct(tok, value) {
		return tok, parseErrorf(tok.Pos.Offset, "expected %q, found %s", value, describe(tok))
	}
	return p.next(), nil
}

// parseLevel parses a left-associative chain of the given operators.
func (p *parser) parseLevel(ops map[string]Op, operand func() (Node, error)) (Node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		op, ok := ops[tok.Value]
		if tok.Type != tokPunct || !ok {
			return left, nil
		}
		p.next()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &Binary{Offset: left.Pos(), Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseComparison() (Node, error) {
	return p.parseLevel(comparisonOps, p.parseConcat)
}

func (p *parser) parseConcat() (Node, error) {
	return p.parseLevel(concatOps, p.parseAdditive)
}

func (p *parser) parseAdditive() (Node, error) {
	return p.parseLevel(additiveOps, p.parseTerm)
}

func (p *parser) parseTerm() (Node, error) {
	return p.parseLevel(termOps, p.parsePower)
}

func (p *parser) parsePower() (Node, error) {
	return p.parseLevel(powerOps, p.parseUnary)
}

// parseUnary handles prefix signs; they bind tighter than '^', so -2^2 is 4.
func (p *parser) parseUnary() (Node, error) {
	tok := p.peek()
	if isPunct(tok, "-") || isPunct(tok, "+") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		op := OpNeg
		if tok.Value == "+" {
			op = OpPlus
		}
		return &Unary{Offset: tok.Pos.Offset, Op: op, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.peek()
	switch {
	case tok.EOF():
		return nil, parseErrorf(tok.Pos.Offset, "unexpected end of formula")

	case tok.Type == tokNumber:
		p.next()
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, parseErrorf(tok.Pos.Offset, "invalid number %q", tok.Value)
		}
		return &NumberLit{Offset: tok.Pos.Offset, Value: f}, nil

	case tok.Type == tokString:
		p.next()
		return &StringLit{Offset: tok.Pos.Offset, Value: unquote(tok.Value)}, nil

	case tok.Type == tokCell:
		if isPunct(p.peekAt(1), "(") {
			return p.parseCall()
		}
		return p.parseCellRef()

	case tok.Type == tokIdent:
		if isPunct(p.peekAt(1), "(") {
			return p.parseCall()
		}
		p.next()
		switch strings.ToUpper(tok.Value) {
		case "TRUE":
			return &BoolLit{Offset: tok.Pos.Offset, Value: true}, nil
		case "FALSE":
			return &BoolLit{Offset: tok.Pos.Offset, Value: false}, nil
		}
		ref := &Ref{Offset: tok.Pos.Offset, Name: tok.Value}
		return p.parseProperty(ref)

	case isPunct(tok, "("):
		p.next()
		node, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		return node, nil

	case tok.Type == tokInvalid && tok.Value == `"`:
		return nil, parseErrorf(tok.Pos.Offset, "unterminated string literal")
	}
	return nil, parseErrorf(tok.Pos.Offset, "unexpected %s", describe(tok))
}

// parseCellRef parses A1, A1.prop or A1:B2.
func (p *parser) parseCellRef() (Node, error) {
	tok := p.next()
	from, err := cell.ParseCoord(tok.Value)
	if err != nil {
		return nil, parseErrorf(tok.Pos.Offset, "%v", err)
	}

	if isPunct(p.peek(), ":") {
		p.next()
		end := p.peek()
		if end.Type != tokCell {
			return nil, parseErrorf(end.Pos.Offset, "expected cell after ':', found %s", describe(end))
		}
		p.next()
		to, err := cell.ParseCoord(end.Value)
		if err != nil {
			return nil, parseErrorf(end.Pos.Offset, "%v", err)
		}
		return &RangeRef{Offset: tok.Pos.Offset, Range: cell.NewRange(from, to)}, nil
	}

	return p.parseProperty(&Ref{Offset: tok.Pos.Offset, Cell: from})
}

// parseProperty consumes an optional ".name" suffix.
func (p *parser) parseProperty(ref *Ref) (Node, error) {
	if !isPunct(p.peek(), ".") {
		return ref, nil
	}
	p.next()
	name := p.peek()
	if name.Type != tokIdent && name.Type != tokCell {
		return nil, parseErrorf(name.Pos.Offset, "expected property name after '.', found %s", describe(name))
	}
	p.next()
	ref.Prop = name.Value
	return ref, nil
}

// parseCall parses NAME(arg, ...).
func (p *parser) parseCall() (Node, error) {
	nameTok := p.next()
	call := &Call{Offset: nameTok.Pos.Offset, Name: strings.ToUpper(nameTok.Value)}
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	if isPunct(p.peek(), ")") {
		p.next()
		return call, nil
	}
	for {
		arg, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)

		tok := p.peek()
		switch {
		case isPunct(tok, ","):
			p.next()
		case isPunct(tok, ")"):
			p.next()
			return call, nil
		default:
			return nil, parseErrorf(tok.Pos.Offset, "expected ',' or ')' in %s arguments, found %s", call.Name, describe(tok))
		}
	}
}

func describe(tok lexer.Token) string {
	if tok.EOF() {
		return "end of formula"
	}
	return fmt.Sprintf("%q", tok.Value)
}
