package formula

import (
	"strings"

	"github.com/javajack/xlgrid/cell"
)

// Node is a parsed formula expression. Nodes are immutable once built and
// safe to share between evaluations.
type Node interface {
	// Pos is the byte offset in the formula body where the node starts.
	Pos() int
	// String renders the canonical form; binary and unary operations are
	// fully parenthesized.
	String() string
}

// Op is a unary or binary operator.
type Op int

const (
	OpAdd Op = iota + 1
	OpSub
	OpMul
	OpDiv
	OpPow
	OpConcat
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpNeg
	OpPlus
)

var opSymbols = map[Op]string{
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpPow:    "^",
	OpConcat: "&",
	OpEq:     "=",
	OpNe:     "<>",
	OpLt:     "<",
	OpLe:     "<=",
	OpGt:     ">",
	OpGe:     ">=",
	OpNeg:    "-",
	OpPlus:   "+",
}

func (o Op) String() string { return opSymbols[o] }

// NumberLit is a numeric literal.
type NumberLit struct {
	Offset int
	Value  float64
}

func (n *NumberLit) Pos() int       { return n.Offset }
func (n *NumberLit) String() string { return cell.FormatNumber(n.Value) }

// StringLit is a quoted string literal.
type StringLit struct {
	Offset int
	Value  string
}

func (n *StringLit) Pos() int { return n.Offset }
func (n *StringLit) String() string {
	return `"` + strings.ReplaceAll(n.Value, `"`, `""`) + `"`
}

// BoolLit is TRUE or FALSE.
type BoolLit struct {
	Offset int
	Value  bool
}

func (n *BoolLit) Pos() int { return n.Offset }
func (n *BoolLit) String() string {
	if n.Value {
		return "TRUE"
	}
	return "FALSE"
}

// Ref references a single cell, either by coordinate or by alias name,
// optionally selecting a property of an object cell.
type Ref struct {
	Offset int
	Cell   cell.Coord
	Name   string // alias; empty for a coordinate reference
	Prop   string
}

func (n *Ref) Pos() int { return n.Offset }
func (n *Ref) String() string {
	s := n.Name
	if s == "" {
		s = n.Cell.String()
	}
	if n.Prop != "" {
		s += "." + n.Prop
	}
	return s
}

// RangeRef is a rectangular block of cells such as A1:B3.
type RangeRef struct {
	Offset int
	Range  cell.Range
}

func (n *RangeRef) Pos() int       { return n.Offset }
func (n *RangeRef) String() string { return n.Range.String() }

// Binary applies an infix operator.
type Binary struct {
	Offset int
	Op     Op
	Left   Node
	Right  Node
}

func (n *Binary) Pos() int { return n.Offset }
func (n *Binary) String() string {
	return "(" + n.Left.String() + n.Op.String() + n.Right.String() + ")"
}

// Unary applies a prefix sign.
type Unary struct {
	Offset  int
	Op      Op
	Operand Node
}

func (n *Unary) Pos() int       { return n.Offset }
func (n *Unary) String() string { return "(" + n.Op.String() + n.Operand.String() + ")" }

// Call is a function invocation; Name is upper-cased.
type Call struct {
	Offset int
	Name   string
	Args   []Node
}

func (n *Call) Pos() int { return n.Offset }
func (n *Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return n.Name + "(" + strings.Join(args, ",") + ")"
}

// Walk calls fn for n and every node below it, parents first.
func Walk(n Node, fn func(Node)) {
	if n == nil {
		return
	}
	fn(n)
	switch x := n.(type) {
	case *Binary:
		Walk(x.Left, fn)
		Walk(x.Right, fn)
	case *Unary:
		Walk(x.Operand, fn)
	case *Call:
		for _, a := range x.Args {
			Walk(a, fn)
		}
	}
}
