package formula

import (
	"fmt"
	"strings"

	"github.com/javajack/xlgrid/cell"
)

// ErrorKind classifies an evaluation failure.
type ErrorKind int

const (
	ParseError ErrorKind = iota + 1
	CellOutOfRange
	UnknownAlias
	UnresolvableReference
	TypeMismatch
	DivisionByZero
	UnknownFunction
	InvalidArguments
	CircularReference
)

// String returns the name of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case CellOutOfRange:
		return "CellOutOfRange"
	case UnknownAlias:
		return "UnknownAlias"
	case UnresolvableReference:
		return "UnresolvableReference"
	case TypeMismatch:
		return "TypeMismatch"
	case DivisionByZero:
		return "DivisionByZero"
	case UnknownFunction:
		return "UnknownFunction"
	case InvalidArguments:
		return "InvalidArguments"
	case CircularReference:
		return "CircularReference"
	default:
		return "Unknown"
	}
}

// Code returns the spreadsheet-style error code shown in place of a value.
func (k ErrorKind) Code() string {
	switch k {
	case ParseError, UnknownFunction, UnknownAlias:
		return "#NAME?"
	case CellOutOfRange, UnresolvableReference:
		return "#REF!"
	case DivisionByZero:
		return "#DIV/0!"
	case InvalidArguments:
		return "#NUM!"
	case CircularReference:
		return "#CYCLE!"
	default:
		return "#VALUE!"
	}
}

// Error is a tagged evaluation failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Pos     int          // byte offset in the formula body, for parse errors
	Formula string       // formula text of the cell where the failure occurred
	Chain   []cell.Coord // in-flight evaluation chain, outermost first
}

// Sentinels for errors.Is matching by kind.
var (
	ErrParse                 = &Error{Kind: ParseError}
	ErrCellOutOfRange        = &Error{Kind: CellOutOfRange}
	ErrUnknownAlias          = &Error{Kind: UnknownAlias}
	ErrUnresolvableReference = &Error{Kind: UnresolvableReference}
	ErrTypeMismatch          = &Error{Kind: TypeMismatch}
	ErrDivisionByZero        = &Error{Kind: DivisionByZero}
	ErrUnknownFunction       = &Error{Kind: UnknownFunction}
	ErrInvalidArguments      = &Error{Kind: InvalidArguments}
	ErrCircularReference     = &Error{Kind: CircularReference}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Kind == ParseError {
		fmt.Fprintf(&b, " at %d", e.Pos)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Chain) > 0 {
		names := make([]string, len(e.Chain))
		for i, c := range e.Chain {
			names[i] = c.String()
		}
		fmt.Fprintf(&b, " (via %s)", strings.Join(names, " -> "))
	}
	return b.String()
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func parseErrorf(pos int, format string, args ...any) *Error {
	return &Error{Kind: ParseError, Pos: pos, Message: fmt.Sprintf(format, args...)}
}
