package formula

import (
	"errors"
	"math"
	"strings"

	"github.com/javajack/xlgrid/cell"
)

// DefaultValueField is the object property read when an object cell is
// referenced without a property.
const DefaultValueField = "value"

// Engine evaluates formulas against a Source. It owns a parse cache and a
// function registry and may be shared by concurrent evaluations as long as
// the registry is not modified.
type Engine struct {
	cache      *Cache
	funcs      *Registry
	aliases    map[string]Target
	propAlias  map[string]string
	valueField string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRegistry replaces the built-in function registry.
func WithRegistry(r *Registry) EngineOption {
	return func(e *Engine) { e.funcs = r }
}

// WithFunctions registers additional functions on the engine's registry.
func WithFunctions(funcs map[string]Func) EngineOption {
	return func(e *Engine) {
		for name, fn := range funcs {
			e.funcs.Register(name, fn)
		}
	}
}

// WithAliases sets the formula alias names.
func WithAliases(aliases map[string]Target) EngineOption {
	return func(e *Engine) {
		for name, t := range aliases {
			e.aliases[name] = t
		}
	}
}

// WithPropertyAliases declares display labels for object properties, keyed
// by property name. Formulas may use either the property or its label.
func WithPropertyAliases(labels map[string]string) EngineOption {
	return func(e *Engine) {
		for prop, label := range labels {
			e.propAlias[label] = prop
		}
	}
}

// WithValueField changes the property used as an object cell's value.
func WithValueField(name string) EngineOption {
	return func(e *Engine) {
		if name != "" {
			e.valueField = name
		}
	}
}

// NewEngine creates an engine with the built-in functions.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		cache:      NewCache(),
		funcs:      NewRegistry(),
		aliases:    make(map[string]Target),
		propAlias:  make(map[string]string),
		valueField: DefaultValueField,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Alias returns the target of a formula name.
func (e *Engine) Alias(name string) (Target, bool) {
	t, ok := e.aliases[name]
	return t, ok
}

// HasFunction reports whether name can be called, including IF.
func (e *Engine) HasFunction(name string) bool {
	if strings.EqualFold(name, "IF") {
		return true
	}
	_, ok := e.funcs.Lookup(name)
	return ok
}

// Registry returns the engine's function registry.
func (e *Engine) Registry() *Registry { return e.funcs }

// Parse parses a formula body through the engine's cache.
func (e *Engine) Parse(body string) (Node, error) {
	return e.cache.Parse(body)
}

// Evaluate computes the value of the cell at the given coordinate. Plain
// cells evaluate to their own value. A formula that yields an empty value
// evaluates to 0.
func (e *Engine) Evaluate(src Source, at cell.Coord) (r Result) {
	defer contain(&r)
	content, ok := src.Content(at)
	if !ok {
		return Result{Err: newError(CellOutOfRange, "%s is outside the sheet", at)}
	}
	ev := e.newEvaluation(src)
	res, err := ev.res.unwrap(at, content, "")
	if err != nil {
		return Result{Err: asError(err, UnresolvableReference)}
	}
	if !res.IsFormula() {
		return Result{Value: res.Value}
	}
	return finish(ev.evalCell(at, res.Formula))
}

// EvaluateFormula evaluates a formula body as if it were stored at the
// given coordinate. Column aliases resolve against at's row.
func (e *Engine) EvaluateFormula(src Source, at cell.Coord, body string) (r Result) {
	defer contain(&r)
	return finish(e.newEvaluation(src).evalCell(at, strings.TrimPrefix(body, "=")))
}

// contain turns a panic escaping an evaluation into an InvalidArguments
// result.
func contain(r *Result) {
	if p := recover(); p != nil {
		*r = Result{Err: newError(InvalidArguments, "evaluation failed: %v", p)}
	}
}

func finish(v Value, err *Error) Result {
	if err != nil {
		return Result{Err: err}
	}
	if v.Kind == KindEmpty {
		v = Number(0)
	}
	return Result{Value: v}
}

type cellState int

const (
	stateIdle cellState = iota
	stateInFlight
	stateSuccess
	stateFailed
)

type cellOutcome struct {
	state cellState
	value Value
	err   *Error
}

// evaluation is the state of one top-level evaluation. Formula cells
// reached more than once are computed once.
type evaluation struct {
	engine   *Engine
	res      *Resolver
	guard    *Guard
	outcomes map[cell.Coord]*cellOutcome
}

func (e *Engine) newEvaluation(src Source) *evaluation {
	return &evaluation{
		engine: e,
		res: &Resolver{
			src:        src,
			aliases:    e.aliases,
			propAlias:  e.propAlias,
			valueField: e.valueField,
		},
		guard:    newGuard(),
		outcomes: make(map[cell.Coord]*cellOutcome),
	}
}

// evalCell evaluates the formula stored at a cell.
func (ev *evaluation) evalCell(at cell.Coord, body string) (Value, *Error) {
	out := ev.outcomes[at]
	if out == nil {
		out = &cellOutcome{}
		ev.outcomes[at] = out
	}
	switch out.state {
	case stateSuccess:
		return out.value, nil
	case stateFailed:
		return Value{}, out.err
	}

	if err := ev.guard.Enter(at); err != nil {
		return Value{}, asError(err, CircularReference)
	}
	out.state = stateInFlight

	var (
		v   Value
		err *Error
	)
	node, perr := ev.engine.cache.Parse(body)
	if perr != nil {
		err = asError(perr, ParseError)
	} else {
		v, err = ev.eval(node, at)
	}
	ev.guard.Leave(at)

	if err != nil {
		err = annotate(err, body, append(ev.guard.Chain(), at))
		out.state, out.err = stateFailed, err
		return Value{}, err
	}
	out.state, out.value = stateSuccess, v
	return v, nil
}

// annotate attaches the formula text of the failing cell and the chain of
// cells that led to it. Errors may be shared through the parse cache, so
// they are copied first.
func annotate(err *Error, body string, chain []cell.Coord) *Error {
	if err.Formula != "" {
		return err
	}
	c := *err
	c.Formula = "=" + body
	if len(c.Chain) == 0 {
		c.Chain = chain
	}
	return &c
}

func asError(err error, fallback ErrorKind) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return &Error{Kind: fallback, Message: err.Error()}
}

func (ev *evaluation) eval(n Node, at cell.Coord) (Value, *Error) {
	switch n := n.(type) {
	case *NumberLit:
		return Number(n.Value), nil
	case *StringLit:
		return Text(n.Value), nil
	case *BoolLit:
		return Boolean(n.Value), nil
	case *Ref:
		return ev.ref(n, at)
	case *RangeRef:
		return Value{}, newError(TypeMismatch, "range %s used where a single value is expected", n.Range)
	case *Unary:
		return ev.unary(n, at)
	case *Binary:
		return ev.binary(n, at)
	case *Call:
		return ev.call(n, at)
	}
	return Value{}, newError(TypeMismatch, "unsupported expression %s", n)
}

func (ev *evaluation) ref(n *Ref, at cell.Coord) (Value, *Error) {
	res, err := ev.res.Resolve(n, at)
	if err != nil {
		return Value{}, asError(err, UnresolvableReference)
	}
	if res.IsFormula() {
		return ev.evalCell(res.At, res.Formula)
	}
	return res.Value, nil
}

// rangeValues expands a range over the source's extent. Cells past it
// read as empty and are left out.
func (ev *evaluation) rangeValues(r cell.Range) ([]Value, *Error) {
	clipped, ok := r.Clip(ev.res.src.Size())
	if !ok {
		return nil, nil
	}
	coords := clipped.Coords()
	values := make([]Value, 0, len(coords))
	for _, c := range coords {
		res := ev.res.Cell(c)
		if !res.IsFormula() {
			values = append(values, res.Value)
			continue
		}
		v, err := ev.evalCell(c, res.Formula)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func (ev *evaluation) unary(n *Unary, at cell.Coord) (Value, *Error) {
	v, err := ev.eval(n.Operand, at)
	if err != nil {
		return Value{}, err
	}
	f, ok := v.AsNumber()
	if !ok {
		return Value{}, newError(TypeMismatch, "cannot apply %s to %q", n.Op, v.String())
	}
	if n.Op == OpNeg {
		return Number(-f), nil
	}
	return Number(f), nil
}

func (ev *evaluation) binary(n *Binary, at cell.Coord) (Value, *Error) {
	left, err := ev.eval(n.Left, at)
	if err != nil {
		return Value{}, err
	}
	right, err := ev.eval(n.Right, at)
	if err != nil {
		return Value{}, err
	}

	switch n.Op {
	case OpConcat:
		return Text(left.String() + right.String()), nil
	case OpEq:
		return Boolean(compare(left, right) == 0), nil
	case OpNe:
		return Boolean(compare(left, right) != 0), nil
	case OpLt:
		return Boolean(compare(left, right) < 0), nil
	case OpLe:
		return Boolean(compare(left, right) <= 0), nil
	case OpGt:
		return Boolean(compare(left, right) > 0), nil
	case OpGe:
		return Boolean(compare(left, right) >= 0), nil
	}

	a, ok := left.AsNumber()
	if !ok {
		return Value{}, newError(TypeMismatch, "%q is not a number (left of %s)", left.String(), n.Op)
	}
	b, ok := right.AsNumber()
	if !ok {
		return Value{}, newError(TypeMismatch, "%q is not a number (right of %s)", right.String(), n.Op)
	}

	var r float64
	switch n.Op {
	case OpAdd:
		r = a + b
	case OpSub:
		r = a - b
	case OpMul:
		r = a * b
	case OpDiv:
		if b == 0 {
			return Value{}, newError(DivisionByZero, "division by zero")
		}
		r = a / b
	case OpPow:
		v, perr := power(a, b)
		if perr != nil {
			return Value{}, asError(perr, InvalidArguments)
		}
		return v, nil
	default:
		return Value{}, newError(TypeMismatch, "unsupported operator %s", n.Op)
	}
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return Value{}, newError(InvalidArguments, "numeric overflow in %s", n.Op)
	}
	return Number(r), nil
}

// compare orders two values: numbers before text before booleans. Text
// compares case-insensitively, numeric text against a number compares as a
// number, and an empty operand takes the zero value of the other side's type.
func compare(a, b Value) int {
	a, b = zeroLike(a, b), zeroLike(b, a)
	a, b = numberLike(a, b), numberLike(b, a)
	if a.Kind != b.Kind {
		return rank(a.Kind) - rank(b.Kind)
	}
	switch a.Kind {
	case KindNumber:
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		}
		return 0
	case KindText:
		return strings.Compare(strings.ToLower(a.Str), strings.ToLower(b.Str))
	case KindBool:
		switch {
		case a.Bool == b.Bool:
			return 0
		case b.Bool:
			return -1
		}
		return 1
	}
	return 0
}

func zeroLike(v, other Value) Value {
	if v.Kind != KindEmpty {
		return v
	}
	switch other.Kind {
	case KindText:
		return Text("")
	case KindBool:
		return Boolean(false)
	}
	return Number(0)
}

func numberLike(v, other Value) Value {
	if v.Kind != KindText || other.Kind != KindNumber {
		return v
	}
	if f, ok := parseNumber(v.Str); ok {
		return Number(f)
	}
	return v
}

func rank(k Kind) int {
	switch k {
	case KindText:
		return 1
	case KindBool:
		return 2
	}
	return 0
}

func (ev *evaluation) call(n *Call, at cell.Coord) (Value, *Error) {
	if n.Name == "IF" {
		return ev.ifCall(n, at)
	}
	fn, ok := ev.engine.funcs.Lookup(n.Name)
	if !ok {
		return Value{}, newError(UnknownFunction, "unknown function %s", n.Name)
	}

	args := make([]Arg, 0, len(n.Args))
	for _, a := range n.Args {
		if r, isRange := a.(*RangeRef); isRange {
			values, err := ev.rangeValues(r.Range)
			if err != nil {
				return Value{}, err
			}
			args = append(args, Arg{Range: values, IsRange: true})
			continue
		}
		v, err := ev.eval(a, at)
		if err != nil {
			return Value{}, err
		}
		args = append(args, Arg{Value: v})
	}
	return invoke(n.Name, fn, args)
}

// invoke runs a host function, converting panics into InvalidArguments.
func invoke(name string, fn Func, args []Arg) (v Value, ferr *Error) {
	defer func() {
		if r := recover(); r != nil {
			v, ferr = Value{}, newError(InvalidArguments, "%s: %v", name, r)
		}
	}()
	out, err := fn(args)
	if err != nil {
		return Value{}, asError(err, InvalidArguments)
	}
	if out.Kind == KindNumber && (math.IsNaN(out.Num) || math.IsInf(out.Num, 0)) {
		return Value{}, newError(InvalidArguments, "%s: result is not a finite number", name)
	}
	return out, nil
}

// ifCall evaluates only the branch selected by the condition.
func (ev *evaluation) ifCall(n *Call, at cell.Coord) (Value, *Error) {
	if len(n.Args) < 2 || len(n.Args) > 3 {
		return Value{}, newError(InvalidArguments, "IF: expects 2 to 3 arguments, got %d", len(n.Args))
	}
	cond, err := ev.eval(n.Args[0], at)
	if err != nil {
		return Value{}, err
	}
	b, _, terr := truth("IF", cond)
	if terr != nil {
		return Value{}, asError(terr, InvalidArguments)
	}
	switch {
	case b:
		return ev.eval(n.Args[1], at)
	case len(n.Args) == 3:
		return ev.eval(n.Args[2], at)
	}
	return Boolean(false), nil
}
