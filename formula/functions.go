package formula

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Arg is an evaluated function argument: a single value, or the values of
// a range in row-major order.
type Arg struct {
	Value   Value
	Range   []Value
	IsRange bool
}

// Values flattens the argument into a slice.
func (a Arg) Values() []Value {
	if a.IsRange {
		return a.Range
	}
	return []Value{a.Value}
}

// Func implements a spreadsheet function over evaluated arguments.
// Returned errors should be *Error; anything else is reported as
// InvalidArguments.
type Func func(args []Arg) (Value, error)

// Registry maps upper-cased function names to implementations.
// Register functions before the registry is used for evaluation.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry creates a registry with the built-in functions.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Func)}
	r.Register("SUM", fnSum)
	r.Register("AVERAGE", fnAverage)
	r.Register("MIN", fnMin)
	r.Register("MAX", fnMax)
	r.Register("COUNT", fnCount)
	r.Register("COUNTA", fnCountA)
	r.Register("PRODUCT", fnProduct)
	r.Register("ABS", fnAbs)
	r.Register("ROUND", fnRound)
	r.Register("INT", fnInt)
	r.Register("MOD", fnMod)
	r.Register("POWER", fnPower)
	r.Register("SQRT", fnSqrt)
	r.Register("AND", fnAnd)
	r.Register("OR", fnOr)
	r.Register("NOT", fnNot)
	r.Register("CONCATENATE", fnConcat)
	r.Register("CONCAT", fnConcat)
	r.Register("LEN", fnLen)
	r.Register("UPPER", fnUpper)
	r.Register("LOWER", fnLower)
	r.Register("TRIM", fnTrim)
	return r
}

// Register adds or replaces a function.
func (r *Registry) Register(name string, fn Func) {
	r.funcs[strings.ToUpper(name)] = fn
}

// Lookup finds a function by name, case-insensitively.
func (r *Registry) Lookup(name string) (Func, bool) {
	fn, ok := r.funcs[strings.ToUpper(name)]
	return fn, ok
}

// Names lists the registered function names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func invalidArgs(fn, format string, args ...any) *Error {
	return newError(InvalidArguments, "%s: %s", fn, fmt.Sprintf(format, args...))
}

func arity(fn string, args []Arg, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		switch {
		case min == max:
			return invalidArgs(fn, "expects %d argument(s), got %d", min, len(args))
		case max < 0:
			return invalidArgs(fn, "expects at least %d argument(s), got %d", min, len(args))
		default:
			return invalidArgs(fn, "expects %d to %d arguments, got %d", min, max, len(args))
		}
	}
	return nil
}

func scalarArg(fn string, args []Arg, i int) (Value, error) {
	if args[i].IsRange {
		return Value{}, invalidArgs(fn, "argument %d must be a single value, not a range", i+1)
	}
	return args[i].Value, nil
}

func numberArg(fn string, args []Arg, i int) (float64, error) {
	v, err := scalarArg(fn, args, i)
	if err != nil {
		return 0, err
	}
	f, ok := v.AsNumber()
	if !ok {
		return 0, invalidArgs(fn, "argument %d (%q) is not a number", i+1, v.String())
	}
	return f, nil
}

// numbers gathers aggregate inputs. Scalar arguments must be numeric;
// inside ranges, empty cells, booleans and non-numeric text are skipped.
func numbers(fn string, args []Arg) ([]float64, error) {
	var out []float64
	for i, a := range args {
		if a.IsRange {
			for _, v := range a.Range {
				switch v.Kind {
				case KindNumber:
					out = append(out, v.Num)
				case KindText:
					if f, ok := parseNumber(v.Str); ok {
						out = append(out, f)
					}
				}
			}
			continue
		}
		if a.Value.Kind == KindEmpty {
			continue
		}
		f, ok := a.Value.AsNumber()
		if !ok {
			return nil, invalidArgs(fn, "argument %d (%q) is not a number", i+1, a.Value.String())
		}
		out = append(out, f)
	}
	return out, nil
}

func fnSum(args []Arg) (Value, error) {
	nums, err := numbers("SUM", args)
	if err != nil {
		return Value{}, err
	}
	sum := 0.0
	for _, n := range nums {
		sum += n
	}
	return Number(sum), nil
}

func fnAverage(args []Arg) (Value, error) {
	nums, err := numbers("AVERAGE", args)
	if err != nil {
		return Value{}, err
	}
	if len(nums) == 0 {
		return Value{}, newError(DivisionByZero, "AVERAGE: no numeric values")
	}
	sum := 0.0
	for _, n := range nums {
		sum += n
	}
	return Number(sum / float64(len(nums))), nil
}

func fnMin(args []Arg) (Value, error) {
	nums, err := numbers("MIN", args)
	if err != nil {
		return Value{}, err
	}
	if len(nums) == 0 {
		return Number(0), nil
	}
	m := nums[0]
	for _, n := range nums[1:] {
		m = math.Min(m, n)
	}
	return Number(m), nil
}

func fnMax(args []Arg) (Value, error) {
	nums, err := numbers("MAX", args)
	if err != nil {
		return Value{}, err
	}
	if len(nums) == 0 {
		return Number(0), nil
	}
	m := nums[0]
	for _, n := range nums[1:] {
		m = math.Max(m, n)
	}
	return Number(m), nil
}

func fnProduct(args []Arg) (Value, error) {
	nums, err := numbers("PRODUCT", args)
	if err != nil {
		return Value{}, err
	}
	if len(nums) == 0 {
		return Number(0), nil
	}
	p := 1.0
	for _, n := range nums {
		p *= n
	}
	return Number(p), nil
}

func fnCount(args []Arg) (Value, error) {
	n := 0
	for _, a := range args {
		for _, v := range a.Values() {
			switch v.Kind {
			case KindNumber:
				n++
			case KindText:
				if _, ok := parseNumber(v.Str); ok {
					n++
				}
			}
		}
	}
	return Number(float64(n)), nil
}

func fnCountA(args []Arg) (Value, error) {
	n := 0
	for _, a := range args {
		for _, v := range a.Values() {
			if v.Kind != KindEmpty {
				n++
			}
		}
	}
	return Number(float64(n)), nil
}

func fnAbs(args []Arg) (Value, error) {
	if err := arity("ABS", args, 1, 1); err != nil {
		return Value{}, err
	}
	f, err := numberArg("ABS", args, 0)
	if err != nil {
		return Value{}, err
	}
	return Number(math.Abs(f)), nil
}

func fnRound(args []Arg) (Value, error) {
	if err := arity("ROUND", args, 1, 2); err != nil {
		return Value{}, err
	}
	f, err := numberArg("ROUND", args, 0)
	if err != nil {
		return Value{}, err
	}
	digits := 0.0
	if len(args) == 2 {
		if digits, err = numberArg("ROUND", args, 1); err != nil {
			return Value{}, err
		}
	}
	digits = math.Trunc(digits)
	if digits < 0 {
		p := math.Pow(10, -digits)
		return Number(math.Round(f/p) * p), nil
	}
	scale := math.Pow(10, digits)
	return Number(math.Round(f*scale) / scale), nil
}

func fnInt(args []Arg) (Value, error) {
	if err := arity("INT", args, 1, 1); err != nil {
		return Value{}, err
	}
	f, err := numberArg("INT", args, 0)
	if err != nil {
		return Value{}, err
	}
	return Number(math.Floor(f)), nil
}

func fnMod(args []Arg) (Value, error) {
	if err := arity("MOD", args, 2, 2); err != nil {
		return Value{}, err
	}
	a, err := numberArg("MOD", args, 0)
	if err != nil {
		return Value{}, err
	}
	b, err := numberArg("MOD", args, 1)
	if err != nil {
		return Value{}, err
	}
	if b == 0 {
		return Value{}, newError(DivisionByZero, "MOD: divisor is zero")
	}
	// result takes the sign of the divisor
	return Number(a - b*math.Floor(a/b)), nil
}

func fnPower(args []Arg) (Value, error) {
	if err := arity("POWER", args, 2, 2); err != nil {
		return Value{}, err
	}
	base, err := numberArg("POWER", args, 0)
	if err != nil {
		return Value{}, err
	}
	exp, err := numberArg("POWER", args, 1)
	if err != nil {
		return Value{}, err
	}
	return power(base, exp)
}

func power(base, exp float64) (Value, error) {
	if base == 0 && exp < 0 {
		return Value{}, newError(DivisionByZero, "zero raised to a negative power")
	}
	r := math.Pow(base, exp)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return Value{}, newError(InvalidArguments, "%s^%s is not a finite number",
			Number(base).String(), Number(exp).String())
	}
	return Number(r), nil
}

func fnSqrt(args []Arg) (Value, error) {
	if err := arity("SQRT", args, 1, 1); err != nil {
		return Value{}, err
	}
	f, err := numberArg("SQRT", args, 0)
	if err != nil {
		return Value{}, err
	}
	if f < 0 {
		return Value{}, invalidArgs("SQRT", "negative argument %s", Number(f).String())
	}
	return Number(math.Sqrt(f)), nil
}

// truth coerces a value to a boolean for logical functions.
func truth(fn string, v Value) (bool, bool, error) {
	switch v.Kind {
	case KindBool:
		return v.Bool, true, nil
	case KindNumber:
		return v.Num != 0, true, nil
	case KindText:
		switch strings.ToUpper(strings.TrimSpace(v.Str)) {
		case "TRUE":
			return true, true, nil
		case "FALSE":
			return false, true, nil
		}
		if f, ok := parseNumber(v.Str); ok {
			return f != 0, true, nil
		}
		return false, false, invalidArgs(fn, "%q is not a logical value", v.Str)
	}
	return false, false, nil
}

func logical(fn string, args []Arg, combine func(acc, b bool) bool, start bool) (Value, error) {
	if err := arity(fn, args, 1, -1); err != nil {
		return Value{}, err
	}
	acc, seen := start, false
	for _, a := range args {
		for _, v := range a.Values() {
			b, ok, err := truth(fn, v)
			if err != nil {
				return Value{}, err
			}
			if ok {
				acc, seen = combine(acc, b), true
			}
		}
	}
	if !seen {
		return Value{}, invalidArgs(fn, "no logical values")
	}
	return Boolean(acc), nil
}

func fnAnd(args []Arg) (Value, error) {
	return logical("AND", args, func(acc, b bool) bool { return acc && b }, true)
}

func fnOr(args []Arg) (Value, error) {
	return logical("OR", args, func(acc, b bool) bool { return acc || b }, false)
}

func fnNot(args []Arg) (Value, error) {
	if err := arity("NOT", args, 1, 1); err != nil {
		return Value{}, err
	}
	v, err := scalarArg("NOT", args, 0)
	if err != nil {
		return Value{}, err
	}
	b, _, err := truth("NOT", v)
	if err != nil {
		return Value{}, err
	}
	return Boolean(!b), nil
}

func fnConcat(args []Arg) (Value, error) {
	var b strings.Builder
	for _, a := range args {
		for _, v := range a.Values() {
			b.WriteString(v.String())
		}
	}
	return Text(b.String()), nil
}

func textArg(fn string, args []Arg) (string, error) {
	if err := arity(fn, args, 1, 1); err != nil {
		return "", err
	}
	v, err := scalarArg(fn, args, 0)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func fnLen(args []Arg) (Value, error) {
	s, err := textArg("LEN", args)
	if err != nil {
		return Value{}, err
	}
	return Number(float64(utf8.RuneCountInString(s))), nil
}

func fnUpper(args []Arg) (Value, error) {
	s, err := textArg("UPPER", args)
	if err != nil {
		return Value{}, err
	}
	return Text(strings.ToUpper(s)), nil
}

func fnLower(args []Arg) (Value, error) {
	s, err := textArg("LOWER", args)
	if err != nil {
		return Value{}, err
	}
	return Text(strings.ToLower(s)), nil
}

func fnTrim(args []Arg) (Value, error) {
	s, err := textArg("TRIM", args)
	if err != nil {
		return Value{}, err
	}
	return Text(strings.Join(strings.Fields(s), " ")), nil
}
