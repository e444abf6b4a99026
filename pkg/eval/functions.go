package eval

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/essadb/essadb/pkg/ast"
	"github.com/essadb/essadb/pkg/value"
)

// evalFunction dispatches a scalar SQL function call (spec §4.5.1).
// The function registry is a plain switch rather than a map of
// closures: argument arity and types differ enough per function that
// a uniform closure signature would just push the work into an
// argument-unpacking helper at every call site.
func evalFunction(n *ast.Function, ctx *Context) (value.Value, error) {
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := Eval(a, ctx)
		if err != nil {
			return value.Value{}, err
		}
		args[i] = v
	}

	str := func(i int) (string, error) {
		if i >= len(args) {
			return "", fmt.Errorf("%s: missing argument %d", n.Name, i)
		}
		return args[i].ToString(), nil
	}
	num := func(i int) (float32, error) {
		if i >= len(args) {
			return 0, fmt.Errorf("%s: missing argument %d", n.Name, i)
		}
		return args[i].ToFloat()
	}
	intArg := func(i int) (int32, error) {
		if i >= len(args) {
			return 0, fmt.Errorf("%s: missing argument %d", n.Name, i)
		}
		return args[i].ToInt()
	}

	switch n.Name {
	case "LEN", "LENGTH":
		s, err := str(0)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewInt(int32(len([]rune(s)))), nil

	case "ASCII":
		s, err := str(0)
		if err != nil {
			return value.Value{}, err
		}
		if s == "" {
			return value.Value{}, fmt.Errorf("ASCII: empty string")
		}
		return value.NewInt(int32(s[0])), nil

	case "CHAR":
		code, err := intArg(0)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewVarchar(string(rune(code))), nil

	case "CHARINDEX":
		needle, err := str(0)
		if err != nil {
			return value.Value{}, err
		}
		haystack, err := str(1)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewInt(int32(strings.Index(haystack, needle) + 1)), nil

	case "CONCAT":
		var sb strings.Builder
		for i := range args {
			s, _ := str(i)
			sb.WriteString(s)
		}
		return value.NewVarchar(sb.String()), nil

	case "LOWER":
		s, err := str(0)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewVarchar(strings.ToLower(s)), nil

	case "UPPER":
		s, err := str(0)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewVarchar(strings.ToUpper(s)), nil

	case "LEFT":
		s, err := str(0)
		if err != nil {
			return value.Value{}, err
		}
		n, err := intArg(1)
		if err != nil {
			return value.Value{}, err
		}
		r := []rune(s)
		if int(n) > len(r) {
			n = int32(len(r))
		}
		if n < 0 {
			n = 0
		}
		return value.NewVarchar(string(r[:n])), nil

	case "RIGHT":
		s, err := str(0)
		if err != nil {
			return value.Value{}, err
		}
		n, err := intArg(1)
		if err != nil {
			return value.Value{}, err
		}
		r := []rune(s)
		if int(n) > len(r) {
			n = int32(len(r))
		}
		if n < 0 {
			n = 0
		}
		return value.NewVarchar(string(r[len(r)-int(n):])), nil

	case "SUBSTRING":
		s, err := str(0)
		if err != nil {
			return value.Value{}, err
		}
		start, err := intArg(1)
		if err != nil {
			return value.Value{}, err
		}
		length, err := intArg(2)
		if err != nil {
			return value.Value{}, err
		}
		r := []rune(s)
		from := int(start) - 1
		if from < 0 {
			from = 0
		}
		if from > len(r) {
			from = len(r)
		}
		to := from + int(length)
		if to > len(r) {
			to = len(r)
		}
		if to < from {
			to = from
		}
		return value.NewVarchar(string(r[from:to])), nil

	case "LTRIM":
		s, err := str(0)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewVarchar(strings.TrimLeft(s, " \t\n\r")), nil

	case "RTRIM":
		s, err := str(0)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewVarchar(strings.TrimRight(s, " \t\n\r")), nil

	case "TRIM":
		s, err := str(0)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewVarchar(strings.TrimSpace(s)), nil

	case "REPLACE":
		s, err := str(0)
		if err != nil {
			return value.Value{}, err
		}
		from, err := str(1)
		if err != nil {
			return value.Value{}, err
		}
		to, err := str(2)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewVarchar(strings.ReplaceAll(s, from, to)), nil

	case "REPLICATE":
		s, err := str(0)
		if err != nil {
			return value.Value{}, err
		}
		n, err := intArg(1)
		if err != nil {
			return value.Value{}, err
		}
		if n < 0 {
			n = 0
		}
		return value.NewVarchar(strings.Repeat(s, int(n))), nil

	case "REVERSE":
		s, err := str(0)
		if err != nil {
			return value.Value{}, err
		}
		r := []rune(s)
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
		return value.NewVarchar(string(r)), nil

	case "STUFF":
		s, err := str(0)
		if err != nil {
			return value.Value{}, err
		}
		start, err := intArg(1)
		if err != nil {
			return value.Value{}, err
		}
		length, err := intArg(2)
		if err != nil {
			return value.Value{}, err
		}
		replacement, err := str(3)
		if err != nil {
			return value.Value{}, err
		}
		r := []rune(s)
		from := int(start) - 1
		if from < 0 || from > len(r) {
			return value.Value{}, fmt.Errorf("STUFF: start out of range")
		}
		to := from + int(length)
		if to > len(r) {
			to = len(r)
		}
		return value.NewVarchar(string(r[:from]) + replacement + string(r[to:])), nil

	case "TRANSLATE":
		s, err := str(0)
		if err != nil {
			return value.Value{}, err
		}
		from, err := str(1)
		if err != nil {
			return value.Value{}, err
		}
		to, err := str(2)
		if err != nil {
			return value.Value{}, err
		}
		fromR, toR := []rune(from), []rune(to)
		out := make([]rune, 0, len(s))
		for _, c := range s {
			replaced := false
			for i, fc := range fromR {
				if fc == c && i < len(toR) {
					out = append(out, toR[i])
					replaced = true
					break
				}
			}
			if !replaced {
				out = append(out, c)
			}
		}
		return value.NewVarchar(string(out)), nil

	case "STR":
		f, err := num(0)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewVarchar(strconv.FormatFloat(float64(f), 'f', -1, 32)), nil

	case "ABS":
		f, err := num(0)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewFloat(float32(math.Abs(float64(f)))), nil
	case "ACOS":
		return unaryMath(num, math.Acos)
	case "ASIN":
		return unaryMath(num, math.Asin)
	case "ATAN":
		return unaryMath(num, math.Atan)
	case "ATN2":
		a, err := num(0)
		if err != nil {
			return value.Value{}, err
		}
		b, err := num(1)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewFloat(float32(math.Atan2(float64(a), float64(b)))), nil
	case "CEILING":
		return unaryMath(num, math.Ceil)
	case "COS":
		return unaryMath(num, math.Cos)
	case "COT":
		f, err := num(0)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewFloat(float32(1 / math.Tan(float64(f)))), nil
	case "DEGREES":
		f, err := num(0)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewFloat(float32(f * 180 / math.Pi)), nil
	case "EXP":
		return unaryMath(num, math.Exp)
	case "FLOOR":
		return unaryMath(num, math.Floor)
	case "LOG":
		return unaryMath(num, math.Log)
	case "LOG10":
		return unaryMath(num, math.Log10)
	case "PI":
		return value.NewFloat(float32(math.Pi)), nil
	case "POWER":
		a, err := num(0)
		if err != nil {
			return value.Value{}, err
		}
		b, err := num(1)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewFloat(float32(math.Pow(float64(a), float64(b)))), nil
	case "RAND":
		return value.NewFloat(rand.Float32()), nil
	case "ROUND":
		f, err := num(0)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewFloat(float32(math.Round(float64(f)))), nil
	case "SIGN":
		f, err := num(0)
		if err != nil {
			return value.Value{}, err
		}
		switch {
		case f > 0:
			return value.NewInt(1), nil
		case f < 0:
			return value.NewInt(-1), nil
		default:
			return value.NewInt(0), nil
		}
	case "SIN":
		return unaryMath(num, math.Sin)
	case "SQRT":
		return unaryMath(num, math.Sqrt)
	case "SQUARE":
		f, err := num(0)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewFloat(f * f), nil
	case "TAN":
		return unaryMath(num, math.Tan)

	case "IFNULL":
		if !args[0].IsNull() {
			return args[0], nil
		}
		return args[1], nil

	case "DATEDIFF":
		a, err := args[0].ToTime()
		if err != nil {
			return value.Value{}, err
		}
		b, err := args[1].ToTime()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewInt(int32(a.Ordinal() - b.Ordinal())), nil

	case "DAY":
		d, err := args[0].ToTime()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewInt(int32(d.Day)), nil
	case "MONTH":
		d, err := args[0].ToTime()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewInt(int32(d.Month)), nil
	case "YEAR":
		d, err := args[0].ToTime()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewInt(int32(d.Year)), nil
	}

	return value.Value{}, fmt.Errorf("unknown function '%s'", n.Name)
}

func unaryMath(num func(int) (float32, error), fn func(float64) float64) (value.Value, error) {
	f, err := num(0)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(float32(fn(float64(f)))), nil
}
