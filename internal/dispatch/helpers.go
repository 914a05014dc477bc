package dispatch

import (
	"errors"
	"math"
	"strconv"

	"github.com/adred-codev/kvdb/internal/kvvalue"
)

var (
	errNotInt   = errors.New("not an integer")
	errNotFloat = errors.New("not a float")
)

func argString(v kvvalue.Value) string {
	b, _ := v.AsBytes()
	return string(b)
}

func argInt(v kvvalue.Value) (int64, error) {
	b, ok := v.AsBytes()
	if !ok {
		return 0, errNotInt
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, errNotInt
	}
	return n, nil
}

func argFloat(v kvvalue.Value) (float64, error) {
	b, ok := v.AsBytes()
	if !ok {
		return 0, errNotFloat
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(f) {
		return 0, errNotFloat
	}
	return f, nil
}

func notAnInt() kvvalue.Value  { return kvvalue.Err(kvvalue.ErrNotAnInt, "") }
func notAFloat() kvvalue.Value { return kvvalue.Err(kvvalue.ErrNotAFloat, "") }
func wrongType() kvvalue.Value { return kvvalue.WrongType() }
func syntaxErr() kvvalue.Value { return kvvalue.Err(kvvalue.ErrSyntax, "error") }
