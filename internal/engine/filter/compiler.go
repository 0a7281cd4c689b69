// Package filter compiles declarative filter expressions into node predicates.
package filter

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/streetgraph/internal/core/domain"
)

// Compile turns an expression tree into a reusable node predicate.
// A nil expression compiles to the always-true filter. Compiling is cheap
// but only redone when the filter changes: the predicate is invoked once per
// candidate node on every spatial-edge computation.
//
// Missing-property semantics: if the dotted path is absent on the candidate,
// comparison and membership operators evaluate to false.
// Ordered comparisons additionally require operand type equality; a numeric
// property compared to a string constant is false, not a type error.
func Compile(expr *domain.FilterExpression) (domain.FilterFunc, error) {
	if expr == nil {
		return func(*domain.Node) bool { return true }, nil
	}

	switch expr.Op {
	case domain.FilterOpAll:
		children := make([]domain.FilterFunc, 0, len(expr.Children))
		for _, child := range expr.Children {
			fn, err := Compile(child)
			if err != nil {
				return nil, err
			}
			children = append(children, fn)
		}
		return func(n *domain.Node) bool {
			for _, fn := range children {
				if !fn(n) {
					return false
				}
			}
			return true
		}, nil

	case domain.FilterOpEq, domain.FilterOpNotEq:
		if len(expr.Values) != 1 {
			return nil, domain.WithDetail(domain.ErrFilterOperand, "operator", string(expr.Op))
		}
		return compileEquality(expr.Path, normalize(expr.Values[0]), expr.Op == domain.FilterOpNotEq), nil

	case domain.FilterOpLess, domain.FilterOpLessEq, domain.FilterOpGreater, domain.FilterOpGreaterEq:
		if len(expr.Values) != 1 {
			return nil, domain.WithDetail(domain.ErrFilterOperand, "operator", string(expr.Op))
		}
		return compileOrdered(expr.Op, expr.Path, normalize(expr.Values[0])), nil

	case domain.FilterOpIn, domain.FilterOpNotIn:
		return compileMembership(expr.Path, expr.Values, expr.Op == domain.FilterOpNotIn), nil

	default:
		return nil, domain.WithDetail(domain.ErrFilterOperator, "operator", string(expr.Op))
	}
}

// Hash returns a stable 64-bit identity of the expression, used as the
// spatial-edge generation token. Equal expressions hash equally; the nil
// expression hashes to a fixed value.
func Hash(expr *domain.FilterExpression) uint64 {
	d := xxhash.New()
	hashInto(d, expr)
	return d.Sum64()
}

func hashInto(d *xxhash.Digest, expr *domain.FilterExpression) {
	if expr == nil {
		_, _ = d.WriteString("nil")
		return
	}
	_, _ = d.WriteString(string(expr.Op))
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(expr.Path)
	for _, v := range expr.Values {
		_, _ = d.WriteString("|")
		hashValue(d, normalize(v))
	}
	for _, child := range expr.Children {
		_, _ = d.WriteString("(")
		hashInto(d, child)
		_, _ = d.WriteString(")")
	}
}

func hashValue(d *xxhash.Digest, v any) {
	switch t := v.(type) {
	case string:
		_, _ = d.WriteString("s:" + t)
	case bool:
		_, _ = d.WriteString(fmt.Sprintf("b:%t", t))
	case float64:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(t))
		_, _ = d.WriteString("f:")
		_, _ = d.Write(buf[:])
	default:
		_, _ = d.WriteString(fmt.Sprintf("?:%v", t))
	}
}

// normalize collapses numeric literal types to float64 so wire-decoded
// values compare consistently with node properties.
func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}

func compileEquality(path string, value any, negate bool) domain.FilterFunc {
	return func(n *domain.Node) bool {
		prop, ok := n.Property(path)
		if !ok {
			return false
		}
		equal := normalize(prop) == value
		if negate {
			return !equal
		}
		return equal
	}
}

func compileOrdered(op domain.FilterOperator, path string, value any) domain.FilterFunc {
	return func(n *domain.Node) bool {
		prop, ok := n.Property(path)
		if !ok {
			return false
		}
		switch want := value.(type) {
		case float64:
			got, ok := normalize(prop).(float64)
			if !ok {
				return false
			}
			return compare(op, got, want)
		case string:
			got, ok := prop.(string)
			if !ok {
				return false
			}
			return compare(op, got, want)
		default:
			// Booleans and other types have no ordering.
			return false
		}
	}
}

func compare[T float64 | string](op domain.FilterOperator, got, want T) bool {
	switch op {
	case domain.FilterOpLess:
		return got < want
	case domain.FilterOpLessEq:
		return got <= want
	case domain.FilterOpGreater:
		return got > want
	case domain.FilterOpGreaterEq:
		return got >= want
	default:
		return false
	}
}

// membership holds the pre-sorted value lists of an in/!in operator.
type membership struct {
	numbers  []float64
	strings  []string
	hasTrue  bool
	hasFalse bool
}

func compileMembership(path string, values []any, negate bool) domain.FilterFunc {
	var m membership
	for _, raw := range values {
		switch v := normalize(raw).(type) {
		case float64:
			m.numbers = append(m.numbers, v)
		case string:
			m.strings = append(m.strings, v)
		case bool:
			if v {
				m.hasTrue = true
			} else {
				m.hasFalse = true
			}
		}
	}
	sort.Float64s(m.numbers)
	sort.Strings(m.strings)

	return func(n *domain.Node) bool {
		prop, ok := n.Property(path)
		if !ok {
			return false
		}
		found := m.contains(normalize(prop))
		if negate {
			return !found
		}
		return found
	}
}

func (m *membership) contains(v any) bool {
	switch t := v.(type) {
	case float64:
		i := sort.SearchFloat64s(m.numbers, t)
		return i < len(m.numbers) && m.numbers[i] == t
	case string:
		i := sort.SearchStrings(m.strings, t)
		return i < len(m.strings) && m.strings[i] == t
	case bool:
		if t {
			return m.hasTrue
		}
		return m.hasFalse
	default:
		return false
	}
}
