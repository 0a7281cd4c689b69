package domain_test

import (
	"errors"
	"testing"

	"go.trai.ch/streetgraph/internal/core/domain"
)

func TestParseFilter_Empty(t *testing.T) {
	expr, err := domain.ParseFilter(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr != nil {
		t.Fatalf("expected nil expression, got %+v", expr)
	}
}

func TestParseFilter_Comparison(t *testing.T) {
	expr, err := domain.ParseFilter([]any{"==", "full", true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.Op != domain.FilterOpEq || expr.Path != "full" {
		t.Errorf("unexpected expression: %+v", expr)
	}
	if len(expr.Values) != 1 || expr.Values[0] != true {
		t.Errorf("unexpected values: %v", expr.Values)
	}
}

func TestParseFilter_MembershipNestedList(t *testing.T) {
	flat, err := domain.ParseFilter([]any{"in", "sequenceKey", "s1", "s2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nested, err := domain.ParseFilter([]any{"in", "sequenceKey", []any{"s1", "s2"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flat.Values) != 2 || len(nested.Values) != 2 {
		t.Errorf("flat=%v nested=%v", flat.Values, nested.Values)
	}
}

func TestParseFilter_Conjunction(t *testing.T) {
	expr, err := domain.ParseFilter([]any{
		"all",
		[]any{"==", "full", true},
		[]any{">=", "quality", 0.5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.Op != domain.FilterOpAll || len(expr.Children) != 2 {
		t.Errorf("unexpected expression: %+v", expr)
	}
}

func TestParseFilter_Invalid(t *testing.T) {
	cases := []struct {
		name string
		raw  []any
		want error
	}{
		{"unknown operator", []any{"~=", "key", "v"}, domain.ErrFilterOperator},
		{"non-string operator", []any{1, "key", "v"}, domain.ErrFilterOperator},
		{"missing value", []any{"==", "key"}, domain.ErrFilterOperand},
		{"extra values", []any{"<", "quality", 1, 2}, domain.ErrFilterOperand},
		{"non-string path", []any{"==", 7, "v"}, domain.ErrFilterOperand},
		{"non-expression child", []any{"all", "oops"}, domain.ErrFilterOperand},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.ParseFilter(tc.raw)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
