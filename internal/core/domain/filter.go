package domain

// FilterOperator is one of the operators of the filter expression language.
type FilterOperator string

const (
	// FilterOpEq matches nodes whose property equals the value.
	FilterOpEq FilterOperator = "=="
	// FilterOpNotEq matches nodes whose property differs from the value.
	FilterOpNotEq FilterOperator = "!="
	// FilterOpLess matches nodes whose property is less than the value.
	FilterOpLess FilterOperator = "<"
	// FilterOpLessEq matches nodes whose property is at most the value.
	FilterOpLessEq FilterOperator = "<="
	// FilterOpGreater matches nodes whose property is greater than the value.
	FilterOpGreater FilterOperator = ">"
	// FilterOpGreaterEq matches nodes whose property is at least the value.
	FilterOpGreaterEq FilterOperator = ">="
	// FilterOpIn matches nodes whose property is one of the values.
	FilterOpIn FilterOperator = "in"
	// FilterOpNotIn matches nodes whose property is none of the values.
	FilterOpNotIn FilterOperator = "!in"
	// FilterOpAll is the conjunction of nested expressions.
	FilterOpAll FilterOperator = "all"
)

// FilterExpression is the parsed form of the declarative filter wire format
// [operator, property-path, values...]. A nil expression is the always-true
// filter.
type FilterExpression struct {
	Op       FilterOperator
	Path     string
	Values   []any
	Children []*FilterExpression
}

// FilterFunc is an executable node predicate compiled from a FilterExpression.
type FilterFunc func(*Node) bool

// ParseFilter parses the nested literal wire format into an expression tree.
// Comparison and membership operators take a dotted property-path string
// followed by literal values; "all" takes nested expressions only.
// A nil or empty raw expression parses to nil, the always-true filter.
func ParseFilter(raw []any) (*FilterExpression, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	opStr, ok := raw[0].(string)
	if !ok {
		return nil, WithDetail(ErrFilterOperator, "operator", raw[0])
	}
	op := FilterOperator(opStr)

	switch op {
	case FilterOpAll:
		expr := &FilterExpression{Op: op}
		for _, child := range raw[1:] {
			sub, ok := child.([]any)
			if !ok {
				return nil, WithDetail(ErrFilterOperand, "operand", child)
			}
			parsed, err := ParseFilter(sub)
			if err != nil {
				return nil, err
			}
			if parsed != nil {
				expr.Children = append(expr.Children, parsed)
			}
		}
		return expr, nil

	case FilterOpEq, FilterOpNotEq, FilterOpLess, FilterOpLessEq,
		FilterOpGreater, FilterOpGreaterEq:
		if len(raw) != 3 {
			return nil, WithDetail(ErrFilterOperand, "operator", opStr)
		}
		path, values, err := parseOperands(raw)
		if err != nil {
			return nil, err
		}
		return &FilterExpression{Op: op, Path: path, Values: values}, nil

	case FilterOpIn, FilterOpNotIn:
		if len(raw) < 2 {
			return nil, WithDetail(ErrFilterOperand, "operator", opStr)
		}
		path, values, err := parseOperands(raw)
		if err != nil {
			return nil, err
		}
		// Accept both ["in", path, v1, v2] and ["in", path, [v1, v2]].
		if len(values) == 1 {
			if list, ok := values[0].([]any); ok {
				values = list
			}
		}
		return &FilterExpression{Op: op, Path: path, Values: values}, nil

	default:
		return nil, WithDetail(ErrFilterOperator, "operator", opStr)
	}
}

func parseOperands(raw []any) (string, []any, error) {
	path, ok := raw[1].(string)
	if !ok {
		return "", nil, WithDetail(ErrFilterOperand, "path", raw[1])
	}
	values := make([]any, 0, len(raw)-2)
	for _, v := range raw[2:] {
		switch v.(type) {
		case string, bool, float64, int, int64, []any:
		default:
			return "", nil, WithDetail(ErrFilterOperand, "value", v)
		}
		values = append(values, v)
	}
	return path, values, nil
}
