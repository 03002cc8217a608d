package domain

import (
	"fmt"
	"reflect"
	"strings"
)

// Condition is a node in a policy condition document: either exactly one
// branch operator (All, Any, Not) or a leaf comparison (Attr, Op, Value).
// Documents are plain JSON, e.g.
//
//	{"all": [
//	  {"attr": "principal.department", "op": "eq", "value": "engineering"},
//	  {"not": {"attr": "resource.classified", "op": "eq", "value": true}}
//	]}
//
// Attributes are namespaced: "principal.*", "resource.*" and "request.*"
// keys of a flat attribute context assembled at evaluation time.
type Condition struct {
	All []*Condition `json:"all,omitempty"`
	Any []*Condition `json:"any,omitempty"`
	Not *Condition   `json:"not,omitempty"`

	Attr  string `json:"attr,omitempty"`
	Op    string `json:"op,omitempty"`
	Value any    `json:"value,omitempty"`
}

// Comparison operators supported by leaf conditions.
const (
	OpEqual          = "eq"
	OpNotEqual       = "ne"
	OpIn             = "in"
	OpNotIn          = "nin"
	OpGreaterThan    = "gt"
	OpGreaterOrEqual = "gte"
	OpLessThan       = "lt"
	OpLessOrEqual    = "lte"
	OpContains       = "contains"
	OpExists         = "exists"
)

// Validate checks the structural well-formedness of the condition tree:
// every node must be exactly one of a branch or a leaf, branches must be
// non-empty, and leaf operators must be known. Malformed documents are
// rejected at write time so evaluation never sees them.
func (c *Condition) Validate() error {
	if c == nil {
		return fmt.Errorf("condition node is null")
	}

	branches := 0
	if len(c.All) > 0 {
		branches++
	}
	if len(c.Any) > 0 {
		branches++
	}
	if c.Not != nil {
		branches++
	}

	isLeaf := c.Attr != "" || c.Op != ""

	switch {
	case branches == 0 && !isLeaf:
		return fmt.Errorf("condition node is empty")
	case branches > 1, branches == 1 && isLeaf:
		return fmt.Errorf("condition node mixes operators")
	}

	if isLeaf {
		if c.Attr == "" {
			return fmt.Errorf("leaf condition missing attr")
		}
		switch c.Op {
		case OpEqual, OpNotEqual, OpIn, OpNotIn,
			OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual,
			OpContains, OpExists:
		default:
			return fmt.Errorf("unknown operator %q", c.Op)
		}
		return nil
	}

	for _, child := range c.All {
		if err := child.Validate(); err != nil {
			return err
		}
	}
	for _, child := range c.Any {
		if err := child.Validate(); err != nil {
			return err
		}
	}
	if c.Not != nil {
		return c.Not.Validate()
	}
	return nil
}

// Evaluate runs the condition tree against the attribute context.
//
// A missing attribute is an evaluation error for every operator except
// "exists"; callers treat evaluation errors as a distinct failure mode that
// fails closed, never as ALLOW. Child evaluation is not short-circuited
// past an error: the first error encountered aborts the whole evaluation.
func (c *Condition) Evaluate(attrs map[string]any) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("condition node is null")
	}

	switch {
	case len(c.All) > 0:
		for _, child := range c.All {
			ok, err := child.Evaluate(attrs)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil

	case len(c.Any) > 0:
		result := false
		for _, child := range c.Any {
			ok, err := child.Evaluate(attrs)
			if err != nil {
				return false, err
			}
			if ok {
				result = true
			}
		}
		return result, nil

	case c.Not != nil:
		ok, err := c.Not.Evaluate(attrs)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}

	return c.evaluateLeaf(attrs)
}

func (c *Condition) evaluateLeaf(attrs map[string]any) (bool, error) {
	if c.Attr == "" {
		return false, fmt.Errorf("leaf condition missing attr")
	}

	value, present := attrs[c.Attr]

	if c.Op == OpExists {
		want := true
		if b, ok := c.Value.(bool); ok {
			want = b
		}
		return present == want, nil
	}

	if !present {
		return false, fmt.Errorf("attribute %q not present", c.Attr)
	}

	switch c.Op {
	case OpEqual:
		return equalValues(value, c.Value), nil
	case OpNotEqual:
		return !equalValues(value, c.Value), nil
	case OpIn:
		return containsValue(c.Value, value, c.Attr)
	case OpNotIn:
		ok, err := containsValue(c.Value, value, c.Attr)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual:
		return compareNumbers(c.Op, value, c.Value, c.Attr)
	case OpContains:
		return attrContains(value, c.Value, c.Attr)
	default:
		return false, fmt.Errorf("unknown operator %q", c.Op)
	}
}

// equalValues compares two values, coercing numerics to float64 so that
// JSON numbers (always float64) compare equal to Go integer attributes.
func equalValues(a, b any) bool {
	aNum, aOK := toFloat64(a)
	bNum, bOK := toFloat64(b)
	if aOK && bOK {
		return aNum == bNum
	}
	return reflect.DeepEqual(a, b)
}

// containsValue checks membership of needle in a JSON array condition value.
func containsValue(haystack any, needle any, attr string) (bool, error) {
	items, ok := toSlice(haystack)
	if !ok {
		return false, fmt.Errorf("operator on %q requires an array value", attr)
	}
	for _, item := range items {
		if equalValues(needle, item) {
			return true, nil
		}
	}
	return false, nil
}

// attrContains checks whether a string attribute contains a substring or an
// array attribute contains an element.
func attrContains(attrValue any, needle any, attr string) (bool, error) {
	if s, ok := attrValue.(string); ok {
		sub, ok := needle.(string)
		if !ok {
			return false, fmt.Errorf("contains on string attribute %q requires a string value", attr)
		}
		return strings.Contains(s, sub), nil
	}

	items, ok := toSlice(attrValue)
	if !ok {
		return false, fmt.Errorf("contains requires a string or array attribute %q", attr)
	}
	for _, item := range items {
		if equalValues(item, needle) {
			return true, nil
		}
	}
	return false, nil
}

// compareNumbers applies an ordering operator to two numeric values.
func compareNumbers(op string, attrValue, condValue any, attr string) (bool, error) {
	a, aOK := toFloat64(attrValue)
	b, bOK := toFloat64(condValue)
	if !aOK || !bOK {
		return false, fmt.Errorf("operator %q on %q requires numeric values", op, attr)
	}

	switch op {
	case OpGreaterThan:
		return a > b, nil
	case OpGreaterOrEqual:
		return a >= b, nil
	case OpLessThan:
		return a < b, nil
	case OpLessOrEqual:
		return a <= b, nil
	default:
		return false, fmt.Errorf("unknown ordering operator %q", op)
	}
}

// toFloat64 coerces any Go or JSON numeric type to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// toSlice normalizes typed and untyped slices to []any.
func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		items := make([]any, len(s))
		for i, item := range s {
			items[i] = item
		}
		return items, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
