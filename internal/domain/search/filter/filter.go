package filter

import "fmt"

// MaxConditions caps the number of conditions in one expression.
const MaxConditions = 32

// Expression is a conjunctive set of attribute constraints. Every condition
// must hold for a document to match.
type Expression struct {
	conditions []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(conditions []Condition) (Expression, error) {
	if len(conditions) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	return Expression{conditions: conditions}, nil
}

// Conditions returns the conditions in insertion order.
func (e Expression) Conditions() []Condition { return e.conditions }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.conditions) == 0 }

// Append returns a new expression with extra conditions added.
func (e Expression) Append(conditions ...Condition) Expression {
	merged := make([]Condition, 0, len(e.conditions)+len(conditions))
	merged = append(merged, e.conditions...)
	merged = append(merged, conditions...)
	return Expression{conditions: merged}
}

// Condition is a single attribute constraint: either a term list (any of the
// terms matches) or a numeric range.
type Condition struct {
	field     string
	terms     []string
	rangeExpr *Range
}

// NewTerms creates a term-list condition.
func NewTerms(field string, terms []string) (Condition, error) {
	if field == "" {
		return Condition{}, fmt.Errorf("filter field is required")
	}
	if len(terms) == 0 {
		return Condition{}, fmt.Errorf("at least one term is required for field %q", field)
	}
	for _, t := range terms {
		if t == "" {
			return Condition{}, fmt.Errorf("empty term for field %q", field)
		}
	}
	return Condition{field: field, terms: terms}, nil
}

// NewRange creates a numeric range condition.
func NewRange(field string, r Range) (Condition, error) {
	if field == "" {
		return Condition{}, fmt.Errorf("filter field is required")
	}
	return Condition{field: field, rangeExpr: &r}, nil
}

// Field returns the document field name.
func (c Condition) Field() string { return c.field }

// Terms returns the accepted term values.
func (c Condition) Terms() []string { return c.terms }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsTerms reports whether this is a term-list condition.
func (c Condition) IsTerms() bool { return len(c.terms) > 0 }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeBounds validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRangeBounds(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// Between creates an inclusive [lo, hi] range.
func Between(lo, hi float64) Range {
	return Range{gte: &lo, lte: &hi}
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }
