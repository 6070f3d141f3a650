package filter

import "testing"

func TestNewTerms_Validation(t *testing.T) {
	if _, err := NewTerms("", []string{"x"}); err == nil {
		t.Error("expected error for empty field")
	}
	if _, err := NewTerms("brand", nil); err == nil {
		t.Error("expected error for empty term list")
	}
	if _, err := NewTerms("brand", []string{"bosch", ""}); err == nil {
		t.Error("expected error for empty term")
	}

	c, err := NewTerms("brand", []string{"bosch"})
	if err != nil {
		t.Fatalf("NewTerms failed: %v", err)
	}
	if !c.IsTerms() || c.IsRange() {
		t.Errorf("unexpected condition kind: %+v", c)
	}
}

func TestNewRangeBounds_Validation(t *testing.T) {
	v := 5.0

	if _, err := NewRangeBounds(nil, nil, nil, nil); err == nil {
		t.Error("expected error for no boundaries")
	}
	if _, err := NewRangeBounds(&v, &v, nil, nil); err == nil {
		t.Error("expected error for gt+gte")
	}
	if _, err := NewRangeBounds(nil, nil, &v, &v); err == nil {
		t.Error("expected error for lt+lte")
	}

	r, err := NewRangeBounds(&v, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewRangeBounds failed: %v", err)
	}
	if r.GT() == nil || *r.GT() != 5 {
		t.Errorf("unexpected range: %+v", r)
	}
}

func TestBetween(t *testing.T) {
	r := Between(800, 1200)
	if *r.GTE() != 800 || *r.LTE() != 1200 {
		t.Errorf("unexpected bounds: %+v", r)
	}
}

func TestNewExpression_MaxConditions(t *testing.T) {
	conds := make([]Condition, MaxConditions+1)
	for i := range conds {
		c, _ := NewTerms("f", []string{"v"})
		conds[i] = c
	}
	if _, err := NewExpression(conds); err == nil {
		t.Error("expected error above MaxConditions")
	}
	if _, err := NewExpression(conds[:MaxConditions]); err != nil {
		t.Errorf("unexpected error at MaxConditions: %v", err)
	}
}

func TestAppend_DoesNotMutateOriginal(t *testing.T) {
	a, _ := NewTerms("brand", []string{"bosch"})
	b, _ := NewTerms("color", []string{"red"})
	expr, _ := NewExpression([]Condition{a})

	extended := expr.Append(b)
	if len(expr.Conditions()) != 1 {
		t.Errorf("original mutated: %d conditions", len(expr.Conditions()))
	}
	if len(extended.Conditions()) != 2 {
		t.Errorf("append lost a condition: %d", len(extended.Conditions()))
	}
}
