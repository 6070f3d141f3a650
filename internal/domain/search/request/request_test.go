package request

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/omnisearch/internal/domain"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/filter"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/modality"
)

func validParams() Params {
	return Params{
		TenantID:   "acme",
		Modalities: []modality.Modality{modality.Text},
		QueryText:  "pump",
		Limit:      10,
	}
}

func TestNew_Valid(t *testing.T) {
	req, err := New(validParams())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if req.TenantID() != "acme" || req.QueryText() != "pump" || req.Limit() != 10 {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestNew_SortsAndDeduplicatesModalities(t *testing.T) {
	p := validParams()
	p.Modalities = []modality.Modality{modality.Text, modality.Attribute, modality.Text}
	terms, _ := filter.NewTerms("brand", []string{"bosch"})
	p.Filters, _ = filter.NewExpression([]filter.Condition{terms})

	req, err := New(p)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	mods := req.Modalities()
	if len(mods) != 2 || mods[0] != modality.Attribute || mods[1] != modality.Text {
		t.Errorf("modalities = %v", mods)
	}
}

func TestNew_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Params)
	}{
		{"missing tenant", func(p *Params) { p.TenantID = "" }},
		{"no modalities", func(p *Params) { p.Modalities = nil }},
		{"unknown modality", func(p *Params) { p.Modalities = []modality.Modality{"video"} }},
		{"text without query", func(p *Params) { p.QueryText = "" }},
		{"attribute without filters", func(p *Params) {
			p.Modalities = []modality.Modality{modality.Attribute}
		}},
		{"specification without constraints", func(p *Params) {
			p.Modalities = []modality.Modality{modality.Specification}
		}},
		{"image without vector or ref", func(p *Params) {
			p.Modalities = []modality.Modality{modality.Image}
		}},
		{"zero limit", func(p *Params) { p.Limit = 0 }},
		{"negative offset", func(p *Params) { p.Offset = -1 }},
		{"negative k", func(p *Params) { p.K = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			_, err := New(p)
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestNew_ImageWithVector(t *testing.T) {
	p := validParams()
	p.Modalities = []modality.Modality{modality.Image}
	p.QueryText = ""
	p.Vector = []float32{0.1, 0.2}

	req, err := New(p)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !req.Has(modality.Image) || len(req.Vector()) != 2 {
		t.Errorf("unexpected request: %+v", req)
	}
}
