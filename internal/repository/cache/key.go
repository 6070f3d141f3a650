package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/omnisearch/internal/domain/search/filter"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/request"
)

// Key derives the content-addressed cache key for a request. Every component
// is sorted or normalized first, so field order in the incoming request never
// changes the key.
func Key(req *request.Request) string {
	var b strings.Builder

	b.WriteString(req.TenantID())
	b.WriteByte('|')

	mods := make([]string, 0, len(req.Modalities()))
	for _, m := range req.Modalities() {
		mods = append(mods, string(m))
	}
	// already sorted by request.New, sorted again for safety
	sort.Strings(mods)
	b.WriteString(strings.Join(mods, ","))
	b.WriteByte('|')

	b.WriteString(strings.ToLower(strings.TrimSpace(req.QueryText())))
	b.WriteByte('|')

	b.WriteString(canonicalFilters(req.Filters()))
	b.WriteByte('|')

	specs := make([]string, 0, len(req.Specifications()))
	for _, s := range req.Specifications() {
		specs = append(specs, fmt.Sprintf("%s=%g%s", s.Name(), s.Value(), s.Unit()))
	}
	sort.Strings(specs)
	b.WriteString(strings.Join(specs, ";"))
	b.WriteByte('|')

	if vec := req.Vector(); len(vec) > 0 {
		h := xxhash.New()
		for _, v := range vec {
			fmt.Fprintf(h, "%g,", v)
		}
		fmt.Fprintf(&b, "v%016x", h.Sum64())
	} else if req.ImageRef() != "" {
		b.WriteString("r" + req.ImageRef())
	}
	b.WriteByte('|')

	fmt.Fprintf(&b, "k%d|o%d|l%d|m%t", req.K(), req.Offset(), req.Limit(), req.IncludeMarketplace())

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// canonicalFilters renders filter conditions sorted by field, then by the
// condition's own canonical form. Term lists are sorted internally.
func canonicalFilters(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, len(expr.Conditions()))
	for _, c := range expr.Conditions() {
		parts = append(parts, canonicalCondition(c))
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

func canonicalCondition(c filter.Condition) string {
	if c.IsTerms() {
		terms := make([]string, len(c.Terms()))
		copy(terms, c.Terms())
		sort.Strings(terms)
		return c.Field() + "=" + strings.Join(terms, ",")
	}
	if r := c.Range(); r != nil {
		var b strings.Builder
		b.WriteString(c.Field())
		if r.GT() != nil {
			fmt.Fprintf(&b, ">%g", *r.GT())
		}
		if r.GTE() != nil {
			fmt.Fprintf(&b, ">=%g", *r.GTE())
		}
		if r.LT() != nil {
			fmt.Fprintf(&b, "<%g", *r.LT())
		}
		if r.LTE() != nil {
			fmt.Fprintf(&b, "<=%g", *r.LTE())
		}
		return b.String()
	}
	return c.Field()
}
