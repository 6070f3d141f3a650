package redis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/omnisearch/internal/db"
	"github.com/kailas-cloud/omnisearch/internal/domain/search/filter"
)

// renderBase builds the query prefix shared by all modalities: the mandatory
// isolation clause followed by the attribute filter clauses. An empty
// isolation clause is rejected so no query can reach the backend without one.
func renderBase(iso db.Isolation, filters filter.Expression) (string, error) {
	if iso.Empty() {
		return "", db.ErrMissingIsolation
	}
	parts := []string{renderIsolation(iso)}
	if f := renderFilters(filters); f != "" {
		parts = append(parts, f)
	}
	return strings.Join(parts, " "), nil
}

func renderIsolation(iso db.Isolation) string {
	if iso.Marketplace {
		clause := "@visibility:{marketplace}"
		if iso.ExcludeTenantID != "" {
			clause += " -@tenant_id:{" + tagEscaper.Replace(iso.ExcludeTenantID) + "}"
		}
		return clause
	}
	return "@tenant_id:{" + tagEscaper.Replace(iso.TenantID) + "}"
}

// renderFilters translates a conjunctive filter expression into FT syntax.
func renderFilters(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, len(expr.Conditions()))
	for _, cond := range expr.Conditions() {
		parts = append(parts, renderCondition(cond))
	}
	return strings.Join(parts, " ")
}

func renderCondition(cond filter.Condition) string {
	if cond.IsTerms() {
		return renderTagFilter(cond.Field(), cond.Terms())
	}
	if cond.IsRange() {
		return renderNumericFilter(cond.Field(), *cond.Range())
	}
	return ""
}

func renderTagFilter(field string, terms []string) string {
	escaped := make([]string, len(terms))
	for i, t := range terms {
		escaped[i] = tagEscaper.Replace(t)
	}
	return fmt.Sprintf("@%s:{%s}", field, strings.Join(escaped, "|"))
}

func renderNumericFilter(field string, r filter.Range) string {
	minBound := "-inf"
	maxBound := "+inf"

	if r.GT() != nil {
		minBound = fmt.Sprintf("(%g", *r.GT())
	} else if r.GTE() != nil {
		minBound = fmt.Sprintf("%g", *r.GTE())
	}

	if r.LT() != nil {
		maxBound = fmt.Sprintf("(%g", *r.LT())
	} else if r.LTE() != nil {
		maxBound = fmt.Sprintf("%g", *r.LTE())
	}

	return fmt.Sprintf("@%s:[%s %s]", field, minBound, maxBound)
}

// renderTextClause builds the scored lexical part of a text query: a union of
// per-field clauses carrying query-time weights, with optional fuzzy terms.
// Fields are sorted so identical inputs always render identically.
func renderTextClause(query string, boosts map[string]float64, fuzzy bool) string {
	terms := strings.Fields(query)
	rendered := make([]string, 0, len(terms))
	for _, t := range terms {
		escaped := escapeQuery(t)
		if fuzzy {
			escaped = "%" + escaped + "%"
		}
		rendered = append(rendered, escaped)
	}
	termsPart := strings.Join(rendered, " ")

	if len(boosts) == 0 {
		return "(" + termsPart + ")"
	}

	fields := make([]string, 0, len(boosts))
	for f := range boosts {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	clauses := make([]string, 0, len(fields))
	for _, f := range fields {
		clauses = append(clauses, fmt.Sprintf("(@%s:(%s))=>{$weight:%g;}", f, termsPart, boosts[f]))
	}
	return "(" + strings.Join(clauses, " | ") + ")"
}

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`:`, `\:`,
	`~`, `\~`,
	`*`, `\*`,
)
