package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/omnisearch/internal/db"
)

// Facets counts documents per value of one field over the filtered set via
// FT.AGGREGATE GROUPBY.
func (s *Store) Facets(ctx context.Context, q *db.FacetQuery) (*db.FacetResult, error) {
	if q.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Field == "" {
		return nil, fmt.Errorf("facet field is required")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	queryStr, err := renderBase(q.Isolation, q.Filters)
	if err != nil {
		return nil, err
	}

	args := []string{q.Index, queryStr,
		"GROUPBY", "1", "@" + q.Field,
		"REDUCE", "COUNT", "0", "AS", "__count",
		"SORTBY", "2", "@__count", "DESC",
		"LIMIT", "0", strconv.Itoa(limit),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	return parseFacetResult(q.Field, raw)
}

// parseFacetResult parses an FT.AGGREGATE reply: [total, row1, row2, ...]
// where each row is a flat field-value pair array.
func parseFacetResult(field string, raw []rueidis.RedisMessage) (*db.FacetResult, error) {
	res := &db.FacetResult{Field: field}
	if len(raw) == 0 {
		return res, nil
	}

	for _, msg := range raw[1:] {
		row, err := msg.ToArray()
		if err != nil {
			continue
		}
		pairs := parseFieldPairs(row)

		value, ok := pairs[field]
		if !ok {
			continue
		}
		count, err := strconv.ParseInt(pairs["__count"], 10, 64)
		if err != nil {
			continue
		}
		res.Groups = append(res.Groups, db.FacetGroup{Value: value, Count: count})
	}

	return res, nil
}
