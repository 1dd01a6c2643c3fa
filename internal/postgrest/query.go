package postgrest

import (
	"fmt"
	"net/url"
	"strings"
)

// Query holds PostgREST filter, order, and limit parameters.
type Query struct {
	values url.Values
}

// NewQuery returns an empty query.
func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

// Filter adds "column=op.value".
func (q *Query) Filter(column, op, value string) *Query {
	q.values.Add(column, op+"."+value)
	return q
}

// Eq adds an equality filter.
func (q *Query) Eq(column, value string) *Query {
	return q.Filter(column, "eq", value)
}

// Order appends an ordering term.
func (q *Query) Order(column string, desc bool) *Query {
	direction := "asc"
	if desc {
		direction = "desc"
	}
	term := column + "." + direction
	if existing := q.values.Get("order"); existing != "" {
		term = existing + "," + term
	}
	q.values.Set("order", term)
	return q
}

// Select restricts the returned columns.
func (q *Query) Select(columns ...string) *Query {
	q.values.Set("select", strings.Join(columns, ","))
	return q
}

// Limit caps the number of rows.
func (q *Query) Limit(n int) *Query {
	q.values.Set("limit", fmt.Sprint(n))
	return q
}

// Encode returns the URL query string. A nil query encodes as "".
func (q *Query) Encode() string {
	if q == nil {
		return ""
	}
	return q.values.Encode()
}

// ParsedFilter is one "column=op.value" term read back from a query string.
type ParsedFilter struct {
	Column string
	Op     string
	Value  string
}

// ParsedOrder is one "column.direction" ordering term.
type ParsedOrder struct {
	Column string
	Desc   bool
}

// Parsed is a decoded PostgREST query string.
type Parsed struct {
	Filters []ParsedFilter
	Order   []ParsedOrder
	Limit   string
}

// reserved names are query parameters that are not column filters.
var reserved = map[string]bool{"select": true, "order": true, "limit": true, "offset": true, "on_conflict": true, "columns": true}

// ParseQuery decodes filters and ordering from URL values.
func ParseQuery(values url.Values) (Parsed, error) {
	var parsed Parsed
	for column, terms := range values {
		if reserved[column] {
			continue
		}
		for _, term := range terms {
			op, value, ok := strings.Cut(term, ".")
			if !ok {
				return Parsed{}, fmt.Errorf("malformed filter %s=%s", column, term)
			}
			parsed.Filters = append(parsed.Filters, ParsedFilter{Column: column, Op: op, Value: value})
		}
	}
	if order := values.Get("order"); order != "" {
		for _, term := range strings.Split(order, ",") {
			column, direction, _ := strings.Cut(term, ".")
			parsed.Order = append(parsed.Order, ParsedOrder{Column: column, Desc: strings.HasPrefix(direction, "desc")})
		}
	}
	parsed.Limit = values.Get("limit")
	return parsed, nil
}
