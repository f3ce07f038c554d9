package query

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/travel-planner/internal/apperr"
)

// Meta keys drive the sort, projection and pagination stages. They are never
// treated as field constraints.
const (
	ParamPage   = "page"
	ParamSort   = "sort"
	ParamLimit  = "limit"
	ParamFields = "fields"
)

var reserved = map[string]bool{ParamPage: true, ParamSort: true, ParamLimit: true, ParamFields: true}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Operator is a comparison usable in a filter.
type Operator string

const (
	Eq  Operator = "eq"
	Gt  Operator = "gt"
	Gte Operator = "gte"
	Lt  Operator = "lt"
	Lte Operator = "lte"
)

// comparisons is the closed set of operators a client may spell out as
// field[op]. Anything else is rejected.
var comparisons = map[string]Operator{"gt": Gt, "gte": Gte, "lt": Lt, "lte": Lte}

// Condition is one field constraint. Conditions of a Read are ANDed.
type Condition struct {
	Field Field
	Op    Operator
	Value any
}

// Order is one sort key.
type Order struct {
	Field Field
	Desc  bool
}

// Read is a fully described, not yet executed read.
type Read struct {
	Schema  *Schema
	Where   []Condition
	OrderBy []Order
	Columns []Field // nil means the schema's default projection
	Skip    int
	Limit   int // 0 means unbounded
}

// Projection resolves the columns the read returns.
func (r Read) Projection() []Field {
	if r.Columns == nil {
		return r.Schema.DefaultProjection()
	}
	return r.Columns
}

// Builder accumulates the four stages. Stages can be applied in any order;
// each fills its own part of the Read and pagination is always rendered last.
type Builder struct {
	schema *Schema
	params url.Values
	read   Read
	errs   []string
}

func New(schema *Schema, params url.Values) *Builder {
	if params == nil {
		params = url.Values{}
	}
	return &Builder{schema: schema, params: params, read: Read{Schema: schema}}
}

// Filter turns every non-meta key into a condition. A key is either a bare
// field name (equality) or field[op] with op from the comparison allow-list.
func (b *Builder) Filter() *Builder {
	keys := make([]string, 0, len(b.params))
	for k := range b.params {
		if !reserved[k] {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	for _, key := range keys {
		name, op, err := parseKey(key)
		if err != nil {
			b.fail(err.Error())
			continue
		}
		f, ok := b.schema.Field(name)
		if !ok {
			b.fail(fmt.Sprintf("unknown field %q", name))
			continue
		}
		if op != Eq && (f.Kind == Bool || f.Kind == List) {
			b.fail(fmt.Sprintf("operator %q is not supported on %s field %q", op, f.Kind, name))
			continue
		}
		for _, raw := range b.params[key] {
			v, err := convert(f, raw)
			if err != nil {
				b.fail(err.Error())
				continue
			}
			b.read.Where = append(b.read.Where, Condition{Field: f, Op: op, Value: v})
		}
	}
	return b
}

func parseKey(key string) (string, Operator, error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, Eq, nil
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", fmt.Errorf("malformed filter key %q", key)
	}
	name, raw := key[:open], key[open+1:len(key)-1]
	op, ok := comparisons[raw]
	if !ok {
		return "", "", fmt.Errorf("unsupported operator %q on %q", raw, name)
	}
	return name, op, nil
}

func convert(f Field, raw string) (any, error) {
	switch f.Kind {
	case Number:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%q must be a number", f.Name)
		}
		return n, nil
	case Bool:
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%q must be true or false", f.Name)
		}
		return v, nil
	case Time:
		raw = strings.TrimSpace(raw)
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t.UTC(), nil
		}
		if t, err := time.Parse(time.DateOnly, raw); err == nil {
			return t, nil
		}
		return nil, fmt.Errorf("%q must be a date (YYYY-MM-DD or RFC 3339)", f.Name)
	}
	return raw, nil
}

// Sort reads sort=a,-b. A leading '-' sorts descending. Without a sort
// parameter the schema's DefaultSort applies.
func (b *Builder) Sort() *Builder {
	parts := sortKeys(strings.Join(b.params[ParamSort], ","))
	if len(parts) == 0 {
		parts = sortKeys(b.schema.DefaultSort)
	}
	b.read.OrderBy = nil
	for _, part := range parts {
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		f, ok := b.schema.Field(name)
		if !ok {
			b.fail(fmt.Sprintf("cannot sort by unknown field %q", name))
			continue
		}
		if f.Kind == List {
			b.fail(fmt.Sprintf("cannot sort by list field %q", name))
			continue
		}
		b.read.OrderBy = append(b.read.OrderBy, Order{Field: f, Desc: desc})
	}
	return b
}

func sortKeys(expr string) []string {
	var out []string
	for _, part := range strings.Split(expr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LimitFields reads fields=a,b (only those, plus id) or fields=-a,-b
// (everything by default except those). The two forms cannot be mixed.
func (b *Builder) LimitFields() *Builder {
	expr := strings.Join(b.params[ParamFields], ",")
	var include, exclude []string
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case strings.HasPrefix(part, "-"):
			exclude = append(exclude, part[1:])
		default:
			include = append(include, part)
		}
	}
	switch {
	case len(include) > 0 && len(exclude) > 0:
		b.fail("fields cannot mix inclusion and exclusion")
	case len(include) > 0:
		b.read.Columns = b.including(include)
	case len(exclude) > 0:
		b.read.Columns = b.excluding(exclude)
	default:
		b.read.Columns = nil
	}
	return b
}

func (b *Builder) including(names []string) []Field {
	id, _ := b.schema.Field(IDField)
	cols := []Field{id}
	seen := map[string]bool{IDField: true}
	for _, name := range names {
		f, ok := b.schema.Field(name)
		if !ok {
			b.fail(fmt.Sprintf("cannot select unknown field %q", name))
			continue
		}
		if !seen[name] {
			seen[name] = true
			cols = append(cols, f)
		}
	}
	return cols
}

func (b *Builder) excluding(names []string) []Field {
	drop := map[string]bool{}
	for _, name := range names {
		if name == IDField {
			b.fail(`"id" cannot be excluded`)
			continue
		}
		if _, ok := b.schema.Field(name); !ok {
			b.fail(fmt.Sprintf("cannot exclude unknown field %q", name))
			continue
		}
		drop[name] = true
	}
	var cols []Field
	for _, f := range b.schema.DefaultProjection() {
		if !drop[f.Name] {
			cols = append(cols, f)
		}
	}
	return cols
}

// Paginate reads page and limit. Values that are not positive integers fall
// back to the defaults; limit is capped at MaxLimit.
func (b *Builder) Paginate() *Builder {
	page := positive(b.params.Get(ParamPage), DefaultPage)
	limit := min(positive(b.params.Get(ParamLimit), DefaultLimit), MaxLimit)
	b.read.Skip = (page - 1) * limit
	b.read.Limit = limit
	return b
}

func positive(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func (b *Builder) fail(msg string) { b.errs = append(b.errs, msg) }

// Read returns the composed read, or a validation error naming every
// rejected parameter.
func (b *Builder) Read() (Read, error) {
	if len(b.errs) > 0 {
		return Read{}, apperr.Validationf("invalid query: %s", strings.Join(b.errs, "; "))
	}
	return b.read, nil
}

// Page is the 1-based page a Read covers.
func (r Read) Page() int {
	if r.Limit == 0 {
		return 1
	}
	return r.Skip/r.Limit + 1
}
