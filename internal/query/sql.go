package query

import "strings"

var sqlOps = map[Operator]string{Eq: "=", Gt: ">", Gte: ">=", Lt: "<", Lte: "<="}

func quote(ident string) string { return "`" + ident + "`" }

// where renders the AND of all conditions. List equality becomes a JSON
// containment test.
func (r Read) where() (string, []any) {
	if len(r.Where) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(r.Where))
	args := make([]any, 0, len(r.Where))
	for _, c := range r.Where {
		if c.Field.Kind == List {
			parts = append(parts, "JSON_CONTAINS("+quote(c.Field.Column)+", JSON_QUOTE(?))")
		} else {
			parts = append(parts, quote(c.Field.Column)+" "+sqlOps[c.Op]+" ?")
		}
		args = append(args, c.Value)
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// SQL renders the read as a MySQL SELECT with positional arguments.
func (r Read) SQL() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	for i, f := range r.Projection() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quote(f.Column))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(quote(r.Schema.Table))

	where, args := r.where()
	sb.WriteString(where)

	for i, o := range r.OrderBy {
		if i == 0 {
			sb.WriteString(" ORDER BY ")
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(quote(o.Field.Column))
		if o.Desc {
			sb.WriteString(" DESC")
		} else {
			sb.WriteString(" ASC")
		}
	}
	if r.Limit > 0 {
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, r.Limit, r.Skip)
	}
	return sb.String(), args
}

// CountSQL counts every row matching the filter, ignoring the window.
func (r Read) CountSQL() (string, []any) {
	where, args := r.where()
	return "SELECT COUNT(*) FROM " + quote(r.Schema.Table) + where, args
}
