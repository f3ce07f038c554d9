package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iliyamo/travel-planner/internal/query"
)

// Document is one projected row keyed by client-facing field name. Only the
// fields selected by the read are present.
type Document map[string]any

// Page is the result of a shaped list read.
type Page struct {
	Items []Document
	Total int64
}

// list runs a shaped read: a COUNT over the filter, then the windowed select.
func list(ctx context.Context, db DBTX, r query.Read) (Page, error) {
	countSQL, countArgs := r.CountSQL()
	var total int64
	if err := db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("count %s: %w", r.Schema.Table, err)
	}

	selectSQL, args := r.SQL()
	rows, err := db.QueryContext(ctx, selectSQL, args...)
	if err != nil {
		return Page{}, fmt.Errorf("list %s: %w", r.Schema.Table, err)
	}
	defer rows.Close()

	fields := r.Projection()
	items := make([]Document, 0, r.Limit)
	for rows.Next() {
		doc, err := scanDocument(rows, fields)
		if err != nil {
			return Page{}, err
		}
		items = append(items, doc)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}
	return Page{Items: items, Total: total}, nil
}

func scanDocument(rows rowScanner, fields []query.Field) (Document, error) {
	dest := make([]any, len(fields))
	for i, f := range fields {
		switch f.Kind {
		case query.Number:
			dest[i] = new(sql.NullFloat64)
		case query.Bool:
			dest[i] = new(sql.NullBool)
		case query.Time:
			dest[i] = new(sql.NullTime)
		case query.List:
			dest[i] = new([]byte)
		default:
			dest[i] = new(sql.NullString)
		}
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	doc := make(Document, len(fields))
	for i, f := range fields {
		switch v := dest[i].(type) {
		case *sql.NullFloat64:
			doc[f.Name] = nullable(v.Valid, v.Float64)
		case *sql.NullBool:
			doc[f.Name] = nullable(v.Valid, v.Bool)
		case *sql.NullTime:
			doc[f.Name] = nullable(v.Valid, v.Time.UTC().Format(time.RFC3339Nano))
		case *sql.NullString:
			doc[f.Name] = nullable(v.Valid, v.String)
		case *[]byte:
			list := []string{}
			if len(*v) > 0 {
				if err := json.Unmarshal(*v, &list); err != nil {
					return nil, fmt.Errorf("decode %s: %w", f.Name, err)
				}
			}
			doc[f.Name] = list
		}
	}
	return doc, nil
}

func nullable[T any](valid bool, v T) any {
	if !valid {
		return nil
	}
	return v
}
