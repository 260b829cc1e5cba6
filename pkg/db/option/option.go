package option

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/catalog/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueryOption mutates a gorm statement before it is executed.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type QueryOptionFunc func(db *gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

type Operator string

const (
	EQ  Operator = "="
	NEQ Operator = "<>"
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func ApplyOperator(cond Condition) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		op := cond.Operator
		if op == "" {
			op = EQ
		}
		return db.Where(fmt.Sprintf("%s %s ?", cond.Field, op), cond.Value)
	})
}

// ApplyExpression adds a prebuilt clause as a single AND-ed predicate.
func ApplyExpression(expr clause.Expression) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if expr == nil {
			return db
		}
		return db.Where(expr)
	})
}

func ApplyPagination(p pagination.Pagination) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if p.Limit <= 0 {
			return db
		}
		return db.Limit(p.Limit).Offset(p.Offset())
	})
}

// QuerySortBy orders by an allow-listed column. An empty Field sorts by
// created_at descending. TieBreak follows the primary direction unless
// TieBreakAsc is set.
type QuerySortBy struct {
	Field       string
	Desc        bool
	Allow       map[string]bool
	TieBreak    string
	TieBreakAsc bool
}

func WithSortBy(sort QuerySortBy) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(sort.Field)
		desc := sort.Desc
		if field == "" {
			field = "created_at"
			desc = true
		}
		if len(sort.Allow) > 0 && !sort.Allow[field] {
			return db
		}

		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: field}, Desc: desc})
		if sort.TieBreak != "" && sort.TieBreak != field {
			db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: sort.TieBreak}, Desc: desc && !sort.TieBreakAsc})
		}
		return db
	})
}

// WithQuerySortBy parses "field" or "-field" (descending) into a QuerySortBy.
func WithQuerySortBy(raw string, allow map[string]bool) QuerySortBy {
	raw = strings.TrimSpace(raw)
	sort := QuerySortBy{Allow: allow}
	if raw == "" {
		return sort
	}
	if strings.HasPrefix(raw, "-") {
		sort.Desc = true
		raw = strings.TrimPrefix(raw, "-")
	}
	sort.Field = raw
	return sort
}
