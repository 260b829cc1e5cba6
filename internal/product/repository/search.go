package repository

import (
	"strings"

	"gorm.io/gorm/clause"
)

const likeEscape = "!"

var likeEscaper = strings.NewReplacer(
	likeEscape, likeEscape+likeEscape,
	"%", likeEscape+"%",
	"_", likeEscape+"_",
)

// SearchExpression builds the case-insensitive product search predicate.
// The five alternatives are grouped in one parenthesized expression so they
// never widen other WHERE conditions. Returns nil for a blank term.
func SearchExpression(term, dialect string) clause.Expression {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	like := " LIKE ? ESCAPE '" + likeEscape + "'"

	sql := "(" + strings.Join([]string{
		"LOWER(name)" + like,
		"LOWER(sku)" + like,
		"LOWER(categories)" + like,
		priceAsText(dialect) + like,
		"LOWER(description)" + like,
	}, " OR ") + ")"

	return clause.Expr{
		SQL:  sql,
		Vars: []any{pattern, pattern, pattern, pattern, pattern},
	}
}

func priceAsText(dialect string) string {
	if dialect == "mysql" {
		return "CAST(price AS CHAR)"
	}
	return "CAST(price AS TEXT)"
}
