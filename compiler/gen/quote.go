package gen

import (
	"regexp"
	"strings"

	"github.com/lib/pq"
)

var plainIdent = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// reserved holds the PostgreSQL reserved key words that cannot be used
// as bare column or table names.
var reserved = map[string]bool{
	"all": true, "analyse": true, "analyze": true, "and": true, "any": true,
	"array": true, "as": true, "asc": true, "both": true, "case": true,
	"cast": true, "check": true, "collate": true, "column": true,
	"constraint": true, "create": true, "current_date": true,
	"current_time": true, "current_timestamp": true, "current_user": true,
	"default": true, "desc": true, "distinct": true, "do": true, "else": true,
	"end": true, "except": true, "false": true, "fetch": true, "for": true,
	"foreign": true, "from": true, "grant": true, "group": true,
	"having": true, "in": true, "initially": true, "intersect": true,
	"into": true, "leading": true, "limit": true, "localtime": true,
	"not": true, "null": true, "offset": true, "on": true, "only": true,
	"or": true, "order": true, "placing": true, "primary": true,
	"references": true, "returning": true, "select": true,
	"session_user": true, "some": true, "symmetric": true, "table": true,
	"then": true, "to": true, "trailing": true, "true": true, "union": true,
	"unique": true, "user": true, "using": true, "variadic": true,
	"when": true, "where": true, "window": true, "with": true,
}

// QuoteIdent returns name as a SQL identifier, quoted only when it is
// not a plain lower-case name or collides with a reserved key word.
func QuoteIdent(name string) string {
	if plainIdent.MatchString(name) && !reserved[name] {
		return name
	}
	return pq.QuoteIdentifier(name)
}

// QuoteIdents quotes and joins the given names.
func QuoteIdents(names ...string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = QuoteIdent(n)
	}
	return strings.Join(out, ", ")
}

// QuoteLiteral returns s as a SQL string literal.
func QuoteLiteral(s string) string {
	return pq.QuoteLiteral(s)
}
