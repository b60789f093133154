package script

import "github.com/mangaloom/schemagen/compiler/gen"

var (
	ident   = gen.QuoteIdent
	idents  = gen.QuoteIdents
	literal = gen.QuoteLiteral
)
