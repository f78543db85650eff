// Package dbx holds the shared squirrel statement builder configuration so
// every query across the persistence layer uses the same placeholder
// format and is built the same way.
package dbx

import "github.com/Masterminds/squirrel"

// ST is the statement builder every package under internal/persistence and
// internal/catalog builds queries from. SQLite uses "?" placeholders.
var ST = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
