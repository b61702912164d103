// Package migrations embeds the SQL schema for each supported dialect.
package migrations

import "embed"

// FS holds postgres/*.up.sql and sqlite/*.up.sql.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
