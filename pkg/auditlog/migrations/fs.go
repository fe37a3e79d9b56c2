// Package migrations embeds the SQL migration files for pkg/auditlog's
// postgres-backed handshake_attempts table.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
