package db

import "embed"

// MigrationFS embeds the SQL migrations for verification_challenges, profiles and audit_logs.
// Read by the migrate runner (cmd/migrate).
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
