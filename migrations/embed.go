// Package migrations embeds the SQL migrations so binaries and tests can
// apply them without a checkout of this directory.
package migrations

import "embed"

// FS holds every *.up.sql / *.down.sql file in this directory
//
//go:embed *.sql
var FS embed.FS
