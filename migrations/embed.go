// Package migrations holds the versioned SQL schema of the ledger store.
package migrations

import "embed"

// FS contains every *.up.sql / *.down.sql file of this directory
//
//go:embed *.sql
var FS embed.FS
