package migrations

import "embed"

// Files holds the baseline schema applied at boot.
//
//go:embed *.sql
var Files embed.FS
