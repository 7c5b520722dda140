// Package db embeds the SQL schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for every POS table, applied idempotently on boot.
//
//go:embed migrations/001_schema.sql
var Schema string
