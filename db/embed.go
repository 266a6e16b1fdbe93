// Package db provides the embedded database schema.
package db

import _ "embed"

// Schema contains the DDL for the key-value table backing session storage.
//
//go:embed migrations/001_schema.sql
var Schema string
