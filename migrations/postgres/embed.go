// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contiene las migraciones del esquema de perfiles, aplicadas en
// orden lexicográfico por el driver pg al arrancar.
//
//go:embed *.sql
var FS embed.FS
