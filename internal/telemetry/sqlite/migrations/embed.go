// Package migrations embeds the telemetry store schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
