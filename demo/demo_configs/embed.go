package demo_configs

import (
	"embed"
)

// FS provides embedded demo datasets for external usage:
// lab setting YAMLs plus the draw history / ticket CSVs they reference.
//
//go:embed *.yaml *.csv
var FS embed.FS
