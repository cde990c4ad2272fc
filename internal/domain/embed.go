package domain

import (
	"embed"
)

// builtinFS embeds the domain modules that ship with every release.
// The builtin definitions are the canonical vocabulary for the platform's own
// scanners; customer domains are loaded from the filesystem at registration
// time and merge into the same registry.
//
//go:embed builtin/*.yaml
var builtinFS embed.FS

// BuiltinFS returns the embedded filesystem containing the bundled domain
// module YAML files.
func BuiltinFS() embed.FS {
	return builtinFS
}
