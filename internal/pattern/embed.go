package pattern

import (
	"embed"
)

// builtinFS embeds the pattern modules that ship with every release.
// They cover the builtin security domain so scanners produce useful
// candidates out of the box.
//
//go:embed builtin/*.yaml
var builtinFS embed.FS

// BuiltinFS returns the embedded filesystem containing the bundled pattern
// module YAML files.
func BuiltinFS() embed.FS {
	return builtinFS
}
