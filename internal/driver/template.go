// Package driver wires the NASM visitor's output to an actual executable:
// it selects the right platform header template, shells out to nasm and
// the platform linker, and manages the temporary build directory, the way
// a CLI front end for a code generator normally does.
package driver

import (
	"embed"

	"github.com/pkg/errors"

	"slasm.dev/slasm/ir"
)

//go:embed templates
var templateFS embed.FS

// Target identifies the host triple this package knows how to assemble and
// link for.
type Target string

const (
	Linux   Target = "linux"
	MacOS   Target = "macos"
	Windows Target = "windows"
)

var templateFiles = map[Target]string{
	Linux:   "templates/nasm_template_linux.asm",
	MacOS:   "templates/nasm_template_macos.asm",
	Windows: "templates/nasm_template_windows.asm",
}

// SelectTemplate returns the embedded NASM header template for target. It
// fails with ir.UnsupportedTarget for anything outside {linux, macos,
// windows}.
func SelectTemplate(target Target) (string, error) {
	path, ok := templateFiles[target]
	if !ok {
		return "", &ir.Error{Kind: ir.UnsupportedTarget, Name: string(target)}
	}
	data, err := templateFS.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "driver: reading embedded template for %s", target)
	}
	return string(data), nil
}

// ParseTarget maps a GOOS-style string to a Target, accepting both "darwin"
// and "macos" for MacOS and failing with ir.UnsupportedTarget otherwise.
func ParseTarget(goos string) (Target, error) {
	switch goos {
	case "linux":
		return Linux, nil
	case "darwin", "macos":
		return MacOS, nil
	case "windows":
		return Windows, nil
	default:
		return "", &ir.Error{Kind: ir.UnsupportedTarget, Name: goos}
	}
}
