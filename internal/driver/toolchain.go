package driver

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// nasmFormat returns the -f value nasm needs for each target's object
// format.
func nasmFormat(target Target) string {
	switch target {
	case Linux:
		return "elf64"
	case MacOS:
		return "macho64"
	case Windows:
		return "win64"
	default:
		return "elf64"
	}
}

// Assemble runs nasm over asmPath, producing an object file alongside it.
// It returns the object file's path.
func Assemble(ctx context.Context, log *logrus.Logger, target Target, asmPath string) (string, error) {
	objPath := asmPath[:len(asmPath)-len(filepath.Ext(asmPath))] + ".o"
	args := []string{"-f", nasmFormat(target), asmPath, "-o", objPath}

	log.WithFields(logrus.Fields{"target": target, "args": args}).Info("assembling")
	cmd := exec.CommandContext(ctx, "nasm", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", errors.Wrap(err, "driver: nasm assemble failed")
	}
	return objPath, nil
}

// Link invokes the platform's linker to turn objPath into an executable.
// On Linux and macOS this goes through the C compiler driver, so CRT
// startup and libc are wired in automatically, landing at outPath; on
// Windows it shells out to golink directly, which names its output after
// objPath's basename rather than accepting one.
func Link(ctx context.Context, log *logrus.Logger, target Target, objPath, outPath string) error {
	linker, args := linkCommand(target, objPath, outPath)

	log.WithFields(logrus.Fields{"target": target, "linker": linker, "args": args}).Info("linking")
	cmd := exec.CommandContext(ctx, linker, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "driver: link via %s failed", linker)
	}
	return nil
}

// linkCommand mirrors the exact per-target toolchain invocations from the
// specification: cc stands in for the "gcc -m64 / -arch x86_64" driver
// link on Linux and macOS, and Windows goes through golink directly
// against the system DLLs rather than a CRT-provided main.
func linkCommand(target Target, objPath, outPath string) (string, []string) {
	switch target {
	case Windows:
		return "golink", []string{"/entry:Start", "/console", "kernel32.dll", "user32.dll", "msvcrt.dll", objPath}
	case MacOS:
		return "cc", []string{"-arch", "x86_64", objPath, "-o", outPath}
	default:
		return "cc", []string{"-m64", objPath, "-o", outPath}
	}
}

// BuildDir creates a temporary directory for a single build's intermediate
// .asm/.o files and returns it with a cleanup function the caller must
// defer.
func BuildDir() (string, func(), error) {
	dir, err := os.MkdirTemp("", "slasmc-")
	if err != nil {
		return "", nil, errors.Wrap(err, "driver: creating temp build dir")
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}
