package main

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"slasm.dev/slasm/internal/driver"
	"slasm.dev/slasm/nasmgen"
	"slasm.dev/slasm/xmlenc"
)

func newDemoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Dump the built-in demo program's IR structure",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildDemoProgram()
			if err != nil {
				return errors.Wrap(err, "slasmc: building demo program")
			}
			if err := p.Validate(); err != nil {
				return errors.Wrap(err, "slasmc: demo program failed validation")
			}
			color.New(color.FgCyan).Fprintln(cmd.OutOrStdout(), "demo program:", p.Name())
			spew.Fdump(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func newXMLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "xml",
		Short: "Emit the demo program's debug XML to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildDemoProgram()
			if err != nil {
				return errors.Wrap(err, "slasmc: building demo program")
			}
			if err := p.Validate(); err != nil {
				return errors.Wrap(err, "slasmc: demo program failed validation")
			}
			return xmlenc.EmitProgram(p, cmd.OutOrStdout())
		},
	}
}

func newBuildCommand() *cobra.Command {
	var targetOS string
	var outPath string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble and link the demo program into an executable",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := driver.ParseTarget(targetOS)
			if err != nil {
				return err
			}

			p, err := buildDemoProgram()
			if err != nil {
				return errors.Wrap(err, "slasmc: building demo program")
			}
			if err := p.Validate(); err != nil {
				return errors.Wrap(err, "slasmc: demo program failed validation")
			}

			header, err := driver.SelectTemplate(target)
			if err != nil {
				return err
			}

			dir, cleanup, err := driver.BuildDir()
			if err != nil {
				return err
			}
			defer cleanup()

			asmPath := filepath.Join(dir, p.Name()+".asm")
			f, err := os.Create(asmPath)
			if err != nil {
				return errors.Wrap(err, "slasmc: creating asm file")
			}
			if err := nasmgen.EmitProgram(p, header, f); err != nil {
				f.Close()
				return errors.Wrap(err, "slasmc: emitting NASM")
			}
			if err := f.Close(); err != nil {
				return errors.Wrap(err, "slasmc: closing asm file")
			}

			objPath, err := driver.Assemble(context.Background(), log, target, asmPath)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = p.Name()
			}
			if err := driver.Link(context.Background(), log, target, objPath, outPath); err != nil {
				return err
			}

			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "built", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&targetOS, "os", runtime.GOOS, "target platform: linux, macos, windows")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output executable path")
	return cmd
}
