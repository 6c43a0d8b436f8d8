// Command slasmc is the reference driver for the SLASM toolchain: it turns
// an in-memory (or demo-constructed) ir.Program into NASM text, an XML
// debug dump, or a linked executable.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.New()

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("slasmc: %v", err))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "slasmc",
		Short:         "SLASM IR toolchain: build, inspect, and link demo programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newBuildCommand())
	cmd.AddCommand(newXMLCommand())
	cmd.AddCommand(newDemoCommand())
	return cmd
}
