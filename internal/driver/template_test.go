package driver_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"slasm.dev/slasm/internal/driver"
	"slasm.dev/slasm/ir"
)

func TestSelectTemplateEveryTargetHasExactlyOnePlaceholder(t *testing.T) {
	for _, target := range []driver.Target{driver.Linux, driver.MacOS, driver.Windows} {
		tmpl, err := driver.SelectTemplate(target)
		require.NoError(t, err)
		require.Equal(t, 1, strings.Count(tmpl, "#ENTRY_FUNC_NAME#"), "target %s", target)
		require.Contains(t, tmpl, "DEBUG_PRINT_I64")
	}
}

func TestSelectTemplateUnsupportedTarget(t *testing.T) {
	_, err := driver.SelectTemplate("plan9")
	require.Error(t, err)
	var irErr *ir.Error
	require.ErrorAs(t, err, &irErr)
	require.Equal(t, ir.UnsupportedTarget, irErr.Kind)
}

func TestParseTarget(t *testing.T) {
	cases := map[string]driver.Target{
		"linux":   driver.Linux,
		"darwin":  driver.MacOS,
		"macos":   driver.MacOS,
		"windows": driver.Windows,
	}
	for in, want := range cases {
		got, err := driver.ParseTarget(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := driver.ParseTarget("plan9")
	require.Error(t, err)
}
