package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_BuildsTargetFromFlags(t *testing.T) {
	out := &bytes.Buffer{}

	err := run(out, []string{
		"--host=example.org",
		"--port=8443",
		"--tags=a",
		"--tags=b",
	})
	require.NoError(t, err)

	dump := out.String()
	require.Contains(t, dump, "example.org")
	require.Contains(t, dump, "8443")
	require.Contains(t, dump, `"a"`)
	require.Contains(t, dump, `"b"`)
}

func TestRun_ReportsBadFlagValue(t *testing.T) {
	out := &bytes.Buffer{}

	err := run(out, []string{"--host=h", "--port=seventy"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "port")
}

func TestRun_DefaultsOptionalFields(t *testing.T) {
	out := &bytes.Buffer{}

	err := run(out, []string{"--host=h", "--port=1"})
	require.NoError(t, err)
	require.Contains(t, out.String(), "(*float64)(<nil>)")
}
