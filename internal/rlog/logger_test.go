package rlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerRedactsCredentialFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(DebugLevel, true, &buf)

	l.Info("fetch complete", map[string]string{
		"Authorization": "Bearer super-secret",
		"origin":        "https://rdap.example.org",
	})

	out := buf.String()
	require.NotContains(t, out, "super-secret")
	require.Contains(t, out, "[redacted]")
	require.Contains(t, out, "rdap.example.org")
}

func TestNopLoggerIsDisabled(t *testing.T) {
	l := Nop()
	require.True(t, l.Disabled())

	// Must not panic even though there's no underlying writer.
	l.Error("boom", nil, map[string]string{"k": "v"})
}

func TestWithAddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	l := New(InfoLevel, true, &buf).With("q-123")

	l.Info("start", nil)

	require.True(t, strings.Contains(buf.String(), `"qid":"q-123"`))
}
