package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBypassGate_Token(t *testing.T) {
	gate := NewBypassGate(nil, "s3cr3t")
	require.True(t, gate.TokenValid("s3cr3t"))
	require.False(t, gate.TokenValid("S3CR3T"))
	require.False(t, gate.TokenValid(""))

	empty := NewBypassGate(nil, "")
	require.False(t, empty.TokenValid(""))
	require.False(t, empty.TokenValid("anything"))
}

func TestBypassGate_Exclusions(t *testing.T) {
	gate := NewBypassGate([]string{"/internal/*", "/ping"}, "")
	require.True(t, gate.Excluded("/internal/debug/vars", "GET"))
	require.True(t, gate.Excluded("/ping", "POST"))
	require.False(t, gate.Excluded("/api/jobs", "POST"))
}
