// ABOUTME: Tests for the zap logger wrapper.
// ABOUTME: Verifies redaction and hashing of sensitive keys.
package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"email", "alice@example.com",
		"patient_id", "p1",
		"series_id", int64(4),
		"dangling",
	})

	require.Len(t, out, 7)
	assert.Equal(t, "[REDACTED]", out[1])
	assert.True(t, strings.HasPrefix(out[3].(string), "hash:"))
	assert.NotContains(t, out[3], "p1")
	assert.Equal(t, int64(4), out[5])
	assert.Equal(t, "dangling", out[6])
}

func TestHashValueStable(t *testing.T) {
	assert.Equal(t, hashValue("p1"), hashValue("p1"))
	assert.NotEqual(t, hashValue("p1"), hashValue("p2"))
	assert.Equal(t, "", hashValue(""))
}

func TestLoggerWritesSanitizedFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "test").Info("patient added", "email", "a@b.c", "username", "alice")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "test", fields["component"])
	assert.Equal(t, "[REDACTED]", fields["email"])
	assert.Equal(t, "alice", fields["username"])
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"dev", "production"} {
		l, err := New(mode)
		require.NoError(t, err)
		require.NotNil(t, l.SugaredLogger)
	}
	Nop().Info("discarded")
}
