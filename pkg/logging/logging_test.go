package logging

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedact(t *testing.T) {
	assert.Equal(t, "password=********", Redact("password=pw123", "pw123"))
	assert.Equal(t, "******** and ******** again", Redact("pw123 and pw123 again", "pw123"))
	assert.Equal(t, "untouched", Redact("untouched", "pw123"))
	assert.Equal(t, "untouched", Redact("untouched", ""), "an empty secret must not mask anything")
}

func TestInitAndLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)
	t.Cleanup(func() { Init(LevelInfo, os.Stderr) })

	Debug("Test", "below the filter")
	Info("Test", "resolved entry %q", "db-pass")

	out := buf.String()
	assert.NotContains(t, out, "below the filter")
	assert.Contains(t, out, "resolved entry")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}
