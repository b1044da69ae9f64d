package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologAdapterWithField(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger(&buf).WithField("phase", "readme")
	l.Warn("no write_file call")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "readme", entry["phase"])
	assert.Equal(t, "no write_file call", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNullLogger(t *testing.T) {
	l := NewNullLogger()
	l.Info("ignored")
	assert.Equal(t, NullLogger{}, l.WithField("k", "v"))
}
