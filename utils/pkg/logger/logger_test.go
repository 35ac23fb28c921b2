package logger

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUtils_Logger_FormatRFC3339Millis(t *testing.T) {
	t.Parallel()
	ts := time.Date(2024, 1, 5, 10, 30, 15, 123_456_789, time.FixedZone("CET", 3600))
	require.Equal(t, "2024-01-05T09:30:15.123Z", formatRFC3339Millis(ts))
}

func TestUtils_Logger_DropsEmptyStrings(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter(&buf, false)
	log.Info("orders: assembled", "view", "", "rows", 3)
	require.NotContains(t, buf.String(), "view=")
	require.Contains(t, buf.String(), "rows=")
}
