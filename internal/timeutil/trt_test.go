package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDayUsesLocalMidnight(t *testing.T) {
	// 22:30 UTC on Jan 1st is already Jan 2nd in Istanbul
	in := time.Date(2026, 1, 1, 22, 30, 0, 0, time.UTC)
	got := StartOfDay(in)

	assert.Equal(t, 2, got.Day())
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, "02.01.2026 01:30", FormatTRT(in, DisplayLayout))
}

func TestParseSince(t *testing.T) {
	got, err := ParseSince("2026-03-04")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 3, 21, 0, 0, 0, time.UTC), got.UTC())

	got, err = ParseSince("2026-03-04T10:00:00Z")
	assert.NoError(t, err)
	assert.Equal(t, 10, got.Hour())

	_, err = ParseSince("yesterday")
	assert.Error(t, err)
}
