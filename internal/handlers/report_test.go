package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDayKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	moment := time.Date(2026, 3, 10, 1, 30, 0, 0, loc)

	day := startOfDay(moment)
	assert.Equal(t, 2026, day.Year())
	assert.Equal(t, time.March, day.Month())
	assert.Equal(t, 10, day.Day())
	assert.Equal(t, 0, day.Hour())
	assert.Equal(t, loc, day.Location())

	// Усечение к суткам UTC дало бы границу в 05:00 местного времени и
	// отнесло бы 01:30 к предыдущему дню.
	utcCut := moment.Truncate(24 * time.Hour)
	assert.NotEqual(t, utcCut, day)

	// Раннее утро остаётся в том же дне.
	assert.False(t, moment.Before(day))
	assert.True(t, moment.Before(day.AddDate(0, 0, 1)))
}
