package helpers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateOffsetLimit(t *testing.T) {
	offset, limit := CalculateOffsetLimit(3, 20)
	assert.Equal(t, uint64(40), offset)
	assert.Equal(t, 20, limit)

	offset, limit = CalculateOffsetLimit(0, 500)
	assert.Equal(t, uint64(0), offset)
	assert.Equal(t, DefaultPageSize, limit)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, ClampLimit(0))
	assert.Equal(t, DefaultListLimit, ClampLimit(-4))
	assert.Equal(t, 7, ClampLimit(7))
	assert.Equal(t, MaxListLimit, ClampLimit(1000))
}

func TestNewPaginationInfo(t *testing.T) {
	p := NewPaginationInfo(25, 2, 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 2, p.CurrentPage)

	p = NewPaginationInfo(25, 9, 10)
	assert.Equal(t, 3, p.CurrentPage)

	p = NewPaginationInfo(0, 1, 10)
	assert.Equal(t, 1, p.TotalPages)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 50))
	assert.Equal(t, strings.Repeat("a", 50), Truncate(strings.Repeat("a", 50), 50))
	assert.Equal(t, strings.Repeat("a", 50)+"...", Truncate(strings.Repeat("a", 51), 50))
	// runes, not bytes
	assert.Equal(t, "çğü...", Truncate("çğüşö", 3))
}

func TestDayKey(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// 02:00 IST on the 2nd is still the 1st in UTC
	assert.Equal(t, "2024-03-01", DayKey(time.Date(2024, 3, 2, 2, 0, 0, 0, ist)))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, ParseDuration("90s", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("soon", time.Minute))
}
