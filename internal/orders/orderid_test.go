package orders

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderIDPattern = regexp.MustCompile(`^RR-\d{8}-\d{4}-[0-9A-Z]{4}$`)

func TestIDGeneratorFormat(t *testing.T) {
	g := NewIDGenerator()
	g.now = func() time.Time { return time.Date(2025, 3, 9, 12, 0, 0, 0, time.Local) }

	id := g.Next()
	require.Regexp(t, orderIDPattern, id)
	assert.Contains(t, id, "RR-20250309-1000-")
}

func TestIDGeneratorCounterIncrements(t *testing.T) {
	g := NewIDGenerator()
	g.now = func() time.Time { return time.Date(2025, 3, 9, 12, 0, 0, 0, time.Local) }

	first := g.Next()
	second := g.Next()
	third := g.Next()

	assert.Contains(t, first, "-1000-")
	assert.Contains(t, second, "-1001-")
	assert.Contains(t, third, "-1002-")
}

func TestIDGeneratorResetsAtMidnight(t *testing.T) {
	g := NewIDGenerator()
	day := time.Date(2025, 3, 9, 23, 59, 0, 0, time.Local)
	g.now = func() time.Time { return day }

	g.Next()
	g.Next()

	day = time.Date(2025, 3, 10, 0, 1, 0, 0, time.Local)
	id := g.Next()
	assert.Contains(t, id, "RR-20250310-1000-")
}

func TestIDGeneratorUnique(t *testing.T) {
	g := NewIDGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.Next()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
