package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/redial/pkg/clock"
)

func TestSystemClock(t *testing.T) {
	t.Parallel()

	before := time.Now()
	now := clock.System{}.Now()
	after := time.Now()

	assert.False(t, now.Before(before))
	assert.False(t, now.After(after))
}

func TestMockClock(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC)
	m := clock.NewMock(base)

	assert.Equal(t, base, m.Now())

	got := m.Advance(45 * time.Minute)
	assert.Equal(t, base.Add(45*time.Minute), got)
	assert.Equal(t, got, m.Now())

	reset := base.AddDate(0, 0, 1)
	m.Set(reset)
	assert.Equal(t, reset, m.Now())
}

func TestIn(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	base := time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC)
	m := clock.NewMock(base)

	local := clock.In(m, loc)
	assert.True(t, base.Equal(local))
	assert.Equal(t, loc, local.Location())
}
