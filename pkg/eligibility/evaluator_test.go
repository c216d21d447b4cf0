package eligibility_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/redial/pkg/clock"
	"github.com/voicedesk/redial/pkg/eligibility"
)

const owner = "owner-1"

func businessHours(limit int) eligibility.Window {
	return eligibility.Window{
		Timezone: "America/Chicago",
		Weekdays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		Start:      eligibility.TimeOfDay{Hour: 9},
		End:        eligibility.TimeOfDay{Hour: 18},
		DailyLimit: limit,
	}
}

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	return loc
}

func newEvaluator(t *testing.T, w eligibility.Window, now time.Time, quota eligibility.QuotaReader) *eligibility.Evaluator {
	t.Helper()

	opts := []eligibility.EvaluatorOption{
		eligibility.WithClock(clock.NewMock(now)),
	}
	if quota != nil {
		opts = append(opts, eligibility.WithQuota(quota))
	}

	e, err := eligibility.NewEvaluator(
		eligibility.NewStaticSource(map[string]eligibility.Window{owner: w}),
		opts...,
	)
	require.NoError(t, err)
	return e
}

func TestEvaluate_InsideWindow(t *testing.T) {
	t.Parallel()

	loc := chicago(t)
	// Wednesday 14:00 local.
	now := time.Date(2025, time.June, 4, 14, 0, 0, 0, loc)

	e := newEvaluator(t, businessHours(0), now, nil)

	d, err := e.Evaluate(context.Background(), owner)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Reason)
}

func TestEvaluate_OutsideHours(t *testing.T) {
	t.Parallel()

	loc := chicago(t)
	// Wednesday 20:30 local, after the 18:00 close.
	now := time.Date(2025, time.June, 4, 20, 30, 0, 0, loc)

	e := newEvaluator(t, businessHours(0), now, nil)

	d, err := e.Evaluate(context.Background(), owner)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, eligibility.ReasonOutsideWindow, d.Reason)

	// Next open instant, not "try again in N minutes": Thursday 09:00 local.
	want := time.Date(2025, time.June, 5, 9, 0, 0, 0, loc)
	assert.True(t, d.RetryAt.Equal(want), "got %v, want %v", d.RetryAt, want)
}

func TestEvaluate_WeekendSkipsToMonday(t *testing.T) {
	t.Parallel()

	loc := chicago(t)
	// Friday 18:30 local: closed for the day, weekend not allowed.
	now := time.Date(2025, time.June, 6, 18, 30, 0, 0, loc)

	e := newEvaluator(t, businessHours(0), now, nil)

	d, err := e.Evaluate(context.Background(), owner)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	want := time.Date(2025, time.June, 9, 9, 0, 0, 0, loc) // Monday 09:00
	assert.True(t, d.RetryAt.Equal(want), "got %v, want %v", d.RetryAt, want)
}

func TestEvaluate_TimezoneConversion(t *testing.T) {
	t.Parallel()

	loc := chicago(t)
	// 01:00 UTC Thursday is 20:00 Wednesday in Chicago: outside the window
	// even though the UTC wall clock reads "business hours" elsewhere.
	now := time.Date(2025, time.June, 5, 1, 0, 0, 0, time.UTC)

	e := newEvaluator(t, businessHours(0), now, nil)

	d, err := e.Evaluate(context.Background(), owner)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	want := time.Date(2025, time.June, 5, 9, 0, 0, 0, loc)
	assert.True(t, d.RetryAt.Equal(want))
}

func TestEvaluate_QuotaExhausted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	loc := chicago(t)
	now := time.Date(2025, time.June, 4, 14, 0, 0, 0, loc) // Wednesday afternoon

	quota := eligibility.NewMemoryQuota()
	day := eligibility.Day(now)
	for range 50 {
		_, err := quota.Increment(ctx, owner, day)
		require.NoError(t, err)
	}

	e := newEvaluator(t, businessHours(50), now, quota)

	d, err := e.Evaluate(ctx, owner)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, eligibility.ReasonQuotaExhausted, d.Reason)

	// Quota blocks park until the local midnight reset.
	want := time.Date(2025, time.June, 5, 0, 0, 0, 0, loc)
	assert.True(t, d.RetryAt.Equal(want), "got %v, want %v", d.RetryAt, want)
}

func TestEvaluate_QuotaBelowLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	loc := chicago(t)
	now := time.Date(2025, time.June, 4, 14, 0, 0, 0, loc)

	quota := eligibility.NewMemoryQuota()
	_, err := quota.Increment(ctx, owner, eligibility.Day(now))
	require.NoError(t, err)

	e := newEvaluator(t, businessHours(50), now, quota)

	d, err := e.Evaluate(ctx, owner)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestEvaluate_NeverMutatesQuota(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	loc := chicago(t)
	now := time.Date(2025, time.June, 4, 14, 0, 0, 0, loc)

	quota := eligibility.NewMemoryQuota()
	e := newEvaluator(t, businessHours(10), now, quota)

	for range 5 {
		_, err := e.Evaluate(ctx, owner)
		require.NoError(t, err)
	}

	used, err := quota.Used(ctx, owner, eligibility.Day(now))
	require.NoError(t, err)
	assert.Zero(t, used, "evaluation must be side-effect free")
}

func TestEvaluate_UnknownOwner(t *testing.T) {
	t.Parallel()

	e, err := eligibility.NewEvaluator(eligibility.NewStaticSource(nil))
	require.NoError(t, err)

	_, err = e.Evaluate(context.Background(), "ghost")
	assert.ErrorIs(t, err, eligibility.ErrOwnerNotFound)
}

func TestEvaluate_FallbackWindow(t *testing.T) {
	t.Parallel()

	src := eligibility.NewStaticSource(nil,
		eligibility.WithFallbackWindow(eligibility.Window{}), // always open
	)
	e, err := eligibility.NewEvaluator(src, eligibility.WithClock(clock.NewMock(time.Now())))
	require.NoError(t, err)

	d, err := e.Evaluate(context.Background(), "ghost")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestNewEvaluator_NilSource(t *testing.T) {
	t.Parallel()

	_, err := eligibility.NewEvaluator(nil)
	assert.ErrorIs(t, err, eligibility.ErrSourceNil)
}
