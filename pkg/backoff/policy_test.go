package backoff_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/voicedesk/redial/pkg/backoff"
)

func TestPolicyNext_TransientSchedule(t *testing.T) {
	t.Parallel()

	p := backoff.Default()

	tests := []struct {
		name     string
		attempt  int
		want     time.Duration
		terminal bool
	}{
		{name: "first attempt", attempt: 1, want: 10 * time.Minute},
		{name: "second attempt", attempt: 2, want: 20 * time.Minute},
		{name: "third attempt", attempt: 3, want: 40 * time.Minute},
		{name: "fourth attempt exceeds cap", attempt: 4, terminal: true},
		{name: "far beyond cap", attempt: 10, terminal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := p.Next(tt.attempt, backoff.ClassTransient)
			assert.Equal(t, tt.terminal, d.Terminal)
			if !tt.terminal {
				assert.Equal(t, tt.want, d.Delay)
			}
		})
	}
}

func TestPolicyNext_Monotonicity(t *testing.T) {
	t.Parallel()

	p := backoff.Policy{
		BaseDelay:   time.Minute,
		Multiplier:  2,
		MaxAttempts: 8,
	}

	prev := time.Duration(0)
	for attempt := 1; attempt <= 8; attempt++ {
		d := p.Next(attempt, backoff.ClassTransient)
		assert.False(t, d.Terminal)
		assert.GreaterOrEqual(t, d.Delay, prev, "delay must never decrease")
		prev = d.Delay
	}
}

func TestPolicyNext_Deterministic(t *testing.T) {
	t.Parallel()

	p := backoff.Default()

	first := p.Next(2, backoff.ClassTransient)
	for range 50 {
		assert.Equal(t, first, p.Next(2, backoff.ClassTransient))
	}
}

func TestPolicyNext_TerminalClasses(t *testing.T) {
	t.Parallel()

	p := backoff.Default()

	t.Run("permanent is terminal on first attempt", func(t *testing.T) {
		t.Parallel()
		assert.True(t, p.Next(1, backoff.ClassPermanent).Terminal)
	})

	t.Run("policy block is terminal on first attempt", func(t *testing.T) {
		t.Parallel()
		assert.True(t, p.Next(1, backoff.ClassPolicyBlocked).Terminal)
	})

	t.Run("permanent ignores remaining budget", func(t *testing.T) {
		t.Parallel()
		assert.True(t, p.Next(0, backoff.ClassPermanent).Terminal)
	})
}

func TestPolicyNext_Defaults(t *testing.T) {
	t.Parallel()

	t.Run("zero attempt treated as first", func(t *testing.T) {
		t.Parallel()
		p := backoff.Default()
		assert.Equal(t, p.Next(1, backoff.ClassTransient), p.Next(0, backoff.ClassTransient))
	})

	t.Run("zero-value policy falls back to sane delays", func(t *testing.T) {
		t.Parallel()
		p := backoff.Policy{MaxAttempts: 3}
		d := p.Next(1, backoff.ClassTransient)
		assert.False(t, d.Terminal)
		assert.Equal(t, 10*time.Minute, d.Delay)
	})

	t.Run("max delay caps growth", func(t *testing.T) {
		t.Parallel()
		p := backoff.Policy{
			BaseDelay:   time.Minute,
			Multiplier:  2,
			MaxAttempts: 10,
			MaxDelay:    5 * time.Minute,
		}
		d := p.Next(9, backoff.ClassTransient)
		assert.Equal(t, 5*time.Minute, d.Delay)
	})
}
