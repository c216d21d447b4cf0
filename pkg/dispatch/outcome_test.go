package dispatch_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voicedesk/redial/pkg/backoff"
	"github.com/voicedesk/redial/pkg/dispatch"
)

func TestClassOf(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")

	t.Run("unclassified errors are transient", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, backoff.ClassTransient, dispatch.ClassOf(base))
	})

	t.Run("wrappers carry their class", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, backoff.ClassPermanent, dispatch.ClassOf(dispatch.Permanent(base)))
		assert.Equal(t, backoff.ClassPolicyBlocked, dispatch.ClassOf(dispatch.Blocked(base)))
		assert.Equal(t, backoff.ClassTransient, dispatch.ClassOf(dispatch.Transient(base)))
	})

	t.Run("class survives further wrapping", func(t *testing.T) {
		t.Parallel()
		wrapped := fmt.Errorf("handler failed: %w", dispatch.Permanent(base))
		assert.True(t, dispatch.IsPermanent(wrapped))
	})

	t.Run("classified errors unwrap to the original", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, dispatch.Blocked(base), base)
		assert.True(t, dispatch.IsBlocked(dispatch.Blocked(base)))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, dispatch.Permanent(nil))
		assert.NoError(t, dispatch.Blocked(nil))
		assert.NoError(t, dispatch.Transient(nil))
	})
}
