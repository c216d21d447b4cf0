package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/redial/pkg/logger"
)

func TestAttrHelpers(t *testing.T) {
	t.Run("error attr skips nil", func(t *testing.T) {
		assert.Equal(t, slog.Attr{}, logger.Error(nil))

		attr := logger.Error(errors.New("boom"))
		assert.Equal(t, "error", attr.Key)
	})

	t.Run("errors groups non-nil values", func(t *testing.T) {
		attr := logger.Errors(errors.New("first"), nil, errors.New("second"))
		require.Equal(t, "errors", attr.Key)
		require.Equal(t, slog.KindGroup, attr.Value.Kind())
		assert.Len(t, attr.Value.Group(), 2)

		assert.Equal(t, slog.Attr{}, logger.Errors(nil, nil))
	})

	t.Run("domain attrs use stable keys", func(t *testing.T) {
		id := uuid.New()
		assert.Equal(t, "operation_id", logger.OperationID(id).Key)
		assert.Equal(t, id.String(), logger.OperationID(id).Value.String())
		assert.Equal(t, "owner_id", logger.OwnerID("owner-1").Key)
		assert.Equal(t, "kind", logger.Kind("outbound_call").Key)
		assert.Equal(t, "status", logger.Status("completed").Key)
		assert.Equal(t, "attempt", logger.Attempt(2).Key)
		assert.Equal(t, "duration", logger.Duration(time.Second).Key)
		assert.Equal(t, "component", logger.Component("sweeper").Key)
	})
}
