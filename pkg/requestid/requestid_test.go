package requestid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/redial/pkg/requestid"
)

func serve(t *testing.T, header string) (*httptest.ResponseRecorder, string) {
	t.Helper()

	var seen string
	h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(requestid.Header, header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("generates an id when none supplied", func(t *testing.T) {
		t.Parallel()

		rec, seen := serve(t, "")
		require.NotEmpty(t, seen)
		require.Equal(t, seen, rec.Header().Get(requestid.Header))
		_, err := uuid.Parse(seen)
		require.NoError(t, err)
	})

	t.Run("reuses a valid client id", func(t *testing.T) {
		t.Parallel()

		rec, seen := serve(t, "client-id_42")
		require.Equal(t, "client-id_42", seen)
		require.Equal(t, "client-id_42", rec.Header().Get(requestid.Header))
	})

	t.Run("replaces an invalid client id", func(t *testing.T) {
		t.Parallel()

		_, seen := serve(t, "bad id with spaces")
		require.NotEqual(t, "bad id with spaces", seen)
		require.NotEmpty(t, seen)
	})

	t.Run("replaces an oversized client id", func(t *testing.T) {
		t.Parallel()

		long := strings.Repeat("a", 200)
		_, seen := serve(t, long)
		require.NotEqual(t, long, seen)
	})
}

func TestContext(t *testing.T) {
	t.Parallel()

	require.Empty(t, requestid.FromContext(context.Background()))

	ctx := requestid.WithContext(context.Background(), "abc")
	require.Equal(t, "abc", requestid.FromContext(ctx))
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := requestid.LoggerExtractor()

	attr, ok := extract(requestid.WithContext(context.Background(), "abc"))
	require.True(t, ok)
	require.Equal(t, "request_id", attr.Key)
	require.Equal(t, "abc", attr.Value.String())

	_, ok = extract(context.Background())
	require.False(t, ok)
}
