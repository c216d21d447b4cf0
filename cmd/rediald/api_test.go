package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/redial/modules/webhookreplay"
	"github.com/voicedesk/redial/pkg/dispatch"
	"github.com/voicedesk/redial/pkg/operation"
	"github.com/voicedesk/redial/pkg/sweep"
)

type apiFixture struct {
	router http.Handler
	store  *operation.MemoryStore
	waker  *sweep.Waker
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	store := operation.NewMemoryStore()
	log := slog.New(slog.DiscardHandler)

	dispatcher, err := dispatch.NewDispatcher(store, dispatch.WithDispatcherLogger(log))
	require.NoError(t, err)
	require.NoError(t, dispatcher.RegisterHandler(webhookreplay.NewReplayer().Handler()))

	waker, err := sweep.NewWaker(store, dispatcher, sweep.WithWakerLogger(log))
	require.NoError(t, err)
	t.Cleanup(waker.Stop)

	canceller, err := sweep.NewCanceller(store,
		sweep.WithCancellerWaker(waker),
		sweep.WithCancellerLogger(log),
	)
	require.NoError(t, err)

	enqueuer, err := operation.NewEnqueuer(store)
	require.NoError(t, err)

	api := &intakeAPI{
		enqueuer:   enqueuer,
		store:      store,
		dispatcher: dispatcher,
		waker:      waker,
		canceller:  canceller,
		log:        log,
	}
	r := chi.NewRouter()
	r.Route("/v1", api.routes)

	return &apiFixture{router: r, store: store, waker: waker}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func enqueueBody(ownerID string, notBefore time.Time) map[string]any {
	return map[string]any{
		"owner_id":   ownerID,
		"kind":       "webhook_replay",
		"payload":    map[string]string{"url": "https://example.com/hook"},
		"not_before": notBefore.Format(time.RFC3339),
	}
}

func TestIntakeAPI_Enqueue(t *testing.T) {
	t.Parallel()

	t.Run("creates pending operation and arms wake", func(t *testing.T) {
		t.Parallel()

		f := newAPIFixture(t)
		rec := f.do(t, http.MethodPost, "/v1/operations", enqueueBody("owner-1", time.Now().Add(time.Hour)))
		require.Equal(t, http.StatusCreated, rec.Code)

		var op operation.Operation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &op))
		require.Equal(t, operation.StatusPending, op.Status)
		require.Equal(t, "owner-1", op.OwnerID)
		require.NotNil(t, op.NextAttemptAt)
		require.Equal(t, 1, f.waker.Pending())
	})

	t.Run("reuses existing operation for a known id", func(t *testing.T) {
		t.Parallel()

		f := newAPIFixture(t)
		id := uuid.New()
		body := enqueueBody("owner-1", time.Now().Add(time.Hour))
		body["id"] = id.String()

		first := f.do(t, http.MethodPost, "/v1/operations", body)
		require.Equal(t, http.StatusCreated, first.Code)

		second := f.do(t, http.MethodPost, "/v1/operations", body)
		require.Equal(t, http.StatusCreated, second.Code)

		var op operation.Operation
		require.NoError(t, json.Unmarshal(second.Body.Bytes(), &op))
		require.Equal(t, id, op.ID)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		t.Parallel()

		f := newAPIFixture(t)
		req := httptest.NewRequest(http.MethodPost, "/v1/operations", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects missing owner", func(t *testing.T) {
		t.Parallel()

		f := newAPIFixture(t)
		body := enqueueBody("", time.Now().Add(time.Hour))
		rec := f.do(t, http.MethodPost, "/v1/operations", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects a kind no handler serves", func(t *testing.T) {
		t.Parallel()

		f := newAPIFixture(t)
		body := enqueueBody("owner-1", time.Now().Add(time.Hour))
		body["kind"] = "carrier_pigeon"
		rec := f.do(t, http.MethodPost, "/v1/operations", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "carrier_pigeon")
	})

	t.Run("rejects missing payload", func(t *testing.T) {
		t.Parallel()

		f := newAPIFixture(t)
		body := enqueueBody("owner-1", time.Now().Add(time.Hour))
		delete(body, "payload")
		rec := f.do(t, http.MethodPost, "/v1/operations", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects explicit null payload", func(t *testing.T) {
		t.Parallel()

		f := newAPIFixture(t)
		body := enqueueBody("owner-1", time.Now().Add(time.Hour))
		body["payload"] = nil
		rec := f.do(t, http.MethodPost, "/v1/operations", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestIntakeAPI_Get(t *testing.T) {
	t.Parallel()

	t.Run("returns stored operation", func(t *testing.T) {
		t.Parallel()

		f := newAPIFixture(t)
		created := f.do(t, http.MethodPost, "/v1/operations", enqueueBody("owner-1", time.Now().Add(time.Hour)))

		var op operation.Operation
		require.NoError(t, json.Unmarshal(created.Body.Bytes(), &op))

		rec := f.do(t, http.MethodGet, "/v1/operations/"+op.ID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		t.Parallel()

		f := newAPIFixture(t)
		rec := f.do(t, http.MethodGet, "/v1/operations/"+uuid.NewString(), nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		t.Parallel()

		f := newAPIFixture(t)
		rec := f.do(t, http.MethodGet, "/v1/operations/not-a-uuid", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestIntakeAPI_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("cancels awaitable operation and disarms wake", func(t *testing.T) {
		t.Parallel()

		f := newAPIFixture(t)
		created := f.do(t, http.MethodPost, "/v1/operations", enqueueBody("owner-1", time.Now().Add(time.Hour)))

		var op operation.Operation
		require.NoError(t, json.Unmarshal(created.Body.Bytes(), &op))
		require.Equal(t, 1, f.waker.Pending())

		rec := f.do(t, http.MethodPost, "/v1/operations/"+op.ID.String()+"/cancel", nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, 0, f.waker.Pending())

		stored, err := f.store.Get(t.Context(), op.ID)
		require.NoError(t, err)
		require.Equal(t, operation.StatusCancelled, stored.Status)
	})

	t.Run("cancelling an unknown id still succeeds", func(t *testing.T) {
		t.Parallel()

		f := newAPIFixture(t)
		rec := f.do(t, http.MethodPost, "/v1/operations/"+uuid.NewString()+"/cancel", nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}
