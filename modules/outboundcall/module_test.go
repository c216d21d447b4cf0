package outboundcall_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/redial/modules/outboundcall"
	"github.com/voicedesk/redial/pkg/dispatch"
)

type fakeCaller struct {
	err   error
	calls []outboundcall.Call
}

func (c *fakeCaller) PlaceCall(ctx context.Context, call outboundcall.Call) error {
	c.calls = append(c.calls, call)
	return c.err
}

func validPayload() outboundcall.Payload {
	return outboundcall.Payload{
		OwnerID: "owner-1",
		Number:  "+15550100",
		AgentID: "agent-7",
		Reason:  "missed_call",
	}
}

func TestModule_Place(t *testing.T) {
	t.Parallel()

	t.Run("places the call", func(t *testing.T) {
		t.Parallel()

		caller := &fakeCaller{}
		m, err := outboundcall.NewModule(caller)
		require.NoError(t, err)

		require.NoError(t, m.Place(context.Background(), validPayload()))
		require.Len(t, caller.calls, 1)
		assert.Equal(t, "+15550100", caller.calls[0].Number)
		assert.Equal(t, "owner-1", caller.calls[0].OwnerID)
	})

	t.Run("do-not-call hit is a policy block and skips the platform", func(t *testing.T) {
		t.Parallel()

		dnc := outboundcall.NewStaticDNCList()
		dnc.Add("owner-1", "+15550100")

		caller := &fakeCaller{}
		m, err := outboundcall.NewModule(caller, outboundcall.WithDNCList(dnc))
		require.NoError(t, err)

		err = m.Place(context.Background(), validPayload())
		require.Error(t, err)
		assert.True(t, dispatch.IsBlocked(err))
		assert.ErrorIs(t, err, outboundcall.ErrDoNotCall)
		assert.Empty(t, caller.calls)
	})

	t.Run("opt-out only binds the listed owner", func(t *testing.T) {
		t.Parallel()

		dnc := outboundcall.NewStaticDNCList()
		dnc.Add("other-owner", "+15550100")

		caller := &fakeCaller{}
		m, err := outboundcall.NewModule(caller, outboundcall.WithDNCList(dnc))
		require.NoError(t, err)

		require.NoError(t, m.Place(context.Background(), validPayload()))
		assert.Len(t, caller.calls, 1)
	})

	t.Run("rejected number is permanent", func(t *testing.T) {
		t.Parallel()

		caller := &fakeCaller{err: outboundcall.ErrNumberRejected}
		m, err := outboundcall.NewModule(caller)
		require.NoError(t, err)

		err = m.Place(context.Background(), validPayload())
		require.Error(t, err)
		assert.True(t, dispatch.IsPermanent(err))
	})

	t.Run("unavailable platform is retryable", func(t *testing.T) {
		t.Parallel()

		caller := &fakeCaller{err: outboundcall.ErrPlatformUnavailable}
		m, err := outboundcall.NewModule(caller)
		require.NoError(t, err)

		err = m.Place(context.Background(), validPayload())
		require.Error(t, err)
		assert.False(t, dispatch.IsPermanent(err))
		assert.False(t, dispatch.IsBlocked(err))
	})

	t.Run("missing number is permanent", func(t *testing.T) {
		t.Parallel()

		m, err := outboundcall.NewModule(&fakeCaller{})
		require.NoError(t, err)

		err = m.Place(context.Background(), outboundcall.Payload{OwnerID: "owner-1"})
		require.Error(t, err)
		assert.True(t, dispatch.IsPermanent(err))
	})

	t.Run("nil caller rejected", func(t *testing.T) {
		t.Parallel()

		_, err := outboundcall.NewModule(nil)
		assert.ErrorIs(t, err, outboundcall.ErrCallerNil)
	})
}

func TestModule_Handler(t *testing.T) {
	t.Parallel()

	m, err := outboundcall.NewModule(&fakeCaller{})
	require.NoError(t, err)

	h := m.Handler()
	assert.Equal(t, outboundcall.Kind, h.Kind())
	assert.True(t, h.ConsumesQuota())
}

func TestAPICaller_PlaceCall(t *testing.T) {
	t.Parallel()

	call := outboundcall.Call{OwnerID: "owner-1", Number: "+15550100", AgentID: "agent-7"}

	t.Run("accepted", func(t *testing.T) {
		t.Parallel()

		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			assert.Equal(t, "/v1/calls", r.URL.Path)
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		c := outboundcall.NewAPICaller(outboundcall.APIConfig{BaseURL: srv.URL, Token: "tok"})
		require.NoError(t, c.PlaceCall(context.Background(), call))
		assert.Equal(t, "Bearer tok", gotAuth)
	})

	t.Run("4xx rejects the number", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		c := outboundcall.NewAPICaller(outboundcall.APIConfig{BaseURL: srv.URL, Token: "tok"})
		err := c.PlaceCall(context.Background(), call)
		assert.ErrorIs(t, err, outboundcall.ErrNumberRejected)
	})

	t.Run("5xx is retryable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := outboundcall.NewAPICaller(outboundcall.APIConfig{BaseURL: srv.URL, Token: "tok"})
		err := c.PlaceCall(context.Background(), call)
		assert.ErrorIs(t, err, outboundcall.ErrPlatformUnavailable)
	})
}
