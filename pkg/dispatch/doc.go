// Package dispatch executes attempts for due operations.
//
// A Dispatcher claims an operation (so at most one worker runs it), invokes
// the effect handler registered for its kind, classifies the result, and
// releases the operation into its next state. Transient failures are
// rescheduled with exponential backoff until the attempt budget runs out;
// permanent failures and policy blocks go terminal immediately and raise an
// alert.
//
// Handlers are typed functions adapted with NewHandler:
//
//	h := dispatch.NewHandler("webhook_replay", func(ctx context.Context, p ReplayPayload) error {
//		if resp.StatusCode == http.StatusGone {
//			return dispatch.Permanent(fmt.Errorf("endpoint gone"))
//		}
//		return deliver(ctx, p)
//	})
//
//	d, err := dispatch.NewDispatcher(store,
//		dispatch.WithNotifier(alerts),
//		dispatch.WithOwnerSource(owners),
//	)
//	d.RegisterHandler(h)
//
// Errors a handler does not classify with Permanent or Blocked are treated
// as transient: when in doubt, the engine retries rather than dropping work.
package dispatch
