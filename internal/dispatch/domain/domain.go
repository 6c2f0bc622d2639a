package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dropin/internal/callresult"
)

// RequestType tags which payments API operation an envelope asks for.
type RequestType string

const (
	RequestTypePayments RequestType = "payments_request"
	RequestTypeDetails  RequestType = "details_request"
)

// PaymentMethodKey is the payload field that must be present before a
// payments call is delegated to host logic.
const PaymentMethodKey = "paymentMethod"

// Envelope is the queued unit of work handed from the UI layer to the
// dispatcher. It is consumed once and discarded after its result is relayed.
type Envelope struct {
	ID      snowflake.ID
	Type    RequestType
	Payload map[string]any
}

var (
	ErrQueueFull     = errors.New("dispatch_queue_full")
	ErrStopped       = errors.New("dispatcher_stopped")
	ErrNoPendingCall = errors.New("no_pending_async_call")
	ErrWaitCallback  = errors.New("wait_result_in_async_callback")
)

// Handler is the host-supplied implementation of the two outbound payments
// API calls. A handler either blocks its worker until it has a terminal
// result, or returns a wait result and later reports the real outcome
// through Service.AsyncCallback exactly once. Network and decode failures
// belong to the handler: recover them into an error result (or return a
// non-nil error, which the dispatcher converts for you). Returning a zero
// CallResult with a nil error is a programming error and crashes the worker.
type Handler interface {
	MakePaymentsCall(ctx context.Context, payload map[string]any) (callresult.CallResult, error)
	MakeDetailsCall(ctx context.Context, payload map[string]any) (callresult.CallResult, error)
}

// Service accepts request envelopes from the UI layer. Requests are
// fire-and-forget: the returned envelope ID is a handle for the journal, and
// the result arrives later through the relay.
type Service interface {
	RequestPaymentsCall(ctx context.Context, payload map[string]any) (snowflake.ID, error)
	RequestDetailsCall(ctx context.Context, payload map[string]any) (snowflake.ID, error)
	// RequestCall routes an envelope by its request-type tag. Unknown tags
	// are accepted here and dropped by the worker with a warning; no result
	// is ever delivered for them.
	RequestCall(ctx context.Context, requestType RequestType, payload map[string]any) (snowflake.ID, error)
	// AsyncCallback reports the terminal result of a call whose handler
	// previously returned a wait result. At most one callback is accepted
	// per waiting envelope.
	AsyncCallback(result callresult.CallResult) error
}
