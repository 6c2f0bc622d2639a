package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dropin/internal/callresult"
	"github.com/smallbiznis/dropin/internal/clock"
	"github.com/smallbiznis/dropin/internal/config"
	dispatchdomain "github.com/smallbiznis/dropin/internal/dispatch/domain"
	journaldomain "github.com/smallbiznis/dropin/internal/journal/domain"
	"github.com/smallbiznis/dropin/internal/observability/logger"
	"github.com/smallbiznis/dropin/internal/relay"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// msgEmptyPaymentData is relayed when a payments call arrives without a
// payment method; the host handler is never invoked in that case.
const msgEmptyPaymentData = "Empty payment data"

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Relay   *relay.Relay
	Journal journaldomain.Repository
	Handler dispatchdomain.Handler
	Cfg     config.Config
	Queue   QueueConfig `optional:"true"`
}

// Service owns the serial dispatch worker for one host application: it
// drains the request queue one envelope at a time, delegates to host logic,
// and relays exactly one terminal result per envelope.
type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	relay   *relay.Relay
	journal journaldomain.Repository
	handler dispatchdomain.Handler
	appID   string
	queue   chan dispatchdomain.Envelope
	stopped atomic.Bool

	// mu guards the wait bookkeeping. waiting holds every envelope whose
	// handler returned wait, oldest first; callbacks complete them in that
	// order. inflight is the envelope currently inside a host call, and
	// early stashes a callback that lands before the worker has parked it.
	mu       sync.Mutex
	waiting  []dispatchdomain.Envelope
	inflight *dispatchdomain.Envelope
	early    *callresult.CallResult
}

func NewService(p Params) *Service {
	queueCfg := p.Queue.withDefaults()
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("dispatch.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		relay:   p.Relay,
		journal: p.Journal,
		handler: p.Handler,
		appID:   p.Cfg.AppID,
		queue:   make(chan dispatchdomain.Envelope, queueCfg.Size),
	}
}

func (s *Service) RequestPaymentsCall(ctx context.Context, payload map[string]any) (snowflake.ID, error) {
	return s.RequestCall(ctx, dispatchdomain.RequestTypePayments, payload)
}

func (s *Service) RequestDetailsCall(ctx context.Context, payload map[string]any) (snowflake.ID, error) {
	return s.RequestCall(ctx, dispatchdomain.RequestTypeDetails, payload)
}

func (s *Service) RequestCall(ctx context.Context, requestType dispatchdomain.RequestType, payload map[string]any) (snowflake.ID, error) {
	if s.stopped.Load() {
		return 0, dispatchdomain.ErrStopped
	}

	envelope := dispatchdomain.Envelope{
		ID:      s.genID.Generate(),
		Type:    requestType,
		Payload: payload,
	}
	select {
	case s.queue <- envelope:
		s.log.Debug("request enqueued",
			zap.String("envelope_id", envelope.ID.String()),
			zap.String("request_type", string(requestType)),
			zap.Any("payload", logger.MaskPayload(payload)),
		)
		return envelope.ID, nil
	default:
		return 0, dispatchdomain.ErrQueueFull
	}
}

// Run drains the queue until ctx is canceled. One envelope is in flight at
// a time, so two requests never execute concurrently against host logic.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.stopped.Store(true)
			return
		case envelope := <-s.queue:
			s.process(ctx, envelope)
		}
	}
}

func (s *Service) process(ctx context.Context, envelope dispatchdomain.Envelope) {
	var result callresult.CallResult
	switch envelope.Type {
	case dispatchdomain.RequestTypePayments:
		result = s.submitPayment(ctx, envelope)
	case dispatchdomain.RequestTypeDetails:
		result = s.submitDetails(ctx, envelope)
	default:
		// Unrecognized tags used to vanish without a trace; keep the no-op
		// but make it visible.
		s.log.Warn("dropping envelope with unknown request type",
			zap.String("envelope_id", envelope.ID.String()),
			zap.String("request_type", string(envelope.Type)),
		)
		return
	}

	if s.settle(envelope, result) {
		return
	}
	s.deliver(envelope, result)
}

// settle reconciles the handler result with any callback that raced in while
// the call was in flight. It reports true when the envelope was parked for a
// later callback or already completed by an early one.
func (s *Service) settle(envelope dispatchdomain.Envelope, result callresult.CallResult) bool {
	s.mu.Lock()
	s.inflight = nil
	early := s.early
	s.early = nil

	if result.Type == callresult.TypeWait {
		if early != nil {
			s.mu.Unlock()
			s.deliver(envelope, *early)
			return true
		}
		// Worker freed; the host reports the real outcome via AsyncCallback.
		s.waiting = append(s.waiting, envelope)
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	if early != nil {
		s.log.Warn("discarding async callback for a synchronously completed call",
			zap.String("envelope_id", envelope.ID.String()),
		)
	}
	return false
}

func (s *Service) submitPayment(ctx context.Context, envelope dispatchdomain.Envelope) callresult.CallResult {
	if !hasPaymentMethod(envelope.Payload) {
		return callresult.Error(msgEmptyPaymentData)
	}
	return s.invoke(ctx, envelope, s.handler.MakePaymentsCall)
}

func (s *Service) submitDetails(ctx context.Context, envelope dispatchdomain.Envelope) callresult.CallResult {
	return s.invoke(ctx, envelope, s.handler.MakeDetailsCall)
}

type hostCall func(ctx context.Context, payload map[string]any) (callresult.CallResult, error)

func (s *Service) invoke(ctx context.Context, envelope dispatchdomain.Envelope, call hostCall) callresult.CallResult {
	s.mu.Lock()
	s.inflight = &envelope
	s.mu.Unlock()

	result, err := call(ctx, envelope.Payload)
	if err != nil {
		return callresult.Error(err.Error())
	}
	if result.IsZero() {
		// A zero result cannot be told apart from "no answer yet". Crash the
		// worker so the defect surfaces during integration instead of the
		// request silently vanishing.
		panic(fmt.Sprintf("dispatch: handler returned no result for envelope %s", envelope.ID))
	}
	return result
}

// AsyncCallback completes the oldest envelope whose handler previously
// returned a wait result. Safe to call from any goroutine; overlapping waits
// complete in the order they were parked, and a callback racing the wait
// return itself is held until the worker settles the call. Callbacks beyond
// one per waiting envelope are rejected so the UI layer never sees two
// results for one envelope.
func (s *Service) AsyncCallback(result callresult.CallResult) error {
	if result.Type == callresult.TypeWait {
		return dispatchdomain.ErrWaitCallback
	}
	if result.IsZero() {
		panic("dispatch: async callback carried no result")
	}

	s.mu.Lock()
	if len(s.waiting) > 0 {
		envelope := s.waiting[0]
		s.waiting = s.waiting[1:]
		s.mu.Unlock()
		s.deliver(envelope, result)
		return nil
	}
	if s.inflight != nil && s.early == nil {
		stash := result
		s.early = &stash
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return dispatchdomain.ErrNoPendingCall
}

func (s *Service) deliver(envelope dispatchdomain.Envelope, result callresult.CallResult) {
	s.writeJournal(envelope, result)
	s.relay.Deliver(s.appID, result)
	s.log.Info("call result delivered",
		zap.String("envelope_id", envelope.ID.String()),
		zap.String("request_type", string(envelope.Type)),
		zap.String("result_type", string(result.Type)),
	)
}

func (s *Service) writeJournal(envelope dispatchdomain.Envelope, result callresult.CallResult) {
	if s.journal == nil || s.db == nil {
		return
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		s.log.Error("encode call result for journal", zap.Error(err))
		return
	}

	// The worker context may already be gone when an async callback lands.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	record := &journaldomain.ResultRecord{
		ID:          s.genID.Generate(),
		AppID:       s.appID,
		EnvelopeID:  envelope.ID,
		RequestType: string(envelope.Type),
		ResultType:  string(result.Type),
		Result:      datatypes.JSON(encoded),
		DeliveredAt: s.clock.Now(),
	}
	if err := s.journal.Insert(ctx, s.db, record); err != nil {
		s.log.Error("journal call result",
			zap.String("envelope_id", envelope.ID.String()),
			zap.Error(err),
		)
	}
}

func hasPaymentMethod(payload map[string]any) bool {
	if len(payload) == 0 {
		return false
	}
	value, ok := payload[dispatchdomain.PaymentMethodKey]
	return ok && value != nil
}
