package relay

import (
	"strings"
	"sync"
	"time"

	"github.com/smallbiznis/dropin/internal/callresult"
	"go.uber.org/zap"
)

// TopicSuffix is appended to the host application ID to form the delivery
// topic, so multiple host applications in one process never cross-deliver.
const TopicSuffix = ".checkout.CALL_RESULT"

// ResultKey identifies the call result payload inside a delivery.
const ResultKey = "payments_api_call_result"

// topicBuffer bounds how many undelivered results a topic holds.
const topicBuffer = 16

// publishTimeout is how long Deliver waits on a full topic before dropping.
const publishTimeout = 250 * time.Millisecond

// Delivery is one published call result event.
type Delivery struct {
	Key    string
	Result callresult.CallResult
}

// Relay is a process-local publish/subscribe channel that hands terminal
// call results from the dispatch worker back to the single listening UI
// controller of each host application.
type Relay struct {
	log    *zap.Logger
	mu     sync.RWMutex
	topics map[string]chan Delivery
}

func New(log *zap.Logger) *Relay {
	return &Relay{
		log:    log.Named("relay"),
		topics: make(map[string]chan Delivery),
	}
}

// Topic derives the delivery topic for a host application.
func Topic(appID string) string {
	return strings.TrimSpace(appID) + TopicSuffix
}

// Subscribe returns the single-consumer delivery channel for appID. The
// channel is created on first use so results published before the consumer
// attaches are buffered rather than lost.
func (r *Relay) Subscribe(appID string) <-chan Delivery {
	return r.topic(appID)
}

// Deliver publishes a call result to the topic of appID. Wait results are
// the "I will call you back later" signal and publish nothing; every other
// result publishes exactly one event. A full topic gets a bounded window to
// drain before the result is dropped.
func (r *Relay) Deliver(appID string, result callresult.CallResult) {
	if result.Type == callresult.TypeWait {
		return
	}

	topic := r.topic(appID)
	delivery := Delivery{Key: ResultKey, Result: result}
	select {
	case topic <- delivery:
		return
	default:
	}

	timer := time.NewTimer(publishTimeout)
	defer timer.Stop()
	select {
	case topic <- delivery:
	case <-timer.C:
		// Single-consumer buffer still full: the controller stopped
		// draining. The journal holds the result for late recovery.
		r.log.Warn("dropping call result, subscriber not draining",
			zap.String("topic", Topic(appID)),
			zap.String("result_type", string(result.Type)),
		)
	}
}

func (r *Relay) topic(appID string) chan Delivery {
	name := Topic(appID)

	r.mu.RLock()
	ch, ok := r.topics[name]
	r.mu.RUnlock()
	if ok {
		return ch
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.topics[name]; ok {
		return ch
	}
	ch = make(chan Delivery, topicBuffer)
	r.topics[name] = ch
	return ch
}
