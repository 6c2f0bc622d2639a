package callresult

import (
	"errors"
	"strings"
)

// Type tags the outcome of a delegated payments API call.
type Type string

const (
	// TypeAction means further shopper interaction is required; the payload
	// carries a serialized action for the UI layer to perform.
	TypeAction Type = "action"
	// TypeFinished carries the terminal result code of the checkout.
	TypeFinished Type = "finished"
	// TypeError carries a failure message the UI layer may present.
	TypeError Type = "error"
	// TypeWait signals that no result is available yet; the host reports the
	// real outcome later through the async callback.
	TypeWait Type = "wait"
)

var ErrInvalidType = errors.New("invalid_call_result_type")

// CallResult is the tagged outcome of a requested payments API call. For any
// one request envelope the UI layer observes at most one non-wait result.
type CallResult struct {
	Type    Type   `json:"type"`
	Payload string `json:"payload,omitempty"`
}

func Action(serializedAction string) CallResult {
	return CallResult{Type: TypeAction, Payload: serializedAction}
}

func Finished(resultCode string) CallResult {
	return CallResult{Type: TypeFinished, Payload: resultCode}
}

func Error(message string) CallResult {
	return CallResult{Type: TypeError, Payload: message}
}

func Wait() CallResult {
	return CallResult{Type: TypeWait}
}

// IsZero reports whether the result was never populated. A zero result cannot
// be told apart from "no answer yet", so host logic returning one is treated
// as a programming error by the dispatcher.
func (r CallResult) IsZero() bool {
	return r.Type == ""
}

func (r CallResult) Valid() bool {
	switch r.Type {
	case TypeAction, TypeFinished, TypeError, TypeWait:
		return true
	}
	return false
}

func ParseType(value string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(value))); t {
	case TypeAction, TypeFinished, TypeError, TypeWait:
		return t, nil
	default:
		return "", ErrInvalidType
	}
}
