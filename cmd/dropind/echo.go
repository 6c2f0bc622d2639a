package main

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/dropin/internal/callresult"
	dispatchdomain "github.com/smallbiznis/dropin/internal/dispatch/domain"
	paymentsdomain "github.com/smallbiznis/dropin/internal/payments/domain"
	"go.uber.org/zap"
)

// echoHandler simulates a payments backend so the daemon runs end-to-end
// without PSP credentials. Payload hints select the outcome:
//
//	"resultCode":  terminal result code (default "Authorised")
//	"redirectUrl": reply with a redirect action
//	"simulate":    "error" or "wait"
//
// A simulated wait reports Received through the async callback after a short
// delay, exercising the same path a real webhook-completing host would.
type echoHandler struct {
	log       *zap.Logger
	registry  *paymentsdomain.Registry
	completer dispatchdomain.Service
}

func newEchoHandler(log *zap.Logger, registry *paymentsdomain.Registry) *echoHandler {
	return &echoHandler{
		log:      log.Named("echo"),
		registry: registry,
	}
}

func (h *echoHandler) MakePaymentsCall(_ context.Context, payload map[string]any) (callresult.CallResult, error) {
	switch stringHint(payload, "simulate") {
	case "error":
		return callresult.CallResult{}, errors.New("IOException")
	case "wait":
		go h.completeLater()
		return callresult.Wait(), nil
	}

	if redirectURL := stringHint(payload, "redirectUrl"); redirectURL != "" {
		encoded, err := h.registry.EncodeAction(paymentsdomain.RedirectAction{
			Type:        paymentsdomain.ActionRedirect,
			Method:      "GET",
			URL:         redirectURL,
			PaymentData: "echo",
		})
		if err != nil {
			return callresult.CallResult{}, err
		}
		return callresult.Action(string(encoded)), nil
	}

	return callresult.Finished(resultCode(payload)), nil
}

func (h *echoHandler) MakeDetailsCall(_ context.Context, payload map[string]any) (callresult.CallResult, error) {
	if stringHint(payload, "simulate") == "error" {
		return callresult.CallResult{}, errors.New("IOException")
	}
	return callresult.Finished(resultCode(payload)), nil
}

func (h *echoHandler) completeLater() {
	time.Sleep(500 * time.Millisecond)
	if h.completer == nil {
		h.log.Error("no completer bound, dropping async result")
		return
	}
	if err := h.completer.AsyncCallback(callresult.Finished("Received")); err != nil {
		h.log.Warn("async callback rejected", zap.Error(err))
	}
}

func resultCode(payload map[string]any) string {
	if code := stringHint(payload, "resultCode"); code != "" {
		return code
	}
	return "Authorised"
}

func stringHint(payload map[string]any, key string) string {
	value, ok := payload[key].(string)
	if !ok {
		return ""
	}
	return value
}
