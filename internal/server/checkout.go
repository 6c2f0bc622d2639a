package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	dispatchdomain "github.com/smallbiznis/dropin/internal/dispatch/domain"
)

// SubmitPayments enqueues a payments call. The payload is forwarded to the
// dispatcher as-is; only the payment method discriminator, when present, is
// validated against the variant registry so typos fail fast with 400 instead
// of an opaque backend rejection.
func (s *Server) SubmitPayments(c *gin.Context) {
	payload, ok := s.bindPayload(c)
	if !ok {
		return
	}

	if raw := paymentMethodJSON(payload); raw != nil {
		if _, err := s.registry.DecodePaymentMethod(raw); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	envelopeID, err := s.dispatch.RequestPaymentsCall(c.Request.Context(), payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"envelope_id": envelopeID.String()})
}

// SubmitDetails enqueues an additional-details call.
func (s *Server) SubmitDetails(c *gin.Context) {
	payload, ok := s.bindPayload(c)
	if !ok {
		return
	}

	envelopeID, err := s.dispatch.RequestDetailsCall(c.Request.Context(), payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"envelope_id": envelopeID.String()})
}

// LatestResult returns the most recently journaled call result for the
// configured host application. Controllers that navigated away during a call
// recover the terminal outcome here.
func (s *Server) LatestResult(c *gin.Context) {
	record, err := s.journal.LatestForApp(c.Request.Context(), s.db, s.cfg.AppID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resultResponse(record.EnvelopeID, record.RequestType, json.RawMessage(record.Result)))
}

// ResultByEnvelope returns the journaled result of one envelope.
func (s *Server) ResultByEnvelope(c *gin.Context) {
	envelopeID, err := snowflake.ParseString(strings.TrimSpace(c.Param("envelope_id")))
	if err != nil {
		AbortWithError(c, newValidationError("envelope_id", "invalid_envelope_id", "invalid envelope id"))
		return
	}

	record, findErr := s.journal.FindByEnvelope(c.Request.Context(), s.db, envelopeID)
	if findErr != nil {
		AbortWithError(c, findErr)
		return
	}
	c.JSON(http.StatusOK, resultResponse(record.EnvelopeID, record.RequestType, json.RawMessage(record.Result)))
}

// WaitResult long-polls the relay for the next delivered call result. The
// relay channel is single-consumer; only one controller should wait at a
// time.
func (s *Server) WaitResult(c *gin.Context) {
	timeout := s.cfg.ResultWaitTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if v := strings.TrimSpace(c.Query("timeout_ms")); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			AbortWithError(c, newValidationError("timeout_ms", "invalid_timeout", "timeout_ms must be a positive integer"))
			return
		}
		timeout = time.Duration(ms) * time.Millisecond
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case delivery := <-s.relay.Subscribe(s.cfg.AppID):
		c.JSON(http.StatusOK, gin.H{delivery.Key: delivery.Result})
	case <-timer.C:
		c.Status(http.StatusNoContent)
	case <-c.Request.Context().Done():
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) bindPayload(c *gin.Context) (map[string]any, bool) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return nil, false
	}
	return payload, true
}

func paymentMethodJSON(payload map[string]any) []byte {
	method, ok := payload[dispatchdomain.PaymentMethodKey].(map[string]any)
	if !ok {
		return nil
	}
	if _, ok := method["type"].(string); !ok {
		return nil
	}
	raw, err := json.Marshal(method)
	if err != nil {
		return nil
	}
	return raw
}

func resultResponse(envelopeID snowflake.ID, requestType string, result json.RawMessage) gin.H {
	return gin.H{
		"envelope_id":              envelopeID.String(),
		"request_type":             requestType,
		"payments_api_call_result": result,
	}
}
