package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidPayload = errors.New("invalid_payload")
	ErrMissingType    = errors.New("missing_type_discriminator")
	ErrUnknownVariant = errors.New("unknown_variant")
)

type PaymentMethodDecoder func(raw []byte) (PaymentMethodDetails, error)

type ActionDecoder func(raw []byte) (Action, error)

// Registry maps wire discriminators to variant decoders. Decoding reads the
// `type` field first and dispatches to the registered decoder; unrecognized
// discriminators fail with ErrUnknownVariant instead of falling back to a
// generic shape.
type Registry struct {
	methods map[string]PaymentMethodDecoder
	actions map[string]ActionDecoder
}

// NewRegistry builds a registry with all built-in variants registered.
func NewRegistry() *Registry {
	r := &Registry{
		methods: make(map[string]PaymentMethodDecoder),
		actions: make(map[string]ActionDecoder),
	}

	r.RegisterPaymentMethod(PaymentMethodScheme, func(raw []byte) (PaymentMethodDetails, error) {
		var m SchemePaymentMethod
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, ErrInvalidPayload
		}
		return m, nil
	})
	for _, issuerType := range []string{PaymentMethodMolpay, PaymentMethodIdeal, PaymentMethodDotpay} {
		r.RegisterPaymentMethod(issuerType, func(raw []byte) (PaymentMethodDetails, error) {
			var m IssuerListPaymentMethod
			if err := json.Unmarshal(raw, &m); err != nil {
				return nil, ErrInvalidPayload
			}
			return m, nil
		})
	}

	r.RegisterAction(ActionRedirect, func(raw []byte) (Action, error) {
		var a RedirectAction
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, ErrInvalidPayload
		}
		return a, nil
	})
	r.RegisterAction(ActionQRCode, func(raw []byte) (Action, error) {
		var a QRCodeAction
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, ErrInvalidPayload
		}
		return a, nil
	})
	r.RegisterAction(ActionAwait, func(raw []byte) (Action, error) {
		var a AwaitAction
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, ErrInvalidPayload
		}
		return a, nil
	})

	return r
}

func (r *Registry) RegisterPaymentMethod(discriminator string, decoder PaymentMethodDecoder) {
	r.methods[discriminator] = decoder
}

func (r *Registry) RegisterAction(discriminator string, decoder ActionDecoder) {
	r.actions[discriminator] = decoder
}

func (r *Registry) PaymentMethodExists(discriminator string) bool {
	_, ok := r.methods[discriminator]
	return ok
}

func (r *Registry) ActionExists(discriminator string) bool {
	_, ok := r.actions[discriminator]
	return ok
}

func (r *Registry) DecodePaymentMethod(raw []byte) (PaymentMethodDetails, error) {
	discriminator, err := readDiscriminator(raw)
	if err != nil {
		return nil, err
	}
	decoder, ok := r.methods[discriminator]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, discriminator)
	}
	return decoder(raw)
}

func (r *Registry) DecodeAction(raw []byte) (Action, error) {
	discriminator, err := readDiscriminator(raw)
	if err != nil {
		return nil, err
	}
	decoder, ok := r.actions[discriminator]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, discriminator)
	}
	return decoder(raw)
}

// EncodePaymentMethod serializes a variant, stamping the discriminator so
// that decode(encode(x)) always resolves the same variant.
func (r *Registry) EncodePaymentMethod(m PaymentMethodDetails) ([]byte, error) {
	if m == nil {
		return nil, ErrInvalidPayload
	}
	if !r.PaymentMethodExists(m.MethodType()) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, m.MethodType())
	}
	return stampType(m, m.MethodType())
}

func (r *Registry) EncodeAction(a Action) ([]byte, error) {
	if a == nil {
		return nil, ErrInvalidPayload
	}
	if !r.ActionExists(a.ActionType()) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, a.ActionType())
	}
	return stampType(a, a.ActionType())
}

func readDiscriminator(raw []byte) (string, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", ErrInvalidPayload
	}
	discriminator := strings.TrimSpace(envelope.Type)
	if discriminator == "" {
		return "", ErrMissingType
	}
	return discriminator, nil
}

func stampType(value any, discriminator string) ([]byte, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, ErrInvalidPayload
	}
	var fields map[string]any
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return nil, ErrInvalidPayload
	}
	fields["type"] = discriminator
	return json.Marshal(fields)
}
