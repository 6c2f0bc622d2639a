package domain

// Discriminator values for the supported payment method variants.
const (
	PaymentMethodScheme = "scheme"
	PaymentMethodMolpay = "molpay"
	PaymentMethodIdeal  = "ideal"
	PaymentMethodDotpay = "dotpay"
)

// PaymentMethodDetails is implemented by every payment method variant. The
// discriminator returned by MethodType matches the wire `type` field.
type PaymentMethodDetails interface {
	MethodType() string
}

// SchemePaymentMethod carries client-side encrypted card fields. Absent
// fields stay empty strings and are omitted on the wire.
type SchemePaymentMethod struct {
	Type                  string `json:"type"`
	EncryptedCardNumber   string `json:"encryptedCardNumber,omitempty"`
	EncryptedExpiryMonth  string `json:"encryptedExpiryMonth,omitempty"`
	EncryptedExpiryYear   string `json:"encryptedExpiryYear,omitempty"`
	EncryptedSecurityCode string `json:"encryptedSecurityCode,omitempty"`
	HolderName            string `json:"holderName,omitempty"`
}

func (m SchemePaymentMethod) MethodType() string { return PaymentMethodScheme }

// IssuerListPaymentMethod covers the issuer selection family: molpay, ideal
// and dotpay share the same shape and differ only in the discriminator.
type IssuerListPaymentMethod struct {
	Type   string `json:"type"`
	Issuer string `json:"issuer,omitempty"`
}

func (m IssuerListPaymentMethod) MethodType() string { return m.Type }
