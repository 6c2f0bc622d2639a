package domain

// Discriminator values for the supported action variants.
const (
	ActionRedirect = "redirect"
	ActionQRCode   = "qrCode"
	ActionAwait    = "await"
)

// Action is implemented by every follow-up action variant the payments API
// can return when the checkout needs further shopper interaction.
type Action interface {
	ActionType() string
	// Data returns the opaque payment data the UI layer must hand back when
	// submitting additional details.
	Data() string
}

type RedirectAction struct {
	Type        string `json:"type"`
	PaymentData string `json:"paymentData,omitempty"`
	Method      string `json:"method,omitempty"`
	URL         string `json:"url,omitempty"`
}

func (a RedirectAction) ActionType() string { return ActionRedirect }
func (a RedirectAction) Data() string       { return a.PaymentData }

type QRCodeAction struct {
	Type        string `json:"type"`
	PaymentData string `json:"paymentData,omitempty"`
	QRCodeData  string `json:"qrCodeData,omitempty"`
}

func (a QRCodeAction) ActionType() string { return ActionQRCode }
func (a QRCodeAction) Data() string       { return a.PaymentData }

type AwaitAction struct {
	Type              string `json:"type"`
	PaymentData       string `json:"paymentData,omitempty"`
	PaymentMethodType string `json:"paymentMethodType,omitempty"`
}

func (a AwaitAction) ActionType() string { return ActionAwait }
func (a AwaitAction) Data() string       { return a.PaymentData }
