package models

// Payment methods accepted by the POS core.
const (
	PaymentMethodCash  = "efectivo"
	PaymentMethodCard  = "tarjeta"
	PaymentMethodOther = "otro"
)

// ValidPaymentMethod reports whether the POS core accepts the method.
func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodOther:
		return true
	}
	return false
}

// SplitItem references one line item inside a division, carrying the
// server-computed subtotal back so the POS core can cross-check it.
type SplitItem struct {
	ItemID   string  `json:"itemId"`
	OrderID  string  `json:"pedidoId"`
	Subtotal float64 `json:"subtotal"`
}

// Division is one person's assigned subset of line items.
type Division struct {
	Items []SplitItem `json:"items"`
}

// SplitRequest is the body of POST /pagos/dividir-cuenta.
type SplitRequest struct {
	TableID       string     `json:"mesaId"`
	DivisionCount int        `json:"numeroDivisiones"`
	Divisions     []Division `json:"divisiones"`
}

// SplitDivision is the POS core's authoritative computation for one
// person of a split bill.
type SplitDivision struct {
	Number   int     `json:"numero"`
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"impuestos"`
	Total    float64 `json:"total"`
}

// SplitTotals aggregates all divisions of a split bill.
type SplitTotals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"impuestos"`
	Total    float64 `json:"total"`
}

// SplitResult is the POS core's response to a split request. Once
// received it replaces any locally computed per-person preview.
type SplitResult struct {
	DivisionCount int             `json:"numeroDivisiones,omitempty"`
	Divisions     []SplitDivision `json:"divisiones"`
	Totals        SplitTotals     `json:"totales"`
}

// ProcessPaymentRequest is the body of POST /pagos/procesar. Exactly one
// of the tip representations is set: a flat custom amount (Tip +
// CustomTip) or a preset percentage (TipPercentage). When the bill was
// divided, the divisions are forwarded verbatim as the POS core returned
// them from the split call.
type ProcessPaymentRequest struct {
	TableID       string          `json:"mesaId"`
	Method        string          `json:"metodoPago"`
	Tip           float64         `json:"propina,omitempty"`
	CustomTip     bool            `json:"propinaPersonalizada,omitempty"`
	TipPercentage float64         `json:"porcentajePropina,omitempty"`
	SplitBill     bool            `json:"cuentaDividida,omitempty"`
	DivisionCount int             `json:"numeroDivisiones,omitempty"`
	Divisions     []SplitDivision `json:"divisiones,omitempty"`
}
