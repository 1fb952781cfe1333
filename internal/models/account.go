package models

// Table is one restaurant table as returned by GET /mesas.
type Table struct {
	ID     string `json:"id"`
	Number string `json:"numeroMesa"`
	Status string `json:"estado"`
}

// Table statuses used by the POS core. A table only shows up in the
// payments flow while it is occupied or being served.
const (
	TableStatusOccupied = "ocupada"
	TableStatusServing  = "atendiendo"
)

// HasOpenAccount reports whether the table can have an open, unpaid account.
func (t Table) HasOpenAccount() bool {
	return t.Status == TableStatusOccupied || t.Status == TableStatusServing
}

// LineItem is one ordered product entry within an order. Subtotal is
// computed by the POS core (quantity * unit price); it is displayed and
// summed as-is, never recomputed locally.
type LineItem struct {
	ItemID    string  `json:"itemId"`
	Name      string  `json:"nombre"`
	Quantity  int     `json:"cantidad"`
	UnitPrice float64 `json:"precioUnitario"`
	Subtotal  float64 `json:"subtotal"`
	Notes     string  `json:"observaciones,omitempty"`
}

// Order is one open order on a table's account.
type Order struct {
	ID    string     `json:"id"`
	Items []LineItem `json:"items"`
}

// AccountSummary carries the subtotal and tax as computed by the POS core
// at fetch time.
type AccountSummary struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"impuestos"`
}

// AccountSnapshot is one table's open, unpaid orders at a point in time.
// It is replaced wholesale on every reload and discarded on table
// deselection or successful payment.
type AccountSnapshot struct {
	TableID string         `json:"mesaId"`
	Orders  []Order        `json:"pedidos"`
	Summary AccountSummary `json:"resumen"`
}

// IsEmpty reports whether the snapshot has no open orders.
func (a *AccountSnapshot) IsEmpty() bool {
	return a == nil || len(a.Orders) == 0
}

// LineItemCount returns the number of line items across all orders.
func (a *AccountSnapshot) LineItemCount() int {
	if a == nil {
		return 0
	}
	n := 0
	for _, order := range a.Orders {
		n += len(order.Items)
	}
	return n
}
