package billing

import "github.com/mesaviva/pos-payments-terminal/internal/models"

// Breakdown is the displayable payment summary. It is recomputed on
// every relevant state change and never triggers network calls itself.
type Breakdown struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Tip      float64 `json:"tip"`
	Total    float64 `json:"total"`

	// Split carries the per-person figures verbatim from the POS
	// core when the bill has been divided. The tip is a single lump
	// sum added to the grand total only; it is not divided per person.
	Split *models.SplitResult `json:"split,omitempty"`

	// PaymentEnabled is false while no account with open orders is
	// loaded; payment submission is disabled in that state.
	PaymentEnabled bool `json:"paymentEnabled"`
}

// Project combines the account (or the server's split result) with the
// resolved tip into the final displayed breakdown.
//
// Unsplit mode uses the account's server-computed subtotal and tax.
// Split mode passes the split result's totals through verbatim and adds
// the tip, resolved over the split subtotal, on top of the grand total.
func Project(account *models.AccountSnapshot, split *models.SplitResult, presetPercentage, customAmount float64) Breakdown {
	if account.IsEmpty() {
		return Breakdown{}
	}

	if split != nil {
		tip := ResolveTip(split.Totals.Subtotal, presetPercentage, customAmount)
		return Breakdown{
			Subtotal:       split.Totals.Subtotal,
			Tax:            split.Totals.Tax,
			Tip:            tip,
			Total:          split.Totals.Total + tip,
			Split:          split,
			PaymentEnabled: true,
		}
	}

	subtotal := account.Summary.Subtotal
	tax := account.Summary.Tax
	tip := ResolveTip(subtotal, presetPercentage, customAmount)

	return Breakdown{
		Subtotal:       subtotal,
		Tax:            tax,
		Tip:            tip,
		Total:          subtotal + tax + tip,
		PaymentEnabled: true,
	}
}
