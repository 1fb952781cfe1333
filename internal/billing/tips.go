// Package billing implements the bill-splitting and payment-summary
// calculator: tip resolution, split assignment and summary projection.
// Everything here is a pure computation over an account snapshot; the
// POS core remains authoritative for the committed result.
package billing

import "github.com/mesaviva/pos-payments-terminal/internal/models"

// Fallback policy when the restaurant configuration is unavailable and
// nothing is cached. The payment flow never blocks on configuration.
var DefaultTipOptions = []float64{0, 10, 15, 20}

// DefaultTaxPercentage is the VAT applied when no configuration is known.
const DefaultTaxPercentage = 16.0

const tipSlots = 4

// BuildTipOptions turns the raw restaurant tip settings into the ordered
// preset list shown on the terminal. Slot zero is always "no tip";
// configured positive percentages follow in order. With no usable values
// the defaults apply; with fewer than three the last value is repeated
// to fill the remaining slots.
func BuildTipOptions(tips *models.TipSettings) []float64 {
	options := []float64{0}

	if tips != nil {
		for _, v := range []float64{tips.Option1, tips.Option2, tips.Option3} {
			if v > 0 {
				options = append(options, v)
			}
		}
	}

	if len(options) == 1 {
		return append([]float64(nil), DefaultTipOptions...)
	}

	for len(options) < tipSlots {
		options = append(options, options[len(options)-1])
	}

	return options[:tipSlots]
}

// DefaultPreset picks the preset that is selected when no custom tip is
// active: the first positive option after the "no tip" slot, or 0 if
// none is configured.
func DefaultPreset(options []float64) float64 {
	for i, v := range options {
		if i > 0 && v > 0 {
			return v
		}
	}
	return 0
}

// ResolveTip computes the effective tip for a base subtotal. A positive
// custom amount is a flat currency amount and takes precedence over any
// preset percentage.
func ResolveTip(baseSubtotal, presetPercentage, customAmount float64) float64 {
	if customAmount > 0 {
		return customAmount
	}
	if presetPercentage > 0 {
		return baseSubtotal * presetPercentage / 100
	}
	return 0
}

// TaxPercentage extracts the configured VAT percentage, falling back to
// the default when the configuration is missing or unusable.
func TaxPercentage(cfg *models.SystemConfiguration) float64 {
	if cfg == nil || cfg.Taxes.VATPercentage <= 0 {
		return DefaultTaxPercentage
	}
	return cfg.Taxes.VATPercentage
}
