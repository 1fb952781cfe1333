package terminal

import (
	"github.com/mesaviva/pos-payments-terminal/internal/billing"
	"github.com/mesaviva/pos-payments-terminal/internal/models"
)

// SessionView is the API-facing snapshot of a session: everything the
// terminal UI needs to render, recomputed on every state transition.
type SessionView struct {
	SessionID   string                  `json:"sessionId"`
	TableID     string                  `json:"tableId,omitempty"`
	TableNumber string                  `json:"tableNumber,omitempty"`
	Account     *models.AccountSnapshot `json:"account,omitempty"`

	PaymentMethod string    `json:"paymentMethod"`
	TipOptions    []float64 `json:"tipOptions"`
	TipPercentage float64   `json:"tipPercentage"`
	CustomTip     float64   `json:"customTip,omitempty"`
	TaxPercentage float64   `json:"taxPercentage"`

	// SplitOpen is true while items are being assigned; SplitApplied
	// once the POS core has accepted a division of the bill.
	SplitOpen       bool      `json:"splitOpen"`
	SplitApplied    bool      `json:"splitApplied"`
	PersonCount     int       `json:"personCount,omitempty"`
	PersonTotals    []float64 `json:"personTotals,omitempty"`
	UnassignedItems int       `json:"unassignedItems,omitempty"`

	Summary billing.Breakdown `json:"summary"`
}

// viewLocked builds a SessionView. Callers hold the session lock.
func (svc *Service) viewLocked(s *Session) *SessionView {
	view := &SessionView{
		SessionID:     s.ID,
		TableID:       s.TableID,
		TableNumber:   s.TableNumber,
		Account:       s.Account,
		PaymentMethod: s.PaymentMethod,
		TipOptions:    svc.resolver.TipOptions(),
		TipPercentage: s.TipPercentage,
		CustomTip:     s.CustomTip,
		TaxPercentage: svc.resolver.TaxPercentage(),
		SplitApplied:  s.SplitMode,
		Summary:       s.breakdown(),
	}

	if s.SplitPlan != nil {
		view.SplitOpen = true
		view.PersonCount = s.SplitPlan.PersonCount
		view.PersonTotals = make([]float64, s.SplitPlan.PersonCount)
		for person := 0; person < s.SplitPlan.PersonCount; person++ {
			view.PersonTotals[person] = s.SplitPlan.PersonTotal(s.Account, person)
		}
		view.UnassignedItems = s.SplitPlan.UnassignedCount(s.Account)
	}

	return view
}
