// Package terminal owns the payment flow of one POS terminal: session
// state, table selection, tip resolution, bill splitting and payment
// submission against the remote POS core.
package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/mesaviva/pos-payments-terminal/internal/apperrors"
	"github.com/mesaviva/pos-payments-terminal/internal/billing"
	"github.com/mesaviva/pos-payments-terminal/internal/clients"
	"github.com/mesaviva/pos-payments-terminal/internal/events"
	"github.com/mesaviva/pos-payments-terminal/internal/metrics"
	"github.com/mesaviva/pos-payments-terminal/internal/models"
)

// totalTolerance absorbs float formatting noise when matching the
// confirmed total against the projected one.
const totalTolerance = 0.005

// Service orchestrates terminal sessions against the POS core.
type Service struct {
	client    clients.PosClient
	resolver  *ConfigResolver
	publisher events.Publisher
	store     *SessionStore
	logger    *slog.Logger
}

// NewService creates the terminal service.
func NewService(
	client clients.PosClient,
	resolver *ConfigResolver,
	publisher events.Publisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		client:    client,
		resolver:  resolver,
		publisher: publisher,
		store:     NewSessionStore(),
		logger:    logger,
	}
}

// CreateSession opens a new terminal session with the default payment
// method and tip preset.
func (svc *Service) CreateSession() *SessionView {
	s := svc.store.Create(svc.resolver.DefaultTipPreset())
	svc.logger.Info("session created", "session_id", s.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	return svc.viewLocked(s)
}

// GetSession returns the current state of a session.
func (svc *Service) GetSession(id string) (*SessionView, error) {
	s, err := svc.store.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return svc.viewLocked(s), nil
}

// CloseSession discards a session and all its transient state.
func (svc *Service) CloseSession(id string) error {
	if _, err := svc.store.Get(id); err != nil {
		return err
	}
	svc.store.Delete(id)
	svc.logger.Info("session closed", "session_id", id)
	return nil
}

// ListTables returns the tables that can be charged right now: only
// those with an open account, ordered by table number.
func (svc *Service) ListTables(ctx context.Context) ([]models.Table, error) {
	tables, err := svc.client.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	open := make([]models.Table, 0, len(tables))
	for _, t := range tables {
		if t.HasOpenAccount() {
			open = append(open, t)
		}
	}
	SortTablesByNumber(open)
	return open, nil
}

// SelectTable switches the session to a table and loads its account.
// Any split state is cleared. A table with no open account (404 from
// the POS core) yields an empty account, not an error. Responses from
// superseded fetches are discarded so a slow load can never overwrite a
// newer selection.
func (svc *Service) SelectTable(ctx context.Context, sessionID, tableID, tableNumber string) (*SessionView, error) {
	s, err := svc.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.touch()
	s.TableID = tableID
	s.TableNumber = tableNumber
	s.Account = nil
	s.clearSplit()

	if tableID == "" {
		view := svc.viewLocked(s)
		s.mu.Unlock()
		return view, nil
	}

	s.fetchSeq++
	seq := s.fetchSeq
	s.mu.Unlock()

	account, fetchErr := svc.client.GetTableAccount(ctx, tableID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.fetchSeq || s.TableID != tableID {
		svc.logger.Debug("discarding stale account fetch",
			"session_id", sessionID,
			"table_id", tableID,
		)
		return svc.viewLocked(s), nil
	}

	if fetchErr != nil {
		// Recoverable: the session stays in the empty-account state
		// and the operator can retry by reselecting the table.
		svc.logger.Warn("account load failed",
			"session_id", sessionID,
			"table_id", tableID,
			"error", fetchErr,
		)
		return nil, fetchErr
	}

	s.Account = account
	return svc.viewLocked(s), nil
}

// SetPaymentMethod selects how the table will pay.
func (svc *Service) SetPaymentMethod(sessionID, method string) (*SessionView, error) {
	if !models.ValidPaymentMethod(method) {
		return nil, apperrors.NewValidationError("metodoPago", "unknown payment method")
	}
	return svc.update(sessionID, func(s *Session) error {
		s.PaymentMethod = method
		return nil
	})
}

// SelectTipPreset picks a preset percentage and clears any custom tip.
func (svc *Service) SelectTipPreset(sessionID string, percentage float64) (*SessionView, error) {
	if percentage < 0 {
		return nil, apperrors.NewValidationError("porcentajePropina", "tip percentage cannot be negative")
	}
	return svc.update(sessionID, func(s *Session) error {
		s.TipPercentage = percentage
		s.lastPreset = percentage
		s.CustomTip = 0
		return nil
	})
}

// SetCustomTip sets a flat tip amount. A positive amount overrides the
// preset selection; zero clears the override and restores the last
// selected preset.
func (svc *Service) SetCustomTip(sessionID string, amount float64) (*SessionView, error) {
	if amount < 0 {
		return nil, apperrors.NewValidationError("propina", "custom tip cannot be negative")
	}
	return svc.update(sessionID, func(s *Session) error {
		s.CustomTip = amount
		if amount > 0 {
			s.TipPercentage = 0
		} else {
			s.TipPercentage = s.lastPreset
		}
		return nil
	})
}

// EnterSplit opens split mode with a fresh assignment plan.
func (svc *Service) EnterSplit(sessionID string) (*SessionView, error) {
	return svc.update(sessionID, func(s *Session) error {
		if s.Account.IsEmpty() {
			return apperrors.NewValidationError("mesa", "the table has no open orders to split")
		}
		s.SplitPlan = billing.NewSplitPlan(billing.MinPeople)
		return nil
	})
}

// CancelSplit discards the in-progress assignment plan. An already
// applied split stays in effect until the table changes or is paid.
func (svc *Service) CancelSplit(sessionID string) (*SessionView, error) {
	return svc.update(sessionID, func(s *Session) error {
		s.SplitPlan = nil
		return nil
	})
}

// SetPersonCount resizes the split. All assignments are discarded and
// the operator starts over.
func (svc *Service) SetPersonCount(sessionID string, people int) (*SessionView, error) {
	return svc.update(sessionID, func(s *Session) error {
		if s.SplitPlan == nil {
			return apperrors.NewValidationError("split", "split mode is not active")
		}
		s.SplitPlan.SetPersonCount(people)
		return nil
	})
}

// AssignItem gives a line item to a person. An assignment held by a
// different person is silently revoked.
func (svc *Service) AssignItem(sessionID, orderID, itemID string, person int) (*SessionView, error) {
	return svc.update(sessionID, func(s *Session) error {
		if s.SplitPlan == nil {
			return apperrors.NewValidationError("split", "split mode is not active")
		}
		if person < 0 || person >= s.SplitPlan.PersonCount {
			return apperrors.NewValidationError("persona", "person index out of range")
		}
		if !accountHasItem(s.Account, orderID, itemID) {
			return apperrors.NewValidationError("item", "item is not part of the table's account")
		}
		s.SplitPlan.Assign(billing.ItemKey{OrderID: orderID, ItemID: itemID}, person)
		return nil
	})
}

// UnassignItem removes a line item's assignment.
func (svc *Service) UnassignItem(sessionID, orderID, itemID string) (*SessionView, error) {
	return svc.update(sessionID, func(s *Session) error {
		if s.SplitPlan == nil {
			return apperrors.NewValidationError("split", "split mode is not active")
		}
		s.SplitPlan.Unassign(billing.ItemKey{OrderID: orderID, ItemID: itemID})
		return nil
	})
}

// ApplySplit submits the assignment plan to the POS core. With items
// left unassigned the operator must confirm explicitly; the submission
// then carries only the assigned divisions. A plan with no assignments
// at all is rejected locally, before any network call. The POS core's
// result replaces the local preview. A result that resolves after the
// operator moved to another table is discarded, same as a stale
// account fetch.
func (svc *Service) ApplySplit(ctx context.Context, sessionID string, confirmPartial bool) (*SessionView, error) {
	s, err := svc.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.touch()

	if s.Account.IsEmpty() {
		s.mu.Unlock()
		return nil, apperrors.NewValidationError("mesa", "the table has no open orders to split")
	}
	if s.SplitPlan == nil {
		s.mu.Unlock()
		return nil, apperrors.NewValidationError("split", "split mode is not active")
	}

	divisions := s.SplitPlan.BuildDivisions(s.Account)
	if len(divisions) == 0 {
		s.mu.Unlock()
		return nil, apperrors.NewValidationError("divisiones", "at least one item must be assigned to a person")
	}

	if unassigned := s.SplitPlan.UnassignedCount(s.Account); unassigned > 0 && !confirmPartial {
		s.mu.Unlock()
		return nil, &apperrors.ConfirmationRequiredError{
			Message:         fmt.Sprintf("%d item(s) have no assigned person", unassigned),
			UnassignedItems: unassigned,
		}
	}

	req := &models.SplitRequest{
		TableID:       s.TableID,
		DivisionCount: len(divisions),
		Divisions:     divisions,
	}
	tableID := s.TableID
	seq := s.fetchSeq
	s.mu.Unlock()

	result, err := svc.client.SplitAccount(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		// State is preserved; the operator can adjust and retry.
		return nil, err
	}

	if seq != s.fetchSeq || s.TableID != tableID {
		svc.logger.Debug("discarding stale split result",
			"session_id", sessionID,
			"table_id", tableID,
		)
		return svc.viewLocked(s), nil
	}

	if result.DivisionCount == 0 {
		result.DivisionCount = len(result.Divisions)
	}

	s.SplitResult = result
	s.SplitMode = true
	s.SplitPlan = nil

	metrics.SplitsApplied.Inc()
	if pubErr := svc.publisher.PublishAccountSplit(ctx, tableID, sessionID, events.AccountSplitData{
		Divisions: len(result.Divisions),
		Subtotal:  result.Totals.Subtotal,
		Total:     result.Totals.Total,
	}); pubErr != nil {
		svc.logger.Warn("could not publish split event", "error", pubErr)
	}

	return svc.viewLocked(s), nil
}

// Summary projects the current payment breakdown.
func (svc *Service) Summary(sessionID string) (billing.Breakdown, error) {
	s, err := svc.store.Get(sessionID)
	if err != nil {
		return billing.Breakdown{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.breakdown(), nil
}

// PaymentResult describes a committed payment.
type PaymentResult struct {
	TableID     string            `json:"tableId"`
	TableNumber string            `json:"tableNumber"`
	Method      string            `json:"method"`
	Breakdown   billing.Breakdown `json:"breakdown"`
}

// ProcessPayment commits the payment. The confirmed total must match
// the projected one: the operator confirms exactly the figure shown.
// Only one submission may be in flight per session. On success all
// transient state is reset; on failure everything is preserved so the
// operator can retry without re-entering selections.
func (svc *Service) ProcessPayment(ctx context.Context, sessionID string, confirmedTotal float64) (*PaymentResult, error) {
	s, err := svc.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.touch()

	if s.TableID == "" || s.Account.IsEmpty() {
		s.mu.Unlock()
		return nil, apperrors.NewValidationError("mesa", "a table with open orders must be selected")
	}
	if s.paymentInFlight {
		s.mu.Unlock()
		return nil, apperrors.ErrPaymentInFlight
	}

	breakdown := s.breakdown()
	if math.Abs(breakdown.Total-confirmedTotal) > totalTolerance {
		s.mu.Unlock()
		return nil, apperrors.NewValidationError("total",
			"confirmed total "+formatAmount(confirmedTotal)+" does not match the current total "+formatAmount(breakdown.Total))
	}

	req := &models.ProcessPaymentRequest{
		TableID: s.TableID,
		Method:  s.PaymentMethod,
	}
	if s.CustomTip > 0 {
		req.Tip = s.CustomTip
		req.CustomTip = true
	} else if s.TipPercentage > 0 {
		req.TipPercentage = s.TipPercentage
	}
	if s.SplitMode && s.SplitResult != nil {
		req.SplitBill = true
		req.DivisionCount = s.SplitResult.DivisionCount
		req.Divisions = s.SplitResult.Divisions
	}

	result := &PaymentResult{
		TableID:     s.TableID,
		TableNumber: s.TableNumber,
		Method:      s.PaymentMethod,
		Breakdown:   breakdown,
	}

	s.paymentInFlight = true
	seq := s.fetchSeq
	s.mu.Unlock()

	payErr := svc.client.ProcessPayment(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentInFlight = false

	if payErr != nil {
		metrics.PaymentFailures.Inc()
		svc.logger.Error("payment failed",
			"session_id", sessionID,
			"table_id", result.TableID,
			"error", payErr,
		)
		return nil, payErr
	}

	metrics.PaymentsProcessed.WithLabelValues(result.Method, strconv.FormatBool(req.SplitBill)).Inc()
	svc.logger.Info("payment committed",
		"session_id", sessionID,
		"table_id", result.TableID,
		"method", result.Method,
		"total", result.Breakdown.Total,
		"split", req.SplitBill,
	)

	if pubErr := svc.publisher.PublishPaymentProcessed(ctx, result.TableID, sessionID, events.PaymentProcessedData{
		Method:    result.Method,
		Total:     result.Breakdown.Total,
		Tip:       result.Breakdown.Tip,
		SplitBill: req.SplitBill,
		Divisions: req.DivisionCount,
	}); pubErr != nil {
		svc.logger.Warn("could not publish payment event", "error", pubErr)
	}

	// The payment is committed either way; only reset the session if
	// the operator has not already moved to another table.
	if seq == s.fetchSeq && s.TableID == result.TableID {
		s.reset(svc.resolver.DefaultTipPreset())
	}

	return result, nil
}

// update runs a state transition under the session lock and returns the
// resulting view.
func (svc *Service) update(sessionID string, fn func(*Session) error) (*SessionView, error) {
	s, err := svc.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := fn(s); err != nil {
		return nil, err
	}
	return svc.viewLocked(s), nil
}

func accountHasItem(account *models.AccountSnapshot, orderID, itemID string) bool {
	if account == nil {
		return false
	}
	for _, order := range account.Orders {
		if order.ID != orderID {
			continue
		}
		for _, item := range order.Items {
			if item.ItemID == itemID {
				return true
			}
		}
	}
	return false
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
