package terminal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesaviva/pos-payments-terminal/internal/apperrors"
	"github.com/mesaviva/pos-payments-terminal/internal/cache"
	"github.com/mesaviva/pos-payments-terminal/internal/clients"
	"github.com/mesaviva/pos-payments-terminal/internal/events"
	"github.com/mesaviva/pos-payments-terminal/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAccount() *models.AccountSnapshot {
	return &models.AccountSnapshot{
		TableID: "mesa-1",
		Orders: []models.Order{
			{
				ID: "ord-1",
				Items: []models.LineItem{
					{ItemID: "it-1", Name: "Tacos", Quantity: 2, UnitPrice: 45, Subtotal: 90},
					{ItemID: "it-2", Name: "Agua", Quantity: 1, UnitPrice: 20, Subtotal: 20},
				},
			},
			{
				ID: "ord-2",
				Items: []models.LineItem{
					{ItemID: "it-3", Name: "Café", Quantity: 2, UnitPrice: 25, Subtotal: 50},
				},
			},
		},
		Summary: models.AccountSummary{Subtotal: 160, Tax: 25.6},
	}
}

func newTestService(t *testing.T) (*Service, *clients.MockPosClient, *events.MockPublisher) {
	t.Helper()

	client := clients.NewMockPosClient()
	client.Configuration = &models.SystemConfiguration{
		Taxes: models.TaxSettings{VATPercentage: 16},
		Tips:  models.TipSettings{Option1: 10, Option2: 15, Option3: 20},
	}
	client.Accounts["mesa-1"] = testAccount()
	client.Tables = []models.Table{
		{ID: "mesa-1", Number: "Mesa 1", Status: models.TableStatusOccupied},
	}

	logger := testLogger()
	resolver := NewConfigResolver(client, cache.NewMemoryConfigCache(), logger)
	resolver.Refresh(context.Background())

	publisher := events.NewMockPublisher()
	return NewService(client, resolver, publisher, logger), client, publisher
}

func selectTestTable(t *testing.T, svc *Service, sessionID string) {
	t.Helper()
	_, err := svc.SelectTable(context.Background(), sessionID, "mesa-1", "Mesa 1")
	require.NoError(t, err)
}

func TestCreateSessionDefaults(t *testing.T) {
	svc, _, _ := newTestService(t)

	view := svc.CreateSession()

	assert.Equal(t, models.PaymentMethodCash, view.PaymentMethod)
	assert.Equal(t, 10.0, view.TipPercentage)
	assert.Equal(t, []float64{0, 10, 15, 20}, view.TipOptions)
	assert.Equal(t, 16.0, view.TaxPercentage)
	assert.False(t, view.Summary.PaymentEnabled)
}

func TestListTablesFiltersAndSorts(t *testing.T) {
	svc, client, _ := newTestService(t)
	client.Tables = []models.Table{
		{ID: "m10", Number: "Mesa 10", Status: models.TableStatusOccupied},
		{ID: "m3", Number: "Mesa 3", Status: "disponible"},
		{ID: "m2", Number: "Mesa 2", Status: models.TableStatusServing},
	}

	tables, err := svc.ListTables(context.Background())
	require.NoError(t, err)

	require.Len(t, tables, 2)
	assert.Equal(t, "Mesa 2", tables[0].Number)
	assert.Equal(t, "Mesa 10", tables[1].Number)
}

func TestSelectTableLoadsAccount(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := svc.CreateSession()

	view, err := svc.SelectTable(context.Background(), session.SessionID, "mesa-1", "Mesa 1")
	require.NoError(t, err)

	require.NotNil(t, view.Account)
	assert.Equal(t, 160.0, view.Summary.Subtotal)
	assert.True(t, view.Summary.PaymentEnabled)
	// Default 10% preset over the subtotal.
	assert.InDelta(t, 160+25.6+16, view.Summary.Total, 0.001)
}

func TestSelectTableWithoutOpenAccount(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := svc.CreateSession()

	view, err := svc.SelectTable(context.Background(), session.SessionID, "mesa-99", "Mesa 99")
	require.NoError(t, err)

	assert.Nil(t, view.Account)
	assert.False(t, view.Summary.PaymentEnabled)
}

// racingPosClient answers the first account fetch only after a second
// table selection has completed, reproducing a slow response arriving
// after the operator already moved on.
type racingPosClient struct {
	*clients.MockPosClient

	svc       **Service
	sessionID *string
	raced     bool
}

func (r *racingPosClient) GetTableAccount(ctx context.Context, tableID string) (*models.AccountSnapshot, error) {
	if tableID == "mesa-1" && !r.raced {
		r.raced = true
		if _, err := (*r.svc).SelectTable(ctx, *r.sessionID, "mesa-2", "Mesa 2"); err != nil {
			return nil, err
		}
	}
	return r.MockPosClient.GetTableAccount(ctx, tableID)
}

func TestStaleAccountFetchIsDiscarded(t *testing.T) {
	mock := clients.NewMockPosClient()
	mock.Accounts["mesa-1"] = testAccount()
	mesa2 := testAccount()
	mesa2.TableID = "mesa-2"
	mesa2.Summary.Subtotal = 999
	mock.Accounts["mesa-2"] = mesa2

	logger := testLogger()

	var svc *Service
	var sessionID string
	racing := &racingPosClient{MockPosClient: mock, svc: &svc, sessionID: &sessionID}

	resolver := NewConfigResolver(racing, cache.NewMemoryConfigCache(), logger)
	svc = NewService(racing, resolver, events.NewMockPublisher(), logger)
	sessionID = svc.CreateSession().SessionID

	view, err := svc.SelectTable(context.Background(), sessionID, "mesa-1", "Mesa 1")
	require.NoError(t, err)

	// The slow mesa-1 response lost the race and must not overwrite
	// the newer mesa-2 selection.
	assert.Equal(t, "mesa-2", view.TableID)
	require.NotNil(t, view.Account)
	assert.Equal(t, 999.0, view.Account.Summary.Subtotal)
}

func TestStaleSplitResultIsDiscarded(t *testing.T) {
	svc, client, publisher := newTestService(t)
	mesa2 := testAccount()
	mesa2.TableID = "mesa-2"
	client.Accounts["mesa-2"] = mesa2

	session := svc.CreateSession()
	selectTestTable(t, svc, session.SessionID)

	_, err := svc.EnterSplit(session.SessionID)
	require.NoError(t, err)
	_, err = svc.AssignItem(session.SessionID, "ord-1", "it-1", 0)
	require.NoError(t, err)

	// The operator switches tables while the split call is in flight.
	client.SplitFn = func(ctx context.Context, req *models.SplitRequest) (*models.SplitResult, error) {
		client.SplitFn = nil
		if _, err := svc.SelectTable(ctx, session.SessionID, "mesa-2", "Mesa 2"); err != nil {
			return nil, err
		}
		return &models.SplitResult{
			Divisions: []models.SplitDivision{{Number: 1, Subtotal: 90, Total: 90}},
			Totals:    models.SplitTotals{Subtotal: 90, Total: 90},
		}, nil
	}

	view, err := svc.ApplySplit(context.Background(), session.SessionID, true)
	require.NoError(t, err)

	// The slow mesa-1 result lost the race: the new selection keeps
	// its own, unsplit account.
	assert.Equal(t, "mesa-2", view.TableID)
	assert.False(t, view.SplitApplied)
	assert.Nil(t, view.Summary.Split)
	assert.Equal(t, 160.0, view.Summary.Subtotal)
	assert.Empty(t, publisher.Events)
}

func TestPaymentDuringTableSwitchKeepsNewSelection(t *testing.T) {
	svc, client, _ := newTestService(t)
	mesa2 := testAccount()
	mesa2.TableID = "mesa-2"
	client.Accounts["mesa-2"] = mesa2

	session := svc.CreateSession()
	selectTestTable(t, svc, session.SessionID)

	summary, err := svc.Summary(session.SessionID)
	require.NoError(t, err)

	client.PaymentFn = func(ctx context.Context, req *models.ProcessPaymentRequest) error {
		client.PaymentFn = nil
		_, err := svc.SelectTable(ctx, session.SessionID, "mesa-2", "Mesa 2")
		return err
	}

	result, err := svc.ProcessPayment(context.Background(), session.SessionID, summary.Total)
	require.NoError(t, err)
	assert.Equal(t, "mesa-1", result.TableID)

	// The commit stands, but the session is not reset underneath the
	// operator's newer table selection.
	view, err := svc.GetSession(session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "mesa-2", view.TableID)
	require.NotNil(t, view.Account)
}

func TestCustomTipRestoresLastPreset(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := svc.CreateSession()
	selectTestTable(t, svc, session.SessionID)

	_, err := svc.SelectTipPreset(session.SessionID, 15)
	require.NoError(t, err)

	view, err := svc.SetCustomTip(session.SessionID, 30)
	require.NoError(t, err)
	assert.Equal(t, 30.0, view.CustomTip)
	assert.Equal(t, 0.0, view.TipPercentage)
	assert.Equal(t, 30.0, view.Summary.Tip)

	view, err = svc.SetCustomTip(session.SessionID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, view.CustomTip)
	assert.Equal(t, 15.0, view.TipPercentage)
}

func TestSetPaymentMethodRejectsUnknown(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := svc.CreateSession()

	_, err := svc.SetPaymentMethod(session.SessionID, "cheque")

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "metodoPago", verr.Field)
}

func TestEnterSplitRequiresOpenOrders(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := svc.CreateSession()

	_, err := svc.EnterSplit(session.SessionID)

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestApplySplitRejectsEmptyPlanLocally(t *testing.T) {
	svc, client, _ := newTestService(t)
	session := svc.CreateSession()
	selectTestTable(t, svc, session.SessionID)

	_, err := svc.EnterSplit(session.SessionID)
	require.NoError(t, err)

	_, err = svc.ApplySplit(context.Background(), session.SessionID, false)

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "divisiones", verr.Field)
	assert.Empty(t, client.SplitRequests, "no split request may leave the terminal")
}

func TestApplySplitPartialNeedsConfirmation(t *testing.T) {
	svc, client, _ := newTestService(t)
	session := svc.CreateSession()
	selectTestTable(t, svc, session.SessionID)

	_, err := svc.EnterSplit(session.SessionID)
	require.NoError(t, err)
	_, err = svc.AssignItem(session.SessionID, "ord-1", "it-1", 0)
	require.NoError(t, err)

	_, err = svc.ApplySplit(context.Background(), session.SessionID, false)

	var cerr *apperrors.ConfirmationRequiredError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 2, cerr.UnassignedItems)
	assert.Empty(t, client.SplitRequests)

	// Confirmed, the submission carries only the assigned division.
	view, err := svc.ApplySplit(context.Background(), session.SessionID, true)
	require.NoError(t, err)
	require.Len(t, client.SplitRequests, 1)
	assert.Equal(t, 1, client.SplitRequests[0].DivisionCount)
	assert.True(t, view.SplitApplied)
	assert.False(t, view.SplitOpen)
}

func TestApplySplitStoresServerResult(t *testing.T) {
	svc, client, publisher := newTestService(t)
	client.SplitFn = func(ctx context.Context, req *models.SplitRequest) (*models.SplitResult, error) {
		return &models.SplitResult{
			Divisions: []models.SplitDivision{
				{Number: 1, Subtotal: 110, Tax: 17.6, Total: 127.6},
				{Number: 2, Subtotal: 50, Tax: 8, Total: 58},
			},
			Totals: models.SplitTotals{Subtotal: 160, Tax: 25.6, Total: 185.6},
		}, nil
	}

	session := svc.CreateSession()
	selectTestTable(t, svc, session.SessionID)

	_, err := svc.EnterSplit(session.SessionID)
	require.NoError(t, err)
	_, err = svc.AssignItem(session.SessionID, "ord-1", "it-1", 0)
	require.NoError(t, err)
	_, err = svc.AssignItem(session.SessionID, "ord-1", "it-2", 0)
	require.NoError(t, err)
	_, err = svc.AssignItem(session.SessionID, "ord-2", "it-3", 1)
	require.NoError(t, err)

	view, err := svc.ApplySplit(context.Background(), session.SessionID, false)
	require.NoError(t, err)

	require.NotNil(t, view.Summary.Split)
	assert.Equal(t, 2, view.Summary.Split.DivisionCount)
	// 10% tip over the split subtotal, on top of the server total.
	assert.InDelta(t, 185.6+16, view.Summary.Total, 0.001)

	require.Len(t, publisher.Events, 1)
	assert.Equal(t, events.EventTypeAccountSplit, publisher.Events[0].Type)
}

func TestProcessPaymentResetsSession(t *testing.T) {
	svc, client, publisher := newTestService(t)
	session := svc.CreateSession()
	selectTestTable(t, svc, session.SessionID)

	_, err := svc.SetPaymentMethod(session.SessionID, models.PaymentMethodCard)
	require.NoError(t, err)

	summary, err := svc.Summary(session.SessionID)
	require.NoError(t, err)

	result, err := svc.ProcessPayment(context.Background(), session.SessionID, summary.Total)
	require.NoError(t, err)

	assert.Equal(t, "mesa-1", result.TableID)
	assert.Equal(t, models.PaymentMethodCard, result.Method)

	require.Len(t, client.PaymentRequests, 1)
	req := client.PaymentRequests[0]
	assert.Equal(t, models.PaymentMethodCard, req.Method)
	assert.Equal(t, 10.0, req.TipPercentage)
	assert.False(t, req.CustomTip)
	assert.False(t, req.SplitBill)

	require.Len(t, publisher.Events, 1)
	assert.Equal(t, events.EventTypePaymentProcessed, publisher.Events[0].Type)

	view, err := svc.GetSession(session.SessionID)
	require.NoError(t, err)
	assert.Empty(t, view.TableID)
	assert.Nil(t, view.Account)
	assert.Equal(t, models.PaymentMethodCash, view.PaymentMethod)
	assert.Equal(t, 10.0, view.TipPercentage)
}

func TestProcessPaymentCustomTipGoesFlat(t *testing.T) {
	svc, client, _ := newTestService(t)
	session := svc.CreateSession()
	selectTestTable(t, svc, session.SessionID)

	_, err := svc.SetCustomTip(session.SessionID, 25)
	require.NoError(t, err)

	summary, err := svc.Summary(session.SessionID)
	require.NoError(t, err)

	_, err = svc.ProcessPayment(context.Background(), session.SessionID, summary.Total)
	require.NoError(t, err)

	require.Len(t, client.PaymentRequests, 1)
	req := client.PaymentRequests[0]
	assert.Equal(t, 25.0, req.Tip)
	assert.True(t, req.CustomTip)
	assert.Equal(t, 0.0, req.TipPercentage)
}

func TestProcessPaymentForwardsSplitDivisionsVerbatim(t *testing.T) {
	svc, client, _ := newTestService(t)
	session := svc.CreateSession()
	selectTestTable(t, svc, session.SessionID)

	_, err := svc.EnterSplit(session.SessionID)
	require.NoError(t, err)
	_, err = svc.AssignItem(session.SessionID, "ord-1", "it-1", 0)
	require.NoError(t, err)
	_, err = svc.AssignItem(session.SessionID, "ord-1", "it-2", 1)
	require.NoError(t, err)
	_, err = svc.AssignItem(session.SessionID, "ord-2", "it-3", 1)
	require.NoError(t, err)

	view, err := svc.ApplySplit(context.Background(), session.SessionID, false)
	require.NoError(t, err)
	splitResult := view.Summary.Split
	require.NotNil(t, splitResult)

	summary, err := svc.Summary(session.SessionID)
	require.NoError(t, err)

	_, err = svc.ProcessPayment(context.Background(), session.SessionID, summary.Total)
	require.NoError(t, err)

	require.Len(t, client.PaymentRequests, 1)
	req := client.PaymentRequests[0]
	assert.True(t, req.SplitBill)
	assert.Equal(t, splitResult.DivisionCount, req.DivisionCount)
	assert.Equal(t, splitResult.Divisions, req.Divisions)
}

func TestProcessPaymentRejectsMismatchedTotal(t *testing.T) {
	svc, client, _ := newTestService(t)
	session := svc.CreateSession()
	selectTestTable(t, svc, session.SessionID)

	_, err := svc.ProcessPayment(context.Background(), session.SessionID, 1.00)

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "total", verr.Field)
	assert.Empty(t, client.PaymentRequests)
}

func TestProcessPaymentFailurePreservesState(t *testing.T) {
	svc, client, _ := newTestService(t)
	client.PaymentFn = func(ctx context.Context, req *models.ProcessPaymentRequest) error {
		return &apperrors.RemoteError{StatusCode: 500, Message: "error al procesar el pago"}
	}

	session := svc.CreateSession()
	selectTestTable(t, svc, session.SessionID)

	summary, err := svc.Summary(session.SessionID)
	require.NoError(t, err)

	_, err = svc.ProcessPayment(context.Background(), session.SessionID, summary.Total)
	require.Error(t, err)

	// The operator retries without re-entering anything.
	view, err := svc.GetSession(session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "mesa-1", view.TableID)
	require.NotNil(t, view.Account)

	client.PaymentFn = nil
	_, err = svc.ProcessPayment(context.Background(), session.SessionID, summary.Total)
	require.NoError(t, err)
}

func TestProcessPaymentSingleInFlight(t *testing.T) {
	svc, client, _ := newTestService(t)
	session := svc.CreateSession()
	selectTestTable(t, svc, session.SessionID)

	summary, err := svc.Summary(session.SessionID)
	require.NoError(t, err)

	blocked := make(chan error, 1)
	client.PaymentFn = func(ctx context.Context, req *models.ProcessPaymentRequest) error {
		_, second := svc.ProcessPayment(ctx, session.SessionID, summary.Total)
		blocked <- second
		return nil
	}

	_, err = svc.ProcessPayment(context.Background(), session.SessionID, summary.Total)
	require.NoError(t, err)

	require.True(t, errors.Is(<-blocked, apperrors.ErrPaymentInFlight))
}

func TestCloseSessionDiscardsState(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := svc.CreateSession()

	require.NoError(t, svc.CloseSession(session.SessionID))

	_, err := svc.GetSession(session.SessionID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.ErrorIs(t, svc.CloseSession(session.SessionID), apperrors.ErrNotFound)
}
