package clients

import (
	"context"

	"github.com/mesaviva/pos-payments-terminal/internal/apperrors"
	"github.com/mesaviva/pos-payments-terminal/internal/models"
)

// MockPosClient is an in-memory implementation for testing.
type MockPosClient struct {
	Tables        []models.Table
	Accounts      map[string]*models.AccountSnapshot
	Configuration *models.SystemConfiguration

	// SplitFn and PaymentFn override the default behavior when set.
	SplitFn   func(ctx context.Context, req *models.SplitRequest) (*models.SplitResult, error)
	PaymentFn func(ctx context.Context, req *models.ProcessPaymentRequest) error

	// ConfigErr makes GetConfiguration fail, simulating an
	// unreachable POS core.
	ConfigErr error

	SplitRequests   []*models.SplitRequest
	PaymentRequests []*models.ProcessPaymentRequest
}

// NewMockPosClient creates an empty mock POS client.
func NewMockPosClient() *MockPosClient {
	return &MockPosClient{
		Accounts: make(map[string]*models.AccountSnapshot),
	}
}

func (m *MockPosClient) ListTables(ctx context.Context) ([]models.Table, error) {
	return m.Tables, nil
}

func (m *MockPosClient) GetTableAccount(ctx context.Context, tableID string) (*models.AccountSnapshot, error) {
	account, ok := m.Accounts[tableID]
	if !ok {
		return nil, nil
	}
	return account, nil
}

func (m *MockPosClient) SplitAccount(ctx context.Context, req *models.SplitRequest) (*models.SplitResult, error) {
	m.SplitRequests = append(m.SplitRequests, req)
	if m.SplitFn != nil {
		return m.SplitFn(ctx, req)
	}

	// Echo a plausible result: per-division subtotals from the request,
	// zero tax, totals summed up.
	result := &models.SplitResult{}
	for i, div := range req.Divisions {
		subtotal := 0.0
		for _, item := range div.Items {
			subtotal += item.Subtotal
		}
		result.Divisions = append(result.Divisions, models.SplitDivision{
			Number:   i + 1,
			Subtotal: subtotal,
			Total:    subtotal,
		})
		result.Totals.Subtotal += subtotal
		result.Totals.Total += subtotal
	}
	return result, nil
}

func (m *MockPosClient) ProcessPayment(ctx context.Context, req *models.ProcessPaymentRequest) error {
	m.PaymentRequests = append(m.PaymentRequests, req)
	if m.PaymentFn != nil {
		return m.PaymentFn(ctx, req)
	}
	return nil
}

func (m *MockPosClient) GetConfiguration(ctx context.Context) (*models.SystemConfiguration, error) {
	if m.ConfigErr != nil {
		return nil, m.ConfigErr
	}
	if m.Configuration == nil {
		return nil, &apperrors.RemoteError{StatusCode: 404, Message: "configuración no encontrada"}
	}
	return m.Configuration, nil
}
