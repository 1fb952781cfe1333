package clients

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mesaviva/pos-payments-terminal/internal/apperrors"
	"github.com/mesaviva/pos-payments-terminal/internal/config"
	"github.com/mesaviva/pos-payments-terminal/internal/models"
	"github.com/mesaviva/pos-payments-terminal/internal/requestctx"
)

func newTestClient(serverURL string) *HTTPPosClient {
	return NewHTTPPosClient(config.ServiceConfig{
		BaseURL: serverURL,
		Timeout: 5 * time.Second,
		APIKey:  "service-key",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListTablesDecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mesas" {
			t.Errorf("Expected path /mesas, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"datos":[{"id":"m1","numeroMesa":"Mesa 1","estado":"ocupada"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	tables, err := client.ListTables(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("Expected 1 table, got %d", len(tables))
	}
	if tables[0].Number != "Mesa 1" || !tables[0].HasOpenAccount() {
		t.Errorf("Unexpected table: %+v", tables[0])
	}
}

func TestGetTableAccountNotFoundIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"mensaje":"la mesa no tiene cuenta abierta"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	account, err := client.GetTableAccount(context.Background(), "m1")
	if err != nil {
		t.Fatalf("A 404 must not be an error, got: %v", err)
	}
	if account != nil {
		t.Errorf("Expected no account, got %+v", account)
	}
}

func TestGetTableAccountDecodesSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pagos/mesas/m1/cuenta" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"datos":{"mesaId":"m1","pedidos":[{"id":"ord-1","items":[{"itemId":"it-1","nombre":"Tacos","cantidad":2,"precioUnitario":45,"subtotal":90}]}],"resumen":{"subtotal":90,"impuestos":14.4}}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	account, err := client.GetTableAccount(context.Background(), "m1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if account.Summary.Subtotal != 90 || account.Summary.Tax != 14.4 {
		t.Errorf("Unexpected summary: %+v", account.Summary)
	}
	if account.LineItemCount() != 1 {
		t.Errorf("Expected 1 line item, got %d", account.LineItemCount())
	}
}

func TestRemoteErrorCarriesMensaje(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"mensaje":"no se pudo dividir la cuenta"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.SplitAccount(context.Background(), &models.SplitRequest{TableID: "m1"})

	var remoteErr *apperrors.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("Expected a RemoteError, got %T: %v", err, err)
	}
	if remoteErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", remoteErr.StatusCode)
	}
	if remoteErr.Message != "no se pudo dividir la cuenta" {
		t.Errorf("Unexpected message: %s", remoteErr.Message)
	}
}

func TestConnectivityErrorOnUnreachableHost(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")

	_, err := client.ListTables(context.Background())

	var connErr *apperrors.ConnectivityError
	if !errors.As(err, &connErr) {
		t.Fatalf("Expected a ConnectivityError, got %T: %v", err, err)
	}
}

func TestAuthHeaderPrecedence(t *testing.T) {
	var gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get(requestctx.HeaderRequestID)
		w.Write([]byte(`{"datos":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	// Without an operator token the service key applies.
	if _, err := client.ListTables(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotAuth != "Bearer service-key" {
		t.Errorf("Expected the service key, got %q", gotAuth)
	}

	// The operator's token wins, and the request id is propagated.
	ctx := requestctx.WithToken(context.Background(), "operator-token")
	ctx = requestctx.WithRequestID(ctx, "req-42")
	if _, err := client.ListTables(ctx); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotAuth != "Bearer operator-token" {
		t.Errorf("Expected the operator token, got %q", gotAuth)
	}
	if gotRequestID != "req-42" {
		t.Errorf("Expected the request id to be forwarded, got %q", gotRequestID)
	}
}

func TestProcessPaymentSendsSpanishFieldNames(t *testing.T) {
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"datos":{"estado":"pagado"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	err := client.ProcessPayment(context.Background(), &models.ProcessPaymentRequest{
		TableID:       "m1",
		Method:        models.PaymentMethodCard,
		TipPercentage: 10,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	payload := string(body)
	for _, field := range []string{`"mesaId":"m1"`, `"metodoPago":"tarjeta"`, `"porcentajePropina":10`} {
		if !strings.Contains(payload, field) {
			t.Errorf("Expected payload to contain %s, got %s", field, payload)
		}
	}
}
