package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"microbiz/internal/core"
	ports "microbiz/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeSheets answers the handful of Sheets API calls the client makes.
type fakeSheets struct {
	mu       sync.Mutex
	requests []recordedRequest
	idColumn [][]interface{}
	dataRows [][]interface{}
	capital  [][]interface{}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "!A:A"):
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"values": f.idColumn})
	case r.Method == http.MethodGet && strings.Contains(path, "!A2:"):
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"values": f.dataRows})
	case r.Method == http.MethodGet && strings.HasSuffix(path, "!B1"):
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"values": f.capital})
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sheet-1"):
		_, _ = io.WriteString(w, `{"sheets":[{"properties":{"title":"Other","sheetId":7}},{"properties":{"title":"Transactions","sheetId":42}}]}`)
	default:
		_, _ = io.WriteString(w, `{}`)
	}
}

func (f *fakeSheets) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewWithService(svc, Config{SpreadsheetID: "sheet-1"})
}

func TestNewMissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewMissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "x"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewWithServiceDefaults(t *testing.T) {
	c := NewWithService(nil, Config{SpreadsheetID: " id "})
	if c.transactionsSheet != DefaultSheetName || c.settingsSheet != DefaultSettingsSheetName {
		t.Errorf("unexpected sheet names %q %q", c.transactionsSheet, c.settingsSheet)
	}
	if c.spreadsheetID != "id" {
		t.Errorf("spreadsheetID = %q", c.spreadsheetID)
	}
	if _, err := c.ListTransactions(context.Background()); err == nil {
		t.Error("expected error without a service")
	}
}

func TestClientListTransactions(t *testing.T) {
	fake := &fakeSheets{dataRows: [][]interface{}{
		{"a", "income", "2025-03-01", "100", "sales", "electronic", "false", "paid", "0"},
		{"", "income", "2025-03-01", "100", "sales"},
		{"b", "expense", "not-a-date", "5", "rent"},
		{"c", "expense", "2025-03-02", float64(40), "rent", "paper", "true"},
	}}
	c := newTestClient(t, fake)

	txs, err := c.ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 2 || txs[0].ID != "a" || txs[1].ID != "c" {
		t.Fatalf("unexpected transactions: %+v", txs)
	}
	if !txs[1].Amount.Equal(core.NewMoney(40)) || !txs[1].IsNonCash {
		t.Errorf("unexpected second row: %+v", txs[1])
	}
}

func TestClientSetPaymentStatus(t *testing.T) {
	fake := &fakeSheets{idColumn: [][]interface{}{{"id"}, {"a"}, {"b"}}}
	c := newTestClient(t, fake)

	if err := c.SetPaymentStatus(context.Background(), "b", core.Paid); err != nil {
		t.Fatalf("SetPaymentStatus: %v", err)
	}
	req := fake.last()
	if req.Method != http.MethodPut || !strings.HasSuffix(req.Path, "Transactions!H3") {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
	if !strings.Contains(req.Body, `"paid"`) {
		t.Errorf("body %s does not carry the status", req.Body)
	}

	if err := c.SetPaymentStatus(context.Background(), "missing", core.Paid); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := c.SetPaymentStatus(context.Background(), "a", "bogus"); !errors.Is(err, core.ErrInvalidPaymentStatus) {
		t.Errorf("expected ErrInvalidPaymentStatus, got %v", err)
	}
}

func TestClientUpsertAppendsUnknownID(t *testing.T) {
	fake := &fakeSheets{idColumn: [][]interface{}{{"id"}, {"a"}}}
	c := newTestClient(t, fake)

	tx := core.Transaction{
		ID: "z", Type: core.Expense, Date: core.NewDate(2025, 5, 1),
		Amount: core.NewMoney(12), Category: core.CategoryRent, VoucherType: core.VoucherElectronic,
	}
	if err := c.UpsertTransaction(context.Background(), tx); err != nil {
		t.Fatalf("UpsertTransaction: %v", err)
	}
	req := fake.last()
	if req.Method != http.MethodPost || !strings.HasSuffix(req.Path, ":append") {
		t.Errorf("expected append, got %s %s", req.Method, req.Path)
	}

	tx.ID = "a"
	if err := c.UpsertTransaction(context.Background(), tx); err != nil {
		t.Fatalf("UpsertTransaction: %v", err)
	}
	req = fake.last()
	if req.Method != http.MethodPut || !strings.HasSuffix(req.Path, "Transactions!A2:V2") {
		t.Errorf("expected in-place update, got %s %s", req.Method, req.Path)
	}
}

func TestClientDeleteTransaction(t *testing.T) {
	fake := &fakeSheets{idColumn: [][]interface{}{{"id"}, {"a"}, {"b"}}}
	c := newTestClient(t, fake)

	if err := c.DeleteTransaction(context.Background(), "b"); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	req := fake.last()
	if !strings.HasSuffix(req.Path, ":batchUpdate") {
		t.Fatalf("expected batchUpdate, got %s", req.Path)
	}
	var body gsheet.BatchUpdateSpreadsheetRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	rng := body.Requests[0].DeleteDimension.Range
	if rng.SheetId != 42 || rng.StartIndex != 2 || rng.EndIndex != 3 || rng.Dimension != "ROWS" {
		t.Errorf("unexpected range %+v", rng)
	}
}

func TestClientCapital(t *testing.T) {
	fake := &fakeSheets{capital: [][]interface{}{{float64(250000)}}}
	c := newTestClient(t, fake)

	got, err := c.GetCapital(context.Background())
	if err != nil {
		t.Fatalf("GetCapital: %v", err)
	}
	if !got.Equal(core.NewMoney(250000)) {
		t.Errorf("GetCapital = %s", got)
	}

	if err := c.SetCapital(context.Background(), core.NewMoney(-1)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	if err := c.SetCapital(context.Background(), core.NewMoney(300000)); err != nil {
		t.Fatalf("SetCapital: %v", err)
	}
	req := fake.last()
	if !strings.HasSuffix(req.Path, "Settings!A1:B1") || !strings.Contains(req.Body, capitalKey) {
		t.Errorf("unexpected request %s %s", req.Path, req.Body)
	}
}
