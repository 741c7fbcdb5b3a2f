package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"microbiz/internal/core"
	ports "microbiz/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	DefaultSheetName         = "Transactions"
	DefaultSettingsSheetName = "Settings"

	capitalKey = "companyCapital"
)

// Config selects the spreadsheet and the credentials used to reach it.
type Config struct {
	SpreadsheetID     string
	SheetName         string
	SettingsSheetName string
	CredentialsJSON   string
	CredentialsFile   string
}

// Client mirrors transactions into a Google spreadsheet. One row per
// transaction in the transactions sheet; the capital lives in the settings
// sheet at A1:B1.
type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	settingsSheet     string

	mu      sync.Mutex
	sheetID *int64
}

var (
	_ ports.TransactionLister    = (*Client)(nil)
	_ ports.TransactionWriter    = (*Client)(nil)
	_ ports.PaymentStatusUpdater = (*Client)(nil)
	_ ports.TransactionDeleter   = (*Client)(nil)
	_ ports.TransactionUpserter  = (*Client)(nil)
	_ ports.CapitalStore         = (*Client)(nil)
)

// NewFromEnv constructs a Client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID and service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional sheet names: GOOGLE_SHEET_NAME (default "Transactions"),
// GOOGLE_SETTINGS_SHEET_NAME (default "Settings").
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx, Config{
		SpreadsheetID:     strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID")),
		SheetName:         strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME")),
		SettingsSheetName: strings.TrimSpace(os.Getenv("GOOGLE_SETTINGS_SHEET_NAME")),
		CredentialsJSON:   strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		CredentialsFile:   strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")),
	})
}

// New builds the Sheets service from service account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, cfg Config) *Client {
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = DefaultSheetName
	}
	settings := strings.TrimSpace(cfg.SettingsSheetName)
	if settings == "" {
		settings = DefaultSettingsSheetName
	}
	return &Client{
		svc:               svc,
		spreadsheetID:     strings.TrimSpace(cfg.SpreadsheetID),
		transactionsSheet: sheet,
		settingsSheet:     settings,
	}
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credentialsFile := cfg.CredentialsFile
	if cfg.CredentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case cfg.CredentialsJSON != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case credentialsFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", credentialsFile)
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "scope", gsheet.SpreadsheetsScope)
	return service, nil
}

// EnsureHeader writes the header row when the transactions sheet is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:%s1", c.transactionsSheet, lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	vr := &gsheet.ValueRange{Values: [][]interface{}{headerRow()}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write header %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Transactions sheet header written", "sheet", c.transactionsSheet)
	return nil
}

func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A2:%s", c.transactionsSheet, lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	out := make([]core.Transaction, 0, len(resp.Values))
	for i, row := range resp.Values {
		if len(row) == 0 || cellString(row[colID]) == "" {
			continue
		}
		t, err := decodeRow(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed transaction row",
				"sheet", c.transactionsSheet, "row", i+2, "error", err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (c *Client) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return core.Transaction{}, errors.New("sheets service not initialized")
	}
	if err := c.appendRow(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (c *Client) UpsertTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	row, err := c.findRow(ctx, t.ID)
	if errors.Is(err, ports.ErrNotFound) {
		return c.appendRow(ctx, t)
	}
	if err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!A%d:%s%d", c.transactionsSheet, row, lastColumn, row)
	vr := &gsheet.ValueRange{Values: [][]interface{}{encodeRow(t)}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) SetPaymentStatus(ctx context.Context, id string, status core.PaymentStatus) error {
	if !status.IsValid() {
		return core.ErrInvalidPaymentStatus
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	row, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!%s%d", c.transactionsSheet, columnLetter(colPaymentStatus), row)
	vr := &gsheet.ValueRange{Values: [][]interface{}{{string(status)}}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	row, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	sheetID, err := c.lookupSheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in %s: %w", row, c.transactionsSheet, err)
	}
	return nil
}

func (c *Client) GetCapital(ctx context.Context) (core.Money, error) {
	if c.svc == nil {
		return core.Money{}, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!B1", c.settingsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return core.Money{}, fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return core.Money{}, nil
	}
	return core.AmountOrZero(cellString(resp.Values[0][0])), nil
}

func (c *Client) SetCapital(ctx context.Context, amount core.Money) error {
	if amount.IsNegative() {
		return core.ErrInvalidAmount
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:B1", c.settingsSheet)
	vr := &gsheet.ValueRange{Values: [][]interface{}{{capitalKey, amount.String()}}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) appendRow(ctx context.Context, t core.Transaction) error {
	rng := fmt.Sprintf("%s!A:%s", c.transactionsSheet, lastColumn)
	vr := &gsheet.ValueRange{Values: [][]interface{}{encodeRow(t)}}
	if _, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do(); err != nil {
		return fmt.Errorf("append to %s: %w", c.transactionsSheet, err)
	}
	return nil
}

// findRow returns the 1-based sheet row holding id.
func (c *Client) findRow(ctx context.Context, id string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", c.transactionsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	idx := indexOfID(resp.Values, id)
	if idx < 0 {
		return 0, ports.ErrNotFound
	}
	return idx + 1, nil
}

func (c *Client) lookupSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sheetID != nil {
		return *c.sheetID, nil
	}
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, s := range resp.Sheets {
		if s.Properties != nil && s.Properties.Title == c.transactionsSheet {
			id := s.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.transactionsSheet)
}

// indexOfID skips the header row at index 0.
func indexOfID(rows [][]interface{}, id string) int {
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		if cellString(row[0]) == id {
			return i
		}
	}
	return -1
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
