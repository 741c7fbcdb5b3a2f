// Package export renders transaction sets as spreadsheet-friendly files.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"microbiz/internal/core"
)

// BOM lets spreadsheet applications detect UTF-8.
const BOM = "\ufeff"

// Headers are the column titles shared by the CSV and XLSX exports.
var Headers = []string{
	"交易日期", "收支類型", "會計科目", "金額", "客戶名稱", "付款條件", "收款狀態", "憑證類型",
	"備註", "申請人", "起點", "終點", "交通方式", "所得人", "統編/ID", "代扣稅", "二代健保",
}

// Filename returns the download name for an export created at now. The date
// is taken in UTC.
func Filename(now time.Time, ext string) string {
	return fmt.Sprintf("微型企業帳務_%s.%s", now.UTC().Format(core.DateLayout), ext)
}

// statusLabel renders the collection status. Expenses are entered as paid.
func statusLabel(t core.Transaction) string {
	if t.Type == core.Expense {
		return core.Paid.Label()
	}
	return t.PaymentStatus.Label()
}

// Record returns the column values of t in Headers order. The note is returned
// unquoted; WriteCSV adds the quoting.
func Record(t core.Transaction) []string {
	return []string{
		t.Date.String(),
		t.Type.Label(),
		core.CategoryName(t.Category, t.Type),
		t.Amount.String(),
		t.CustomerName,
		core.PaymentTermsLabel(t.PaymentTerms),
		statusLabel(t),
		t.VoucherType.Label(),
		t.Note,
		t.ApplicantName,
		t.TravelStart,
		t.TravelEnd,
		t.TravelMethod,
		t.PayeeName,
		t.PayeeID,
		t.TaxWithheld.String(),
		t.HealthIns.String(),
	}
}

const noteColumn = 8

// WriteCSV writes the BOM, the header row and one row per transaction in the
// given order. Fields are comma-joined, the note is always wrapped in double
// quotes and rows are separated by "\n" with no trailing newline.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	var b strings.Builder
	b.WriteString(BOM)
	b.WriteString(strings.Join(Headers, ","))
	for _, t := range txs {
		rec := Record(t)
		rec[noteColumn] = quote(rec[noteColumn])
		b.WriteByte('\n')
		b.WriteString(strings.Join(rec, ","))
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
