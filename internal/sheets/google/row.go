package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"microbiz/internal/core"
)

// Column positions in the transactions sheet.
const (
	colID = iota
	colType
	colDate
	colAmount
	colCategory
	colVoucherType
	colIsNonCash
	colPaymentStatus
	colPaymentTerms
	colCustomerName
	colNote
	colApplicantName
	colTravelStart
	colTravelEnd
	colTravelMethod
	colTravelReason
	colPayeeName
	colPayeeID
	colPayeeAddress
	colTaxWithheld
	colHealthIns
	colCreatedAt
	columnCount
)

var lastColumn = columnLetter(columnCount - 1)

var header = [columnCount]string{
	"id", "type", "date", "amount", "category", "voucherType", "isNonCash",
	"paymentStatus", "paymentTerms", "customerName", "note", "applicantName",
	"travelStart", "travelEnd", "travelMethod", "travelReason", "payeeName",
	"payeeId", "payeeAddress", "taxWithheld", "healthIns", "createdAt",
}

func headerRow() []interface{} {
	out := make([]interface{}, columnCount)
	for i, h := range header {
		out[i] = h
	}
	return out
}

// columnLetter maps a zero-based index to A..Z, AA.. notation.
func columnLetter(i int) string {
	s := ""
	for i >= 0 {
		s = string(rune('A'+i%26)) + s
		i = i/26 - 1
	}
	return s
}

func encodeRow(t core.Transaction) []interface{} {
	row := make([]interface{}, columnCount)
	row[colID] = t.ID
	row[colType] = string(t.Type)
	row[colDate] = t.Date.String()
	row[colAmount] = t.Amount.String()
	row[colCategory] = string(t.Category)
	row[colVoucherType] = string(t.VoucherType)
	row[colIsNonCash] = strconv.FormatBool(t.IsNonCash)
	row[colPaymentStatus] = string(t.PaymentStatus)
	row[colPaymentTerms] = strconv.Itoa(t.PaymentTerms)
	row[colCustomerName] = t.CustomerName
	row[colNote] = t.Note
	row[colApplicantName] = t.ApplicantName
	row[colTravelStart] = t.TravelStart
	row[colTravelEnd] = t.TravelEnd
	row[colTravelMethod] = t.TravelMethod
	row[colTravelReason] = t.TravelReason
	row[colPayeeName] = t.PayeeName
	row[colPayeeID] = t.PayeeID
	row[colPayeeAddress] = t.PayeeAddress
	row[colTaxWithheld] = t.TaxWithheld.String()
	row[colHealthIns] = t.HealthIns.String()
	if t.CreatedAt.IsZero() {
		row[colCreatedAt] = ""
	} else {
		row[colCreatedAt] = t.CreatedAt.UTC().Format(time.RFC3339)
	}
	return row
}

func decodeRow(row []interface{}) (core.Transaction, error) {
	get := func(i int) string {
		if i < len(row) {
			return cellString(row[i])
		}
		return ""
	}

	date, err := core.ParseDate(get(colDate))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date %q: %w", get(colDate), err)
	}
	amount, err := core.ParseAmount(get(colAmount))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", get(colAmount), err)
	}
	terms := 0
	if s := get(colPaymentTerms); s != "" {
		if terms, err = strconv.Atoi(s); err != nil {
			return core.Transaction{}, fmt.Errorf("payment terms %q: %w", s, core.ErrInvalidPaymentTerms)
		}
	}

	t := core.Transaction{
		ID:            get(colID),
		Type:          core.TransactionType(get(colType)),
		Date:          date,
		Amount:        amount,
		Category:      core.Category(get(colCategory)),
		VoucherType:   core.VoucherType(get(colVoucherType)),
		IsNonCash:     strings.EqualFold(get(colIsNonCash), "true"),
		PaymentStatus: core.PaymentStatus(get(colPaymentStatus)),
		PaymentTerms:  terms,
		CustomerName:  get(colCustomerName),
		Note:          get(colNote),
		ApplicantName: get(colApplicantName),
		TravelStart:   get(colTravelStart),
		TravelEnd:     get(colTravelEnd),
		TravelMethod:  get(colTravelMethod),
		TravelReason:  get(colTravelReason),
		PayeeName:     get(colPayeeName),
		PayeeID:       get(colPayeeID),
		PayeeAddress:  get(colPayeeAddress),
		TaxWithheld:   core.AmountOrZero(get(colTaxWithheld)),
		HealthIns:     core.AmountOrZero(get(colHealthIns)),
	}
	if s := get(colCreatedAt); s != "" {
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			t.CreatedAt = ts
		}
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}
