package core

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Paid   PaymentStatus = "paid"
	Unpaid PaymentStatus = "unpaid"

	VoucherPaper      VoucherType = "paper"
	VoucherElectronic VoucherType = "electronic"
	VoucherOther      VoucherType = "other"
)

// DateLayout is the ISO calendar date format used for storage, sorting and export.
const DateLayout = "2006-01-02"

type (
	TransactionType string
	PaymentStatus   string
	VoucherType     string

	Date struct {
		time.Time
	}

	// Transaction is a single income or expense record. Only PaymentStatus
	// changes after creation.
	Transaction struct {
		ID            string          `json:"id"`
		Type          TransactionType `json:"type"`
		Date          Date            `json:"date"`
		Amount        Money           `json:"amount"`
		Category      Category        `json:"category"`
		VoucherType   VoucherType     `json:"voucherType,omitempty"`
		IsNonCash     bool            `json:"isNonCash"`
		PaymentStatus PaymentStatus   `json:"paymentStatus,omitempty"`
		PaymentTerms  int             `json:"paymentTerms"`
		CustomerName  string          `json:"customerName,omitempty"`
		Note          string          `json:"note,omitempty"`

		// Travel details (category travel)
		ApplicantName string `json:"applicantName,omitempty"`
		TravelStart   string `json:"travelStart,omitempty"`
		TravelEnd     string `json:"travelEnd,omitempty"`
		TravelMethod  string `json:"travelMethod,omitempty"`
		TravelReason  string `json:"travelReason,omitempty"`

		// Payee details (categories salary, part_time)
		PayeeName    string `json:"payeeName,omitempty"`
		PayeeID      string `json:"payeeId,omitempty"`
		PayeeAddress string `json:"payeeAddress,omitempty"`
		TaxWithheld  Money  `json:"taxWithheld"`
		HealthIns    Money  `json:"healthIns"`

		CreatedAt time.Time `json:"createdAt,omitempty"`
	}
)

// PaymentTermOptions lists the accepted payment terms in days; 0 is a cash sale.
var PaymentTermOptions = []int{0, 30, 60, 90}

var (
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidType          = errors.New("invalid transaction type")
	ErrMissingAmount        = errors.New("missing amount")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	ErrInvalidPaymentTerms  = errors.New("invalid payment terms")
	ErrNoteTooLong          = errors.New("note too long (max 500 characters)")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// Label returns the localized type label.
func (t TransactionType) Label() string {
	if t == Income {
		return "收入"
	}
	return "支出"
}

func (s PaymentStatus) IsValid() bool {
	return s == Paid || s == Unpaid
}

// Toggle flips paid and unpaid.
func (s PaymentStatus) Toggle() PaymentStatus {
	if s == Paid {
		return Unpaid
	}
	return Paid
}

// Label returns the localized collection status label.
func (s PaymentStatus) Label() string {
	if s == Paid {
		return "已收"
	}
	return "未收"
}

// Label returns the localized voucher label.
func (v VoucherType) Label() string {
	switch v {
	case VoucherPaper:
		return "紙本"
	case VoucherElectronic:
		return "電子"
	case VoucherOther:
		return "其他"
	default:
		return "未分類"
	}
}

// PaymentTermsLabel renders terms as "{n}天", or 現銷 for a cash sale.
func PaymentTermsLabel(days int) string {
	if days == 0 {
		return "現銷"
	}
	return strconv.Itoa(days) + "天"
}

func (t Transaction) IsIncome() bool { return t.Type == Income }

func (t Transaction) IsExpense() bool { return t.Type == Expense }

// DueDate is the date payment falls due: the transaction date plus its terms.
func (t Transaction) DueDate() Date {
	return t.Date.AddDays(t.PaymentTerms)
}

// Validate checks a transaction at the input boundary, before it reaches a store.
func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !IsValidCategory(t.Type, t.Category) {
		return ErrInvalidCategory
	}
	if t.Type == Income {
		if !t.PaymentStatus.IsValid() {
			return ErrInvalidPaymentStatus
		}
		if !isPaymentTermOption(t.PaymentTerms) {
			return ErrInvalidPaymentTerms
		}
	}
	if len(t.Note) > 500 {
		return ErrNoteTooLong
	}
	return nil
}

// Normalize clears fields that do not apply to the transaction's type.
func (t Transaction) Normalize() Transaction {
	switch t.Type {
	case Income:
		t.IsNonCash = false
		if t.PaymentStatus == "" {
			t.PaymentStatus = Paid
		}
	case Expense:
		t.PaymentStatus = ""
		t.PaymentTerms = 0
	}
	if t.VoucherType == "" {
		t.VoucherType = VoucherElectronic
	}
	return t
}

func isPaymentTermOption(days int) bool {
	for _, d := range PaymentTermOptions {
		if d == days {
			return true
		}
	}
	return false
}
