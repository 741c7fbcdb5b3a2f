package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// WithholdingTaxRate is the income tax withheld from payroll payments.
	WithholdingTaxRate = decimal.RequireFromString("0.10")
	// SupplementaryHealthRate is the supplementary health insurance premium rate.
	SupplementaryHealthRate = decimal.RequireFromString("0.0211")
)

// IsWithholdingCategory reports whether payments in c are subject to payroll withholding.
func IsWithholdingCategory(c Category) bool {
	return c == CategorySalary || c == CategoryPartTime
}

// ComputeWithholding returns the withheld tax and health insurance for a
// payment of amount in category. ok is false when the category is not payroll.
func ComputeWithholding(amount Money, category Category) (tax, health Money, ok bool) {
	if !IsWithholdingCategory(category) {
		return Money{}, Money{}, false
	}
	tax = amount.MulRate(WithholdingTaxRate).Round()
	health = amount.MulRate(SupplementaryHealthRate).Round()
	return tax, health, true
}

// FormValue is a form field that accepts either a JSON string or a JSON number.
type FormValue string

func (v *FormValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = FormValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return ErrInvalidAmount
	}
	*v = FormValue(n.String())
	return nil
}

// Draft is an unsaved transaction as edited on the entry form.
//
// WithAmount and WithCategory keep the payroll withholding fields in step
// with the amount. Any value typed into those fields by hand is replaced on
// the next amount or category edit.
type Draft struct {
	Type          TransactionType `json:"type"`
	Date          string          `json:"date"`
	Amount        FormValue       `json:"amount"`
	Category      Category        `json:"category"`
	VoucherType   VoucherType     `json:"voucherType"`
	IsNonCash     bool            `json:"isNonCash"`
	Note          string          `json:"note"`
	ApplicantName string          `json:"applicantName"`
	TravelStart   string          `json:"travelStart"`
	TravelEnd     string          `json:"travelEnd"`
	TravelReason  string          `json:"travelReason"`
	TravelMethod  string          `json:"travelMethod"`
	PayeeName     string          `json:"payeeName"`
	PayeeID       string          `json:"payeeId"`
	PayeeAddress  string          `json:"payeeAddress"`
	TaxWithheld   FormValue       `json:"taxWithheld"`
	HealthIns     FormValue       `json:"healthIns"`
	CustomerName  string          `json:"customerName"`
	PaymentTerms  int             `json:"paymentTerms"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
}

// NewDraft returns a blank expense draft dated today.
func NewDraft(today time.Time) Draft {
	return Draft{
		Type:          Expense,
		Date:          DateOf(today).String(),
		Category:      DefaultCategory(Expense),
		VoucherType:   VoucherElectronic,
		TravelReason:  "洽公",
		TaxWithheld:   "0",
		HealthIns:     "0",
		PaymentStatus: Paid,
	}
}

// WithType switches the draft type and resets the category to that type's first account.
func (d Draft) WithType(t TransactionType) Draft {
	d.Type = t
	d.Category = DefaultCategory(t)
	return d
}

// WithAmount sets the amount and, for payroll categories, recomputes withholding.
// Other categories keep their current withholding values.
func (d Draft) WithAmount(amount string) Draft {
	d.Amount = FormValue(amount)
	if tax, health, ok := ComputeWithholding(AmountOrZero(amount), d.Category); ok {
		d.TaxWithheld = FormValue(tax.String())
		d.HealthIns = FormValue(health.String())
	}
	return d
}

// WithCategory sets the category; payroll categories get withholding computed
// from the current amount and all others have it reset to zero.
func (d Draft) WithCategory(c Category) Draft {
	d.Category = c
	if tax, health, ok := ComputeWithholding(AmountOrZero(string(d.Amount)), c); ok {
		d.TaxWithheld = FormValue(tax.String())
		d.HealthIns = FormValue(health.String())
	} else {
		d.TaxWithheld = "0"
		d.HealthIns = "0"
	}
	return d
}

// Build converts the draft into a transaction without an ID.
// A missing amount or category is rejected; the withholding fields degrade to zero.
func (d Draft) Build() (Transaction, error) {
	if strings.TrimSpace(string(d.Amount)) == "" {
		return Transaction{}, ErrMissingAmount
	}
	if d.Category == "" {
		return Transaction{}, ErrInvalidCategory
	}
	amount, err := ParseAmount(string(d.Amount))
	if err != nil {
		return Transaction{}, err
	}
	date, err := ParseDate(d.Date)
	if err != nil {
		return Transaction{}, err
	}
	t := Transaction{
		Type:          d.Type,
		Date:          date,
		Amount:        amount,
		Category:      d.Category,
		VoucherType:   d.VoucherType,
		IsNonCash:     d.IsNonCash,
		PaymentStatus: d.PaymentStatus,
		PaymentTerms:  d.PaymentTerms,
		CustomerName:  strings.TrimSpace(d.CustomerName),
		Note:          strings.TrimSpace(d.Note),
		ApplicantName: strings.TrimSpace(d.ApplicantName),
		TravelStart:   strings.TrimSpace(d.TravelStart),
		TravelEnd:     strings.TrimSpace(d.TravelEnd),
		TravelMethod:  strings.TrimSpace(d.TravelMethod),
		TravelReason:  strings.TrimSpace(d.TravelReason),
		PayeeName:     strings.TrimSpace(d.PayeeName),
		PayeeID:       strings.TrimSpace(d.PayeeID),
		PayeeAddress:  strings.TrimSpace(d.PayeeAddress),
		TaxWithheld:   AmountOrZero(string(d.TaxWithheld)),
		HealthIns:     AmountOrZero(string(d.HealthIns)),
	}
	t = t.Normalize()
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}
