package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"microbiz/internal/core"
)

func TestParsePeriodParam(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		query    string
		want     core.Period
		explicit bool
		wantErr  bool
	}{
		{"default to current month", "", core.Period{Year: 2025, Month: 6}, false, false},
		{"explicit period", "period=2024-12", core.Period{Year: 2024, Month: 12}, true, false},
		{"whitespace trimmed", "period=%202025-01%20", core.Period{Year: 2025, Month: 1}, true, false},
		{"bad format", "period=2025-13", core.Period{}, true, true},
		{"garbage", "period=march", core.Period{}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, explicit, err := ParsePeriodParam(q, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if explicit != tt.explicit {
				t.Errorf("explicit = %v, want %v", explicit, tt.explicit)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("period = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeJSONBody(t *testing.T) {
	type payload struct {
		Amount string `json:"amount"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"amount":"10"}`, ""},
		{"empty", ``, "request body is empty"},
		{"unknown field", `{"amount":"10","extra":1}`, "invalid JSON body"},
		{"malformed", `{"amount":`, "invalid JSON body"},
		{"trailing object", `{"amount":"1"}{"amount":"2"}`, "single JSON object"},
		{"too large", `{"amount":"` + strings.Repeat("9", maxBodyBytes) + `"}`, "exceeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSONBody(httptest.NewRecorder(), r, &p)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if p.Amount != "10" {
					t.Errorf("Amount = %q", p.Amount)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeDraft(t *testing.T) {
	d := SanitizeDraft(core.Draft{
		Note:         "  hello\x00 world\x07 ",
		CustomerName: "ACME\tInc",
		PayeeAddress: "line1\nline2",
	})
	if d.Note != "hello world" {
		t.Errorf("Note = %q", d.Note)
	}
	if d.CustomerName != "ACME\tInc" || d.PayeeAddress != "line1\nline2" {
		t.Errorf("tabs and newlines must survive: %q %q", d.CustomerName, d.PayeeAddress)
	}
}

func TestRequireMethod(t *testing.T) {
	r := httptest.NewRequest(http.MethodPatch, "/", nil)
	if RequireMethod(r, http.MethodPatch) != nil {
		t.Error("matching method should pass")
	}
	b := RequireMethod(r, http.MethodGet, http.MethodPost)
	if b == nil {
		t.Fatal("expected a 405 builder")
	}
	w := httptest.NewRecorder()
	b.Write(w)
	if w.Code != http.StatusMethodNotAllowed || w.Header().Get("Allow") != "GET, POST" {
		t.Errorf("got %d Allow=%q", w.Code, w.Header().Get("Allow"))
	}
}
