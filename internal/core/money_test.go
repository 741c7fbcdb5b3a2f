package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1000", "1000", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"0", "0", true},
		{"-1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestAmountOrZero(t *testing.T) {
	if !AmountOrZero("oops").IsZero() {
		t.Fatal("unparseable input should degrade to zero")
	}
	if !AmountOrZero("42").Equal(NewMoney(42)) {
		t.Fatal("expected 42")
	}
}

func TestMoneyRoundHalfUp(t *testing.T) {
	cases := map[string]string{
		"2.5":   "3",
		"2.4":   "2",
		"42.2":  "42",
		"0.5":   "1",
		"104.5": "105",
	}
	for in, want := range cases {
		if got := MustMoney(in).Round().String(); got != want {
			t.Fatalf("Round(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestMoneyPercentage(t *testing.T) {
	if p := NewMoney(25).Percentage(NewMoney(100)); p != 25 {
		t.Fatalf("expected 25, got %v", p)
	}
	if p := NewMoney(25).Percentage(Money{}); p != 0 {
		t.Fatalf("zero denominator should give 0, got %v", p)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Money `json:"a"`
	}{MustMoney("12.50")})
	if err != nil || string(b) != `{"a":12.5}` {
		t.Fatalf("marshal: %s %v", b, err)
	}
	var m Money
	for _, in := range []string{`12.5`, `"12,5"`} {
		if err := json.Unmarshal([]byte(in), &m); err != nil || !m.Equal(MustMoney("12.5")) {
			t.Fatalf("unmarshal %s: %v %v", in, m, err)
		}
	}
	if err := json.Unmarshal([]byte(`"x"`), &m); err == nil {
		t.Fatal("expected error for non-numeric string")
	}
}
