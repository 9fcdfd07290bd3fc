package wallet

import (
	"strings"
	"testing"
)

func TestDemoIdentifier(t *testing.T) {
	a := DemoIdentifier("hodl")
	b := DemoIdentifier("hodl")
	c := DemoIdentifier("other")

	if a != b {
		t.Errorf("DemoIdentifier not deterministic: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("different seeds produced the same identifier %q", a)
	}
	if !strings.HasPrefix(a, "demo-") {
		t.Errorf("DemoIdentifier = %q, want demo- prefix", a)
	}
	if DemoIdentifier("") != DemoIdentifier(DefaultDemoSeed) {
		t.Error("empty seed should use the default seed")
	}
}

func TestNewDemoBalances(t *testing.T) {
	tests := []struct {
		name    string
		entries []DemoEntry
		wantErr string
	}{
		{"defaults", DefaultDemoEntries(), ""},
		{"empty", nil, ""},
		{"missing asset", []DemoEntry{{Amount: "1"}}, "asset is required"},
		{"bad amount", []DemoEntry{{Asset: "ICP", Amount: "lots"}}, "invalid amount"},
		{"duplicate", []DemoEntry{{Asset: "ICP", Amount: "1"}, {Asset: "ICP", Amount: "2"}}, "duplicate asset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDemoBalances(tt.entries)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDemoBalances_OrderAndAmounts(t *testing.T) {
	table := MustDemoBalances([]DemoEntry{
		{Asset: "ckUSDT", Amount: "5000.0"},
		{Asset: "ICP", Amount: "100.5"},
	})

	recs := table.Records()
	if len(recs) != 2 || recs[0].Asset != "ckUSDT" || recs[1].Asset != "ICP" {
		t.Errorf("Records() = %v, want configured order", recs)
	}
	if recs[0].Balance != "5000.0" {
		t.Errorf("amount = %q, want verbatim %q", recs[0].Balance, "5000.0")
	}
	if table.Amount("ckETH") != "0" {
		t.Errorf("Amount(unconfigured) = %q, want 0", table.Amount("ckETH"))
	}

	recs[0].Balance = "tampered"
	if table.Amount("ckUSDT") != "5000.0" {
		t.Error("table mutated through Records() result")
	}
}
