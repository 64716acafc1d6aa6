package parser

import (
	"testing"

	"github.com/insightdelivered/finance-intelligence/internal/models"
)

func TestDetectBank(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected models.BankCode
	}{
		{
			name:     "detects CIBC",
			text:     "CIBC\nPrepared for: JANE DOE\nJanuary 2024",
			expected: models.BankCIBC,
		},
		{
			name:     "detects RBC by full name",
			text:     "Royal Bank of Canada statement",
			expected: models.BankRBC,
		},
		{
			name:     "detects RBC by short token",
			text:     "Your RBC credit card",
			expected: models.BankRBC,
		},
		{
			name:     "detects Scotiabank",
			text:     "Scotiabank Visa statement",
			expected: models.BankScotia,
		},
		{
			name:     "detects TD with word boundary",
			text:     "TD Canada Trust",
			expected: models.BankTD,
		},
		{
			name:     "TD token inside a word does not match",
			text:     "OUTDOOR SUPPLIES LTDX",
			expected: models.BankUnknown,
		},
		{
			name:     "detects BMO",
			text:     "BMO Mastercard",
			expected: models.BankBMO,
		},
		{
			name:     "case-insensitive",
			text:     "cibc statement",
			expected: models.BankCIBC,
		},
		{
			name:     "no match yields UNKNOWN",
			text:     "Some Credit Union\nStatement",
			expected: models.BankUnknown,
		},
		{
			name:     "CIBC wins over later banks",
			text:     "CIBC and BMO are mentioned",
			expected: models.BankCIBC,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectBank(tt.text)
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		bank     models.BankCode
		wantName string
		wantErr  bool
	}{
		{models.BankCIBC, "CIBC", false},
		{models.BankRBC, "", true},
		{models.BankScotia, "", true},
		{models.BankTD, "", true},
		{models.BankBMO, "", true},
		{models.BankUnknown, "", true},
		{"nonsense", "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.bank), func(t *testing.T) {
			p, err := New(tt.bank)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.BankName() != tt.wantName {
				t.Errorf("got %q, want %q", p.BankName(), tt.wantName)
			}
		})
	}
}
