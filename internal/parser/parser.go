package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/insightdelivered/finance-intelligence/internal/models"
)

// Parser defines the interface for per-bank statement parsers.
type Parser interface {
	// Parse takes raw text from statement pages and returns structured data.
	Parse(pages []string, opts ParseOptions) (*models.StatementData, error)
	// BankName returns the human-readable bank name.
	BankName() string
}

// ParseOptions carries per-run knobs into a parser.
type ParseOptions struct {
	// Now supplies the clock used when no statement year can be found in
	// the document text. Defaults to time.Now.
	Now func() time.Time
}

func (o ParseOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// New returns the parser for the given bank. Only the CIBC statement
// layout is implemented; other detected banks are reported as unsupported.
func New(bank models.BankCode) (Parser, error) {
	switch bank {
	case models.BankCIBC:
		return &CIBCParser{}, nil
	case models.BankRBC, models.BankScotia, models.BankTD, models.BankBMO:
		return nil, fmt.Errorf("no parser implemented for bank %q", bank)
	default:
		return nil, fmt.Errorf("unsupported bank: %q", bank)
	}
}

// Word-boundary patterns for the short issuer tokens that would otherwise
// match inside ordinary words.
var (
	rbcPattern = regexp.MustCompile(`\bROYAL BANK\b|\bRBC\b`)
	tdPattern  = regexp.MustCompile(`\bTD\b`)
)

// DetectBank classifies statement text into an issuer code. Checks run in
// a fixed priority order and the first match wins; no match yields
// BankUnknown. Matching is case-insensitive.
func DetectBank(text string) models.BankCode {
	t := strings.ToUpper(text)

	switch {
	case strings.Contains(t, "CIBC"):
		return models.BankCIBC
	case rbcPattern.MatchString(t):
		return models.BankRBC
	case strings.Contains(t, "SCOTIABANK") || strings.Contains(t, "SCOTIA"):
		return models.BankScotia
	case strings.Contains(t, "TORONTO-DOMINION") || tdPattern.MatchString(t):
		return models.BankTD
	case strings.Contains(t, "BANK OF MONTREAL") || strings.Contains(t, "BMO"):
		return models.BankBMO
	}
	return models.BankUnknown
}

// DetectBankPages joins page texts and runs DetectBank on the result.
func DetectBankPages(pages []string) models.BankCode {
	return DetectBank(strings.Join(pages, "\n"))
}
