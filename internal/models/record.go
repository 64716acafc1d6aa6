package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// BankCode identifies the statement-issuing bank.
type BankCode string

const (
	BankCIBC    BankCode = "CIBC"
	BankRBC     BankCode = "RBC"
	BankScotia  BankCode = "SCOTIA"
	BankTD      BankCode = "TD"
	BankBMO     BankCode = "BMO"
	BankUnknown BankCode = "UNKNOWN"
)

// TransactionRecord is a single spending line from a statement.
// A zero TransDate or PostDate means the source date failed to parse.
type TransactionRecord struct {
	Bank        BankCode  `json:"bank"`
	TransDate   time.Time `json:"transDate"`
	PostDate    time.Time `json:"postDate"`
	Description string    `json:"description"`
	Category    string    `json:"category,omitempty"` // "" = uncategorized
	Amount      float64   `json:"amount"`
}

// PaymentRecord is a payment toward the card balance. Payments carry no
// spending category.
type PaymentRecord struct {
	Bank        BankCode  `json:"bank"`
	TransDate   time.Time `json:"transDate"`
	PostDate    time.Time `json:"postDate"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
}

// StatementData holds everything extracted from one or more statements.
type StatementData struct {
	Bank         BankCode            `json:"bank"`
	Year         int                 `json:"year"`
	Transactions []TransactionRecord `json:"transactions"`
	Payments     []PaymentRecord     `json:"payments"`
}

// RowHash returns a deterministic fingerprint of the record's content,
// used for insert-if-absent deduplication. Re-extracting the same
// statement yields the same hashes.
func (t TransactionRecord) RowHash() string {
	return hashRow(string(t.Bank), t.TransDate, t.PostDate, t.Description, t.Category, t.Amount)
}

// RowHash returns the content fingerprint of a payment. The category slot
// is hashed as empty so transaction and payment hashes share one scheme.
func (p PaymentRecord) RowHash() string {
	return hashRow(string(p.Bank), p.TransDate, p.PostDate, p.Description, "", p.Amount)
}

func hashRow(bank string, transDate, postDate time.Time, description, category string, amount float64) string {
	parts := []string{
		normText(bank),
		normDate(transDate),
		normDate(postDate),
		normText(description),
		normText(category),
		normAmount(amount),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func normText(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func normDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func normAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
