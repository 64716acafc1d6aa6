package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleTxn() TransactionRecord {
	return TransactionRecord{
		Bank:        BankCIBC,
		TransDate:   time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
		PostDate:    time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC),
		Description: "STARBUCKS COFFEE TORONTO",
		Category:    "Restaurants",
		Amount:      4.50,
	}
}

func TestRowHashIdempotent(t *testing.T) {
	a := sampleTxn()
	b := sampleTxn()

	// Re-extracting the same line must produce the same identity.
	assert.Equal(t, a.RowHash(), b.RowHash())
	assert.Len(t, a.RowHash(), 64)
}

func TestRowHashNormalization(t *testing.T) {
	a := sampleTxn()
	b := sampleTxn()
	b.Description = "  starbucks coffee toronto "

	// Case and surrounding whitespace do not change the identity.
	assert.Equal(t, a.RowHash(), b.RowHash())
}

func TestRowHashSensitivity(t *testing.T) {
	base := sampleTxn()

	amount := sampleTxn()
	amount.Amount = 4.51
	assert.NotEqual(t, base.RowHash(), amount.RowHash())

	date := sampleTxn()
	date.TransDate = date.TransDate.AddDate(0, 0, 1)
	assert.NotEqual(t, base.RowHash(), date.RowHash())

	category := sampleTxn()
	category.Category = "Grocery"
	assert.NotEqual(t, base.RowHash(), category.RowHash())
}

func TestRowHashZeroDate(t *testing.T) {
	a := sampleTxn()
	a.PostDate = time.Time{}
	b := sampleTxn()
	b.PostDate = time.Time{}

	// Zero dates normalize to empty, still deterministically.
	assert.Equal(t, a.RowHash(), b.RowHash())
	assert.NotEqual(t, a.RowHash(), sampleTxn().RowHash())
}

func TestPaymentRowHash(t *testing.T) {
	p := PaymentRecord{
		Bank:        BankCIBC,
		TransDate:   time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
		PostDate:    time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC),
		Description: "PAYMENT THANK YOU",
		Amount:      -500,
	}
	q := p
	assert.Equal(t, p.RowHash(), q.RowHash())

	q.Amount = -500.10
	assert.NotEqual(t, p.RowHash(), q.RowHash())
}
