package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/insightdelivered/finance-intelligence/internal/models"
)

// Column orders are part of the output contract; downstream consumers
// rely on them.
var (
	transactionHeader = []string{"Bank", "Trans date", "Post date", "Description", "Category", "Amount"}
	paymentHeader     = []string{"Bank", "Trans date", "Post date", "Description", "Amount"}
)

// CSVWriter writes extracted records to CSV.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteTransactionsToFile writes the transactions table to path.
func (w *CSVWriter) WriteTransactionsToFile(path string, records []models.TransactionRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file %q: %w", path, err)
	}
	defer f.Close()
	return w.WriteTransactions(f, records)
}

// WritePaymentsToFile writes the payments table to path.
func (w *CSVWriter) WritePaymentsToFile(path string, records []models.PaymentRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file %q: %w", path, err)
	}
	defer f.Close()
	return w.WritePayments(f, records)
}

// WriteTransactions writes transactions in CSV format to out.
func (w *CSVWriter) WriteTransactions(out io.Writer, records []models.TransactionRecord) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	if w.IncludeHeader {
		if err := writer.Write(transactionHeader); err != nil {
			return fmt.Errorf("write CSV header: %w", err)
		}
	}
	for _, r := range records {
		row := []string{
			string(r.Bank),
			formatDate(r.TransDate),
			formatDate(r.PostDate),
			r.Description,
			r.Category,
			formatAmount(r.Amount),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	return writer.Error()
}

// WritePayments writes payments in CSV format to out.
func (w *CSVWriter) WritePayments(out io.Writer, records []models.PaymentRecord) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	if w.IncludeHeader {
		if err := writer.Write(paymentHeader); err != nil {
			return fmt.Errorf("write CSV header: %w", err)
		}
	}
	for _, r := range records {
		row := []string{
			string(r.Bank),
			formatDate(r.TransDate),
			formatDate(r.PostDate),
			r.Description,
			formatAmount(r.Amount),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	return writer.Error()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
