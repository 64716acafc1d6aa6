package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/finance-intelligence/internal/models"
)

// CIBCParser handles CIBC credit-card statement text.
//
// CIBC statements group lines into sections ("Your payments", "Your new
// charges and credits"), and each data line has this shape:
//
//	TransMon TransDay PostMon PostDay DESCRIPTION... [Category] Amount
//
// Example: "Jan 05 Jan 07 STARBUCKS COFFEE TORONTO Restaurants 4.50"
//
// Dates carry only month and day; the statement year is resolved once
// from the document text.
type CIBCParser struct{}

func (p *CIBCParser) BankName() string {
	return "CIBC"
}

// sectionState tracks which statement section the line scanner is in.
type sectionState int

const (
	sectionNeutral sectionState = iota
	sectionTransactions
	sectionPayments
)

// Section and noise markers observed in CIBC statement text. A marker
// line is consumed as a state transition, never as a data line.
const (
	paymentsMarker     = "Your payments"
	transactionsMarker = "Your new charges and credits"
)

var noiseMarkers = []string{
	"Important Notice",
	"Spend Report",
	"Prepared for:",
	"Trademark",
}

// positional category tokens are short alphabetic/hyphenated words that
// sit between the description and the amount with no delimiter.
var categoryToken = regexp.MustCompile(`^[A-Za-z\-]+$`)

func (p *CIBCParser) Parse(pages []string, opts ParseOptions) (*models.StatementData, error) {
	allText := strings.Join(pages, "\n")
	year := resolveYear(allText, opts.now)

	var lines []string
	for _, ln := range strings.Split(allText, "\n") {
		if strings.TrimSpace(ln) != "" {
			lines = append(lines, ln)
		}
	}

	data := &models.StatementData{
		Bank: models.BankCIBC,
		Year: year,
	}
	p.parseLines(lines, year, data)
	return data, nil
}

// parseLines scans statement lines in order, maintaining the section
// state and classifying each retained line as a transaction or payment.
// Lines that fail any admission check are dropped silently: the source
// material is noisy (headers, totals, wrapped text) and high precision
// is preferred over salvaging ambiguous lines.
func (p *CIBCParser) parseLines(lines []string, year int, data *models.StatementData) {
	state := sectionNeutral

	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}

		// Section transitions first; marker lines are not data lines.
		if strings.Contains(ln, paymentsMarker) {
			state = sectionPayments
			continue
		}
		if strings.Contains(ln, transactionsMarker) {
			state = sectionTransactions
			continue
		}
		if containsAny(ln, noiseMarkers) {
			state = sectionNeutral
			continue
		}

		// Admission gate: cheapest, most discriminating checks first.
		if !hasMonthToken(ln) {
			continue
		}
		amountToken := amountAtEnd.FindString(ln)
		if amountToken == "" {
			continue
		}
		amount, ok := parseAmount(amountToken)
		if !ok {
			continue
		}
		fields := strings.Fields(ln)
		if len(fields) < 6 {
			continue
		}

		// Expect: TransMon TransDay PostMon PostDay ... Description ... Amount
		transMon, transDay := fields[0], fields[1]
		postMon, postDay := fields[2], fields[3]

		// Reconstruct the prefix and require an exact byte match; this
		// catches positional drift the 6-field minimum lets through.
		head := transMon + " " + transDay + " " + postMon + " " + postDay + " "
		if !strings.HasPrefix(ln, head) {
			continue
		}

		// The description ends where the amount starts. Anchor off the
		// last occurrence: the amount substring can also appear inside
		// the description text.
		amountStart := strings.LastIndex(ln, amountToken)
		description := strings.TrimSpace(ln[len(head):amountStart])

		transDate := toDate(transMon, transDay, year)
		postDate := toDate(postMon, postDay, year)

		// A payment keyword always wins over the section state; it never
		// demotes a line back to transaction.
		if state == sectionPayments || looksLikePayment(description) {
			data.Payments = append(data.Payments, models.PaymentRecord{
				Bank:        models.BankCIBC,
				TransDate:   transDate,
				PostDate:    postDate,
				Description: description,
				Amount:      amount,
			})
			continue
		}
		if state != sectionTransactions {
			continue
		}

		// The token before the amount may be an embedded category label;
		// descriptions and single-word categories are visually adjacent
		// in the source layout with no delimiter.
		category := ""
		if maybeCat := fields[len(fields)-2]; categoryToken.MatchString(maybeCat) {
			category = maybeCat
			if strings.HasSuffix(description, maybeCat) {
				description = strings.TrimSpace(description[:len(description)-len(maybeCat)])
			}
		}
		category = applyCategoryRules(description, category)

		data.Transactions = append(data.Transactions, models.TransactionRecord{
			Bank:        models.BankCIBC,
			TransDate:   transDate,
			PostDate:    postDate,
			Description: description,
			Category:    category,
			Amount:      amount,
		})
	}
}

func containsAny(line string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(line, n) {
			return true
		}
	}
	return false
}
