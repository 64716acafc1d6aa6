// Package pipeline drives statement documents through text extraction,
// bank detection and parsing, accumulating the results into the two
// record collections the rest of the system consumes.
package pipeline

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/finance-intelligence/internal/extractor"
	"github.com/insightdelivered/finance-intelligence/internal/models"
	"github.com/insightdelivered/finance-intelligence/internal/parser"
)

// TextExtractor turns a document handle (a file path here) into per-page
// text. Swappable in tests.
type TextExtractor func(path string) ([]string, error)

// DocumentFailure records a document that could not be processed at all.
// Line-level problems never appear here; malformed lines are dropped
// silently and the document contributes whatever lines succeeded.
type DocumentFailure struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// Result holds the accumulated output of one extraction run. Zero rows
// from a document with no recognizable lines is a valid, non-error
// outcome.
type Result struct {
	Transactions []models.TransactionRecord
	Payments     []models.PaymentRecord
	Failed       []DocumentFailure
}

// Extractor runs the extraction pipeline over one or more documents.
// Parse state lives entirely within a single document's processing, so
// an Extractor itself is stateless and safe for reuse.
type Extractor struct {
	ExtractText TextExtractor
	// Bank overrides auto-detection when set.
	Bank models.BankCode
	// Now is the clock used for year fallback; defaults to time.Now.
	Now func() time.Time

	Log zerolog.Logger
}

// New returns an Extractor using the PDF text extractor.
func New(log zerolog.Logger) *Extractor {
	return &Extractor{
		ExtractText: extractor.ExtractText,
		Log:         log,
	}
}

// Extract processes documents strictly in order and returns the two
// accumulated record collections. A document whose text cannot be
// extracted or whose bank has no parser is reported in Result.Failed;
// the remaining documents are still processed.
func (e *Extractor) Extract(paths []string) *Result {
	res := &Result{}

	for _, path := range paths {
		log := e.Log.With().Str("document", path).Logger()

		pages, err := e.ExtractText(path)
		if err != nil {
			log.Error().Err(err).Msg("text extraction failed")
			res.Failed = append(res.Failed, DocumentFailure{Path: path, Err: err})
			continue
		}

		bank := e.Bank
		if bank == "" {
			bank = parser.DetectBankPages(pages)
			log.Debug().Str("bank", string(bank)).Msg("detected bank")
		}

		p, err := parser.New(bank)
		if err != nil {
			log.Error().Err(err).Msg("no parser for document")
			res.Failed = append(res.Failed, DocumentFailure{Path: path, Err: err})
			continue
		}

		data, err := p.Parse(pages, parser.ParseOptions{Now: e.Now})
		if err != nil {
			log.Error().Err(err).Msg("parsing failed")
			res.Failed = append(res.Failed, DocumentFailure{Path: path, Err: err})
			continue
		}

		log.Info().
			Int("transactions", len(data.Transactions)).
			Int("payments", len(data.Payments)).
			Int("year", data.Year).
			Msg("parsed statement")

		res.Transactions = append(res.Transactions, data.Transactions...)
		res.Payments = append(res.Payments, data.Payments...)
	}

	return res
}
