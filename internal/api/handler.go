// Package api exposes the extraction pipeline, the persisted tables and
// the analytics routines over HTTP.
package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/finance-intelligence/internal/analytics"
	"github.com/insightdelivered/finance-intelligence/internal/models"
	"github.com/insightdelivered/finance-intelligence/internal/pipeline"
	"github.com/insightdelivered/finance-intelligence/internal/store"
)

const version = "1.0.0"

// Handler holds the HTTP handlers and their collaborators. Store may be
// nil when the service runs without a database.
type Handler struct {
	Store *store.Store
	Log   zerolog.Logger
	// Bank overrides auto-detection for uploaded statements.
	Bank models.BankCode
}

// IngestResponse is the JSON response from POST /api/statements.
type IngestResponse struct {
	Success      bool                       `json:"success"`
	Error        string                     `json:"error,omitempty"`
	Bank         string                     `json:"bank,omitempty"`
	Transactions []models.TransactionRecord `json:"transactions"`
	Payments     []models.PaymentRecord     `json:"payments"`
	TxnCount     int                        `json:"txnCount"`
	PaymentCount int                        `json:"paymentCount"`
	TotalSpend   float64                    `json:"totalSpend"`
	TotalPaid    float64                    `json:"totalPaid"`
	InsertedTx   int                        `json:"insertedTx,omitempty"`
	InsertedPay  int                        `json:"insertedPay,omitempty"`
	FailedDocs   []string                   `json:"failedDocs,omitempty"`
}

// SummaryResponse carries the dashboard KPIs.
type SummaryResponse struct {
	TotalSpend    float64 `json:"totalSpend"`
	TotalPayments float64 `json:"totalPayments"`
	TxnCount      int     `json:"txnCount"`
	MonthsCovered int     `json:"monthsCovered"`
}

// Register sets up the HTTP routes.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/statements", h.HandleStatements)
	app.Get("/api/transactions", h.HandleTransactions)
	app.Get("/api/payments", h.HandlePayments)
	app.Get("/api/summary", h.HandleSummary)
	app.Get("/api/analytics/forecast", h.HandleForecast)
	app.Get("/api/analytics/anomalies", h.HandleAnomalies)
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": version,
		"engine":  "fiber",
	})
}

// HandleStatements accepts one or more uploaded statement PDFs, runs the
// extraction pipeline and optionally persists the results (save=true).
func (h *Handler) HandleStatements(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
	}
	files := form.File["file"]
	if len(files) == 0 {
		return writeError(c, fiber.StatusBadRequest, "no file uploaded; use form field 'file'")
	}

	bank := h.Bank
	if param := c.FormValue("bank"); param != "" {
		bank = models.BankCode(strings.ToUpper(param))
	}

	tmpDir, err := os.MkdirTemp("", "statements-*")
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, "failed to create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	var paths []string
	for _, f := range files {
		if !strings.HasSuffix(strings.ToLower(f.Filename), ".pdf") {
			return writeError(c, fiber.StatusBadRequest, "only PDF files are supported")
		}
		dst := filepath.Join(tmpDir, uuid.NewString()+".pdf")
		if err := c.SaveFile(f, dst); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "failed to save uploaded file")
		}
		paths = append(paths, dst)
	}

	ext := pipeline.New(h.Log)
	ext.Bank = bank
	res := ext.Extract(paths)

	if len(res.Transactions) == 0 && len(res.Payments) == 0 && len(res.Failed) == len(paths) {
		return writeError(c, fiber.StatusUnprocessableEntity, "no document could be processed")
	}

	resp := IngestResponse{
		Success:      true,
		Transactions: nonNilTx(res.Transactions),
		Payments:     nonNilPay(res.Payments),
		TxnCount:     len(res.Transactions),
		PaymentCount: len(res.Payments),
	}
	if len(res.Transactions) > 0 {
		resp.Bank = string(res.Transactions[0].Bank)
	} else if len(res.Payments) > 0 {
		resp.Bank = string(res.Payments[0].Bank)
	}
	for _, t := range res.Transactions {
		resp.TotalSpend += t.Amount
	}
	for _, p := range res.Payments {
		resp.TotalPaid += p.Amount
	}
	for _, f := range res.Failed {
		resp.FailedDocs = append(resp.FailedDocs, filepath.Base(f.Path))
	}

	if c.FormValue("save") == "true" {
		if h.Store == nil {
			return writeError(c, fiber.StatusServiceUnavailable, "persistence is not configured")
		}
		ctx := c.Context()
		if err := h.Store.CreateTables(ctx); err != nil {
			return writeError(c, fiber.StatusInternalServerError, err.Error())
		}
		insTx, err := h.Store.UpsertTransactions(ctx, res.Transactions)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, err.Error())
		}
		insPay, err := h.Store.UpsertPayments(ctx, res.Payments)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, err.Error())
		}
		if err := h.Store.CreateIndexesAndViews(ctx); err != nil {
			return writeError(c, fiber.StatusInternalServerError, err.Error())
		}
		resp.InsertedTx = insTx
		resp.InsertedPay = insPay
	}

	return c.JSON(resp)
}

func (h *Handler) HandleTransactions(c *fiber.Ctx) error {
	if h.Store == nil {
		return writeError(c, fiber.StatusServiceUnavailable, "persistence is not configured")
	}
	limit := c.QueryInt("limit", 0)
	tx, err := h.Store.ListTransactions(c.Context(), limit)
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "transactions": nonNilTx(tx), "count": len(tx)})
}

func (h *Handler) HandlePayments(c *fiber.Ctx) error {
	if h.Store == nil {
		return writeError(c, fiber.StatusServiceUnavailable, "persistence is not configured")
	}
	limit := c.QueryInt("limit", 0)
	pay, err := h.Store.ListPayments(c.Context(), limit)
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "payments": nonNilPay(pay), "count": len(pay)})
}

func (h *Handler) HandleSummary(c *fiber.Ctx) error {
	if h.Store == nil {
		return writeError(c, fiber.StatusServiceUnavailable, "persistence is not configured")
	}
	tx, err := h.Store.ListTransactions(c.Context(), 0)
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, err.Error())
	}
	pay, err := h.Store.ListPayments(c.Context(), 0)
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, err.Error())
	}

	var resp SummaryResponse
	months := map[string]bool{}
	for _, t := range tx {
		resp.TotalSpend += t.Amount
		if !t.TransDate.IsZero() {
			months[t.TransDate.Format("2006-01")] = true
		}
	}
	for _, p := range pay {
		resp.TotalPayments += p.Amount
	}
	resp.TxnCount = len(tx)
	resp.MonthsCovered = len(months)
	return c.JSON(resp)
}

func (h *Handler) HandleForecast(c *fiber.Ctx) error {
	if h.Store == nil {
		return writeError(c, fiber.StatusServiceUnavailable, "persistence is not configured")
	}
	months := c.QueryInt("months", 3)
	if months < 1 || months > 24 {
		return writeError(c, fiber.StatusBadRequest, "months must be between 1 and 24")
	}
	tx, err := h.Store.ListTransactions(c.Context(), 0)
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, err.Error())
	}
	points := analytics.Forecast(tx, months)
	if points == nil {
		points = []analytics.ForecastPoint{}
	}
	return c.JSON(fiber.Map{"success": true, "forecast": points})
}

func (h *Handler) HandleAnomalies(c *fiber.Ctx) error {
	if h.Store == nil {
		return writeError(c, fiber.StatusServiceUnavailable, "persistence is not configured")
	}
	rate, err := strconv.ParseFloat(c.Query("rate", "0.03"), 64)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "rate must be a number")
	}
	tx, err := h.Store.ListTransactions(c.Context(), 0)
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, err.Error())
	}
	rows := analytics.DetectAnomalies(tx, rate)
	if rows == nil {
		rows = []analytics.AnomalyRow{}
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"anomalies": rows,
		"kpis":      analytics.KPIs(rows, tx),
	})
}

// NewApp builds a fiber app with the routes registered.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 32 << 20,
		AppName:   "finance-intelligence",
	})
	h.Register(app)
	return app
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": msg})
}

// Fiber marshals nil slices to JSON null; clients expect [].
func nonNilTx(tx []models.TransactionRecord) []models.TransactionRecord {
	if tx == nil {
		return []models.TransactionRecord{}
	}
	return tx
}

func nonNilPay(pay []models.PaymentRecord) []models.PaymentRecord {
	if pay == nil {
		return []models.PaymentRecord{}
	}
	return pay
}
