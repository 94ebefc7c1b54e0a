package handlers

import (
	"net/http"

	"github.com/ndewijer/stock-tracker/internal/api/middleware"
	"github.com/ndewijer/stock-tracker/internal/api/request"
	"github.com/ndewijer/stock-tracker/internal/api/response"
	"github.com/ndewijer/stock-tracker/internal/apperrors"
	"github.com/ndewijer/stock-tracker/internal/service"
	"github.com/ndewijer/stock-tracker/internal/validation"
)

// PortfolioHandler handles the portfolio endpoints of the signed-in user.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	tradeService     *service.TradeService
	exportService    *service.ExportService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(
	portfolioService *service.PortfolioService,
	tradeService *service.TradeService,
	exportService *service.ExportService,
) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		tradeService:     tradeService,
		exportService:    exportService,
	}
}

// Dashboard handles GET requests for the portfolio overview: the valuation at
// current prices, the trade history and recent news per held symbol.
// Symbols that cannot be priced are listed with priceAvailable=false.
//
// Endpoint: GET /api/portfolio
// Response: 200 OK with model.Dashboard
func (h *PortfolioHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	username := middleware.Username(r.Context())

	response.RespondJSON(w, http.StatusOK, h.portfolioService.Dashboard(r.Context(), username))
}

// Trade handles POST requests to buy or sell shares.
//
// Endpoint: POST /api/portfolio/trade
// Request Body: TradeRequest (action, symbol, qty, price)
// Response: 201 Created with the recorded model.Transaction
// Error: 400 Bad Request if validation fails, the symbol is unknown or the
// user holds too few shares
// Error: 500 Internal Server Error if the ledger cannot be read or saved
func (h *PortfolioHandler) Trade(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.TradeRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateTrade(req); err != nil {
		respondServiceError(w, err, apperrors.ErrInvalidInput)
		return
	}

	tx, err := h.tradeService.Execute(r.Context(), middleware.Username(r.Context()), req)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToExecuteTrade)
		return
	}

	response.RespondJSON(w, http.StatusCreated, tx)
}

// Export handles GET requests to download holdings and history.
//
// Endpoint: GET /api/portfolio/export?format=csv|xlsx
// Response: 200 OK with the file as attachment
// Error: 400 Bad Request on an unknown format
// Error: 500 Internal Server Error if the ledger cannot be read
func (h *PortfolioHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := request.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid format", err.Error())
		return
	}

	export, err := h.exportService.Export(r.Context(), middleware.Username(r.Context()), format)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToExport)
		return
	}

	response.RespondAttachment(w, export.Filename, export.ContentType, export.Body)
}

// Wipe handles DELETE requests that clear all holdings and history.
//
// Endpoint: DELETE /api/portfolio
// Response: 204 No Content
// Error: 500 Internal Server Error if the ledger cannot be saved
func (h *PortfolioHandler) Wipe(w http.ResponseWriter, r *http.Request) {
	if err := h.tradeService.Wipe(r.Context(), middleware.Username(r.Context())); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToWipe)
		return
	}

	response.RespondNoContent(w)
}
