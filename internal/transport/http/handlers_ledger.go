package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"syncvault/internal/ledger"
	"syncvault/pkg/domain"
	"syncvault/pkg/platform/httputil"
	"syncvault/pkg/requestcontext"
)

// LedgerService defines the ledger operations exposed over HTTP.
type LedgerService interface {
	Metadata() ledger.Metadata
	Mint(ctx context.Context, to domain.Identity, amount domain.Amount) error
	Transfer(ctx context.Context, from, to domain.Identity, amount domain.Amount) error
	Balance(ctx context.Context, who domain.Identity) (domain.Amount, error)
	TotalSupply(ctx context.Context) (domain.Amount, error)
}

// LedgerHandler serves /ledger.
type LedgerHandler struct {
	service LedgerService
	logger  *slog.Logger
}

func NewLedgerHandler(service LedgerService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{service: service, logger: logger}
}

func (h *LedgerHandler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/ledger/metadata", h.HandleMetadata)
	r.Get("/ledger/supply", h.HandleSupply)
	r.Get("/ledger/balance/{identity}", h.HandleBalance)
	r.With(requireAuth).Post("/ledger/mint", h.HandleMint)
	r.With(requireAuth).Post("/ledger/transfer", h.HandleTransfer)
}

// BalanceResponse is the body of GET /ledger/balance/{identity}.
type BalanceResponse struct {
	Identity domain.Identity `json:"identity"`
	Balance  domain.Amount   `json:"balance"`
}

// SupplyResponse is the body of GET /ledger/supply.
type SupplyResponse struct {
	TotalSupply domain.Amount `json:"total_supply"`
}

func (h *LedgerHandler) HandleMetadata(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Metadata())
}

func (h *LedgerHandler) HandleSupply(w http.ResponseWriter, r *http.Request) {
	supply, err := h.service.TotalSupply(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SupplyResponse{TotalSupply: supply})
}

func (h *LedgerHandler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	who, err := domain.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	balance, err := h.service.Balance(r.Context(), who)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Identity: who, Balance: balance})
}

// HandleMint handles POST /ledger/mint. Only the issuer succeeds.
func (h *LedgerHandler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[MintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.Mint(ctx, req.to, req.Amount); err != nil {
		h.logger.WarnContext(ctx, "mint failed",
			"request_id", requestID,
			"to", req.to,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTransfer handles POST /ledger/transfer from the caller's balance.
func (h *LedgerHandler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.Transfer(ctx, requestcontext.Caller(ctx), req.to, req.Amount); err != nil {
		h.logger.WarnContext(ctx, "transfer failed",
			"request_id", requestID,
			"to", req.to,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
