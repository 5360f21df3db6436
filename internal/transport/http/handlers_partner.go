package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"syncvault/internal/partner"
	"syncvault/pkg/domain"
	"syncvault/pkg/platform/httputil"
	"syncvault/pkg/requestcontext"
)

// PartnerService defines the partner registry operations exposed over HTTP.
type PartnerService interface {
	Link(ctx context.Context, caller, partner domain.Identity) (*partner.LinkResult, error)
	IsSynced(ctx context.Context, user domain.Identity) (bool, error)
	GetPartner(ctx context.Context, user domain.Identity) (domain.Identity, bool, error)
}

// PartnerHandler serves /partner.
type PartnerHandler struct {
	service PartnerService
	logger  *slog.Logger
}

func NewPartnerHandler(service PartnerService, logger *slog.Logger) *PartnerHandler {
	return &PartnerHandler{service: service, logger: logger}
}

// Register mounts partner endpoints. Writes go through requireAuth.
func (h *PartnerHandler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.With(requireAuth).Post("/partner/link", h.HandleLink)
	r.Get("/partner/{identity}", h.HandleGetPartner)
}

// HandleLink handles POST /partner/link.
func (h *PartnerHandler) HandleLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LinkRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Link(ctx, requestcontext.Caller(ctx), req.partner)
	if err != nil {
		h.logger.WarnContext(ctx, "partner link failed",
			"request_id", requestID,
			"partner", req.partner,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// PartnerResponse is the body of GET /partner/{identity}.
type PartnerResponse struct {
	Identity domain.Identity `json:"identity"`
	Partner  domain.Identity `json:"partner,omitempty"`
	Linked   bool            `json:"linked"`
	Synced   bool            `json:"synced"`
}

// HandleGetPartner handles GET /partner/{identity}.
func (h *PartnerHandler) HandleGetPartner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := domain.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	linked, found, err := h.service.GetPartner(ctx, user)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	synced, err := h.service.IsSynced(ctx, user)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PartnerResponse{
		Identity: user,
		Partner:  linked,
		Linked:   found,
		Synced:   synced,
	})
}
