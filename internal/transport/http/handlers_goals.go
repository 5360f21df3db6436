package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"syncvault/internal/escrow/dual"
	"syncvault/internal/escrow/open"
	"syncvault/pkg/domain"
	dErrors "syncvault/pkg/domain-errors"
	"syncvault/pkg/platform/httputil"
	"syncvault/pkg/requestcontext"
)

// SimpleEscrow defines the per-user completion escrow operations.
type SimpleEscrow interface {
	CompleteGoal(ctx context.Context, user domain.Identity, goalID uint32, reward domain.Amount) error
	IsGoalComplete(ctx context.Context, user domain.Identity, goalID uint32) (bool, error)
}

// DualEscrow defines the dual-approval escrow operations.
type DualEscrow interface {
	CreateGoal(ctx context.Context, req dual.CreateGoalRequest) (*dual.Goal, error)
	ApproveGoal(ctx context.Context, approver domain.Identity, goalID uint64) (*dual.ApprovalResult, error)
	GetGoal(ctx context.Context, goalID uint64) (*dual.Goal, error)
	IsApprovedBy(ctx context.Context, goalID uint64, who domain.Identity) (bool, error)
}

// OpenEscrow defines the open-creation escrow operations.
type OpenEscrow interface {
	CreateGoal(ctx context.Context, creator domain.Identity, title string, target domain.Amount) (uint64, error)
	ApproveGoal(ctx context.Context, goalID uint64, approver domain.Identity) error
	GetGoal(ctx context.Context, goalID uint64) (*open.Goal, bool, error)
}

func goalIDParam(r *http.Request, bits int) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "goalID"), 10, bits)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "goal id must be a non-negative integer")
	}
	return id, nil
}

// SimpleGoalHandler serves /goals for the per-user completion escrow.
type SimpleGoalHandler struct {
	service SimpleEscrow
	logger  *slog.Logger
}

func NewSimpleGoalHandler(service SimpleEscrow, logger *slog.Logger) *SimpleGoalHandler {
	return &SimpleGoalHandler{service: service, logger: logger}
}

func (h *SimpleGoalHandler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.With(requireAuth).Post("/goals/{goalID}/complete", h.HandleComplete)
	r.Get("/goals/{goalID}/complete/{identity}", h.HandleIsComplete)
}

// CompletionResponse reports a per-user completion flag.
type CompletionResponse struct {
	GoalID   uint64          `json:"goal_id"`
	Identity domain.Identity `json:"identity"`
	Complete bool            `json:"complete"`
}

func (h *SimpleGoalHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	goalID, err := goalIDParam(r, 32)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CompleteGoalRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	caller := requestcontext.Caller(ctx)
	if err := h.service.CompleteGoal(ctx, caller, uint32(goalID), req.Reward); err != nil {
		h.logger.WarnContext(ctx, "goal completion failed",
			"request_id", requestID,
			"goal_id", goalID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CompletionResponse{GoalID: goalID, Identity: caller, Complete: true})
}

func (h *SimpleGoalHandler) HandleIsComplete(w http.ResponseWriter, r *http.Request) {
	goalID, err := goalIDParam(r, 32)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	who, err := domain.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	done, err := h.service.IsGoalComplete(r.Context(), who, uint32(goalID))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CompletionResponse{GoalID: goalID, Identity: who, Complete: done})
}

// DualGoalHandler serves /goals for the dual-approval escrow.
type DualGoalHandler struct {
	service DualEscrow
	logger  *slog.Logger
}

func NewDualGoalHandler(service DualEscrow, logger *slog.Logger) *DualGoalHandler {
	return &DualGoalHandler{service: service, logger: logger}
}

func (h *DualGoalHandler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.With(requireAuth).Post("/goals", h.HandleCreate)
	r.With(requireAuth).Post("/goals/{goalID}/approve", h.HandleApprove)
	r.Get("/goals/{goalID}", h.HandleGet)
	r.Get("/goals/{goalID}/approvals/{identity}", h.HandleIsApprovedBy)
}

func (h *DualGoalHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateDualGoalRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	goal, err := h.service.CreateGoal(ctx, dual.CreateGoalRequest{
		ID:       req.ID,
		PartnerA: requestcontext.Caller(ctx),
		PartnerB: req.partnerB,
		Reward:   req.Reward,
		UnlockAt: req.UnlockAt,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "goal creation failed",
			"request_id", requestID,
			"goal_id", req.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, goal)
}

func (h *DualGoalHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	goalID, err := goalIDParam(r, 64)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.ApproveGoal(ctx, requestcontext.Caller(ctx), goalID)
	if err != nil {
		h.logger.WarnContext(ctx, "goal approval failed",
			"request_id", requestcontext.RequestID(ctx),
			"goal_id", goalID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *DualGoalHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	goalID, err := goalIDParam(r, 64)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	goal, err := h.service.GetGoal(r.Context(), goalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, goal)
}

// ApprovalResponse reports one partner's approval flag.
type ApprovalResponse struct {
	GoalID   uint64          `json:"goal_id"`
	Identity domain.Identity `json:"identity"`
	Approved bool            `json:"approved"`
}

func (h *DualGoalHandler) HandleIsApprovedBy(w http.ResponseWriter, r *http.Request) {
	goalID, err := goalIDParam(r, 64)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	who, err := domain.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	approved, err := h.service.IsApprovedBy(r.Context(), goalID, who)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ApprovalResponse{GoalID: goalID, Identity: who, Approved: approved})
}

// OpenGoalHandler serves /goals for the open-creation escrow.
type OpenGoalHandler struct {
	service OpenEscrow
	logger  *slog.Logger
}

func NewOpenGoalHandler(service OpenEscrow, logger *slog.Logger) *OpenGoalHandler {
	return &OpenGoalHandler{service: service, logger: logger}
}

func (h *OpenGoalHandler) Register(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.With(requireAuth).Post("/goals", h.HandleCreate)
	r.With(requireAuth).Post("/goals/{goalID}/approve", h.HandleApprove)
	r.Get("/goals/{goalID}", h.HandleGet)
}

// CreatedGoalResponse returns an allocated goal id.
type CreatedGoalResponse struct {
	GoalID uint64 `json:"goal_id"`
}

func (h *OpenGoalHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateOpenGoalRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	id, err := h.service.CreateGoal(ctx, requestcontext.Caller(ctx), req.Title, req.Target)
	if err != nil {
		h.logger.WarnContext(ctx, "goal creation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreatedGoalResponse{GoalID: id})
}

func (h *OpenGoalHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	goalID, err := goalIDParam(r, 64)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.ApproveGoal(ctx, goalID, requestcontext.Caller(ctx)); err != nil {
		h.logger.WarnContext(ctx, "goal approval failed",
			"request_id", requestcontext.RequestID(ctx),
			"goal_id", goalID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OpenGoalHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	goalID, err := goalIDParam(r, 64)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	goal, found, err := h.service.GetGoal(r.Context(), goalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !found {
		httputil.WriteError(w, dErrors.New(dErrors.CodeGoalNotFound, "goal not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, goal)
}
