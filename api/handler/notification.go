package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/studytracker/api/transport"
	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/pkg/httpcontext"
	"github.com/fastygo/studytracker/repository"
)

// NotificationRunner executes one notification run.
type NotificationRunner interface {
	RunNotifications(ctx context.Context, reference *domain.Date) (domain.RunSummary, error)
}

type NotificationHandler struct {
	baseHandler
	runner     NotificationRunner
	history    repository.RunSummaryRepository
	runTimeout time.Duration
}

func NewNotificationHandler(runner NotificationRunner, history repository.RunSummaryRepository, runTimeout time.Duration, adapter *httpcontext.Adapter, logger *zap.Logger) *NotificationHandler {
	if runTimeout <= 0 {
		runTimeout = 10 * time.Minute
	}
	return &NotificationHandler{
		baseHandler: newBaseHandler(adapter, logger),
		runner:      runner,
		history:     history,
		runTimeout:  runTimeout,
	}
}

// @Summary Run due-tomorrow reminders now
// @Tags notifications
// @Accept json
// @Produce json
// @Security OperatorToken
// @Router /api/v1/notifications/run [post]
func (h *NotificationHandler) Run(ctx *fasthttp.RequestCtx) {
	if !h.operator(ctx) {
		return
	}

	var req transport.RunRequest
	if len(ctx.PostBody()) > 0 && !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var reference *domain.Date
	if req.Date != "" {
		d, err := domain.ParseDate(req.Date)
		if err != nil {
			h.respondError(ctx, stdCtx, err)
			return
		}
		reference = &d
	}

	// The run outlives the request deadline but keeps its logging metadata.
	runCtx, runCancel := context.WithTimeout(context.WithoutCancel(stdCtx), h.runTimeout)
	defer runCancel()

	summary, err := h.runner.RunNotifications(runCtx, reference)
	if err != nil {
		status, code := mapError(err)
		h.respondJSON(ctx, status, transport.NewError(code, err.Error(), summary))
		return
	}
	h.respondSuccess(ctx, http.StatusOK, summary)
}

// @Summary Latest notification run summary
// @Tags notifications
// @Security OperatorToken
// @Router /api/v1/notifications/runs/latest [get]
func (h *NotificationHandler) Latest(ctx *fasthttp.RequestCtx) {
	if !h.operator(ctx) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if h.history == nil {
		h.respondError(ctx, stdCtx, domain.ErrRunNotFound)
		return
	}
	summary, err := h.history.Latest(stdCtx)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, summary)
}
