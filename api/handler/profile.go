package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/studytracker/api/transport"
	"github.com/fastygo/studytracker/pkg/httpcontext"
	appLogger "github.com/fastygo/studytracker/pkg/logger"
	profileUC "github.com/fastygo/studytracker/usecase/profile"
)

// SessionRevoker ends the sessions of a deleted profile.
type SessionRevoker interface {
	RevokeUserSessions(ctx context.Context, userID string) error
}

type ProfileHandler struct {
	baseHandler
	uc       *profileUC.UseCase
	sessions SessionRevoker
}

func NewProfileHandler(uc *profileUC.UseCase, sessions SessionRevoker, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		sessions:    sessions,
	}
}

// @Summary Register a user
// @Tags profile
// @Accept json
// @Produce json
// @Success 201 {object} transport.Envelope
// @Router /api/v1/users [post]
func (h *ProfileHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Register(stdCtx, req.Username, req.Email, req.NotificationsEnabled)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, user)
}

// @Summary Get profile
// @Tags profile
// @Success 200 {object} transport.Envelope
// @Router /api/v1/profile [get]
func (h *ProfileHandler) GetProfile(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.GetProfile(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Update profile
// @Tags profile
// @Accept json
// @Produce json
// @Router /api/v1/profile [put]
func (h *ProfileHandler) UpdateProfile(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.ProfileUpdateRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.UpdateProfile(stdCtx, userID, profileUC.Update{
		Email:                req.Email,
		NotificationsEnabled: req.NotificationsEnabled,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Delete profile with all courses and tasks
// @Tags profile
// @Router /api/v1/profile [delete]
func (h *ProfileHandler) DeleteProfile(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteProfile(stdCtx, userID); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	if h.sessions != nil {
		if err := h.sessions.RevokeUserSessions(stdCtx, userID); err != nil {
			appLogger.FromContext(stdCtx, h.logger).Warn("session revoke failed", zap.Error(err))
		}
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}
