package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/studytracker/api/transport"
	"github.com/fastygo/studytracker/pkg/httpcontext"
	courseUC "github.com/fastygo/studytracker/usecase/course"
)

type CourseHandler struct {
	baseHandler
	uc *courseUC.UseCase
}

func NewCourseHandler(uc *courseUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List courses
// @Tags courses
// @Router /api/v1/courses [get]
func (h *CourseHandler) GetCourses(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	courses, err := h.uc.ListCourses(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, courses)
}

// @Summary Create course
// @Tags courses
// @Router /api/v1/courses [post]
func (h *CourseHandler) CreateCourse(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.CourseRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	course, err := h.uc.CreateCourse(stdCtx, userID, req.Name)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, course)
}

// @Summary Delete course and its tasks
// @Tags courses
// @Router /api/v1/courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	id := pathParam(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing course id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteCourse(stdCtx, userID, id); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}
