package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/studytracker/api/handler"
)

type Handlers struct {
	Auth         *apiHandler.AuthHandler
	Profile      *apiHandler.ProfileHandler
	Course       *apiHandler.CourseHandler
	Task         *apiHandler.TaskHandler
	Notification *apiHandler.NotificationHandler
	Health       *apiHandler.HealthHandler
}

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// New registers the API. User routes sit behind authMiddleware; run control and run
// history cover every user and sit behind operatorMiddleware instead.
func New(handlers Handlers, authMiddleware, operatorMiddleware Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Public routes
	r.POST("/api/v1/users", handlers.Profile.Register)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)

	// Protected routes
	r.POST("/api/v1/auth/refresh", authMiddleware(handlers.Auth.Refresh))
	r.POST("/api/v1/auth/logout", authMiddleware(handlers.Auth.Logout))

	r.GET("/api/v1/profile", authMiddleware(handlers.Profile.GetProfile))
	r.PUT("/api/v1/profile", authMiddleware(handlers.Profile.UpdateProfile))
	r.DELETE("/api/v1/profile", authMiddleware(handlers.Profile.DeleteProfile))

	r.GET("/api/v1/courses", authMiddleware(handlers.Course.GetCourses))
	r.POST("/api/v1/courses", authMiddleware(handlers.Course.CreateCourse))
	r.DELETE("/api/v1/courses/{id}", authMiddleware(handlers.Course.DeleteCourse))

	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.PUT("/api/v1/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))

	// Operator routes
	r.POST("/api/v1/notifications/run", operatorMiddleware(handlers.Notification.Run))
	r.GET("/api/v1/notifications/runs/latest", operatorMiddleware(handlers.Notification.Latest))

	return r
}
