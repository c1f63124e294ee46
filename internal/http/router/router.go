package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/classtrack/attendance-service/internal/domain"
	"github.com/classtrack/attendance-service/internal/health"
	"github.com/classtrack/attendance-service/internal/http/handler"
	"github.com/classtrack/attendance-service/internal/http/middleware"
	"github.com/classtrack/attendance-service/internal/http/response"
	"github.com/classtrack/attendance-service/internal/security"
)

type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	UserHandler       *handler.UserHandler
	SessionHandler    *handler.SessionHandler
	AttendanceHandler *handler.AttendanceHandler
	CourseHandler     *handler.CourseHandler
	JWTManager        *security.JWTManager
	CORSOrigins       []string
	AuthRateLimitRPM  int
	ScanRateLimitRPM  int
	APIRateLimitRPM   int
	GlobalRateLimiter func(http.Handler) http.Handler
	AuthRateLimiter   func(http.Handler) http.Handler
	ScanRateLimiter   func(http.Handler) http.Handler
	Readiness         *health.ProbeRunner
	EnableOTelHTTP    bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware())
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute).Middleware()
	}
	scanLimiter := dep.ScanRateLimiter
	if scanLimiter == nil {
		scanLimiter = middleware.NewRateLimiter(dep.ScanRateLimitRPM, time.Minute).Middleware()
	}

	auth := middleware.AuthMiddleware(dep.JWTManager)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
			r.With(authLimiter).Post("/refresh", dep.AuthHandler.Refresh)
			r.With(authLimiter).Post("/password/forgot", dep.AuthHandler.ForgotPassword)
			r.With(authLimiter).Post("/password/reset", dep.AuthHandler.ResetPassword)
			r.With(auth, authLimiter).Post("/password/change", dep.AuthHandler.ChangePassword)
		})

		r.With(auth).Get("/me", dep.UserHandler.Me)

		r.Route("/users", func(r chi.Router) {
			r.Use(auth)
			r.With(middleware.RequireRole(domain.RoleAdmin)).Post("/", dep.UserHandler.Create)
			r.With(middleware.RequireRole(domain.RoleLecturer, domain.RoleAdmin)).Get("/mat/{mat_number}", dep.UserHandler.ByMatNumber)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Use(auth)
			r.With(middleware.RequireRole(domain.RoleLecturer, domain.RoleAdmin)).Post("/", dep.SessionHandler.Create)
			r.With(middleware.RequireRole(domain.RoleLecturer, domain.RoleAdmin)).Get("/{session_id}/qr.png", dep.SessionHandler.QRImage)
			r.With(middleware.RequireRole(domain.RoleLecturer, domain.RoleAdmin)).Get("/{session_id}/attendance", dep.AttendanceHandler.SessionRoster)
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Use(auth)
			r.With(middleware.RequireRole(domain.RoleStudent), scanLimiter).Post("/scan", dep.AttendanceHandler.Scan)
			r.With(middleware.RequireRole(domain.RoleStudent)).Get("/me/{course_code}", dep.AttendanceHandler.MySummary)
			r.With(middleware.RequireRole(domain.RoleLecturer, domain.RoleAdmin)).Get("/{course_code}/all", dep.AttendanceHandler.CourseHistory)
		})

		r.With(auth).Get("/courses/{course_code}", dep.CourseHandler.ByCode)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
