package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"exam-prep-service/internal/app"
	"exam-prep-service/internal/identity"
)

// Identity headers set by the upstream auth proxy.
const (
	HeaderUID   = "X-User-Id"
	HeaderEmail = "X-User-Email"
)

// Deps are the use cases and settings the router serves.
type Deps struct {
	Questions *app.QuestionService
	Schedules *app.ScheduleService
	Admins    identity.AllowList
	// UploadsDir, when set, is served read-only under /uploads/.
	UploadsDir string
}

// NewRouter builds the admin API.
func NewRouter(deps Deps) http.Handler {
	h := &Handler{questions: deps.Questions, schedules: deps.Schedules, now: time.Now}
	ws := NewImportStreamHandler(deps.Questions)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if deps.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadsDir))))
	}

	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireAdmin(deps.Admins))

		r.Route("/mcqs", func(r chi.Router) {
			r.Get("/", h.listMCQs)
			r.Post("/", h.addMCQ)
			r.Post("/bulk", h.bulkImport(app.KindMCQ))
			r.Post("/bulk-file", h.bulkFile(app.KindMCQ))
			r.Post("/delete", h.deleteMCQs)
			r.Get("/{id}", h.getMCQ)
			r.Put("/{id}", h.updateMCQ)
			r.Delete("/{id}", h.deleteMCQ)
		})
		r.Route("/pyqs", func(r chi.Router) {
			r.Get("/", h.listPYQs)
			r.Post("/", h.addPYQ)
			r.Post("/bulk", h.bulkImport(app.KindPYQ))
			r.Post("/bulk-file", h.bulkFile(app.KindPYQ))
			r.Delete("/{id}", h.deletePYQ)
		})
		r.Post("/schedules/validate", h.validateSchedule)
		r.Post("/schedules/import", h.importSchedule)
		r.Post("/backfill", h.backfill)
		r.Get("/ws/import", ws.ServeWS)
	})
	return r
}

// RequireAdmin resolves the caller from the identity headers and rejects
// anyone who is not on the allow-list.
func RequireAdmin(admins identity.AllowList) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := admins.Resolve(r.Header.Get(HeaderUID), r.Header.Get(HeaderEmail))
			ctx := identity.WithIdentity(r.Context(), caller)
			if _, err := identity.RequireAdmin(ctx); err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
