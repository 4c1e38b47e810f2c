package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/cinesuite/internal/projectstore"
	"github.com/starford/cinesuite/internal/sse"
	"github.com/starford/cinesuite/internal/studio"
	"github.com/starford/cinesuite/internal/transfer"
)

// Deps are the services behind the API.
type Deps struct {
	Store    *projectstore.Store
	Transfer *transfer.Service
	Studio   *studio.Service
	Player   *Player
	// Events, if non-nil, is mounted at GET /events and receives playback events.
	Events *sse.Broker
}

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(d Deps, authEnabled bool, token string) chi.Router {
	h := NewHandler(d.Store, d.Transfer, d.Studio, d.Player, d.Events)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/projects", h.ListProjects)
	r.Post("/projects", h.CreateProject)
	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/", h.GetProject)
		r.Patch("/", h.UpdateProject)
		r.Delete("/", h.DeleteProject)
		r.Post("/current", h.SelectProject)
		r.Post("/import", h.ImportScene)
		r.Post("/scenes", h.AddScene)

		r.Route("/scenes/{sceneID}", func(r chi.Router) {
			r.Get("/", h.GetScene)
			r.Patch("/", h.UpdateScene)
			r.Delete("/", h.DeleteScene)
			r.Post("/duplicate", h.DuplicateScene)
			r.Post("/current", h.SelectScene)
			r.Post("/export", h.ExportScene)
			r.Get("/export", h.DownloadScene)
			r.Post("/generate", h.GenerateScene)
			r.Post("/enrich", h.EnrichScene)
			r.Post("/inline-assets", h.InlineAssets)
			r.Get("/assets", h.SceneAssets)
		})
	})

	r.Get("/current", h.Current)
	r.Patch("/current/scene", h.UpdateCurrentScene)

	r.Get("/templates", h.Templates)
	r.Post("/validate", h.ValidateDocument)
	r.Get("/search", h.Search)
	r.Get("/catalog", h.Catalog)

	r.Get("/playback", h.PlaybackState)
	r.Post("/playback/input", h.PlaybackInput)
	r.Post("/playback/commit", h.PlaybackCommit)
	r.Post("/playback/restart", h.PlaybackRestart)

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
