package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/cinesuite/internal/apperr"
	"github.com/starford/cinesuite/internal/normalize"
	"github.com/starford/cinesuite/internal/projectstore"
	"github.com/starford/cinesuite/internal/scene"
	"github.com/starford/cinesuite/internal/sse"
	"github.com/starford/cinesuite/internal/studio"
	"github.com/starford/cinesuite/internal/transfer"
)

// Handler holds API route handlers.
type Handler struct {
	store  *projectstore.Store
	xfer   *transfer.Service
	studio *studio.Service
	player *Player
	events *sse.Broker
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(store *projectstore.Store, xfer *transfer.Service, st *studio.Service, player *Player, events *sse.Broker) *Handler {
	return &Handler{store: store, xfer: xfer, studio: st, player: player, events: events}
}

func (h *Handler) publish(e sse.Event) {
	if h.events != nil {
		h.events.Publish(e)
	}
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, errorBody("not found"))
}

// ListProjects handles GET /api/projects.
//
//	@Summary		List projects with their scenes
//	@Tags			projects
//	@Produce		json
//	@Success		200	{array}	scene.Project
//	@Security		BearerAuth
//	@Router			/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Projects())
}

// CreateProject handles POST /api/projects.
//
//	@Summary		Create a project and make it current
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateProjectRequest	true	"Project to create"
//	@Success		201		{object}	scene.Project
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects [post]
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.store.CreateProject(r.Context(), req.Name, req.Description)
	if err != nil {
		writeError(w, "create project", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetProject handles GET /api/projects/{projectID}.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.store.Project(chi.URLParam(r, "projectID"))
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateProject handles PATCH /api/projects/{projectID}.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req UpdateProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "projectID")
	ok, err := h.store.UpdateProject(r.Context(), id, projectstore.ProjectPatch{
		Name:        req.Name,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
	})
	if err != nil {
		writeError(w, "update project", err)
		return
	}
	if !ok {
		notFound(w)
		return
	}
	p, _ := h.store.Project(id)
	writeJSON(w, http.StatusOK, p)
}

// DeleteProject handles DELETE /api/projects/{projectID}.
//
//	@Summary		Delete a project and all its scenes
//	@Tags			projects
//	@Param			projectID	path	string	true	"Project id"
//	@Success		204			"Project deleted"
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{projectID} [delete]
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	ok, err := h.store.DeleteProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, "delete project", err)
		return
	}
	if !ok {
		notFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectProject handles POST /api/projects/{projectID}/current.
func (h *Handler) SelectProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	if _, ok := h.store.Project(id); !ok {
		notFound(w)
		return
	}
	if _, err := h.store.SetCurrentProject(r.Context(), id); err != nil {
		writeError(w, "select project", err)
		return
	}
	h.Current(w, r)
}

// AddScene handles POST /api/projects/{projectID}/scenes.
//
//	@Summary		Add a scene from a template, a kind, or a full document
//	@Tags			scenes
//	@Accept			json
//	@Produce		json
//	@Param			projectID	path		string			true	"Project id"
//	@Param			body		body		AddSceneRequest	true	"Scene source"
//	@Success		201			{object}	scene.SceneDefinition
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{projectID}/scenes [post]
func (h *Handler) AddScene(w http.ResponseWriter, r *http.Request) {
	var req AddSceneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pid := chi.URLParam(r, "projectID")

	var (
		def scene.SceneDefinition
		ok  bool
		err error
	)
	switch {
	case req.Template != "":
		def, err = h.studio.AddFromTemplate(r.Context(), pid, req.Template)
		ok = err == nil
	case req.Kind != "":
		name := req.Name
		if name == "" {
			name = "New " + req.Kind + " scene"
		}
		def, ok, err = h.store.NewScene(r.Context(), pid, name, scene.DefaultModule(scene.Kind(req.Kind)))
	default:
		var res transfer.ImportResult
		res, err = h.xfer.ImportData(r.Context(), pid, req.Scene, transfer.ImportOptions{})
		def, ok = res.Scene, err == nil
	}
	if err != nil {
		writeError(w, "add scene", err)
		return
	}
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

// GetScene handles GET /api/projects/{projectID}/scenes/{sceneID}.
func (h *Handler) GetScene(w http.ResponseWriter, r *http.Request) {
	def, ok := h.store.Scene(chi.URLParam(r, "projectID"), chi.URLParam(r, "sceneID"))
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// scenePatch turns an update request into a store patch. A module document
// is normalized; a bare triggerText is applied to the existing module.
func scenePatch(req UpdateSceneRequest, current scene.Module) (projectstore.ScenePatch, error) {
	patch := projectstore.ScenePatch{Meta: req.Meta, GlobalSettings: req.GlobalSettings}
	if req.Module != nil {
		tag, _ := req.Module["type"].(string)
		kind, err := scene.ParseKind(tag)
		if err != nil {
			return patch, err
		}
		patch.Module = normalize.Module(kind, req.Module)
	}
	if req.TriggerText != nil {
		base := patch.Module
		if base == nil {
			base = current
		}
		if base != nil {
			patch.Module = scene.WithTrigger(base, *req.TriggerText)
		}
	}
	if patch.GlobalSettings != nil {
		gs := *patch.GlobalSettings
		gs.ZoomLevel = normalize.ZoomFactor(gs.ZoomLevel)
		patch.GlobalSettings = &gs
	}
	return patch, nil
}

// UpdateScene handles PATCH /api/projects/{projectID}/scenes/{sceneID}.
//
//	@Summary		Merge fields into a scene
//	@Tags			scenes
//	@Accept			json
//	@Produce		json
//	@Param			projectID	path		string				true	"Project id"
//	@Param			sceneID		path		string				true	"Scene id"
//	@Param			body		body		UpdateSceneRequest	true	"Fields to merge"
//	@Success		200			{object}	scene.SceneDefinition
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{projectID}/scenes/{sceneID} [patch]
func (h *Handler) UpdateScene(w http.ResponseWriter, r *http.Request) {
	var req UpdateSceneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pid, sid := chi.URLParam(r, "projectID"), chi.URLParam(r, "sceneID")
	cur, ok := h.store.Scene(pid, sid)
	if !ok {
		notFound(w)
		return
	}
	patch, err := scenePatch(req, cur.Module)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if _, err := h.store.UpdateScene(r.Context(), pid, sid, patch); err != nil {
		writeError(w, "update scene", err)
		return
	}
	def, _ := h.store.Scene(pid, sid)
	writeJSON(w, http.StatusOK, def)
}

// DeleteScene handles DELETE /api/projects/{projectID}/scenes/{sceneID}.
func (h *Handler) DeleteScene(w http.ResponseWriter, r *http.Request) {
	ok, err := h.store.DeleteScene(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "sceneID"))
	if err != nil {
		writeError(w, "delete scene", err)
		return
	}
	if !ok {
		notFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateScene handles POST /api/projects/{projectID}/scenes/{sceneID}/duplicate.
func (h *Handler) DuplicateScene(w http.ResponseWriter, r *http.Request) {
	def, ok, err := h.store.DuplicateScene(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "sceneID"))
	if err != nil {
		writeError(w, "duplicate scene", err)
		return
	}
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

// SelectScene handles POST /api/projects/{projectID}/scenes/{sceneID}/current.
func (h *Handler) SelectScene(w http.ResponseWriter, r *http.Request) {
	pid, sid := chi.URLParam(r, "projectID"), chi.URLParam(r, "sceneID")
	if _, ok := h.store.Scene(pid, sid); !ok {
		notFound(w)
		return
	}
	if _, err := h.store.SetCurrentScene(r.Context(), pid, sid); err != nil {
		writeError(w, "select scene", err)
		return
	}
	h.Current(w, r)
}

// CurrentResponse is the current selection.
type CurrentResponse struct {
	Project *scene.Project         `json:"project"`
	Scene   *scene.SceneDefinition `json:"scene"`
}

// Current handles GET /api/current.
//
//	@Summary		Get the current project and scene
//	@Tags			projects
//	@Produce		json
//	@Success		200	{object}	CurrentResponse
//	@Security		BearerAuth
//	@Router			/current [get]
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	var resp CurrentResponse
	if p, ok := h.store.CurrentProject(); ok {
		resp.Project = &p
	}
	if s, ok := h.store.CurrentScene(); ok {
		resp.Scene = &s
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateCurrentScene handles PATCH /api/current/scene.
func (h *Handler) UpdateCurrentScene(w http.ResponseWriter, r *http.Request) {
	var req UpdateSceneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cur, ok := h.store.CurrentScene()
	if !ok {
		notFound(w)
		return
	}
	patch, err := scenePatch(req, cur.Module)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if _, err := h.store.UpdateCurrentScene(r.Context(), patch); err != nil {
		writeError(w, "update current scene", err)
		return
	}
	def, ok := h.store.CurrentScene()
	if !ok {
		writeError(w, "update current scene", apperr.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// Templates handles GET /api/templates.
func (h *Handler) Templates(w http.ResponseWriter, r *http.Request) {
	type item struct {
		ID          string     `json:"id"`
		Name        string     `json:"name"`
		Description string     `json:"description"`
		Kind        scene.Kind `json:"kind"`
	}
	tpls := scene.Templates()
	out := make([]item, len(tpls))
	for i, t := range tpls {
		out[i] = item{ID: t.ID, Name: t.Name, Description: t.Description, Kind: t.Kind()}
	}
	writeJSON(w, http.StatusOK, out)
}
