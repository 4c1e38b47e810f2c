package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/cinesuite/internal/apperr"
	"github.com/starford/cinesuite/internal/codec"
	"github.com/starford/cinesuite/internal/sse"
	"github.com/starford/cinesuite/internal/studio"
	"github.com/starford/cinesuite/internal/transfer"
)

const maxUploadBytes = 20 << 20

// ExportScene handles POST /api/projects/{projectID}/scenes/{sceneID}/export.
//
//	@Summary		Write a scene to a transfer file
//	@Tags			transfer
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ExportRequest	false	"Format"
//	@Success		200		{object}	ExportResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{projectID}/scenes/{sceneID}/export [post]
func (h *Handler) ExportScene(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	f := codec.Format(req.Format)
	if f == "" {
		f = codec.FormatJSON
	}
	name, err := h.xfer.Export(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "sceneID"), f)
	if err != nil {
		writeError(w, "export scene", err)
		return
	}
	writeJSON(w, http.StatusOK, ExportResponse{File: name})
}

// DownloadScene handles GET /api/projects/{projectID}/scenes/{sceneID}/export?format=.
// The transfer document is returned as an attachment instead of being stored.
func (h *Handler) DownloadScene(w http.ResponseWriter, r *http.Request) {
	f, err := codec.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	def, ok := h.store.Scene(chi.URLParam(r, "projectID"), chi.URLParam(r, "sceneID"))
	if !ok {
		notFound(w)
		return
	}
	name, data, err := transfer.Render(def, f)
	if err != nil {
		writeError(w, "download scene", err)
		return
	}
	ct := "application/json"
	if f == codec.FormatYAML {
		ct = "application/yaml"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// readDocument returns the transfer document of an import request, either
// the multipart "file" field or the raw body, and its format.
func readDocument(w http.ResponseWriter, r *http.Request) ([]byte, codec.Format, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	q := r.URL.Query().Get("format")

	var (
		data []byte
		name string
		err  error
	)
	if file, header, ferr := r.FormFile("file"); ferr == nil {
		defer file.Close()
		name = header.Filename
		data, err = io.ReadAll(file)
	} else if errors.Is(ferr, http.ErrNotMultipart) {
		data, err = io.ReadAll(r.Body)
	} else {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return nil, "", false
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return nil, "", false
	}

	f := codec.FormatJSON
	if q != "" {
		if f, err = codec.ParseFormat(q); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return nil, "", false
		}
	} else if byName, ok := codec.FormatFromName(name); ok {
		f = byName
	}
	return data, f, true
}

// ImportScene handles POST /api/projects/{projectID}/import.
//
//	@Summary		Import a transfer document into a project
//	@Tags			transfer
//	@Accept			json,mpfd
//	@Produce		json
//	@Param			projectID	path		string	true	"Project id"
//	@Param			format		query		string	false	"json or yaml"	Enums(json, yaml)
//	@Param			strict		query		bool	false	"Reject documents with shape issues"
//	@Success		201			{object}	transfer.ImportResult
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{projectID}/import [post]
func (h *Handler) ImportScene(w http.ResponseWriter, r *http.Request) {
	data, f, ok := readDocument(w, r)
	if !ok {
		return
	}
	strict, _ := strconv.ParseBool(r.URL.Query().Get("strict"))
	res, err := h.xfer.ImportData(r.Context(), chi.URLParam(r, "projectID"), data, transfer.ImportOptions{Strict: strict, Format: f})
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidScene) && len(res.Issues) > 0 {
			writeJSON(w, http.StatusUnprocessableEntity, errResponse{Error: err.Error(), Issues: res.Issues})
			return
		}
		writeError(w, "import scene", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ValidateDocument handles POST /api/validate. It runs the shape check
// without importing.
func (h *Handler) ValidateDocument(w http.ResponseWriter, r *http.Request) {
	data, f, ok := readDocument(w, r)
	if !ok {
		return
	}
	issues := transfer.Check(data, f)
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":  len(issues) == 0,
		"issues": issues,
	})
}

// GenerateScene handles POST /api/projects/{projectID}/scenes/{sceneID}/generate.
//
//	@Summary		Replace a scene's module with generated content
//	@Tags			generation
//	@Accept			json
//	@Produce		json
//	@Param			body	body		studio.GenerateOptions	true	"Prompt"
//	@Success		200		{object}	scene.SceneDefinition
//	@Failure		409		{object}	errResponse	"A newer request for the scene superseded this one"
//	@Failure		412		{object}	errResponse	"No credential"
//	@Failure		502		{object}	errResponse	"Unusable generator output"
//	@Security		BearerAuth
//	@Router			/projects/{projectID}/scenes/{sceneID}/generate [post]
func (h *Handler) GenerateScene(w http.ResponseWriter, r *http.Request) {
	var req studio.GenerateOptions
	if !decodeBody(w, r, &req) {
		return
	}
	def, err := h.studio.Generate(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "sceneID"), req)
	if err != nil {
		writeError(w, "generate scene", err)
		return
	}
	h.publish(sse.Event{Type: sse.TypeGenerate, Data: map[string]string{"sceneId": def.ID}})
	writeJSON(w, http.StatusOK, def)
}

// EnrichScene handles POST /api/projects/{projectID}/scenes/{sceneID}/enrich.
func (h *Handler) EnrichScene(w http.ResponseWriter, r *http.Request) {
	var req EnrichRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	def, added, err := h.studio.Enrich(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "sceneID"), req.Prompt)
	if err != nil {
		writeError(w, "enrich scene", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scene": def, "added": added})
}

// InlineAssets handles POST /api/projects/{projectID}/scenes/{sceneID}/inline-assets.
func (h *Handler) InlineAssets(w http.ResponseWriter, r *http.Request) {
	def, rep, err := h.studio.InlineAssets(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "sceneID"))
	if err != nil {
		writeError(w, "inline assets", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scene": def, "report": rep})
}

// SceneAssets handles GET /api/projects/{projectID}/scenes/{sceneID}/assets.
func (h *Handler) SceneAssets(w http.ResponseWriter, r *http.Request) {
	info, err := h.studio.Assets(chi.URLParam(r, "projectID"), chi.URLParam(r, "sceneID"))
	if err != nil {
		writeError(w, "scene assets", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across every scene
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.studio.Search(q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: hits})
}

// Catalog handles GET /api/catalog?kind=.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	rows, err := h.studio.List(r.URL.Query().Get("kind"))
	if err != nil {
		writeError(w, "catalog", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenes": rows})
}
