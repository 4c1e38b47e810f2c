// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes cinesuite tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/cinesuite/internal/codec"
	"github.com/starford/cinesuite/internal/projectstore"
	"github.com/starford/cinesuite/internal/studio"
	"github.com/starford/cinesuite/internal/transfer"
)

const formatURI = "cinesuite://scene-format"

// Server wraps the MCP server with cinesuite tools.
type Server struct {
	mcp    *server.MCPServer
	store  *projectstore.Store
	xfer   *transfer.Service
	studio *studio.Service
}

// New creates a new MCP server with all cinesuite tools registered.
func New(store *projectstore.Store, xfer *transfer.Service, st *studio.Service) *Server {
	s := &Server{store: store, xfer: xfer, studio: st}

	s.mcp = server.NewMCPServer(
		"cinesuite",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List projects with the id, name and kind of each scene."),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("get_current_scene",
		mcp.WithDescription("Return the scene currently selected for playback as a transfer document."),
	), s.getCurrentScene)

	s.mcp.AddTool(mcp.NewTool("get_scene",
		mcp.WithDescription("Return one scene as a transfer document."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id")),
		mcp.WithString("scene_id", mcp.Required(), mcp.Description("Scene id")),
		mcp.WithString("format", mcp.Description("json (default) or yaml")),
	), s.getScene)

	s.mcp.AddTool(mcp.NewTool("create_scene",
		mcp.WithDescription("Add a scene to a project from a transfer document. "+
			"Content MUST follow the scene format contract. Read it first via "+
			"the get_scene_contract tool or the "+formatURI+" resource."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Transfer document")),
		mcp.WithString("project_id", mcp.Description("Target project (defaults to the current one)")),
		mcp.WithString("format", mcp.Description("json (default) or yaml")),
		mcp.WithBoolean("strict", mcp.Description("Refuse documents with shape issues")),
	), s.createScene)

	s.mcp.AddTool(mcp.NewTool("validate_scene",
		mcp.WithDescription("Run the shape check on a transfer document without importing it."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Transfer document")),
		mcp.WithString("format", mcp.Description("json (default) or yaml")),
	), s.validateScene)

	s.mcp.AddTool(mcp.NewTool("export_scene",
		mcp.WithDescription("Write a scene to the transfer directory and return the file name."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id")),
		mcp.WithString("scene_id", mcp.Required(), mcp.Description("Scene id")),
		mcp.WithString("format", mcp.Description("json (default) or yaml")),
	), s.exportScene)

	s.mcp.AddTool(mcp.NewTool("search_scenes",
		mcp.WithDescription("Full-text search through scene names, triggers and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchScenes)

	s.mcp.AddTool(mcp.NewTool("inline_assets",
		mcp.WithDescription("Replace every image reference of a scene by an embedded data URI "+
			"so the scene plays offline. References that cannot be fetched are kept and reported."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project id")),
		mcp.WithString("scene_id", mcp.Required(), mcp.Description("Scene id")),
	), s.inlineAssets)

	s.mcp.AddTool(mcp.NewTool("get_scene_contract",
		mcp.WithDescription("Returns the scene format contract. "+
			"Call this before creating scenes to ensure correct structure."),
	), s.getSceneContract)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Scene Format Contract",
			mcp.WithResourceDescription("Transfer document format that all scenes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSceneFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func formatArg(req mcp.CallToolRequest) (codec.Format, error) {
	return codec.ParseFormat(req.GetString("format", ""))
}

type sceneSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type projectSummary struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Current bool           `json:"current,omitempty"`
	Scenes  []sceneSummary `json:"scenes"`
}

func (s *Server) listProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cur, _ := s.store.CurrentProject()
	var out []projectSummary
	for _, p := range s.store.Projects() {
		ps := projectSummary{ID: p.ID, Name: p.Name, Current: p.ID == cur.ID, Scenes: []sceneSummary{}}
		for _, sc := range p.Scenes {
			ps.Scenes = append(ps.Scenes, sceneSummary{ID: sc.ID, Name: sc.Meta.SceneName, Kind: string(sc.Kind())})
		}
		out = append(out, ps)
	}
	if len(out) == 0 {
		return mcp.NewToolResultText("no projects"), nil
	}
	return jsonResult(out), nil
}

func (s *Server) getCurrentScene(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	def, ok := s.store.CurrentScene()
	if !ok {
		return mcp.NewToolResultError("no scene is selected"), nil
	}
	data, err := codec.EncodeScene(def, codec.FormatJSON)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getScene(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pid, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sid, err := req.RequireString("scene_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := formatArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	def, ok := s.store.Scene(pid, sid)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s/%s", pid, sid)), nil
	}
	data, err := codec.EncodeScene(def, f)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) createScene(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := formatArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pid := req.GetString("project_id", "")
	if pid == "" {
		p, ok := s.store.CurrentProject()
		if !ok {
			return mcp.NewToolResultError("no current project; pass project_id"), nil
		}
		pid = p.ID
	}

	res, err := s.xfer.ImportData(ctx, pid, []byte(content), transfer.ImportOptions{
		Strict: req.GetBool("strict", false),
		Format: f,
	})
	if err != nil {
		if len(res.Issues) > 0 {
			return mcp.NewToolResultError(err.Error() + "\n" + issueLines(res)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	msg := fmt.Sprintf("created: %s", res.Scene.ID)
	if len(res.Issues) > 0 {
		msg += "\n" + issueLines(res)
	}
	return mcp.NewToolResultText(msg), nil
}

func issueLines(res transfer.ImportResult) string {
	lines := make([]string, len(res.Issues))
	for i, iss := range res.Issues {
		lines[i] = iss.String()
	}
	return strings.Join(lines, "\n")
}

func (s *Server) validateScene(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := formatArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	issues := transfer.Check([]byte(content), f)
	if len(issues) == 0 {
		return mcp.NewToolResultText("valid"), nil
	}
	return mcp.NewToolResultText(issueLines(transfer.ImportResult{Issues: issues})), nil
}

func (s *Server) exportScene(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pid, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sid, err := req.RequireString("scene_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := formatArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := s.xfer.Export(ctx, pid, sid, f)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("exported: %s", name)), nil
}

func (s *Server) searchScenes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.studio.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(hits), nil
}

func (s *Server) inlineAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pid, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sid, err := req.RequireString("scene_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	_, rep, err := s.studio.InlineAssets(ctx, pid, sid)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep), nil
}

func (s *Server) getSceneContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SceneFormatContract), nil
}

func (s *Server) readSceneFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     SceneFormatContract,
		},
	}, nil
}
