// Package mcp exposes the query pipeline to AI clients over the Model
// Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/nlweb-ai/nlweb-go/internal/backend"
	"github.com/nlweb-ai/nlweb-go/internal/models"
	"github.com/nlweb-ai/nlweb-go/internal/orchestrator"
)

// ServerName and ServerVersion identify this MCP server to clients.
const (
	ServerName    = "nlweb"
	ServerVersion = "1.0.0"
)

// Server bridges MCP tool calls to the orchestrator and backend manager.
type Server struct {
	orch    *orchestrator.Service
	manager *backend.Manager
	logger  *zap.Logger
}

// NewServer creates the MCP bridge.
func NewServer(orch *orchestrator.Service, manager *backend.Manager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{orch: orch, manager: manager, logger: logger}
}

// ServeStdio registers the tools and serves MCP over stdin/stdout until the
// client disconnects.
func (s *Server) ServeStdio() error {
	srv := mcpserver.NewMCPServer(ServerName, ServerVersion,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	srv.AddTool(mcp.NewTool("ask",
		mcp.WithDescription("Answer a natural-language query from the configured content backends."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The natural-language query.")),
		mcp.WithString("site", mcp.Description("Restrict results to one site.")),
		mcp.WithString("mode", mcp.Description("list, summarize, or generate. Defaults to the configured mode.")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of results to return.")),
	), s.HandleAsk)

	srv.AddTool(mcp.NewTool("list_sites",
		mcp.WithDescription("List the sites available across all content backends."),
	), s.HandleListSites)

	srv.AddTool(mcp.NewTool("get_item",
		mcp.WithDescription("Fetch a single item by its URL."),
		mcp.WithString("url", mcp.Required(), mcp.Description("The item URL.")),
	), s.HandleGetItem)

	s.logger.Info("serving MCP over stdio")
	return mcpserver.ServeStdio(srv)
}

// HandleAsk runs a query through the orchestrator and returns the response
// as JSON text content.
func (s *Server) HandleAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	queryText, ok := req.Params.Arguments["query"].(string)
	if !ok || queryText == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	mode, err := models.ParseMode(stringArg(req, "mode"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query := &models.Query{
		RawText: queryText,
		Site:    stringArg(req, "site"),
		Mode:    mode,
	}
	if n, ok := req.Params.Arguments["max_results"].(float64); ok && n > 0 {
		query.MaxResults = int(n)
	}

	resp := s.orch.ProcessRequest(ctx, query)
	if resp.Error != "" {
		return mcp.NewToolResultError(resp.Error), nil
	}
	return jsonResult(resp)
}

// HandleListSites returns the union of backend site lists.
func (s *Server) HandleListSites(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sites, err := s.manager.AvailableSites(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("site listing failed: %v", err)), nil
	}
	if sites == nil {
		sites = []string{}
	}
	return jsonResult(map[string]interface{}{"sites": sites})
}

// HandleGetItem looks a single item up by URL.
func (s *Server) HandleGetItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, ok := req.Params.Arguments["url"].(string)
	if !ok || url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}
	item, err := s.manager.GetItemByURL(ctx, url)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("item not found: %s", url)), nil
	}
	return jsonResult(item)
}

func stringArg(req mcp.CallToolRequest, name string) string {
	v, _ := req.Params.Arguments[name].(string)
	return v
}

func jsonResult(data interface{}) (*mcp.CallToolResult, error) {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(encoded)), nil
}
