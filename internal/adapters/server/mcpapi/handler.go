// Package mcpapi provides a stateless MCP streamable-HTTP adapter over the
// review service.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hylla/granska/internal/adapters/storage/ledgerjson"
	"github.com/hylla/granska/internal/app"
	"github.com/hylla/granska/internal/domain"
)

// ReviewService is the app-facing surface the MCP tools call into.
type ReviewService interface {
	NormalizeKey(p string) domain.PathKey
	Classify(key domain.PathKey) (domain.Decoration, bool)
	Record(key domain.PathKey) (domain.ReviewRecord, bool)
	Entries() []app.Entry
	SaveStatusDirect(ctx context.Context, key domain.PathKey, req app.SaveStatusRequest) error
	RefreshLedger(ctx context.Context) error
	Worker() string
}

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds the MCP adapter with the review tools registered.
func NewHandler(cfg Config, svc ReviewService, logger *log.Logger) (*Handler, error) {
	if svc == nil {
		return nil, fmt.Errorf("review service is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerReviewStatusTool(mcpSrv, svc)
	registerListReviewsTool(mcpSrv, svc)
	registerSaveStatusTool(mcpSrv, svc)
	registerMergeLedgersTool(mcpSrv, svc, logger)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "granska"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// statusView is the JSON shape returned by the status tools.
type statusView struct {
	Key        domain.PathKey       `json:"key"`
	Class      domain.AccessClass   `json:"class"`
	Badge      string               `json:"badge,omitempty"`
	Tooltip    string               `json:"tooltip,omitempty"`
	Annotated  bool                 `json:"annotated,omitempty"`
	ReadOnly   bool                 `json:"read_only"`
	Record     *domain.ReviewRecord `json:"record,omitempty"`
	Applicable bool                 `json:"applicable"`
}

func viewFor(key domain.PathKey, deco domain.Decoration, ok bool, rec *domain.ReviewRecord) statusView {
	v := statusView{Key: key, Applicable: ok, Record: rec}
	if !ok {
		v.ReadOnly = true
		return v
	}
	v.Class = deco.Class
	v.Badge = deco.Badge
	v.Tooltip = deco.Tooltip
	v.Annotated = deco.Annotated
	v.ReadOnly = deco.Class.ReadOnly()
	return v
}

// registerReviewStatusTool registers the `granska.review_status` tool.
func registerReviewStatusTool(srv *mcpserver.MCPServer, svc ReviewService) {
	srv.AddTool(
		mcp.NewTool(
			"granska.review_status",
			mcp.WithDescription("Classify one tracked file and return its review record."),
			mcp.WithString("path", mcp.Required(), mcp.Description("File path, absolute or workspace-relative")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			p, err := req.RequireString("path")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			key := svc.NormalizeKey(p)
			deco, ok := svc.Classify(key)

			var rec *domain.ReviewRecord
			if r, found := svc.Record(key); found {
				rec = &r
			}
			result, err := mcp.NewToolResultJSON(viewFor(key, deco, ok, rec))
			if err != nil {
				return nil, fmt.Errorf("encode review_status result: %w", err)
			}
			return result, nil
		},
	)
}

// registerListReviewsTool registers the `granska.list_reviews` tool.
func registerListReviewsTool(srv *mcpserver.MCPServer, svc ReviewService) {
	srv.AddTool(
		mcp.NewTool(
			"granska.list_reviews",
			mcp.WithDescription("List every known review entry with its classification."),
			mcp.WithString("class", mcp.Description("Filter by access class")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			filter := domain.AccessClass(req.GetString("class", ""))

			views := make([]statusView, 0)
			for _, entry := range svc.Entries() {
				if filter != "" && entry.Decoration.Class != filter {
					continue
				}
				var rec *domain.ReviewRecord
				if entry.Record.Filename != "" {
					r := entry.Record
					rec = &r
				}
				views = append(views, viewFor(entry.Key, entry.Decoration, entry.Tracked, rec))
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"worker":  svc.Worker(),
				"entries": views,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_reviews result: %w", err)
			}
			return result, nil
		},
	)
}

// registerSaveStatusTool registers the `granska.save_status` tool.
func registerSaveStatusTool(srv *mcpserver.MCPServer, svc ReviewService) {
	srv.AddTool(
		mcp.NewTool(
			"granska.save_status",
			mcp.WithDescription("Persist task/review status for one assigned file."),
			mcp.WithString("path", mcp.Required(), mcp.Description("File path, absolute or workspace-relative")),
			mcp.WithBoolean("task_done", mcp.Description("Task completion flag")),
			mcp.WithBoolean("review_done", mcp.Description("Review completion flag")),
			mcp.WithString("comment", mcp.Description("Free-text comment")),
			mcp.WithString("reporting", mcp.Description("Free-text reporting note")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			p, err := req.RequireString("path")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			key := svc.NormalizeKey(p)
			err = svc.SaveStatusDirect(ctx, key, app.SaveStatusRequest{
				TaskDone:   req.GetBool("task_done", false),
				ReviewDone: req.GetBool("review_done", false),
				Comment:    req.GetString("comment", ""),
				Reporting:  req.GetString("reporting", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			deco, ok := svc.Classify(key)
			result, err := mcp.NewToolResultJSON(viewFor(key, deco, ok, nil))
			if err != nil {
				return nil, fmt.Errorf("encode save_status result: %w", err)
			}
			return result, nil
		},
	)
}

// registerMergeLedgersTool registers the `granska.merge_ledgers` tool.
func registerMergeLedgersTool(srv *mcpserver.MCPServer, svc ReviewService, logger *log.Logger) {
	srv.AddTool(
		mcp.NewTool(
			"granska.merge_ledgers",
			mcp.WithDescription("Merge an overlay ledger into a base ledger; overlay wins per key."),
			mcp.WithString("base", mcp.Required(), mcp.Description("Base ledger file path")),
			mcp.WithString("overlay", mcp.Required(), mcp.Description("Overlay ledger file path")),
			mcp.WithString("out", mcp.Description("Output path (defaults to base)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			base, err := req.RequireString("base")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			overlay, err := req.RequireString("overlay")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			out := req.GetString("out", base)

			if err := ledgerjson.MergeFiles(ctx, base, overlay, out, logger); err != nil {
				return toolResultFromError(err), nil
			}
			if err := svc.RefreshLedger(ctx); err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"merged_into": out})
			if err != nil {
				return nil, fmt.Errorf("encode merge_ledgers result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError converts service errors into MCP tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, app.ErrSessionReadOnly):
		return mcp.NewToolResultError("file is read-only for the current worker")
	case errors.Is(err, app.ErrNoWorker):
		return mcp.NewToolResultError("no worker selected")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}
