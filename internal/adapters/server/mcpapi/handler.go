// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/hylla/rota/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

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

// NewHandler builds the MCP adapter with the schedule tools. active is the
// month a tool call addresses when it names none.
func NewHandler(cfg Config, schedule common.ScheduleService, active common.MonthRef) (*Handler, error) {
	if schedule == nil {
		return nil, fmt.Errorf("schedule service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerScheduleTools(mcpSrv, schedule, active)

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
		cfg.ServerName = "rota"
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

// monthOptions are the optional year/month arguments every tool accepts.
func monthOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("year", mcp.Description("Schedule year (defaults to the served month)")),
		mcp.WithNumber("month", mcp.Description("Schedule month 1-12 (defaults to the served month)")),
	}
}

// requestMonth resolves the month a tool call addresses.
func requestMonth(req mcp.CallToolRequest, active common.MonthRef) (common.MonthRef, error) {
	rawYear, rawMonth := "", ""
	if year := req.GetInt("year", 0); year != 0 {
		rawYear = strconv.Itoa(year)
	}
	if month := req.GetInt("month", 0); month != 0 {
		rawMonth = strconv.Itoa(month)
	}
	return common.ResolveMonth(active, rawYear, rawMonth)
}

// registerScheduleTools registers the `rota.*` tools.
func registerScheduleTools(srv *mcpserver.MCPServer, schedule common.ScheduleService, active common.MonthRef) {
	srv.AddTool(
		mcp.NewTool(
			"rota.get_schedule",
			append([]mcp.ToolOption{
				mcp.WithDescription("Return the layout, suggestions, and assignments of one month."),
			}, monthOptions()...)...,
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ref, err := requestMonth(req, active)
			if err != nil {
				return toolResultFromError(err), nil
			}
			doc, err := schedule.Document(ctx, ref)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(doc)
			if err != nil {
				return nil, fmt.Errorf("encode get_schedule result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"rota.assign",
			append([]mcp.ToolOption{
				mcp.WithDescription("Assign one person to one date task and save the month."),
				mcp.WithString("date_task", mcp.Required(), mcp.Description("Date-task key such as 2026-3-1-prayer")),
				mcp.WithString("person", mcp.Required(), mcp.Description("Person name; empty clears the slot")),
			}, monthOptions()...)...,
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			dateTask, err := req.RequireString("date_task")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			person, err := req.RequireString("person")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			ref, err := requestMonth(req, active)
			if err != nil {
				return toolResultFromError(err), nil
			}
			doc, err := schedule.Assign(ctx, ref, dateTask, person)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"date_task":   dateTask,
				"assignments": doc.Assignments,
			})
			if err != nil {
				return nil, fmt.Errorf("encode assign result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"rota.commit",
			append([]mcp.ToolOption{
				mcp.WithDescription("Commit one month into assignment history. Unchanged months record nothing."),
			}, monthOptions()...)...,
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ref, err := requestMonth(req, active)
			if err != nil {
				return toolResultFromError(err), nil
			}
			outcome, err := schedule.Commit(ctx, ref)
			if err != nil {
				return toolResultFromError(err), nil
			}
			status := "unchanged"
			if outcome.Created {
				status = "committed"
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"status":  status,
				"created": outcome.Created,
			})
			if err != nil {
				return nil, fmt.Errorf("encode commit result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"rota.stats",
			mcp.WithDescription("Report how evenly each duty has been spread across eligible people."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			stats, err := schedule.Stats(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"duties": stats})
			if err != nil {
				return nil, fmt.Errorf("encode stats result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrUnavailable):
		return mcp.NewToolResultError("not_implemented: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
