package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("ZeppVault", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("ZeppVault health data server. Query heart rate, steps, activity, sleep, stress, and training load decoded from a Zepp/Amazfit band. Dates are YYYY-MM-DD in the wearer's local time."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetDaySummary, Handler: h.getDaySummary},
		server.ServerTool{Tool: toolGetHeartRate, Handler: h.getHeartRate},
		server.ServerTool{Tool: toolGetSteps, Handler: h.getSteps},
		server.ServerTool{Tool: toolGetActivity, Handler: h.getActivity},
		server.ServerTool{Tool: toolGetSleep, Handler: h.getSleep},
		server.ServerTool{Tool: toolGetSleepSummary, Handler: h.getSleepSummary},
		server.ServerTool{Tool: toolGetStress, Handler: h.getStress},
		server.ServerTool{Tool: toolGetTrainingLoad, Handler: h.getTrainingLoad},
		server.ServerTool{Tool: toolGetSportLoad, Handler: h.getSportLoad},
		server.ServerTool{Tool: toolGetDataStats, Handler: h.getDataStats},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resDailySummary, Handler: h.dailySummary},
		server.ServerResource{Resource: resDataStats, Handler: h.dataStats},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resDailySummary = mcp.NewResource(
	"zeppvault://daily_summary",
	"Daily Summary",
	mcp.WithResourceDescription("The most recent day's full record: step totals, sleep, heart rate samples, activity segments, and stress"),
	mcp.WithMIMEType("application/json"),
)

var resDataStats = mcp.NewResource(
	"zeppvault://data_stats",
	"Data Statistics",
	mcp.WithResourceDescription("Coverage of the stored dataset: day count, row counts per table, and date range"),
	mcp.WithMIMEType("application/json"),
)
