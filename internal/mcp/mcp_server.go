// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/huangsam/enrollcast/internal/contract"
)

// NewMCPServer initializes and configures the enrollcast MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Enrollment Forecast Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: forecast_enrollment ---
	s.AddTool(mcp.NewTool("forecast_enrollment",
		mcp.WithDescription("Forecast annual enrollment per program from a CSV or Parquet history file."),
		mcp.WithString("input_path", mcp.Description("Path to the enrollment history (.csv or .parquet). Defaults to the configured input.")),
		mcp.WithString("program", mcp.Description("Program code or display name to forecast alone (e.g. BSCS, All Colleges).")),
		mcp.WithNumber("target_year", mcp.Description("Last year to forecast, inclusive.")),
		mcp.WithBoolean("persist", mcp.Description("Upsert actual and forecast rows into the configured store.")),
	), h.handleForecastEnrollment)

	// --- 2. Tool: get_forecast_summary ---
	s.AddTool(mcp.NewTool("get_forecast_summary",
		mcp.WithDescription("Summarize forecast years after the current year as Year, Predicted, Lower and Upper arrays per program."),
		mcp.WithString("input_path", mcp.Description("Path to the enrollment history (.csv or .parquet).")),
		mcp.WithString("program", mcp.Description("Program code or display name.")),
		mcp.WithNumber("target_year", mcp.Description("Last year to forecast, inclusive.")),
		mcp.WithNumber("current_year", mcp.Description("Only years after this one are kept. Defaults to the wall-clock year.")),
	), h.handleGetForecastSummary)

	// --- 3. Tool: get_stored_enrollment ---
	s.AddTool(mcp.NewTool("get_stored_enrollment",
		mcp.WithDescription("Read the stored actual and forecast rows of one program ordered by year."),
		mcp.WithString("program", mcp.Description("Program code or display name. Defaults to GRAND_TOTAL.")),
	), h.handleGetStoredEnrollment)

	return s
}

// StartMCPServer starts the enrollcast MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
