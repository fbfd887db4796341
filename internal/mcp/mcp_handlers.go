package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/huangsam/enrollcast/core"
	"github.com/huangsam/enrollcast/internal/contract"
	"github.com/huangsam/enrollcast/internal/loader"
	"github.com/huangsam/enrollcast/internal/outwriter"
	"github.com/huangsam/enrollcast/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// forecastConfig applies the shared forecast arguments to a clone of the base config.
func (h *toolHandler) forecastConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("input_path", ""); p != "" {
		cfg.InputPath = p
	}
	if p := request.GetString("program", ""); p != "" {
		cfg.ProgramFilter = schema.ResolveProgramCode(p)
	}
	if y := request.GetInt("target_year", 0); y != 0 {
		cfg.TargetYear = y
	}
	if y := request.GetInt("current_year", 0); y != 0 {
		cfg.CurrentYear = y
	}
	cfg.Output = schema.JSONOut
	cfg.OutputFile = ""
	if err := contract.RevalidateForecast(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (h *toolHandler) handleForecastEnrollment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.forecastConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid forecast parameters: %v", err)), nil
	}

	ctx = core.WithSuppressHeader(ctx)
	seriesByProgram, outcome, err := core.GetForecastOutcome(ctx, cfg, loader.FileLoader{})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("forecast failed: %v", err)), nil
	}

	if request.GetBool("persist", false) {
		if _, err := core.PersistOutcome(ctx, h.mgr, seriesByProgram, outcome); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("persist failed: %v", err)), nil
		}
	}

	var buf bytes.Buffer
	if err := outwriter.WriteForecastResults(&buf, outcome, cfg, 0); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (h *toolHandler) handleGetForecastSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.forecastConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid summary parameters: %v", err)), nil
	}

	_, outcome, err := core.GetForecastOutcome(core.WithSuppressHeader(ctx), cfg, loader.FileLoader{})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("forecast failed: %v", err)), nil
	}

	summaries := core.Summarize(outcome.Results, cfg.CurrentYear)
	jsonData, _ := json.MarshalIndent(summaries, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetStoredEnrollment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := schema.ResolveProgramCode(request.GetString("program", ""))

	records, err := core.GetStoredRecords(ctx, h.mgr, code)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("store read failed: %v", err)), nil
	}
	if records == nil {
		records = []schema.StoredRecord{}
	}

	jsonData, _ := json.MarshalIndent(records, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
