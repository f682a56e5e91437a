// Package mcp exposes the tally data layer over the Model Context
// Protocol, so coding agents can read and update habits directly.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hyperengineering/tally"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server with tally tools.
type Server struct {
	client    *tally.Client
	mcpServer *server.MCPServer
}

// ToolResult represents the result of a tool call.
type ToolResult struct {
	Content string
	IsError bool
}

// ToolInfo represents a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server with tally tools registered.
func NewServer(client *tally.Client) *Server {
	s := &Server{client: client}

	s.mcpServer = server.NewMCPServer(
		"tally",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// HandleMessage processes a raw JSON-RPC message and returns a response.
// This is primarily for testing the MCP protocol layer.
func (s *Server) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	return s.mcpServer.HandleMessage(ctx, message)
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{Name: "tally_list_habits", Description: "List all habits with their streaks and completion counts"},
		{Name: "tally_create_habit", Description: "Create a new habit"},
		{Name: "tally_log_progress", Description: "Mark a habit completed or not completed for a date"},
		{Name: "tally_today", Description: "Show every habit's completion state for a date"},
		{Name: "tally_calendar", Description: "Show the monthly completion calendar and stats"},
		{Name: "tally_sync", Description: "Replay local habits and history to the remote backend"},
	}
}

// CallTool executes a tool by name with the given arguments.
// This is used for testing and direct invocation.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	switch name {
	case "tally_list_habits":
		return s.handleListHabits(ctx, args)
	case "tally_create_habit":
		return s.handleCreateHabit(ctx, args)
	case "tally_log_progress":
		return s.handleLogProgress(ctx, args)
	case "tally_today":
		return s.handleToday(ctx, args)
	case "tally_calendar":
		return s.handleCalendar(ctx, args)
	case "tally_sync":
		return s.handleSync(ctx, args)
	default:
		return &ToolResult{Content: fmt.Sprintf("unknown tool: %s", name), IsError: true}, nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("tally_list_habits",
		mcp.WithDescription("List all habits with their current streak, best streak, and completion counts."),
	), s.mcpHandleListHabits)

	s.mcpServer.AddTool(mcp.NewTool("tally_create_habit",
		mcp.WithDescription("Create a new habit. Streak counters start at zero."),
		mcp.WithString("name",
			mcp.Description("Habit name"),
			mcp.Required(),
		),
		mcp.WithString("icon",
			mcp.Description("Icon name (default: checkmark-circle)"),
		),
		mcp.WithString("category",
			mcp.Description("Category (default: Custom)"),
		),
	), s.mcpHandleCreateHabit)

	s.mcpServer.AddTool(mcp.NewTool("tally_log_progress",
		mcp.WithDescription("Mark a habit completed or not completed for a date. Repeating a call for the same date updates the existing record."),
		mcp.WithString("habit_id",
			mcp.Description("Habit id from tally_list_habits"),
			mcp.Required(),
		),
		mcp.WithString("date",
			mcp.Description("Date in YYYY-MM-DD form (default: today)"),
		),
		mcp.WithBoolean("completed",
			mcp.Description("Completion state (default: true)"),
		),
		mcp.WithString("note",
			mcp.Description("Optional note for the day"),
		),
	), s.mcpHandleLogProgress)

	s.mcpServer.AddTool(mcp.NewTool("tally_today",
		mcp.WithDescription("Show every habit joined with its completion state for a date."),
		mcp.WithString("date",
			mcp.Description("Date in YYYY-MM-DD form (default: today)"),
		),
	), s.mcpHandleToday)

	s.mcpServer.AddTool(mcp.NewTool("tally_calendar",
		mcp.WithDescription("Show the completion calendar and stats for a month."),
		mcp.WithNumber("year",
			mcp.Description("Year (default: current)"),
		),
		mcp.WithNumber("month",
			mcp.Description("Month 1-12 (default: current)"),
		),
	), s.mcpHandleCalendar)

	s.mcpServer.AddTool(mcp.NewTool("tally_sync",
		mcp.WithDescription("Replay every locally-created habit and its progress history to the remote backend."),
	), s.mcpHandleSync)
}

func (s *Server) mcpHandleListHabits(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleListHabits(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleCreateHabit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleCreateHabit(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleLogProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleLogProgress(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleToday(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleToday(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleCalendar(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleSync(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func toMCPResult(r *ToolResult) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: r.Content,
			},
		},
	}
	if r.IsError {
		result.IsError = true
	}
	return result
}

// Internal handlers

func (s *Server) handleListHabits(ctx context.Context, args map[string]any) (*ToolResult, error) {
	habits, err := s.client.ListHabits(ctx)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("list habits failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: formatHabits(habits)}, nil
}

func (s *Server) handleCreateHabit(ctx context.Context, args map[string]any) (*ToolResult, error) {
	name, ok := args["name"].(string)
	if !ok || name == "" {
		return &ToolResult{Content: "name is required", IsError: true}, nil
	}

	draft := tally.HabitDraft{Name: name}
	if icon, ok := args["icon"].(string); ok {
		draft.Icon = icon
	}
	if category, ok := args["category"].(string); ok {
		draft.Category = category
	}

	habit, err := s.client.CreateHabit(ctx, draft)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("create habit failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: fmt.Sprintf("Created habit %q (%s, category %s)", habit.Name, habit.ID, habit.Category)}, nil
}

func (s *Server) handleLogProgress(ctx context.Context, args map[string]any) (*ToolResult, error) {
	habitID, ok := args["habit_id"].(string)
	if !ok || habitID == "" {
		return &ToolResult{Content: "habit_id is required", IsError: true}, nil
	}

	date := tally.Today()
	if d, ok := args["date"].(string); ok && d != "" {
		date = d
	}
	completed := true
	if c, ok := args["completed"].(bool); ok {
		completed = c
	}
	note := ""
	if n, ok := args["note"].(string); ok {
		note = n
	}

	if _, err := s.client.UpsertProgress(ctx, habitID, date, completed, note); err != nil {
		return &ToolResult{Content: fmt.Sprintf("log progress failed: %v", err), IsError: true}, nil
	}

	state := "completed"
	if !completed {
		state = "not completed"
	}
	msg := fmt.Sprintf("Marked habit %s as %s for %s", habitID, state, date)
	if habit, err := s.client.GetHabit(ctx, habitID); err == nil {
		msg += fmt.Sprintf(" (streak %d, best %d, %d total)",
			habit.CurrentStreak, habit.BestStreak, habit.TotalCompletions)
	}
	return &ToolResult{Content: msg}, nil
}

func (s *Server) handleToday(ctx context.Context, args map[string]any) (*ToolResult, error) {
	date := tally.Today()
	if d, ok := args["date"].(string); ok && d != "" {
		date = d
	}

	day, err := s.client.DayProgress(ctx, date)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("day progress failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: formatDay(date, day)}, nil
}

func (s *Server) handleCalendar(ctx context.Context, args map[string]any) (*ToolResult, error) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if y, ok := args["year"].(float64); ok {
		year = int(y)
	}
	if m, ok := args["month"].(float64); ok {
		month = int(m)
	}
	if month < 1 || month > 12 {
		return &ToolResult{Content: fmt.Sprintf("invalid month: %d", month), IsError: true}, nil
	}

	data, err := s.client.MonthData(ctx, year, month)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("month data failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: formatMonth(year, month, data)}, nil
}

func (s *Server) handleSync(ctx context.Context, args map[string]any) (*ToolResult, error) {
	stats, err := s.client.SyncToRemote(ctx)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("sync failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: fmt.Sprintf("Synced %d of %d habits in %s",
		stats.SyncedHabits, stats.TotalHabits, stats.Duration.Round(time.Millisecond))}, nil
}

// Formatting functions

func formatHabits(habits []tally.Habit) string {
	if len(habits) == 0 {
		return "No habits yet."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d habits:\n\n", len(habits)))
	for _, h := range habits {
		sb.WriteString(fmt.Sprintf("- %s (%s)\n", h.Name, h.ID))
		sb.WriteString(fmt.Sprintf("  category %s, streak %d (best %d), %d completions all time\n",
			h.Category, h.CurrentStreak, h.BestStreak, h.TotalCompletions))
	}
	return sb.String()
}

func formatDay(date string, day []tally.DayProgress) string {
	if len(day) == 0 {
		return "No habits yet."
	}

	var sb strings.Builder
	done := 0
	sb.WriteString(fmt.Sprintf("Progress for %s:\n\n", date))
	for _, entry := range day {
		mark := "[ ]"
		if entry.Completed {
			mark = "[x]"
			done++
		}
		sb.WriteString(fmt.Sprintf("%s %s", mark, entry.Name))
		if entry.Note != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", entry.Note))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("\n%d of %d completed.", done, len(day)))
	return sb.String()
}

func formatMonth(year, month int, data *tally.MonthData) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %d:\n", time.Month(month), year))
	for _, cell := range data.Cells {
		if cell == nil || cell.Completions == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("- day %d: %d completions\n", cell.Day, cell.Completions))
	}
	sb.WriteString(fmt.Sprintf("%d completions across %d active days.",
		data.Stats.TotalCompletions, data.Stats.ActiveDays))
	return sb.String()
}
