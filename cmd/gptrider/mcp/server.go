package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/neilberkman/gptrider/internal/core/analytics"
	"github.com/neilberkman/gptrider/internal/core/config"
	"github.com/neilberkman/gptrider/internal/core/db"
	"github.com/neilberkman/gptrider/internal/core/importer"
	"github.com/neilberkman/gptrider/internal/core/search"
)

// GetStatsArgs defines arguments for the get_stats tool
type GetStatsArgs struct {
	Year int `json:"year,omitempty" jsonschema:"description=Restrict the summary to one calendar year and compare it with the year before"`
}

// MonthlyActivityArgs defines arguments for the get_monthly_activity tool
type MonthlyActivityArgs struct {
	Year    int  `json:"year,omitempty" jsonschema:"description=Restrict to one calendar year"`
	ByModel bool `json:"by_model,omitempty" jsonschema:"description=Split each month's count by model"`
}

// DailyActivityArgs defines arguments for the get_daily_activity tool
type DailyActivityArgs struct {
	Year int `json:"year,omitempty" jsonschema:"description=Calendar year to report (default: current year)"`
}

// ModelDistributionArgs defines arguments for the get_model_distribution tool
type ModelDistributionArgs struct {
	Year int `json:"year,omitempty" jsonschema:"description=Restrict to one calendar year"`
}

// WordFrequenciesArgs defines arguments for the get_word_frequencies tool
type WordFrequenciesArgs struct {
	MinLength int `json:"min_length,omitempty" jsonschema:"description=Shortest word to count (default: 3)"`
	Top       int `json:"top,omitempty" jsonschema:"description=Max words to return (default: 25)"`
}

// SearchConversationsArgs defines arguments for the search_conversations tool
type SearchConversationsArgs struct {
	Query string `json:"query" jsonschema:"description=Search term to match against conversation titles,required"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Max number of conversations to return (default: 10)"`
}

// ListRecentConversationsArgs defines arguments for the list_recent_conversations tool
type ListRecentConversationsArgs struct {
	Limit int    `json:"limit,omitempty" jsonschema:"description=Max conversations to return (default: 20)"`
	Model string `json:"model,omitempty" jsonschema:"description=Filter by model slug"`
	Voice bool   `json:"voice,omitempty" jsonschema:"description=Only voice conversations"`
}

// ArchiveStats is the whole-archive summary returned by get_stats
type ArchiveStats struct {
	TotalConversations int    `json:"total_conversations"`
	TotalMessages      int    `json:"total_messages"`
	VoiceConversations int    `json:"voice_conversations"`
	OldestConversation string `json:"oldest_conversation,omitempty"`
	NewestConversation string `json:"newest_conversation,omitempty"`
	MostActiveModel    string `json:"most_active_model,omitempty"`
}

// YearStats is the single-year summary returned by get_stats with a year
type YearStats struct {
	Year               int     `json:"year"`
	TotalConversations int     `json:"total_conversations"`
	AvgMessages        float64 `json:"avg_messages"`
	VoiceConversations int     `json:"voice_conversations"`
	HasPreviousYear    bool    `json:"has_previous_year"`
	ConversationsDelta float64 `json:"conversations_delta_pct"`
	MessagesDelta      float64 `json:"messages_delta_pct"`
}

// ConversationMatch represents a conversation search result
type ConversationMatch struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Title          string `json:"title"`
	Snippet        string `json:"snippet,omitempty"`
	CreateTime     string `json:"create_time,omitempty"`
	Model          string `json:"model,omitempty"`
	MessageCount   int    `json:"message_count"`
}

// ConversationSummary represents a conversation in the list view
type ConversationSummary struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Title          string `json:"title"`
	CreateTime     string `json:"create_time,omitempty"`
	Model          string `json:"model,omitempty"`
	Voice          bool   `json:"voice"`
	MessageCount   int    `json:"message_count"`
}

// StartServer starts the MCP server
func StartServer(dbPath string) error {
	// Open database
	database, err := db.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := database.Close(); closeErr != nil {
			log.Printf("Error closing database: %v", closeErr)
		}
	}()

	// Create MCP server
	s := server.NewMCPServer(
		"GPTRider",
		"1.0.0",
	)

	// Register get_stats tool
	statsTool := mcp.NewTool("get_stats",
		mcp.WithDescription("Get summary statistics for the ChatGPT archive: conversation and message totals, voice counts, date range, and most used model. With a year, returns that year's numbers compared against the year before."),
		mcp.WithNumber("year",
			mcp.Description("Restrict the summary to one calendar year and compare it with the year before")),
	)
	s.AddTool(statsTool, makeGetStatsHandler(database))

	// Register get_monthly_activity tool
	monthlyTool := mcp.NewTool("get_monthly_activity",
		mcp.WithDescription("Get conversation counts per month, optionally split by model or restricted to one year"),
		mcp.WithNumber("year",
			mcp.Description("Restrict to one calendar year")),
		mcp.WithBoolean("by_model",
			mcp.Description("Split each month's count by model")),
	)
	s.AddTool(monthlyTool, makeMonthlyActivityHandler(database))

	// Register get_daily_activity tool
	dailyTool := mcp.NewTool("get_daily_activity",
		mcp.WithDescription("Get conversation counts per calendar day for one year, suitable for building an activity heatmap"),
		mcp.WithNumber("year",
			mcp.Description("Calendar year to report (default: current year)")),
	)
	s.AddTool(dailyTool, makeDailyActivityHandler(database))

	// Register get_model_distribution tool
	modelsTool := mcp.NewTool("get_model_distribution",
		mcp.WithDescription("Get conversation counts and percentages per model, most used first"),
		mcp.WithNumber("year",
			mcp.Description("Restrict to one calendar year")),
	)
	s.AddTool(modelsTool, makeModelDistributionHandler(database))

	// Register get_word_frequencies tool
	wordsTool := mcp.NewTool("get_word_frequencies",
		mcp.WithDescription("Get the most frequent words across conversation titles"),
		mcp.WithNumber("min_length",
			mcp.Description("Shortest word to count (default: 3)")),
		mcp.WithNumber("top",
			mcp.Description("Max words to return (default: 25)")),
	)
	s.AddTool(wordsTool, makeWordFrequenciesHandler(database))

	// Register search_conversations tool
	searchTool := mcp.NewTool("search_conversations",
		mcp.WithDescription("Search conversation titles with full-text matching. Supports model:<slug>, after:<date>, and before:<date> tokens inside the query."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search term to match against conversation titles")),
		mcp.WithNumber("limit",
			mcp.Description("Max number of conversations to return (default: 10)")),
	)
	s.AddTool(searchTool, makeSearchConversationsHandler(database))

	// Register list_recent_conversations tool
	listTool := mcp.NewTool("list_recent_conversations",
		mcp.WithDescription("Get recent conversations, optionally filtered by model or voice mode"),
		mcp.WithNumber("limit",
			mcp.Description("Max conversations to return (default: 20)")),
		mcp.WithString("model",
			mcp.Description("Filter by model slug")),
		mcp.WithBoolean("voice",
			mcp.Description("Only voice conversations")),
	)
	s.AddTool(listTool, makeListRecentConversationsHandler(database))

	return server.ServeStdio(s)
}

// syncDatabase refreshes the archive from the configured export directory
// before running tool queries. Without an export_dir there is nothing to
// refresh and the database is served as-is.
func syncDatabase(ctx context.Context, database *db.DB) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.ExportDir == "" {
		return nil
	}
	if _, err := os.Stat(cfg.ExportDir); os.IsNotExist(err) {
		return nil
	}

	// Import silently (no progress output for MCP)
	imp := importer.New(database)
	if _, err := imp.ImportDirectory(cfg.ExportDir, false, nil); err != nil {
		return fmt.Errorf("failed to sync: %w", err)
	}

	return nil
}

func decodeArgs(request mcp.CallToolRequest, out interface{}) error {
	argsBytes, _ := json.Marshal(request.Params.Arguments)
	return json.Unmarshal(argsBytes, out)
}

func currentYear() int {
	return time.Now().UTC().Year()
}

func makeGetStatsHandler(database *db.DB) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Sync database before running query (fast incremental check)
		if err := syncDatabase(ctx, database); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
		}

		var args GetStatsArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		// Year given: windowed KPIs compared against the prior calendar year
		if args.Year > 0 {
			rows, err := database.AllConversations()
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
			}

			current := analytics.ComputeKPIs(rows, analytics.YearWindow(args.Year))
			previousWindow := analytics.YearWindow(args.Year - 1)
			previous := analytics.ComputeKPIs(rows, previousWindow)
			hasPrevious := len(analytics.FilterWindow(rows, previousWindow)) > 0

			result := YearStats{
				Year:               args.Year,
				TotalConversations: current.TotalConversations,
				AvgMessages:        current.AvgMessages,
				VoiceConversations: current.VoiceCount,
				HasPreviousYear:    hasPrevious,
			}
			if hasPrevious {
				result.ConversationsDelta = analytics.PercentChange(
					float64(current.TotalConversations), float64(previous.TotalConversations))
				result.MessagesDelta = analytics.PercentChange(current.AvgMessages, previous.AvgMessages)
			}

			resultJSON, err := json.Marshal(result)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
			}
			return mcp.NewToolResultText(string(resultJSON)), nil
		}

		// No year: whole-archive totals
		stats, err := database.GetStats()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}

		result := ArchiveStats{
			TotalConversations: stats.TotalConversations,
			TotalMessages:      stats.TotalMessages,
			VoiceConversations: stats.VoiceConversations,
			MostActiveModel:    stats.MostActiveModel,
		}
		if !stats.OldestConversation.IsZero() {
			result.OldestConversation = stats.OldestConversation.Format("2006-01-02 15:04:05")
		}
		if !stats.NewestConversation.IsZero() {
			result.NewestConversation = stats.NewestConversation.Format("2006-01-02 15:04:05")
		}

		resultJSON, err := json.Marshal(result)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(resultJSON)), nil
	}
}

func makeMonthlyActivityHandler(database *db.DB) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Sync database before running query
		if err := syncDatabase(ctx, database); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
		}

		var args MonthlyActivityArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		rows, err := database.AllConversations()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}
		if args.Year > 0 {
			rows = analytics.FilterWindow(rows, analytics.YearWindow(args.Year))
		}

		counts := analytics.MonthlyCounts(rows, args.ByModel)

		resultJSON, err := json.Marshal(map[string]interface{}{
			"months": counts,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcp.NewToolResultText(string(resultJSON)), nil
	}
}

func makeDailyActivityHandler(database *db.DB) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Sync database before running query
		if err := syncDatabase(ctx, database); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
		}

		var args DailyActivityArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		// Set defaults
		year := args.Year
		if year == 0 {
			year = currentYear()
		}

		rows, err := database.AllConversations()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}

		resultJSON, err := json.Marshal(map[string]interface{}{
			"year": year,
			"days": analytics.DailyCounts(rows, year),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcp.NewToolResultText(string(resultJSON)), nil
	}
}

func makeModelDistributionHandler(database *db.DB) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Sync database before running query
		if err := syncDatabase(ctx, database); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
		}

		var args ModelDistributionArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		rows, err := database.AllConversations()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}
		if args.Year > 0 {
			rows = analytics.FilterWindow(rows, analytics.YearWindow(args.Year))
		}

		resultJSON, err := json.Marshal(map[string]interface{}{
			"models": analytics.ModelDistribution(rows),
			"total":  len(rows),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcp.NewToolResultText(string(resultJSON)), nil
	}
}

func makeWordFrequenciesHandler(database *db.DB) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Sync database before running query
		if err := syncDatabase(ctx, database); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
		}

		var args WordFrequenciesArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		// Set defaults
		top := args.Top
		if top == 0 {
			top = config.DefaultTopWords
		}

		rows, err := database.AllConversations()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}

		words := analytics.WordFrequencies(analytics.Titles(rows), args.MinLength)
		if len(words) > top {
			words = words[:top]
		}

		resultJSON, err := json.Marshal(map[string]interface{}{
			"words": words,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcp.NewToolResultText(string(resultJSON)), nil
	}
}

func makeSearchConversationsHandler(database *db.DB) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Sync database before running query
		if err := syncDatabase(ctx, database); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
		}

		var args SearchConversationsArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		// Set defaults (interface concern - pagination)
		limit := args.Limit
		if limit == 0 {
			limit = 10
		}

		// filter tokens inside the query work the same as in the CLI
		filters := search.ParseQuery(args.Query)
		coreResults, err := search.SearchFiltered(database, filters, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}

		// Convert core types to MCP types (interface concern - presentation)
		var results []ConversationMatch
		for _, r := range coreResults {
			results = append(results, ConversationMatch{
				ConversationID: r.ConversationID,
				Title:          r.Title,
				Snippet:        r.Snippet,
				CreateTime:     r.CreateTime,
				Model:          r.ModelSlug,
				MessageCount:   r.MessageCount,
			})
		}

		resultJSON, err := json.Marshal(map[string]interface{}{
			"conversations": results,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcp.NewToolResultText(string(resultJSON)), nil
	}
}

func makeListRecentConversationsHandler(database *db.DB) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Sync database before running query
		if err := syncDatabase(ctx, database); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
		}

		var args ListRecentConversationsArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		// Set defaults
		limit := args.Limit
		if limit == 0 {
			limit = 20
		}

		coreConvs, err := database.ListConversations(args.Model, args.Voice, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}

		// Convert core types to MCP types (interface concern - presentation)
		var conversations []ConversationSummary
		for _, c := range coreConvs {
			summary := ConversationSummary{
				ConversationID: c.ConversationID,
				Title:          c.Title,
				Model:          c.ModelSlug,
				Voice:          c.HasVoice,
				MessageCount:   c.MessageCount,
			}
			if c.CreateTime != nil {
				summary.CreateTime = c.CreateTime.Format("2006-01-02 15:04:05")
			}
			conversations = append(conversations, summary)
		}

		resultJSON, err := json.Marshal(map[string]interface{}{
			"conversations": conversations,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcp.NewToolResultText(string(resultJSON)), nil
	}
}
