package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/movigation/moviesir/internal/catalog"
	"github.com/movigation/moviesir/internal/recommend"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Engine  Recommender
	Catalog *catalog.Catalog
}

// NewMCPServer creates an MCP server with the recommendation tools registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"moviesir",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("moviesir — movie watchlist recommendations fitted to the time you have."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("recommend_watchlist",
			mcp.WithDescription("Recommend two watchlists of movies whose total runtime fits the available time: one matched to stated preferences, one exploratory."),
			mcp.WithNumber("available_time", mcp.Description("Available viewing time in minutes"), mcp.Required()),
			mcp.WithArray("history_ids", mcp.Description("IDs of movies the user has watched")),
			mcp.WithArray("genres", mcp.Description("Preferred genres")),
			mcp.WithArray("providers", mcp.Description("Streaming providers the user can access")),
			mcp.WithArray("excluded_ids", mcp.Description("Movie IDs to exclude")),
		),
		mcpRecommendWatchlist(deps),
	)

	s.AddTool(
		mcp.NewTool("replace_movie",
			mcp.WithDescription("Pick a single replacement movie close to a target runtime, excluding movies already proposed."),
			mcp.WithNumber("target_runtime", mcp.Description("Target runtime in minutes"), mcp.Required()),
			mcp.WithString("track", mcp.Description("Track to draw from: \"a\" (preference) or \"b\" (exploration)")),
			mcp.WithArray("history_ids", mcp.Description("IDs of movies the user has watched")),
			mcp.WithArray("excluded_ids", mcp.Description("Movie IDs to exclude, usually the current watchlist")),
			mcp.WithArray("genres", mcp.Description("Preferred genres, used on track a")),
			mcp.WithArray("providers", mcp.Description("Streaming providers, used on track a")),
		),
		mcpReplaceMovie(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"catalog://facets",
			"Catalog Facets",
			mcp.WithResourceDescription("Known genres and streaming providers as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceFacets(deps),
	)

	return s
}

func mcpRecommendWatchlist(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		availableTime := req.GetInt("available_time", 0)
		if availableTime <= 0 {
			return mcpError("available_time must be a positive number of minutes"), nil
		}

		history, err := idsArg(req, "history_ids")
		if err != nil {
			return mcpError(err.Error()), nil
		}
		excluded, err := idsArg(req, "excluded_ids")
		if err != nil {
			return mcpError(err.Error()), nil
		}

		resp := deps.Engine.Recommend(recommend.Request{
			HistoryIDs:    history,
			AvailableTime: availableTime,
			Genres:        req.GetStringSlice("genres", nil),
			Providers:     req.GetStringSlice("providers", nil),
			ExcludedIDs:   excluded,
		})

		out := RecommendResponse{
			TrackA:         toTrackView(resp.TrackA),
			TrackB:         toTrackView(resp.TrackB),
			ElapsedSeconds: resp.Elapsed,
		}
		b, err := json.Marshal(out)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpReplaceMovie(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target := req.GetInt("target_runtime", 0)
		if target <= 0 {
			return mcpError("target_runtime must be a positive number of minutes"), nil
		}

		track := recommend.TrackPreference
		if s := req.GetString("track", ""); s != "" {
			var err error
			track, err = recommend.ParseTrack(s)
			if err != nil {
				return mcpError(err.Error()), nil
			}
		}

		history, err := idsArg(req, "history_ids")
		if err != nil {
			return mcpError(err.Error()), nil
		}
		excluded, err := idsArg(req, "excluded_ids")
		if err != nil {
			return mcpError(err.Error()), nil
		}

		candidate := deps.Engine.RecommendSingle(recommend.SingleRequest{
			HistoryIDs:    history,
			TargetRuntime: target,
			ExcludedIDs:   excluded,
			Track:         track,
			Genres:        req.GetStringSlice("genres", nil),
			Providers:     req.GetStringSlice("providers", nil),
		})

		out := SingleResponse{Success: candidate != nil}
		if candidate != nil {
			v := toMovieView(*candidate)
			out.Movie = &v
		} else {
			out.Message = "no movie fits the target runtime"
		}

		b, err := json.Marshal(out)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceFacets(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(map[string]any{
			"genres":    deps.Catalog.Genres(),
			"providers": deps.Catalog.Providers(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal facets: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

// idsArg reads an array argument of movie IDs passed as decimal strings.
func idsArg(req mcp.CallToolRequest, key string) ([]int64, error) {
	raw := req.GetStringSlice(key, nil)
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s contains invalid movie id %q", key, s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
