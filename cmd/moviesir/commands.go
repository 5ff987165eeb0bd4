package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/movigation/moviesir/internal/config"
)

// --- recommend ---

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Request watchlist recommendations from the running server",
	Long: `Request watchlist recommendations from the running server.

Examples:
  moviesir recommend --time 180 --genres Action,Thriller
  moviesir recommend --time 240 --providers Netflix --history 603,604,605
  moviesir recommend --user alice --time 120`,
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, _ := cmd.Flags().GetInt("time")
		if minutes <= 0 {
			return fmt.Errorf("--time is required and must be positive")
		}
		userID, _ := cmd.Flags().GetString("user")
		genresStr, _ := cmd.Flags().GetString("genres")
		providersStr, _ := cmd.Flags().GetString("providers")
		historyStr, _ := cmd.Flags().GetString("history")

		history, err := parseIDList(historyStr)
		if err != nil {
			return fmt.Errorf("invalid --history: %w", err)
		}

		req := map[string]any{
			"available_time": minutes,
		}
		if userID != "" {
			req["user_id"] = userID
		}
		if genresStr != "" {
			req["genres"] = splitCSV(genresStr)
		}
		if providersStr != "" {
			req["providers"] = splitCSV(providersStr)
		}
		if len(history) > 0 {
			req["history_ids"] = history
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post("/recommend", req)
		if err != nil {
			return err
		}

		var result struct {
			TrackA         trackPayload `json:"track_a"`
			TrackB         trackPayload `json:"track_b"`
			ElapsedSeconds float64      `json:"elapsed_seconds"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printTrack("Preference track", result.TrackA)
		printTrack("Exploration track", result.TrackB)
		fmt.Printf("\nelapsed: %.2fs\n", result.ElapsedSeconds)
		return nil
	},
}

type trackPayload struct {
	Label        string `json:"label"`
	TotalRuntime int    `json:"total_runtime"`
	Movies       []struct {
		ID          int64   `json:"id"`
		Title       string  `json:"title"`
		Runtime     int     `json:"runtime"`
		VoteAverage float64 `json:"vote_average"`
		Score       float64 `json:"score"`
	} `json:"movies"`
}

func printTrack(name string, t trackPayload) {
	fmt.Printf("\n%s (%d min total)\n", colorize(colorBold, name), t.TotalRuntime)
	if len(t.Movies) == 0 {
		fmt.Println("  no combination found")
		return
	}
	for _, m := range t.Movies {
		fmt.Printf("  %s  %s (%d min, %.1f/10, score %.3f)\n",
			colorize(colorCyan, strconv.FormatInt(m.ID, 10)),
			m.Title, m.Runtime, m.VoteAverage, m.Score,
		)
	}
}

func parseIDList(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	parts := splitCSV(s)
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid movie id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	recommendCmd.Flags().Int("time", 0, "available viewing time in minutes")
	recommendCmd.Flags().String("user", "", "user ID for stored history and session tracking")
	recommendCmd.Flags().String("genres", "", "comma-separated preferred genres")
	recommendCmd.Flags().String("providers", "", "comma-separated streaming providers")
	recommendCmd.Flags().String("history", "", "comma-separated watched movie IDs")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, kv := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, kv.Key), kv.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
