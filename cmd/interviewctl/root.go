package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
)

const app = "interviewctl"

var rootCmd = &cobra.Command{
	Use:           app,
	Short:         "interviewctl runs mock interviews against the interview API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		level := slog.LevelWarn
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().String("resume", "", "path to a resume profile JSON file")
	rootCmd.PersistentFlags().String("lang", "en", "interview language (en or zh)")
}

func loadProfile(path string) (domain.ResumeProfile, error) {
	if path == "" {
		return domain.ResumeProfile{}, fmt.Errorf("--resume is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.ResumeProfile{}, fmt.Errorf("reading resume: %w", err)
	}
	var p domain.ResumeProfile
	if err := json.Unmarshal(b, &p); err != nil {
		return domain.ResumeProfile{}, fmt.Errorf("parsing resume %s: %w", path, err)
	}
	return p, nil
}
