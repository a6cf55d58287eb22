package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
	"github.com/fairyhunter13/ai-mock-interview/internal/usecase"
	"github.com/fairyhunter13/ai-mock-interview/pkg/interviewclient"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a resume into a role category and print its topic briefing",
	Long: "Runs the role classifier locally, or against --server when given. " +
		"Classification is deterministic so both produce the same result.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("resume")
		langFlag, _ := cmd.Flags().GetString("lang")
		server, _ := cmd.Flags().GetString("server")

		profile, err := loadProfile(path)
		if err != nil {
			return err
		}
		lang := domain.ParseLanguage(langFlag)

		var c domain.Classification
		if server != "" {
			c, err = interviewclient.New(server).Classify(cmd.Context(), profile, lang)
			if err != nil {
				return err
			}
		} else {
			c = usecase.Classify(profile, lang)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().String("server", "", "interview API base URL; classify locally when empty")
}
