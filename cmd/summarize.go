package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wcwagner/wwdc-dl/pkg/summarize"
)

var summarizeFlags struct {
	topic string
	force bool
	model string
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Generate AI summaries for downloaded sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		model := summarizeFlags.model
		if model == "" {
			model = cfg.GeminiModel
		}

		s, err := summarize.New(cmd.Context(), os.Getenv("GEMINI_API_KEY"), model)
		if err != nil {
			return err
		}

		dir := filepath.Join(rootFlags.directory, yearString())
		if summarizeFlags.topic != "" {
			dir = filepath.Join(dir, summarizeFlags.topic)
		}

		succeeded, failed := s.SummarizeTree(cmd.Context(), dir, summarizeFlags.force)
		fmt.Printf("Summarized %d sessions (%d failed)\n", succeeded, failed)
		return nil
	},
}

func init() {
	summarizeCmd.Flags().StringVarP(&summarizeFlags.topic, "topic", "t", "", "Limit to one topic directory")
	summarizeCmd.Flags().BoolVar(&summarizeFlags.force, "force", false, "Regenerate existing summaries")
	summarizeCmd.Flags().StringVarP(&summarizeFlags.model, "model", "m", "", "Gemini model (default from config)")
	rootCmd.AddCommand(summarizeCmd)
}
