package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wcwagner/wwdc-dl/pkg/export"
	"github.com/wcwagner/wwdc-dl/pkg/httpclient"
)

var exportFlags struct {
	topic     string
	output    string
	resources bool
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Concatenate downloaded content into one LLM-ready file",
	RunE: func(cmd *cobra.Command, args []string) error {
		yearDir := filepath.Join(rootFlags.directory, yearString())
		exporter := export.New(httpclient.NewClient(), exportFlags.resources)

		outFile := exportFlags.output
		if strings.EqualFold(exportFlags.topic, "all") {
			if outFile == "" {
				outFile = filepath.Join(rootFlags.directory, fmt.Sprintf("wwdc-%s-llm.txt", yearString()))
			}
			return exporter.Consolidated(cmd.Context(), yearDir, outFile, nil)
		}

		if outFile == "" {
			outFile = filepath.Join(rootFlags.directory, fmt.Sprintf("%s-llm.txt", exportFlags.topic))
		}
		return exporter.Topic(cmd.Context(), yearDir, exportFlags.topic, outFile)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFlags.topic, "topic", "t", "", `Topic to export or "all"`)
	exportCmd.Flags().StringVarP(&exportFlags.output, "output", "o", "", "Output file path")
	exportCmd.Flags().BoolVar(&exportFlags.resources, "resources", false, "Fetch resource pages and inline them as markdown")
	exportCmd.MarkFlagRequired("topic")
	rootCmd.AddCommand(exportCmd)
}
