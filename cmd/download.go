package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wcwagner/wwdc-dl/pkg/downloader"
	"github.com/wcwagner/wwdc-dl/pkg/httpclient"
	"github.com/wcwagner/wwdc-dl/pkg/media"
	"github.com/wcwagner/wwdc-dl/pkg/topics"
)

var downloadFlags struct {
	sessions string
	topic    string
	textOnly bool
	force    bool
	workers  int
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download WWDC sessions by id or topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		if downloadFlags.sessions == "" && downloadFlags.topic == "" {
			return fmt.Errorf("specify either --session or --topic")
		}
		if downloadFlags.sessions != "" && downloadFlags.topic != "" {
			return fmt.Errorf("specify either --session or --topic, not both")
		}

		workers := downloadFlags.workers
		if workers <= 0 {
			workers = cfg.Workers
		}

		client := httpclient.NewClient()
		dl := downloader.New(downloader.Config{
			Year:      yearString(),
			OutputDir: rootFlags.directory,
			Client:    client,
			Topics:    topics.NewIndex(yearString(), client),
			Media:     media.NewWithFFmpeg(cfg.FFmpegPath),
			Workers:   workers,
		})

		var results []downloader.Result
		if downloadFlags.sessions != "" {
			var ids []string
			for _, id := range strings.Split(downloadFlags.sessions, ",") {
				if id = strings.TrimSpace(id); id != "" {
					ids = append(ids, id)
				}
			}
			results = dl.DownloadSessions(cmd.Context(), ids, downloadFlags.textOnly, downloadFlags.force)
		} else {
			var err error
			results, err = dl.DownloadTopic(cmd.Context(), downloadFlags.topic, downloadFlags.textOnly, downloadFlags.force)
			if err != nil {
				return err
			}
		}

		failed := 0
		for _, res := range results {
			if res.Err != nil {
				failed++
			}
		}
		if failed == len(results) && len(results) > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadFlags.sessions, "session", "s", "", "Session ID(s), comma-separated")
	downloadCmd.Flags().StringVarP(&downloadFlags.topic, "topic", "t", "", `Topic name or "all"`)
	downloadCmd.Flags().BoolVar(&downloadFlags.textOnly, "text-only", false, "Skip video downloads")
	downloadCmd.Flags().BoolVar(&downloadFlags.force, "force", false, "Re-download existing files")
	downloadCmd.Flags().IntVar(&downloadFlags.workers, "workers", 0, "Concurrent session limit (default from config)")
	rootCmd.AddCommand(downloadCmd)
}
