package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wcwagner/wwdc-dl/pkg/index"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the local search index from downloaded content",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := index.Open(cfg.IndexPath)
		if err != nil {
			return err
		}
		defer db.Close()

		yearDir := filepath.Join(rootFlags.directory, yearString())
		indexed, err := db.IndexYear(yearDir, yearString())
		if err != nil {
			return err
		}
		fmt.Printf("Indexed %d sessions for %s\n", indexed, yearString())
		return nil
	},
}

var searchFlags struct {
	limit int
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search downloaded session content",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := index.Open(cfg.IndexPath)
		if err != nil {
			return err
		}
		defer db.Close()

		hits, err := db.Search(strings.Join(args, " "), searchFlags.limit)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("No matches.")
			return nil
		}

		for _, h := range hits {
			fmt.Printf("%s  %s %s\n", idStyle.Render(h.SessionID), h.Title, dimStyle.Render("("+h.Topic+")"))
			if h.Snippet != "" {
				fmt.Printf("      %s\n", h.Snippet)
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchFlags.limit, "limit", "n", 20, "Maximum results")
	rootCmd.AddCommand(indexCmd, searchCmd)
}
