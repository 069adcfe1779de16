package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wcwagner/wwdc-dl/pkg/httpclient"
	"github.com/wcwagner/wwdc-dl/pkg/topics"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available topics and sessions",
}

var listTopicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Show all available topics",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(headingStyle.Render(fmt.Sprintf("Topics for WWDC %s", yearString())))
		index := topics.NewIndex(yearString(), httpclient.NewClient())
		for _, slug := range index.ListTopics() {
			fmt.Printf("  - %s\n", slug)
		}
	},
}

var listSessionsFlags struct {
	topic string
}

var listSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Show sessions in a topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		index := topics.NewIndex(yearString(), httpclient.NewClient())
		sessions, err := index.SessionsForTopic(cmd.Context(), listSessionsFlags.topic)
		if err != nil {
			return err
		}

		fmt.Println(headingStyle.Render(fmt.Sprintf("Sessions in %q for WWDC %s", listSessionsFlags.topic, yearString())))
		for _, s := range sessions {
			fmt.Printf("  %s  %s %s\n", idStyle.Render(s.ID), s.Title, dimStyle.Render(s.URL))
		}
		return nil
	},
}

func init() {
	listSessionsCmd.Flags().StringVarP(&listSessionsFlags.topic, "topic", "t", "", "Topic name")
	listSessionsCmd.MarkFlagRequired("topic")
	listCmd.AddCommand(listTopicsCmd, listSessionsCmd)
	rootCmd.AddCommand(listCmd)
}
