package cmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "lingualoop",
	Short: "Adaptive skill-rating and dialogue-evaluation backend",
	Long: "Lingualoop tracks per-skill Elo-style ratings for language learners,\n" +
		"maps them to CEFR levels, and scores open-ended conversation practice\n" +
		"through an LLM evaluation gateway.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}
