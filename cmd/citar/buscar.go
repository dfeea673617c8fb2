package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var buscarCmd = &cobra.Command{
	Use:   "buscar <tema>",
	Short: "Search articles for a topic and print APA references",
	Long: `buscar classifies the topic, builds one query per source, scores the
candidates and prints the selected articles as APA references.`,
	Example: `  citar buscar "diabetes tipo 2 tratamiento"
  citar buscar --json fisioterapia respiratoria`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(cmd)
		if err != nil {
			return err
		}

		res, err := svc.SearchTopic(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return writeTopicJSON(cmd.OutOrStdout(), res)
		}
		return writeTopic(cmd.OutOrStdout(), res)
	},
}

func init() {
	rootCmd.AddCommand(buscarCmd)
}
