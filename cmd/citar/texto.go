package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var textoCmd = &cobra.Command{
	Use:   "texto [texto]",
	Short: "Insert (Author, Year) citations into a text",
	Long: `texto reads a document from the argument, from --file, or from standard
input, inserts inline citations and prints the cited text followed by the
numbered reference list.`,
	Example: `  citar texto "La fisioterapia respiratoria mejora la función pulmonar."
  citar texto --file borrador.txt
  cat borrador.txt | citar texto`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		doc, err := readDocument(cmd.InOrStdin(), args, file)
		if err != nil {
			return err
		}

		svc, err := newService(cmd)
		if err != nil {
			return err
		}

		res, err := svc.CiteText(cmd.Context(), doc)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return writeCitationJSON(cmd.OutOrStdout(), res)
		}
		return writeCitation(cmd.OutOrStdout(), res)
	},
}

func init() {
	textoCmd.Flags().StringP("file", "f", "", "read the text from a file")
	rootCmd.AddCommand(textoCmd)
}

// readDocument returns the text to cite. An argument wins over --file, and
// --file wins over stdin.
func readDocument(stdin io.Reader, args []string, file string) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", fmt.Errorf("no text given: pass it as an argument, with --file, or on stdin")
		}
		return string(data), nil
	}
}
