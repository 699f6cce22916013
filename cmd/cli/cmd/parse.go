package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [text]",
	Short: "Extract tracking numbers from free text",
	Long: `Extract tracking numbers and shipment details from free text, such
as a pasted order-confirmation email. Reads from stdin when no argument is
given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	var content string
	if len(args) == 1 {
		content = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		content = string(data)
	}

	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("no content to parse")
	}

	_, formatter, client, err := initializeClient()
	if err != nil {
		return err
	}

	extraction, err := client.Parse(content)
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	return formatter.PrintExtraction(extraction)
}
