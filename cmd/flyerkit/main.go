package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/flyerkit/backend/internal/usecase"
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flyerkit",
		Short: "Offer text tools for FlyerKit",
		Long: `flyerkit works with the pasted offer lists that become promotional flyers.

Use "flyerkit parse" to see how a list is split into header lines and priced items
before submitting it to the server.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseCmd() *cobra.Command {
	var (
		compact bool
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse offer text into header lines and priced items",
		Long: `Parse reads offer text from a file, or from stdin when no file is given, and prints
the result as JSON. Lines without a recognizable price are left out.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				input = f
			}

			text, err := io.ReadAll(input)
			if err != nil {
				return fmt.Errorf("failed to read offer text: %w", err)
			}

			result := usecase.NewOfferParser(debug).Parse(string(text))

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetEscapeHTML(false)
			if !compact {
				encoder.SetIndent("", "  ")
			}
			return encoder.Encode(result)
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "print JSON on a single line")
	cmd.Flags().BoolVar(&debug, "debug", false, "log how each line was classified")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "flyerkit %s\n", version)
		},
	}
}
