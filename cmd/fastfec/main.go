package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	configPath      string
	includeFilingID bool
	silent          bool
	warn            bool
	disableStdin    bool
	outputDir       string
	noDisk          bool
	bufferSize      int
	lineLogPath     string
	logLevel        string
)

var rootCmd = &cobra.Command{
	Use:   "fastfec [flags] [FILING_FILE]",
	Short: "fastfec - convert FEC filings to CSV",
	Long: `fastfec converts an FEC filing into one CSV file per form type.

Lines in unknown encodings are normalized to UTF-8 (invalid UTF-8 is read as
Latin-1). Output goes to <output-directory>/<filing id>/<form type>.csv.

When no file is given and STDIN is piped, the filing is read from STDIN and
its filing id is STDIN_DATA.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		stdinPiped := !term.IsTerminal(int(os.Stdin.Fd()))
		in, err := resolveInput(args, stdinPiped, disableStdin)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg, in, os.Stdin, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML config file (FASTFEC_* environment variables and flags override it)")
	rootCmd.Flags().BoolVarP(&includeFilingID, "include-filing-id", "f", false, "Include a filing_id column in the output CSV")
	rootCmd.Flags().BoolVarP(&silent, "silent", "s", false, "Suppress output messages")
	rootCmd.Flags().BoolVarP(&warn, "warn", "w", false, "Show warning messages")
	rootCmd.Flags().BoolVar(&disableStdin, "disable-stdin", false, "Read from the given file even if STDIN is piped")
	rootCmd.Flags().StringVarP(&outputDir, "output-directory", "o", "output", "Directory for output files")
	rootCmd.Flags().BoolVar(&noDisk, "no-disk", false, "Do not write output files")
	rootCmd.Flags().IntVar(&bufferSize, "buffer-size", 4096, "Buffer size per output stream in bytes")
	rootCmd.Flags().StringVar(&lineLogPath, "line-log", "", "Also write every completed line of every stream to this file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
