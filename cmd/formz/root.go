package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/zoobzio/formz"
	"github.com/zoobzio/formz/internal/logging"
)

var logger = logging.NewNop()

var rootCmd = &cobra.Command{
	Use:   "formz",
	Short: "formz checks and serves reactive form documents",
	Long: `formz loads input documents written in YAML or JSON, builds the control
tree they describe and reports its validity. It can also watch a document
and rebuild the form whenever it changes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		levelName, _ := cmd.Flags().GetString("log-level")
		level, err := logging.ParseLevel(levelName)
		if err != nil {
			return err
		}
		logger = logging.New(level)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("format", "auto", "Document format: auto, json or yaml")
}

func codecFor(format string) (formz.Codec, error) {
	switch format {
	case "", "auto":
		return formz.AutoCodec{}, nil
	case "json":
		return formz.JSONCodec{}, nil
	case "yaml", "yml":
		return formz.YAMLCodec{}, nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}
