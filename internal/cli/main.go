package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "clipforge <input>",
		Short:        "Turn a long-form video into short captioned clips",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	// Visible flags
	root.Flags().String("out", "", "Output directory")
	root.Flags().Int("duration", 60, "Target duration in seconds per output video")
	root.Flags().Int("videos", 1, "Number of short videos to create (1-5)")
	root.Flags().Bool("captions", true, "Burn captions into the output videos")
	root.Flags().String("filler-words", "", "Comma-separated filler words to remove (overrides defaults)")
	root.Flags().String("config", "", "Path to a clipforge.yaml config file")

	// Hidden tuning flag (internal)
	root.Flags().String("cache", "", "Cache directory")
	_ = root.Flags().MarkHidden("cache")

	serve := &cobra.Command{
		Use:          "serve",
		Short:        "Run the HTTP job API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runServe,
	}
	serve.Flags().String("addr", ":8080", "Listen address")
	serve.Flags().String("config", "", "Path to a clipforge.yaml config file")
	serve.Flags().String("data", ".data", "Directory for uploads and rendered outputs")
	root.AddCommand(serve)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
