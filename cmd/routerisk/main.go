package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"freshlogic/internal/crops"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootFlags struct {
	cropsFile string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "routerisk",
		Short: "Score spoilage risk of produce along a cold-chain route",
		Long:  "routerisk evaluates a sequence of route checkpoints for a crop with the\nbuilt-in reference models and reports cumulative spoilage risk.",
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage: true,
		Version:      version,
	}
	cmd.PersistentFlags().StringVar(&flags.cropsFile, "crops-file", "", "YAML crop profile dataset (default: built-in)")

	cmd.AddCommand(newAnalyzeCmd(flags))
	cmd.AddCommand(newCropsCmd(flags))
	cmd.AddCommand(newVPDCmd())
	return cmd
}

func (f *rootFlags) store() (*crops.Store, error) {
	return crops.Load(f.cropsFile)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
