package commands

import (
	"fmt"
	"strings"

	"github.com/Rrens/clipboard-ai/internal/daemon"
	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List LLM providers and their models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printProviders(cmd)
		return nil
	},
}

func printProviders(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	for _, info := range daemon.NewRouter(cfg).Describe() {
		name := info.Name
		if info.Selected {
			name = heading.Sprint(name + " (selected)")
		}

		state := good.Sprint("configured")
		if !info.Configured {
			state = faint.Sprint("not configured")
		}

		fmt.Fprintf(out, "%s  %s\n", name, state)
		if len(info.Models) > 0 {
			fmt.Fprintf(out, "    %s\n", strings.Join(info.Models, ", "))
		}
	}
}
