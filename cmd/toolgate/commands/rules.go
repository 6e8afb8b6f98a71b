package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/toolgate/internal/config"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the effective permission rules",
	Long: `Rules prints the merged allow/deny/ask lists loaded from the project's
settings files (.claude/settings.local.json, .claude/settings.json and the
user-level ~/.claude/settings.json).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := getWorkDir()
		if err != nil {
			return err
		}

		settings := config.Load(cwd)
		printList("deny", settings.Permissions.Deny)
		printList("ask", settings.Permissions.Ask)
		printList("allow", settings.Permissions.Allow)
		return nil
	},
}

func printList(name string, rules []string) {
	if len(rules) == 0 {
		fmt.Printf("%s: (none)\n", name)
		return
	}
	fmt.Printf("%s:\n", name)
	for _, r := range rules {
		fmt.Printf("  %s\n", r)
	}
}
