package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/toolgate/internal/config"
	"github.com/opencode-ai/toolgate/internal/permission"
	"github.com/opencode-ai/toolgate/internal/tool"
)

var (
	checkTool  string
	checkInput string
	denyOnAsk  bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a one-shot permission decision",
	Long: `Check evaluates one tool invocation against the project's permission
settings and prints the decision.

Exit codes: 0 allow, 1 deny, 2 ask.

Examples:
  toolgate check --tool Bash --input '{"command": "ls -la"}'
  toolgate check --tool Write --input '{"file_path": "/proj/main.go", "content": ""}'
  toolgate check --tool WebFetch --input '{"url": "https://pub.dev"}' --deny-on-ask`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := getWorkDir()
		if err != nil {
			return err
		}

		var rawInput map[string]any
		if err := json.Unmarshal([]byte(checkInput), &rawInput); err != nil {
			return fmt.Errorf("invalid --input JSON: %w", err)
		}

		loader := config.NewLoader(cwd)
		defer loader.Close()

		opts := []permission.Option{}
		if denyOnAsk {
			opts = append(opts, permission.WithAskBehavior(permission.DenyOnAsk))
		}
		checker := permission.NewChecker(loader, opts...)
		defer checker.Dispose()

		result := checker.CheckPermission(checkTool, tool.ParseInput(checkTool, rawInput), cwd)
		if result.Decision == permission.Ask && denyOnAsk {
			result = permission.Result{
				Decision: permission.Deny,
				Reason:   "approval required but prompts are disabled",
			}
		}

		fmt.Printf("%s: %s\n", result.Decision, result.Reason)
		if result.InferredPattern != "" {
			fmt.Printf("suggested rule: %s\n", result.InferredPattern)
		}

		switch result.Decision {
		case permission.Deny:
			os.Exit(1)
		case permission.Ask:
			os.Exit(2)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkTool, "tool", "", "Tool name (Bash, Read, Write, Edit, WebFetch, WebSearch, ...)")
	checkCmd.Flags().StringVar(&checkInput, "input", "{}", "Tool input as JSON")
	checkCmd.Flags().BoolVar(&denyOnAsk, "deny-on-ask", false, "Treat ask-user outcomes as deny (non-interactive)")
	checkCmd.MarkFlagRequired("tool")
}
