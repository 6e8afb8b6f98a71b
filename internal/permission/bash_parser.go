package permission

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// BashCommand represents a parsed command with its arguments.
type BashCommand struct {
	Name        string   // Command name (e.g., "rm", "git")
	Args        []string // Command arguments
	Subcommand  string   // First non-flag argument (e.g., "commit" in "git commit")
	HasRedirect bool     // Output redirection (>, >>, &>) present
}

// ParseBashCommand parses a bash command string into structured commands,
// one per call expression in evaluation order.
func ParseBashCommand(command string) ([]BashCommand, error) {
	parser := syntax.NewParser(
		syntax.Variant(syntax.LangBash),
		syntax.KeepComments(false),
	)

	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	var commands []BashCommand
	syntax.Walk(file, func(node syntax.Node) bool {
		switch n := node.(type) {
		case *syntax.Stmt:
			if call, ok := n.Cmd.(*syntax.CallExpr); ok {
				if cmd := extractCommand(call); cmd != nil {
					cmd.HasRedirect = hasOutputRedirect(n.Redirs)
					commands = append(commands, *cmd)
				}
			}
		}
		return true
	})

	return commands, nil
}

// ParseSegment parses a single top-level segment into one BashCommand. When
// the segment does not parse (unterminated quote, stray operator), it falls
// back to whitespace splitting so callers always get a best-effort name to
// fail closed on.
func ParseSegment(segment string) BashCommand {
	cmds, err := ParseBashCommand(segment)
	if err == nil && len(cmds) > 0 {
		return cmds[0]
	}

	fields := strings.Fields(segment)
	cmd := BashCommand{HasRedirect: strings.Contains(segment, ">")}
	if len(fields) > 0 {
		cmd.Name = fields[0]
		cmd.Args = fields[1:]
		for _, arg := range cmd.Args {
			if !strings.HasPrefix(arg, "-") {
				cmd.Subcommand = arg
				break
			}
		}
	}
	return cmd
}

// hasOutputRedirect reports whether any redirection writes to a file or
// clobbers output. Input redirection (<, <<) is harmless.
func hasOutputRedirect(redirs []*syntax.Redirect) bool {
	for _, r := range redirs {
		switch r.Op {
		case syntax.RdrOut, syntax.AppOut, syntax.RdrAll, syntax.AppAll, syntax.ClbOut, syntax.DplOut:
			return true
		}
	}
	return false
}

// extractCommand extracts command name and arguments from a CallExpr.
func extractCommand(call *syntax.CallExpr) *BashCommand {
	if len(call.Args) == 0 {
		return nil
	}

	cmd := &BashCommand{}

	cmd.Name = wordToString(call.Args[0])
	if cmd.Name == "" {
		return nil
	}

	for _, arg := range call.Args[1:] {
		argStr := wordToString(arg)
		cmd.Args = append(cmd.Args, argStr)

		// Find first non-flag argument as subcommand
		if cmd.Subcommand == "" && !strings.HasPrefix(argStr, "-") {
			cmd.Subcommand = argStr
		}
	}

	return cmd
}

// wordToString converts a syntax.Word to a string. Dynamic parts (variable
// expansion, command substitution) become placeholders so callers can treat
// them as unresolvable rather than trusting their literal spelling.
func wordToString(word *syntax.Word) string {
	var sb strings.Builder
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, qp := range p.Parts {
				if lit, ok := qp.(*syntax.Lit); ok {
					sb.WriteString(lit.Value)
				}
			}
		case *syntax.ParamExp:
			sb.WriteString("$" + p.Param.Value)
		case *syntax.CmdSubst:
			sb.WriteString("$()")
		}
	}
	return sb.String()
}
