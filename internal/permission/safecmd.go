package permission

import (
	"net"
	"strings"

	"github.com/opencode-ai/toolgate/internal/tool"
)

// safeCommands are read-only utilities that are unconditionally safe to run
// without asking, absent redirections or destructive flags.
var safeCommands = map[string]bool{
	"ls": true, "pwd": true, "echo": true, "cat": true, "head": true,
	"tail": true, "less": true, "more": true, "grep": true, "egrep": true,
	"fgrep": true, "find": true, "wc": true, "sort": true, "uniq": true,
	"which": true, "env": true, "printenv": true, "whoami": true,
	"date": true, "uname": true, "file": true, "stat": true, "du": true,
	"df": true, "tree": true, "basename": true, "dirname": true,
	"realpath": true, "readlink": true, "id": true, "hostname": true,
	"true": true, "type": true,
}

// safeSubcommands are commands safe only for specific read-only
// subcommands, mostly version/dependency introspection.
var safeSubcommands = map[string]map[string]bool{
	"git": {
		"status": true, "log": true, "diff": true, "branch": true, "show": true,
	},
	"go": {
		"version": true, "env": true, "list": true, "doc": true,
	},
	"npm": {
		"ls": true, "list": true, "view": true, "outdated": true, "--version": true,
	},
	"pip": {
		"show": true, "list": true, "--version": true,
	},
	"pip3": {
		"show": true, "list": true, "--version": true,
	},
	"cargo": {
		"tree": true, "metadata": true, "--version": true,
	},
	"dart": {
		"--version": true, "info": true,
	},
	"node":    {"--version": true, "-v": true},
	"python":  {"--version": true, "-V": true},
	"python3": {"--version": true, "-V": true},
}

// destructiveBranchFlags make an otherwise read-only git branch call write.
var destructiveBranchFlags = map[string]bool{
	"-d": true, "-D": true, "-m": true, "-M": true, "-c": true, "-C": true,
	"--delete": true, "--move": true, "--copy": true, "--force": true,
}

// IsSafeBashCommand reports whether a shell command is unconditionally safe
// to auto-approve without consulting user-configured lists: every top-level
// segment must be a read-only utility, a cd that stays under the working
// directory, or a loopback-only network probe. Any output redirection,
// command substitution, or destructive flag vetoes the whole command.
func IsSafeBashCommand(in tool.BashInput, ctx MatchContext) bool {
	if in.Command == "" {
		return false
	}
	if strings.Contains(in.Command, "$(") || strings.Contains(in.Command, "`") {
		return false
	}

	segments := SplitTopLevel(in.Command)
	if len(segments) == 0 {
		return false
	}

	effectiveDir := ctx.CWD
	for _, segment := range segments {
		if target, _, isCd := SplitLeadingCd(segment); isCd {
			if ctx.CWD == "" {
				return false
			}
			resolved, ok := resolveCdTarget(target, effectiveDir)
			if !ok || !isWithinDir(resolved, ctx.CWD) {
				return false
			}
			effectiveDir = resolved
			continue
		}
		if !isSafeSegment(segment, ctx) {
			return false
		}
	}
	return true
}

func isSafeSegment(segment string, ctx MatchContext) bool {
	cmd := ParseSegment(segment)
	if cmd.Name == "" || cmd.HasRedirect {
		return false
	}

	switch cmd.Name {
	case "curl", "wget":
		return isLoopbackProbe(cmd)
	case "find":
		for _, arg := range cmd.Args {
			switch arg {
			case "-delete", "-exec", "-execdir", "-ok", "-okdir", "-fprint", "-fprintf":
				return false
			}
		}
		return true
	case "git":
		if !safeSubcommands["git"][cmd.Subcommand] {
			return false
		}
		if cmd.Subcommand == "branch" {
			for _, arg := range cmd.Args {
				if destructiveBranchFlags[arg] {
					return false
				}
			}
		}
		return true
	}

	if safeCommands[cmd.Name] {
		return true
	}

	if subs, ok := safeSubcommands[cmd.Name]; ok {
		if cmd.Subcommand != "" && subs[cmd.Subcommand] {
			return true
		}
		// Version probes carry the flag as the only argument.
		if len(cmd.Args) == 1 && subs[cmd.Args[0]] {
			return true
		}
	}

	return false
}

// isLoopbackProbe allows curl/wget only against loopback targets and only
// when nothing is written to disk.
func isLoopbackProbe(cmd BashCommand) bool {
	var target string
	for _, arg := range cmd.Args {
		switch {
		case arg == "-o" || arg == "-O" || strings.HasPrefix(arg, "--output"):
			return false
		case strings.HasPrefix(arg, "-"):
			continue
		case target == "":
			target = arg
		}
	}
	if target == "" {
		return false
	}

	host := hostOf(target)
	if host == "" {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
