package permission

import (
	"path/filepath"
	"strings"
)

// SplitTopLevel splits a raw command string into its top-level segments
// along &&, ||, ; and unquoted |, treating content inside matching single
// or double quotes as opaque. An unterminated quote makes the rest of the
// string part of the current segment. Empty segments are dropped.
func SplitTopLevel(command string) []string {
	var segments []string
	var current strings.Builder
	var quote byte

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			segments = append(segments, s)
		}
		current.Reset()
	}

	for i := 0; i < len(command); i++ {
		c := command[i]

		if quote != 0 {
			current.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}

		switch c {
		case '\'', '"':
			quote = c
			current.WriteByte(c)
		case '\\':
			current.WriteByte(c)
			if i+1 < len(command) {
				i++
				current.WriteByte(command[i])
			}
		case '&', '|':
			if i+1 < len(command) && command[i+1] == c {
				flush()
				i++
			} else if c == '|' {
				flush()
			} else {
				// Single & (background); not an operator we split on.
				current.WriteByte(c)
			}
		case ';':
			flush()
		default:
			current.WriteByte(c)
		}
	}
	flush()

	return segments
}

// SplitLeadingCd recognizes a command beginning with "cd <path> && ..." and
// returns the cd target and the remainder. A command that is just
// "cd <path>" yields the target and an empty remainder. ok is false when
// the command does not start with cd. Target paths (./x, ../x, ~/x) are
// returned as-is; resolution against a base directory is the caller's job.
func SplitLeadingCd(command string) (cdTarget, remainder string, ok bool) {
	trimmed := strings.TrimSpace(command)
	if trimmed != "cd" && !strings.HasPrefix(trimmed, "cd ") {
		return "", "", false
	}

	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "cd"))
	if idx := strings.Index(rest, "&&"); idx >= 0 {
		return strings.TrimSpace(rest[:idx]), strings.TrimSpace(rest[idx+2:]), true
	}
	return rest, "", true
}

// resolveCdTarget lexically resolves a cd target against a base directory.
// Targets using ~ cannot be resolved relative to the base and report false.
func resolveCdTarget(target, base string) (string, bool) {
	if target == "" {
		return "", false
	}
	if strings.HasPrefix(target, "~") {
		return "", false
	}
	target = unquote(target)
	if filepath.IsAbs(target) {
		return filepath.Clean(target), true
	}
	if base == "" {
		return "", false
	}
	return filepath.Clean(filepath.Join(base, target)), true
}

// isWithinDir checks if path is at or below dir after cleaning both.
func isWithinDir(path, dir string) bool {
	path = filepath.Clean(path)
	dir = filepath.Clean(dir)

	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, "../"))
}

// unquote strips one level of matching single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
