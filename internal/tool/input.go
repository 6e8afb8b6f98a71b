// Package tool defines the typed tool-input model shared by the permission
// engine. Each tool-use event decoded from an agent's event stream arrives as
// a (toolName, argument map) pair; ParseInput converts it into one of a
// closed set of input variants so the matcher and classifier work with typed
// fields instead of untyped maps.
package tool

// Input is the closed set of tool inputs. Implementations are the *Input
// structs in this package; external packages cannot add variants.
type Input interface {
	isInput()
}

// BashInput is the input for the Bash tool.
// SDK compatible: accepts both camelCase and snake_case field names.
type BashInput struct {
	Command     string
	Description string
}

// ReadInput is the input for the Read tool.
type ReadInput struct {
	FilePath string
}

// WriteInput is the input for the Write tool.
type WriteInput struct {
	FilePath string
	Content  string
}

// EditInput is the input for the Edit tool.
type EditInput struct {
	FilePath  string
	OldString string
	NewString string
}

// WebFetchInput is the input for the WebFetch tool.
type WebFetchInput struct {
	URL string
}

// WebSearchInput is the input for the WebSearch tool.
type WebSearchInput struct {
	Query string
}

// UnknownInput is the input for any tool name without a typed mapping,
// including MCP tools (mcp__server__tool). The raw argument map is retained
// for logging and auditing only; the engine never matches on it.
type UnknownInput struct {
	ToolName string
	Raw      map[string]any
}

func (BashInput) isInput()      {}
func (ReadInput) isInput()      {}
func (WriteInput) isInput()     {}
func (EditInput) isInput()      {}
func (WebFetchInput) isInput()  {}
func (WebSearchInput) isInput() {}
func (UnknownInput) isInput()   {}

// ParseInput builds a typed input from a raw tool-use event. The variant is
// fully determined by toolName; unmapped names become UnknownInput. Missing
// fields yield zero values, which downstream checks treat as no-match.
func ParseInput(toolName string, args map[string]any) Input {
	switch toolName {
	case "Bash":
		return BashInput{
			Command:     str(args, "command"),
			Description: str(args, "description"),
		}
	case "Read":
		return ReadInput{FilePath: pathField(args)}
	case "Write":
		return WriteInput{
			FilePath: pathField(args),
			Content:  str(args, "content"),
		}
	case "Edit":
		return EditInput{
			FilePath:  pathField(args),
			OldString: str(args, "oldString", "old_string"),
			NewString: str(args, "newString", "new_string"),
		}
	case "WebFetch":
		return WebFetchInput{URL: str(args, "url")}
	case "WebSearch":
		return WebSearchInput{Query: str(args, "query")}
	default:
		return UnknownInput{ToolName: toolName, Raw: args}
	}
}

// FilePathOf returns the file path carried by path-bearing variants and
// false for everything else.
func FilePathOf(input Input) (string, bool) {
	switch in := input.(type) {
	case ReadInput:
		return in.FilePath, true
	case WriteInput:
		return in.FilePath, true
	case EditInput:
		return in.FilePath, true
	}
	return "", false
}

// pathField reads the file path under either naming convention; the
// TypeScript SDK emits camelCase while the agent wire format uses snake_case.
func pathField(args map[string]any) string {
	return str(args, "filePath", "file_path")
}

func str(args map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := args[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
