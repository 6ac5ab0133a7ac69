// Package errs defines the typed error kinds shared across justmcp's
// components, per the error-handling design in SPEC_FULL.md §7.
package errs

import "fmt"

// ParseErrorKind enumerates the sub-kinds of ParseError.
type ParseErrorKind string

const (
	SyntaxTree    ParseErrorKind = "syntax_tree"
	ExternalTool  ParseErrorKind = "external_tool"
	Regex         ParseErrorKind = "regex"
	CircularImport ParseErrorKind = "circular_import"
	MissingImport  ParseErrorKind = "missing_import"
)

// ParseError describes a failure in one parser layer or the import resolver.
type ParseError struct {
	Kind ParseErrorKind
	File string
	Line int // 0 if not applicable
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s:%d", e.Kind, e.File, e.Line)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.File)
}

// CircularImportError builds the ParseError for a detected import cycle.
// The message is stable: callers (and tests) may assert on its prefix.
func CircularImportError(chain []string) *ParseError {
	return &ParseError{
		Kind: CircularImport,
		File: chain[len(chain)-1],
		Msg:  fmt.Sprintf("Circular import detected: %v", chain),
	}
}

// MissingImportError builds the ParseError for a non-optional import whose
// target file does not exist.
func MissingImportError(path string) *ParseError {
	return &ParseError{
		Kind: MissingImport,
		File: path,
		Msg:  fmt.Sprintf("Missing import: %s", path),
	}
}

// RegistryErrorKind enumerates Registry failure modes.
type RegistryErrorKind string

const (
	DuplicateID RegistryErrorKind = "duplicate_id"
	NotFound    RegistryErrorKind = "not_found"
)

// RegistryError describes a Registry operation failure.
type RegistryError struct {
	Kind RegistryErrorKind
	ID   string
}

func (e *RegistryError) Error() string {
	switch e.Kind {
	case DuplicateID:
		return fmt.Sprintf("tool id already registered: %s", e.ID)
	default:
		return fmt.Sprintf("tool id not found: %s", e.ID)
	}
}

// WatcherErrorKind enumerates Watcher failure modes.
type WatcherErrorKind string

const (
	IoError        WatcherErrorKind = "io"
	PermissionError WatcherErrorKind = "permission"
)

// WatcherError describes a filesystem-level failure observed by the watcher.
type WatcherError struct {
	Kind WatcherErrorKind
	Path string
	Err  error
}

func (e *WatcherError) Error() string {
	return fmt.Sprintf("watcher %s error on %s: %v", e.Kind, e.Path, e.Err)
}

func (e *WatcherError) Unwrap() error { return e.Err }

// ProtocolErrorKind enumerates JSON-RPC/MCP protocol failure modes.
type ProtocolErrorKind string

const (
	RPCParseError    ProtocolErrorKind = "parse_error"
	InvalidRequest   ProtocolErrorKind = "invalid_request"
	MethodNotFound   ProtocolErrorKind = "method_not_found"
	InvalidParams    ProtocolErrorKind = "invalid_params"
	Internal         ProtocolErrorKind = "internal"
	NotInitialized   ProtocolErrorKind = "not_initialized"
)

// ProtocolError describes a JSON-RPC-level failure, with its standard code.
type ProtocolError struct {
	Kind ProtocolErrorKind
	Code int
	Msg  string
}

func (e *ProtocolError) Error() string { return e.Msg }

// ToolCallErrorKind enumerates tools/call failure modes.
type ToolCallErrorKind string

const (
	ValidationFailed ToolCallErrorKind = "validation_failed"
	SpawnFailed      ToolCallErrorKind = "spawn_failed"
	Timeout          ToolCallErrorKind = "timeout"
	NonZeroExit      ToolCallErrorKind = "non_zero_exit"
)

// ToolCallError describes a tool invocation failure. These never become
// JSON-RPC errors; they are surfaced as in-band ToolsCallResult content.
type ToolCallError struct {
	Kind   ToolCallErrorKind
	Code   int    // process exit code, for NonZeroExit
	Stderr string // captured stderr, for NonZeroExit
	Msg    string
}

func (e *ToolCallError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	switch e.Kind {
	case NonZeroExit:
		return fmt.Sprintf("exit code %d: %s", e.Code, e.Stderr)
	default:
		return string(e.Kind)
	}
}

// ResourceErrorKind enumerates resource-provider failure modes.
type ResourceErrorKind string

const (
	ResourceNotFound ResourceErrorKind = "not_found"
	ResourceReadFailed ResourceErrorKind = "read_failed"
)

// ResourceError describes a resources/read failure.
type ResourceError struct {
	Kind ResourceErrorKind
	URI  string
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resource %s: %s: %v", e.URI, e.Kind, e.Err)
	}
	return fmt.Sprintf("resource %s: %s", e.URI, e.Kind)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// ErrNoWatchDirectories is the stable message for admin tools invoked with
// an empty watch set.
var ErrNoWatchDirectories = fmt.Errorf("No watch directories configured")

// NoJustfileError builds the stable message for a watch directory with no
// recognizable justfile in it.
func NoJustfileError(dir string) error {
	return fmt.Errorf("No justfile found in %s", dir)
}
