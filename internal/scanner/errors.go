package scanner

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedTool      = errors.New("unsupported scanner tool")
	ErrUnsupportedProvider  = errors.New("scanner does not support provider")
	ErrAuthenticationFailed = errors.New("scanner authentication failed")
	ErrExecutionFailed      = errors.New("scanner execution failed")
	ErrParsingFailed        = errors.New("scanner output parsing failed")
)

// authErrorMarkers are substrings that identify a credential problem in
// scanner output, as opposed to an execution failure.
var authErrorMarkers = []string{
	"invalidclienttokenid",
	"signaturedoesnotmatch",
	"authfailure",
	"accessdenied",
	"access denied",
	"unauthorizedoperation",
	"invalid_client",
	"invalid_grant",
	"authentication failed",
	"could not load credentials",
	"unable to locate credentials",
	"permission_denied",
	"expired token",
}

// classifyRunError wraps a tool execution failure as an authentication or
// execution error based on what the tool printed.
func classifyRunError(err error, output []byte) error {
	combined := strings.ToLower(err.Error() + " " + string(output))
	for _, marker := range authErrorMarkers {
		if strings.Contains(combined, marker) {
			return fmt.Errorf("%w: %s", ErrAuthenticationFailed, summarizeOutput(err, output))
		}
	}
	return fmt.Errorf("%w: %s", ErrExecutionFailed, summarizeOutput(err, output))
}

// summarizeOutput keeps error messages short enough to be useful in logs
// and in the scan error column.
func summarizeOutput(err error, output []byte) string {
	const maxOutput = 512

	trimmed := strings.TrimSpace(string(output))
	if len(trimmed) > maxOutput {
		trimmed = trimmed[len(trimmed)-maxOutput:]
	}
	if trimmed == "" {
		return err.Error()
	}
	return err.Error() + ": " + trimmed
}

// clamp bounds string columns that scanners populate from raw tool output.
func clamp(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
