package scanner

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRunError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		output  string
		wantErr error
	}{
		{
			name:    "invalid token in output",
			err:     errors.New("exit status 1"),
			output:  "An error occurred (InvalidClientTokenId) when calling the GetCallerIdentity operation",
			wantErr: ErrAuthenticationFailed,
		},
		{
			name:    "access denied in output",
			err:     errors.New("exit status 1"),
			output:  "Access Denied: user is not authorized",
			wantErr: ErrAuthenticationFailed,
		},
		{
			name:    "auth marker in the error itself",
			err:     errors.New("authentication failed for principal"),
			output:  "",
			wantErr: ErrAuthenticationFailed,
		},
		{
			name:    "plain crash",
			err:     errors.New("exit status 2"),
			output:  "panic: runtime error",
			wantErr: ErrExecutionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyRunError(tt.err, []byte(tt.output))
			assert.ErrorIs(t, got, tt.wantErr)
		})
	}
}

func TestSummarizeOutput(t *testing.T) {
	t.Run("empty output falls back to the error", func(t *testing.T) {
		got := summarizeOutput(errors.New("exit status 1"), []byte("  \n"))
		assert.Equal(t, "exit status 1", got)
	})

	t.Run("long output keeps the tail", func(t *testing.T) {
		output := strings.Repeat("x", 600) + "final words"
		got := summarizeOutput(errors.New("exit status 1"), []byte(output))

		assert.True(t, strings.HasSuffix(got, "final words"))
		assert.LessOrEqual(t, len(got), len("exit status 1: ")+512)
	})
}
