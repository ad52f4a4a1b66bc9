package scanner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clearpath-sec/cloudscan/pkg/logger"
)

// writeTempKeyFile writes a credential payload to a mode 0600 file in dir.
// Callers must remove it when the run finishes.
func writeTempKeyFile(dir, prefix, content string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s-%d.json", prefix, time.Now().UnixNano()))
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("writing temporary credential file: %w", err)
	}
	return path, nil
}

func removeTempFile(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil {
		logger.WarnContext(ctx, "failed to remove temporary file %s: %v", path, err)
	}
}

func splitNonEmptyLines(content []byte) [][]byte {
	var lines [][]byte
	for _, line := range bytes.Split(content, []byte("\n")) {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
