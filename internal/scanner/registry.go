package scanner

import (
	"fmt"

	credentialDomain "github.com/clearpath-sec/cloudscan/internal/credential/domain"
	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
	scannerPort "github.com/clearpath-sec/cloudscan/internal/scanner/port"
)

// Registry resolves a scan's tool name to the backend that executes it.
type Registry struct {
	scanners map[scanDomain.Tool]scannerPort.Scanner
}

func NewRegistry(scanners ...scannerPort.Scanner) *Registry {
	r := &Registry{
		scanners: make(map[scanDomain.Tool]scannerPort.Scanner, len(scanners)),
	}
	for _, s := range scanners {
		r.scanners[s.ToolName()] = s
	}
	return r
}

// Get returns the scanner registered for tool, verifying it can handle the
// given provider.
func (r *Registry) Get(tool scanDomain.Tool, provider credentialDomain.Provider) (scannerPort.Scanner, error) {
	s, ok := r.scanners[scanDomain.NormalizeTool(string(tool))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTool, tool)
	}

	for _, p := range s.SupportedProviders() {
		if p == provider {
			return s, nil
		}
	}

	return nil, fmt.Errorf("%w: %s does not support %s", ErrUnsupportedProvider, tool, provider)
}

// Has reports whether a scanner is registered for tool.
func (r *Registry) Has(tool scanDomain.Tool) bool {
	_, ok := r.scanners[scanDomain.NormalizeTool(string(tool))]
	return ok
}

// Tools lists the registered tool names.
func (r *Registry) Tools() []scanDomain.Tool {
	tools := make([]scanDomain.Tool, 0, len(r.scanners))
	for tool := range r.scanners {
		tools = append(tools, tool)
	}
	return tools
}
