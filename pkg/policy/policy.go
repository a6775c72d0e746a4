package policy

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "250ms"
// or "1m30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Policy is a named timeout configuration: a default budget, an optional hard
// ceiling, and per-operation overrides. It lets deployments tune timeouts in
// a file instead of recompiling.
//
//	default: 5s
//	max: 1m
//	per_op:
//	  fetch-report: 30s
//	  health-check: 500ms
type Policy struct {
	Default Duration            `yaml:"default"`
	Max     Duration            `yaml:"max"`
	PerOp   map[string]Duration `yaml:"per_op"`
}

// Parse decodes a policy document.
func Parse(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}
	if p.Default <= 0 {
		return nil, fmt.Errorf("policy must set a positive default timeout")
	}
	return &p, nil
}

// Load reads and parses a policy file.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return Parse(data)
}

// For returns the effective timeout for an operation: the per-op value when
// present, else the default, clamped to Max when a ceiling is configured.
func (p *Policy) For(op string) time.Duration {
	d := p.Default
	if perOp, ok := p.PerOp[op]; ok {
		d = perOp
	}
	if p.Max > 0 && d > p.Max {
		d = p.Max
	}
	return time.Duration(d)
}
