package sanitize

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Built-in role-reassignment prefixes. Stripping these is best-effort
// defense in depth against prompt injection, not a security boundary: a
// determined input can still steer the model.
var defaultPatterns = []string{
	`^/system\s*:?\s*`,
	`^/prompt\s*:?\s*`,
	`^\[system\]`,
	`^(system|assistant|user)\s*:\s*`,
}

// Filter strips recognizable instruction-override prefixes from text bound
// for the model.
type Filter struct {
	patterns []*regexp.Regexp
}

type filterFile struct {
	Patterns []string `yaml:"patterns"`
}

// NewFilter returns a Filter with the built-in pattern set.
func NewFilter() *Filter {
	f := &Filter{}
	for _, p := range defaultPatterns {
		f.patterns = append(f.patterns, regexp.MustCompile(`(?i)`+p))
	}
	return f
}

// LoadFilter builds a Filter from the built-in patterns plus any extras in
// the YAML file at path. An empty path yields the defaults.
func LoadFilter(path string) (*Filter, error) {
	f := NewFilter()
	if path == "" {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read filter file: %w", err)
	}

	var file filterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse filter file: %w", err)
	}

	for _, p := range file.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile filter pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
	}

	return f, nil
}

// Apply strips matching prefixes and NUL bytes from text. Each pattern is
// applied once, in order, mirroring how the prefixes stack in practice
// ("/system: user: ..." loses both).
func (f *Filter) Apply(text string) string {
	out := text
	for _, re := range f.patterns {
		out = re.ReplaceAllString(out, "")
	}

	return strings.ReplaceAll(out, "\x00", "")
}
