package replay

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ScriptsFs holds the built in scripts under scripts/.
//
//go:embed scripts/*.yaml
var ScriptsFs embed.FS

const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// Step is one action of a scripted run. Exactly one of Frame, Delay and Await
// is expected; When makes the step conditional on the last awaited decision.
type Step struct {
	Frame map[string]any `yaml:"frame,omitempty"`
	Delay time.Duration  `yaml:"delay,omitempty"`
	Await string         `yaml:"await,omitempty"` // tool call id
	When  string         `yaml:"when,omitempty"`  // approved or rejected
}

type Run struct {
	Steps []Step `yaml:"steps"`
}

// Script answers successive sends with successive runs, wrapping around.
type Script struct {
	Name string `yaml:"name"`
	Runs []Run  `yaml:"runs"`
}

func (s *Script) Validate() error {
	if len(s.Runs) == 0 {
		return fmt.Errorf("script %q has no runs", s.Name)
	}
	for i, r := range s.Runs {
		for j, st := range r.Steps {
			if st.Frame == nil && st.Delay == 0 && st.Await == "" {
				return fmt.Errorf("run %d step %d is empty", i, j)
			}
			if st.Frame != nil {
				if _, ok := st.Frame["type"].(string); !ok {
					return fmt.Errorf("run %d step %d frame has no type", i, j)
				}
			}
			switch st.When {
			case "", DecisionApproved, DecisionRejected:
			default:
				return fmt.Errorf("run %d step %d has unknown condition %q", i, j, st.When)
			}
		}
	}
	return nil
}

func (s *Script) run(n int) Run {
	return s.Runs[n%len(s.Runs)]
}

func ParseScript(content []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(content, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func LoadScript(path string) (*Script, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(content)
}

// DefaultScript is the built in demo conversation.
func DefaultScript() (*Script, error) {
	content, err := ScriptsFs.ReadFile("scripts/demo.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read builtin script: %w", err)
	}
	return ParseScript(content)
}

// render fills in the correlation fields the script leaves out and expands
// ${task_id} and ${thread_id} in string values.
func render(frame map[string]any, thread, task string) ([]byte, error) {
	out := make(map[string]any, len(frame)+2)
	for k, v := range frame {
		out[k] = v
	}
	if _, ok := out["thread_id"]; !ok {
		out["thread_id"] = thread
	}
	if _, ok := out["task_id"]; !ok {
		out["task_id"] = task
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frame: %w", err)
	}
	r := strings.NewReplacer("${task_id}", task, "${thread_id}", thread)
	return []byte(r.Replace(string(data))), nil
}
