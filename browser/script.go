// Package browser replays scripted sequences of UI actions against a real
// browser session. A script is data, not code: it lives in the actions
// section of the configuration file so the operator can follow site changes
// by editing selectors.
package browser

import (
	"fmt"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Step operations. Selectors are XPath expressions.
const (
	OpNavigate = "navigate" // arg: URL
	OpClick    = "click"    // arg: selector
	OpFill     = "fill"     // arg: selector, value: text to type
	OpClear    = "clear"    // arg: selector
	OpText     = "text"     // arg: selector, reads the node text into the result
	OpWait     = "wait"     // arg: selector, waits for visibility
	OpSleep    = "sleep"    // value: duration
	OpRefresh  = "refresh"  //
	OpExist    = "exist"    // arg: selector, then: steps run only when present
)

// Step is one tagged UI action.
type Step struct {
	Op    string `yaml:"op"`
	Arg   string `yaml:"arg,omitempty"`
	Value string `yaml:"value,omitempty"`
	Then  []Step `yaml:"then,omitempty"`
}

// Script is an ordered, fixed sequence of steps. Execution is strictly
// linear: either every step completes or the whole run fails.
type Script []Step

// ParseScript decodes a YAML step list and validates it.
func ParseScript(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("cannot parse browser script: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s Script) validate() error {
	for i, step := range s {
		switch step.Op {
		case OpNavigate, OpClick, OpClear, OpText, OpWait:
			if step.Arg == "" {
				return fmt.Errorf("step %d (%s): missing arg", i, step.Op)
			}
		case OpFill:
			if step.Arg == "" {
				return fmt.Errorf("step %d (%s): missing arg", i, step.Op)
			}
		case OpSleep:
			if _, err := time.ParseDuration(step.Value); err != nil {
				return fmt.Errorf("step %d (sleep): bad duration %q: %w", i, step.Value, err)
			}
		case OpRefresh:
		case OpExist:
			if step.Arg == "" {
				return fmt.Errorf("step %d (exist): missing arg", i)
			}
			if err := Script(step.Then).validate(); err != nil {
				return fmt.Errorf("step %d (exist): %w", i, err)
			}
		default:
			return fmt.Errorf("step %d: unknown op %q", i, step.Op)
		}
	}
	return nil
}

var placeholderPattern = regexp.MustCompile(`\$\{([^}:]+):([^}]+)\}`)

// Expand substitutes ${section:option} placeholders in every step argument
// and value, using lookup for resolution. Unresolvable placeholders are an
// error: running a script with a literal placeholder would silently act on
// the wrong element.
func (s Script) Expand(lookup func(section, option string) (string, bool)) (Script, error) {
	out := make(Script, len(s))
	for i, step := range s {
		var err error
		if step.Arg, err = expand(step.Arg, lookup); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		if step.Value, err = expand(step.Value, lookup); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		if step.Then != nil {
			if step.Then, err = Script(step.Then).Expand(lookup); err != nil {
				return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
			}
		}
		out[i] = step
	}
	return out, nil
}

func expand(s string, lookup func(section, option string) (string, bool)) (string, error) {
	var missing error
	expanded := placeholderPattern.ReplaceAllStringFunc(s, func(ph string) string {
		m := placeholderPattern.FindStringSubmatch(ph)
		v, ok := lookup(m[1], m[2])
		if !ok {
			missing = fmt.Errorf("unresolved placeholder %s", ph)
			return ph
		}
		return v
	})
	return expanded, missing
}
