package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/wavefn/internal/ir"
	"github.com/roach88/wavefn/internal/runtime"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Used for the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// MaxBytes overrides the registry payload limit. Nil means the default.
	MaxBytes *uint32 `yaml:"max_bytes,omitempty"`

	// Hashing selects the id hash algorithm. Empty means the default.
	Hashing string `yaml:"hashing,omitempty"`

	// Accounts maps names used by steps to hex account ids.
	Accounts map[string]string `yaml:"accounts,omitempty"`

	// Steps are submitted in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one submitted call.
type Step struct {
	// Call is the call name. Empty means add_wavefunction.
	Call string `yaml:"call,omitempty"`

	// Origin names the signing account. Empty means unsigned.
	Origin string `yaml:"origin,omitempty"`

	// Payload is the submitted wave function. Nil means empty.
	Payload *Payload `yaml:"payload,omitempty"`

	// Expect checks the call's outcome. Nil means unchecked.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Payload describes a byte string. At most one field may be set.
type Payload struct {
	// Zeros is a run of N zero bytes.
	Zeros *int `yaml:"zeros,omitempty"`

	// Hex is hex-encoded bytes, with or without 0x.
	Hex *string `yaml:"hex,omitempty"`

	// Text is UTF-8 text.
	Text *string `yaml:"text,omitempty"`
}

// Bytes returns the payload's bytes.
func (p *Payload) Bytes() ([]byte, error) {
	if p == nil {
		return []byte{}, nil
	}
	switch {
	case p.Zeros != nil:
		return make([]byte, *p.Zeros), nil
	case p.Hex != nil:
		return ir.DecodeHex(*p.Hex)
	case p.Text != nil:
		return []byte(*p.Text), nil
	default:
		return []byte{}, nil
	}
}

// Expect is a step's expected outcome. Exactly one field is set.
type Expect struct {
	// OK expects the call to commit.
	OK bool `yaml:"ok,omitempty"`

	// Error expects the call to fail with this code.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected number (record_count, event_count).
	Count *int `yaml:"count,omitempty"`

	// Steps are step indexes (ids_equal, ids_distinct).
	Steps []int `yaml:"steps,omitempty"`

	// Step is a step index (record_matches).
	Step *int `yaml:"step,omitempty"`

	// ID optionally pins the expected record id (record_matches).
	ID string `yaml:"id,omitempty"`
}

// Assertion type constants.
const (
	AssertRecordCount   = "record_count"
	AssertEventCount    = "event_count"
	AssertIDsEqual      = "ids_equal"
	AssertIDsDistinct   = "ids_distinct"
	AssertRecordMatches = "record_matches"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is invalid.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks required fields and cross references.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Hashing != "" {
		if _, err := ir.ParseHasher(s.Hashing); err != nil {
			return err
		}
	}

	for name, hex := range s.Accounts {
		if _, err := ir.ParseAccountID(hex); err != nil {
			return fmt.Errorf("accounts.%s: %w", name, err)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, s, &step); err != nil {
			return err
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, len(s.Steps), &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(i int, s *Scenario, step *Step) error {
	if step.Origin != "" {
		if _, ok := s.Accounts[step.Origin]; !ok {
			return fmt.Errorf("steps[%d]: unknown account %q", i, step.Origin)
		}
	}

	if p := step.Payload; p != nil {
		set := 0
		if p.Zeros != nil {
			set++
			if *p.Zeros < 0 {
				return fmt.Errorf("steps[%d].payload: zeros must be non-negative", i)
			}
		}
		if p.Hex != nil {
			set++
			if _, err := ir.DecodeHex(*p.Hex); err != nil {
				return fmt.Errorf("steps[%d].payload: %w", i, err)
			}
		}
		if p.Text != nil {
			set++
		}
		if set > 1 {
			return fmt.Errorf("steps[%d].payload: set only one of zeros, hex, text", i)
		}
	}

	if e := step.Expect; e != nil {
		if e.OK == (e.Error != "") {
			return fmt.Errorf("steps[%d].expect: set exactly one of ok, error", i)
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index, steps int, a *Assertion) error {
	checkStep := func(n int) error {
		if n < 0 || n >= steps {
			return fmt.Errorf("assertions[%d]: step %d out of range", index, n)
		}
		return nil
	}

	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRecordCount, AssertEventCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case AssertIDsEqual, AssertIDsDistinct:
		if len(a.Steps) < 2 {
			return fmt.Errorf("assertions[%d]: at least two steps are required for %s", index, a.Type)
		}
		for _, n := range a.Steps {
			if err := checkStep(n); err != nil {
				return err
			}
		}
	case AssertRecordMatches:
		if a.Step == nil {
			return fmt.Errorf("assertions[%d]: step is required for record_matches", index)
		}
		if err := checkStep(*a.Step); err != nil {
			return err
		}
		if a.ID != "" {
			if _, err := ir.ParseRecordID(a.ID); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// callName returns the step's call, defaulting to add_wavefunction.
func (s Step) callName() string {
	if s.Call == "" {
		return runtime.CallAddWaveFunction
	}
	return s.Call
}
