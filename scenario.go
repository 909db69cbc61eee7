package calce2e

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/go-rod/calce2e/lib/input"
	"gopkg.in/yaml.v3"
)

// Groups of the scenarios
var Groups = []string{"basic", "functions", "keyboard", "edge"}

// StepKind is the action of a Step
type StepKind string

const (
	// StepClick clicks a control, the arg is a selector such as "digit 5"
	StepClick StepKind = "click"
	// StepType types the arg into the display
	StepType StepKind = "type"
	// StepKey presses a key on the display, the arg is a key name such as "Backspace"
	StepKey StepKind = "key"
	// StepExpect asserts the display shows exactly the arg
	StepExpect StepKind = "expect"
)

// Step of a scenario
type Step struct {
	Kind StepKind
	Arg  string
}

// ClickOn step
func ClickOn(s Selector) Step {
	return Step{Kind: StepClick, Arg: s.String()}
}

// TypeText step
func TypeText(text string) Step {
	return Step{Kind: StepType, Arg: text}
}

// PressKey step
func PressKey(k input.Key) Step {
	return Step{Kind: StepKey, Arg: k.Name()}
}

// Expect step
func Expect(display string) Step {
	return Step{Kind: StepExpect, Arg: display}
}

func (s Step) String() string {
	return fmt.Sprintf("%s %s", s.Kind, s.Arg)
}

// UnmarshalYAML decodes a single key map, such as {click: digit 5}
func (s *Step) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return fmt.Errorf("line %d: a step must be a map with exactly one of click, type, key, expect", n.Line)
	}

	var arg string
	err := n.Content[1].Decode(&arg)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}

	s.Kind = StepKind(n.Content[0].Value)
	s.Arg = arg
	return nil
}

// MarshalYAML encodes the step as a single key map
func (s Step) MarshalYAML() (interface{}, error) {
	return map[string]string{string(s.Kind): s.Arg}, nil
}

// Validate the step without running it
func (s Step) Validate() error {
	switch s.Kind {
	case StepClick:
		_, err := ParseSelector(s.Arg)
		return err
	case StepType:
		if s.Arg == "" {
			return errors.New("nothing to type")
		}
		_, err := input.Keys(s.Arg)
		return err
	case StepKey:
		_, err := input.Parse(s.Arg)
		return err
	case StepExpect:
		return nil
	}
	return fmt.Errorf("unknown step kind %q", s.Kind)
}

// Run the step with the driver
func (s Step) Run(ctx context.Context, d *Driver) error {
	switch s.Kind {
	case StepClick:
		sel, err := ParseSelector(s.Arg)
		if err != nil {
			return err
		}
		return d.Click(ctx, sel)
	case StepType:
		return d.Type(ctx, s.Arg)
	case StepKey:
		k, err := input.Parse(s.Arg)
		if err != nil {
			return err
		}
		return d.SendKey(ctx, k)
	case StepExpect:
		return d.ExpectDisplay(ctx, s.Arg)
	}
	return fmt.Errorf("unknown step kind %q", s.Kind)
}

// Scenario is a named, ordered list of steps
type Scenario struct {
	Name        string `yaml:"name"`
	Group       string `yaml:"group"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Validate the scenario, it must end with an expect step
func (sc Scenario) Validate() error {
	if sc.Name == "" {
		return errors.New("scenario without name")
	}

	if !knownGroup(sc.Group) {
		return fmt.Errorf("scenario %s: unknown group %q, should be one of %v", sc.Name, sc.Group, Groups)
	}

	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario %s: no steps", sc.Name)
	}

	for i, s := range sc.Steps {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("scenario %s: step %d: %w", sc.Name, i+1, err)
		}
	}

	if sc.Steps[len(sc.Steps)-1].Kind != StepExpect {
		return fmt.Errorf("scenario %s: the last step must be an expect", sc.Name)
	}
	return nil
}

func knownGroup(g string) bool {
	for _, name := range Groups {
		if g == name {
			return true
		}
	}
	return false
}

// Catalog of scenarios
type Catalog struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

//go:embed scenarios/calculator.yaml
var builtinCatalog []byte

// Builtin catalog of the calculator
func Builtin() *Catalog {
	c, err := LoadCatalog(bytes.NewReader(builtinCatalog))
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog decodes and validates a yaml catalog
func LoadCatalog(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	c := &Catalog{}
	err := dec.Decode(c)
	if err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate every scenario and the uniqueness of the names
func (c *Catalog) Validate() error {
	var errs []error
	names := map[string]bool{}

	for _, sc := range c.Scenarios {
		if err := sc.Validate(); err != nil {
			errs = append(errs, err)
		}
		if names[sc.Name] {
			errs = append(errs, fmt.Errorf("duplicated scenario name %q", sc.Name))
		}
		names[sc.Name] = true
	}

	return errors.Join(errs...)
}

// Filter the scenarios whose name matches the regexp
func (c *Catalog) Filter(reg *regexp.Regexp) *Catalog {
	return c.where(func(sc Scenario) bool { return reg.MatchString(sc.Name) })
}

// Group returns the scenarios of the group
func (c *Catalog) Group(name string) *Catalog {
	return c.where(func(sc Scenario) bool { return sc.Group == name })
}

// Get the scenario by its name
func (c *Catalog) Get(name string) (Scenario, bool) {
	for _, sc := range c.Scenarios {
		if sc.Name == name {
			return sc, true
		}
	}
	return Scenario{}, false
}

// Names of the scenarios, in order
func (c *Catalog) Names() []string {
	list := make([]string, 0, len(c.Scenarios))
	for _, sc := range c.Scenarios {
		list = append(list, sc.Name)
	}
	return list
}

func (c *Catalog) where(fn func(Scenario) bool) *Catalog {
	list := []Scenario{}
	for _, sc := range c.Scenarios {
		if fn(sc) {
			list = append(list, sc)
		}
	}
	return &Catalog{Scenarios: list}
}
