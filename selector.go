package calce2e

import (
	"fmt"
	"strings"
)

// Kind of a calculator control
type Kind string

const (
	// KindDigit is a digit button, the decimal point is one of them
	KindDigit Kind = "digit"
	// KindOperator is an arithmetic operator button
	KindOperator Kind = "operator"
	// KindFunction is one of the clear, delete and equals buttons
	KindFunction Kind = "function"
	// KindDisplay is the display of the calculator
	KindDisplay Kind = "display"
)

var kindValues = map[Kind][]string{
	KindDigit:    {"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "."},
	KindOperator: {"+", "-", "*", "/"},
	KindFunction: {"clear", "delete", "equals"},
}

// Selector addresses a calculator control by what it means, not by how it looks
type Selector struct {
	Kind  Kind
	Value string
}

// Digit button, such as Digit("5") or Digit(".")
func Digit(v string) Selector {
	return Selector{Kind: KindDigit, Value: v}
}

// Operator button, such as Operator("+")
func Operator(v string) Selector {
	return Selector{Kind: KindOperator, Value: v}
}

// Function button, "clear", "delete" or "equals"
func Function(v string) Selector {
	return Selector{Kind: KindFunction, Value: v}
}

// Display of the calculator
var Display = Selector{Kind: KindDisplay}

// Buttons returns all the buttons the calculator must have
func Buttons() []Selector {
	list := []Selector{}
	for _, k := range []Kind{KindDigit, KindOperator, KindFunction} {
		for _, v := range kindValues[k] {
			list = append(list, Selector{Kind: k, Value: v})
		}
	}
	return list
}

// CSS selector of the control
func (s Selector) CSS() string {
	switch s.Kind {
	case KindDigit:
		return fmt.Sprintf(`[data-num=%q]`, s.Value)
	case KindOperator:
		return fmt.Sprintf(`[data-op=%q]`, s.Value)
	case KindFunction:
		return fmt.Sprintf(`[data-fn=%q]`, s.Value)
	}
	return "#display"
}

// String is the textual form ParseSelector accepts
func (s Selector) String() string {
	if s.Kind == KindDisplay {
		return string(KindDisplay)
	}
	return string(s.Kind) + " " + s.Value
}

// Validate the kind and the value
func (s Selector) Validate() error {
	if s.Kind == KindDisplay {
		if s.Value != "" {
			return fmt.Errorf("display takes no value: %q", s.Value)
		}
		return nil
	}

	values, has := kindValues[s.Kind]
	if !has {
		return fmt.Errorf("unknown control kind %q", s.Kind)
	}
	for _, v := range values {
		if v == s.Value {
			return nil
		}
	}
	return fmt.Errorf("unknown %s %q, should be one of %v", s.Kind, s.Value, values)
}

// ParseSelector parses "digit 5", "operator +", "function equals" or "display"
func ParseSelector(str string) (Selector, error) {
	fields := strings.Fields(str)

	var s Selector
	switch len(fields) {
	case 1:
		s = Selector{Kind: Kind(fields[0])}
	case 2:
		s = Selector{Kind: Kind(fields[0]), Value: fields[1]}
	default:
		return Selector{}, fmt.Errorf("invalid selector %q", str)
	}

	if err := s.Validate(); err != nil {
		return Selector{}, err
	}
	return s, nil
}
