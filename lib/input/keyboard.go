// Package input encodes keyboard and mouse actions into devtools protocol input events.
package input

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrUnknownKey is returned when a key has no entry in the key table
var ErrUnknownKey = errors.New("unknown key")

// Modifier flags of Input.dispatchKeyEvent
const (
	ModifierAlt   = 1
	ModifierCtrl  = 2
	ModifierMeta  = 4
	ModifierShift = 8
)

// Key describes a key on a US keyboard layout
type Key struct {
	// Key is the value of KeyboardEvent.key, such as "5", "+" or "Backspace"
	Key string
	// Code is the value of KeyboardEvent.code, such as "Digit5"
	Code string
	// KeyCode is the windows virtual key code
	KeyCode int
	// Shift is true if the key is typed with shift held
	Shift bool
}

// Named keys
var (
	Backspace = Key{Key: "Backspace", Code: "Backspace", KeyCode: 8}
	Tab       = Key{Key: "Tab", Code: "Tab", KeyCode: 9}
	Enter     = Key{Key: "Enter", Code: "Enter", KeyCode: 13}
	Escape    = Key{Key: "Escape", Code: "Escape", KeyCode: 27}
	Delete    = Key{Key: "Delete", Code: "Delete", KeyCode: 46}
)

// Named is the table of keys that are addressed by their name instead of a character
var Named = map[string]Key{
	Backspace.Key: Backspace,
	Tab.Key:       Tab,
	Enter.Key:     Enter,
	Escape.Key:    Escape,
	Delete.Key:    Delete,
}

var symbols = map[rune]Key{
	' ': {Key: " ", Code: "Space", KeyCode: 32},
	'.': {Key: ".", Code: "Period", KeyCode: 190},
	',': {Key: ",", Code: "Comma", KeyCode: 188},
	'-': {Key: "-", Code: "Minus", KeyCode: 189},
	'=': {Key: "=", Code: "Equal", KeyCode: 187},
	'/': {Key: "/", Code: "Slash", KeyCode: 191},
	'+': {Key: "+", Code: "Equal", KeyCode: 187, Shift: true},
	'*': {Key: "*", Code: "Digit8", KeyCode: 56, Shift: true},
	'%': {Key: "%", Code: "Digit5", KeyCode: 53, Shift: true},
	'(': {Key: "(", Code: "Digit9", KeyCode: 57, Shift: true},
	')': {Key: ")", Code: "Digit0", KeyCode: 48, Shift: true},
}

// Char returns the key that types the rune
func Char(r rune) (Key, error) {
	switch {
	case r >= '0' && r <= '9':
		return Key{Key: string(r), Code: "Digit" + string(r), KeyCode: int(r)}, nil
	case r >= 'a' && r <= 'z':
		upper := r - 'a' + 'A'
		return Key{Key: string(r), Code: "Key" + string(upper), KeyCode: int(upper)}, nil
	case r >= 'A' && r <= 'Z':
		return Key{Key: string(r), Code: "Key" + string(r), KeyCode: int(r), Shift: true}, nil
	}

	if k, has := symbols[r]; has {
		return k, nil
	}
	return Key{}, fmt.Errorf("%w: %q", ErrUnknownKey, r)
}

// Parse a key by its name, such as "Backspace", or by a single character, such as "+"
func Parse(name string) (Key, error) {
	if k, has := Named[name]; has {
		return k, nil
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return Char(r)
	}
	return Key{}, fmt.Errorf("%w: %q", ErrUnknownKey, name)
}

// Keys of the text, in order
func Keys(text string) ([]Key, error) {
	list := make([]Key, 0, len(text))
	for _, r := range text {
		k, err := Char(r)
		if err != nil {
			return nil, err
		}
		list = append(list, k)
	}
	return list, nil
}

// Name of the key, it's also the name other automation tools use for it
func (k Key) Name() string {
	return k.Key
}

// Printable returns true if the key produces a character
func (k Key) Printable() bool {
	_, named := Named[k.Key]
	return !named
}

// Modifiers of the key
func (k Key) Modifiers() int {
	if k.Shift {
		return ModifierShift
	}
	return 0
}

// KeyEvent is the params of Input.dispatchKeyEvent
type KeyEvent struct {
	Type                  string `json:"type"`
	Modifiers             int    `json:"modifiers,omitempty"`
	Key                   string `json:"key"`
	Code                  string `json:"code"`
	WindowsVirtualKeyCode int    `json:"windowsVirtualKeyCode"`
	NativeVirtualKeyCode  int    `json:"nativeVirtualKeyCode"`
}

// Encode the key into a press, which is a raw key down and a key up.
// No text is attached, so a focused input element won't receive the character,
// only the page's keydown and keyup listeners will see the key.
func Encode(k Key) []KeyEvent {
	down := KeyEvent{
		Type:                  "rawKeyDown",
		Modifiers:             k.Modifiers(),
		Key:                   k.Key,
		Code:                  k.Code,
		WindowsVirtualKeyCode: k.KeyCode,
		NativeVirtualKeyCode:  k.KeyCode,
	}
	up := down
	up.Type = "keyUp"

	return []KeyEvent{down, up}
}
