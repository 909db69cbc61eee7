package input_test

import (
	"errors"
	"testing"

	"github.com/go-rod/calce2e/lib/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestChar(t *testing.T) {
	k, err := input.Char('5')
	require.NoError(t, err)
	assert.Equal(t, input.Key{Key: "5", Code: "Digit5", KeyCode: 53}, k)

	k, err = input.Char('a')
	require.NoError(t, err)
	assert.Equal(t, input.Key{Key: "a", Code: "KeyA", KeyCode: 65}, k)

	k, err = input.Char('C')
	require.NoError(t, err)
	assert.Equal(t, input.Key{Key: "C", Code: "KeyC", KeyCode: 67, Shift: true}, k)
	assert.Equal(t, input.ModifierShift, k.Modifiers())

	k, err = input.Char('+')
	require.NoError(t, err)
	assert.Equal(t, "Equal", k.Code)
	assert.True(t, k.Shift)

	_, err = input.Char('\n')
	assert.True(t, errors.Is(err, input.ErrUnknownKey))
}

func TestParse(t *testing.T) {
	k, err := input.Parse("Backspace")
	require.NoError(t, err)
	assert.Equal(t, input.Backspace, k)
	assert.False(t, k.Printable())

	k, err = input.Parse("=")
	require.NoError(t, err)
	assert.Equal(t, "=", k.Name())
	assert.True(t, k.Printable())

	_, err = input.Parse("backspace")
	assert.True(t, errors.Is(err, input.ErrUnknownKey))

	_, err = input.Parse("")
	assert.True(t, errors.Is(err, input.ErrUnknownKey))
}

func TestKeys(t *testing.T) {
	list, err := input.Keys("8+2=")
	require.NoError(t, err)

	names := []string{}
	for _, k := range list {
		names = append(names, k.Name())
	}
	assert.Equal(t, []string{"8", "+", "2", "="}, names)

	_, err = input.Keys("1\t2")
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	events := input.Encode(input.Backspace)

	assert.Equal(t, []input.KeyEvent{
		{Type: "rawKeyDown", Key: "Backspace", Code: "Backspace", WindowsVirtualKeyCode: 8, NativeVirtualKeyCode: 8},
		{Type: "keyUp", Key: "Backspace", Code: "Backspace", WindowsVirtualKeyCode: 8, NativeVirtualKeyCode: 8},
	}, events)
}

func TestEncodeCalculatorInput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[0-9.+\-*/=]{1,12}`).Draw(t, "text")

		keys, err := input.Keys(text)
		if err != nil {
			t.Fatalf("keys of %q: %v", text, err)
		}
		if len(keys) != len(text) {
			t.Fatalf("expected %d keys, got %d", len(text), len(keys))
		}

		for i, k := range keys {
			events := input.Encode(k)
			if len(events) != 2 || events[0].Type != "rawKeyDown" || events[1].Type != "keyUp" {
				t.Fatalf("bad press for %q: %+v", k.Key, events)
			}
			if events[0].Key != string(text[i]) || events[1].Key != string(text[i]) {
				t.Fatalf("key %q encoded as %q", text[i], events[0].Key)
			}
			if events[0].WindowsVirtualKeyCode == 0 {
				t.Fatalf("key %q has no virtual key code", k.Key)
			}
		}
	})
}

func TestMouse(t *testing.T) {
	btn, flag := input.EncodeMouseButton([]string{"left", "right"})
	assert.Equal(t, "left", btn)
	assert.Equal(t, 3, flag)

	btn, flag = input.EncodeMouseButton(nil)
	assert.Equal(t, "none", btn)
	assert.Equal(t, 0, flag)

	events := input.Click(10, 20)
	require.Len(t, events, 3)
	assert.Equal(t, "mouseMoved", events[0].Type)
	assert.Equal(t, input.MouseEvent{Type: "mousePressed", X: 10, Y: 20, Button: "left", Buttons: 1, ClickCount: 1}, events[1])
	assert.Equal(t, "mouseReleased", events[2].Type)
}
