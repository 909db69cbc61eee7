package input

// MouseKeys is the map for mouse keys
var MouseKeys = map[string]int{
	"left":    1,
	"right":   2,
	"middle":  4,
	"back":    8,
	"forward": 16,
}

// EncodeMouseButton into button flag
func EncodeMouseButton(buttons []string) (string, int) {
	flag := 0
	for _, btn := range buttons {
		flag |= MouseKeys[btn]
	}
	btn := "none"
	if len(buttons) > 0 {
		btn = buttons[0]
	}
	return btn, flag
}

// MouseEvent is the params of Input.dispatchMouseEvent
type MouseEvent struct {
	Type       string  `json:"type"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Button     string  `json:"button"`
	Buttons    int     `json:"buttons"`
	ClickCount int     `json:"clickCount"`
}

// Click returns the events of a left click at the point
func Click(x, y float64) []MouseEvent {
	button, flag := EncodeMouseButton([]string{"left"})

	return []MouseEvent{
		{Type: "mouseMoved", X: x, Y: y, Button: "none"},
		{Type: "mousePressed", X: x, Y: y, Button: button, Buttons: flag, ClickCount: 1},
		{Type: "mouseReleased", X: x, Y: y, Button: button, ClickCount: 1},
	}
}
