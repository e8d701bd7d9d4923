package inputs

import "fmt"

// buttonNames maps Source engine button codes to their names.
var buttonNames = func() map[int]string {
	m := map[int]string{
		47: "KEY_PAD_DIVIDE",
		48: "KEY_PAD_MULTIPLY",
		49: "KEY_PAD_MINUS",
		50: "KEY_PAD_PLUS",
		51: "KEY_PAD_ENTER",
		52: "KEY_PAD_DECIMAL",
		53: "KEY_LBRACKET",
		54: "KEY_RBRACKET",
		55: "KEY_SEMICOLON",
		56: "KEY_APOSTROPHE",
		57: "KEY_BACKQUOTE",
		58: "KEY_COMMA",
		59: "KEY_PERIOD",
		60: "KEY_SLASH",
		61: "KEY_BACKSLASH",
		62: "KEY_MINUS",
		63: "KEY_EQUAL",
		64: "KEY_ENTER",
		65: "KEY_SPACE",
		66: "KEY_BACKSPACE",
		67: "KEY_TAB",
		68: "KEY_CAPSLOCK",
		69: "KEY_NUMLOCK",
		70: "KEY_ESCAPE",
		71: "KEY_SCROLLLOCK",
		72: "KEY_INSERT",
		73: "KEY_DELETE",
		74: "KEY_HOME",
		75: "KEY_END",
		76: "KEY_PAGEUP",
		77: "KEY_PAGEDOWN",
		78: "KEY_BREAK",
		79: "KEY_LSHIFT",
		80: "KEY_RSHIFT",
		81: "KEY_LALT",
		82: "KEY_RALT",
		83: "KEY_LCONTROL",
		84: "KEY_RCONTROL",
		85: "KEY_LWIN",
		86: "KEY_RWIN",
		87: "KEY_APP",
		88: "KEY_UP",
		89: "KEY_LEFT",
		90: "KEY_DOWN",
		91: "KEY_RIGHT",
		104: "KEY_CAPSLOCKTOGGLE",
		105: "KEY_NUMLOCKTOGGLE",
		106: "KEY_SCROLLLOCKTOGGLE",
		107: "MOUSE_LEFT",
		108: "MOUSE_RIGHT",
		109: "MOUSE_MIDDLE",
		110: "MOUSE_4",
		111: "MOUSE_5",
		112: "MOUSE_WHEEL_UP",
		113: "MOUSE_WHEEL_DOWN",
	}
	for i := 0; i <= 9; i++ {
		m[1+i] = fmt.Sprintf("KEY_%d", i)
		m[37+i] = fmt.Sprintf("KEY_PAD_%d", i)
	}
	for i := 0; i < 26; i++ {
		m[11+i] = "KEY_" + string(rune('A'+i))
	}
	for i := 1; i <= 12; i++ {
		m[91+i] = fmt.Sprintf("KEY_F%d", i)
	}
	return m
}()

// ButtonName returns the name of a Source engine button code.
func ButtonName(code int) (string, bool) {
	name, ok := buttonNames[code]
	return name, ok
}
