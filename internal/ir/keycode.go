package ir

import "fmt"

// KeyCode is a keyboard-layout-independent key identifier.
type KeyCode uint8

const (
	KeyA              KeyCode = 0x1
	KeyB              KeyCode = 0x2
	KeyC              KeyCode = 0x3
	KeyD              KeyCode = 0x4
	KeyE              KeyCode = 0x5
	KeyF              KeyCode = 0x6
	KeyG              KeyCode = 0x7
	KeyH              KeyCode = 0x8
	KeyI              KeyCode = 0x9
	KeyJ              KeyCode = 0xA
	KeyK              KeyCode = 0xB
	KeyL              KeyCode = 0xC
	KeyM              KeyCode = 0xD
	KeyN              KeyCode = 0xE
	KeyO              KeyCode = 0xF
	KeyP              KeyCode = 0x10
	KeyQ              KeyCode = 0x11
	KeyR              KeyCode = 0x12
	KeyS              KeyCode = 0x13
	KeyT              KeyCode = 0x14
	KeyU              KeyCode = 0x15
	KeyV              KeyCode = 0x16
	KeyW              KeyCode = 0x17
	KeyX              KeyCode = 0x18
	KeyY              KeyCode = 0x19
	KeyZ              KeyCode = 0x1A
	KeyDigit0         KeyCode = 0x20
	KeyDigit1         KeyCode = 0x21
	KeyDigit2         KeyCode = 0x22
	KeyDigit3         KeyCode = 0x23
	KeyDigit4         KeyCode = 0x24
	KeyDigit5         KeyCode = 0x25
	KeyDigit6         KeyCode = 0x26
	KeyDigit7         KeyCode = 0x27
	KeyDigit8         KeyCode = 0x28
	KeyDigit9         KeyCode = 0x29
	KeyEqual          KeyCode = 0x2A
	KeyMinus          KeyCode = 0x2B
	KeyLeftBracket    KeyCode = 0x2C
	KeyRightBracket   KeyCode = 0x2D
	KeyQuote          KeyCode = 0x2E
	KeySemicolon      KeyCode = 0x2F
	KeyBackslash      KeyCode = 0x30
	KeyComma          KeyCode = 0x31
	KeySlash          KeyCode = 0x32
	KeyPeriod         KeyCode = 0x33
	KeyGrave          KeyCode = 0x34
	KeyReturn         KeyCode = 0x35
	KeyTab            KeyCode = 0x36
	KeySpace          KeyCode = 0x37
	KeyDelete         KeyCode = 0x38
	KeyEscape         KeyCode = 0x39
	KeyCommand        KeyCode = 0x3A
	KeyShift          KeyCode = 0x3B
	KeyCapsLock       KeyCode = 0x3C
	KeyOption         KeyCode = 0x3D
	KeyControl        KeyCode = 0x3E
	KeyRightCommand   KeyCode = 0x3F
	KeyRightShift     KeyCode = 0x40
	KeyRightOption    KeyCode = 0x41
	KeyRightControl   KeyCode = 0x42
	KeyFunction       KeyCode = 0x43
	KeyLeftArrow      KeyCode = 0x44
	KeyDownArrow      KeyCode = 0x45
	KeyUpArrow        KeyCode = 0x46
	KeyRightArrow     KeyCode = 0x47
	KeyForwardDelete  KeyCode = 0x48
	KeyInsert         KeyCode = 0x49
	KeyHome           KeyCode = 0x4A
	KeyEnd            KeyCode = 0x4B
	KeyPageUp         KeyCode = 0x4C
	KeyPageDown       KeyCode = 0x4D
	KeySection        KeyCode = 0x4E
	KeyF1             KeyCode = 0x50
	KeyF2             KeyCode = 0x51
	KeyF3             KeyCode = 0x52
	KeyF4             KeyCode = 0x53
	KeyF5             KeyCode = 0x54
	KeyF6             KeyCode = 0x55
	KeyF7             KeyCode = 0x56
	KeyF8             KeyCode = 0x57
	KeyF9             KeyCode = 0x58
	KeyF10            KeyCode = 0x59
	KeyF11            KeyCode = 0x5A
	KeyF12            KeyCode = 0x5B
	KeyF13            KeyCode = 0x5C
	KeyF14            KeyCode = 0x5D
	KeyF15            KeyCode = 0x5E
	KeyF16            KeyCode = 0x5F
	KeyF17            KeyCode = 0x60
	KeyF18            KeyCode = 0x61
	KeyF19            KeyCode = 0x62
	KeyF20            KeyCode = 0x63
	KeyNumpad0        KeyCode = 0x70
	KeyNumpad1        KeyCode = 0x71
	KeyNumpad2        KeyCode = 0x72
	KeyNumpad3        KeyCode = 0x73
	KeyNumpad4        KeyCode = 0x74
	KeyNumpad5        KeyCode = 0x75
	KeyNumpad6        KeyCode = 0x76
	KeyNumpad7        KeyCode = 0x77
	KeyNumpad8        KeyCode = 0x78
	KeyNumpad9        KeyCode = 0x79
	KeyNumpadEqual    KeyCode = 0x7A
	KeyNumpadDecimal  KeyCode = 0x7B
	KeyNumpadPlus     KeyCode = 0x7C
	KeyNumpadMinus    KeyCode = 0x7D
	KeyNumpadMultiply KeyCode = 0x7E
	KeyNumpadDivide   KeyCode = 0x7F
	KeyNumpadClear    KeyCode = 0x80
	KeyNumpadEnter    KeyCode = 0x81
	KeyNumpadComma    KeyCode = 0x82
)

var keyNames = map[KeyCode]string{
	KeyA:              "a",
	KeyB:              "b",
	KeyC:              "c",
	KeyD:              "d",
	KeyE:              "e",
	KeyF:              "f",
	KeyG:              "g",
	KeyH:              "h",
	KeyI:              "i",
	KeyJ:              "j",
	KeyK:              "k",
	KeyL:              "l",
	KeyM:              "m",
	KeyN:              "n",
	KeyO:              "o",
	KeyP:              "p",
	KeyQ:              "q",
	KeyR:              "r",
	KeyS:              "s",
	KeyT:              "t",
	KeyU:              "u",
	KeyV:              "v",
	KeyW:              "w",
	KeyX:              "x",
	KeyY:              "y",
	KeyZ:              "z",
	KeyDigit0:         "digit0",
	KeyDigit1:         "digit1",
	KeyDigit2:         "digit2",
	KeyDigit3:         "digit3",
	KeyDigit4:         "digit4",
	KeyDigit5:         "digit5",
	KeyDigit6:         "digit6",
	KeyDigit7:         "digit7",
	KeyDigit8:         "digit8",
	KeyDigit9:         "digit9",
	KeyEqual:          "equal",
	KeyMinus:          "minus",
	KeyLeftBracket:    "left_bracket",
	KeyRightBracket:   "right_bracket",
	KeyQuote:          "quote",
	KeySemicolon:      "semicolon",
	KeyBackslash:      "backslash",
	KeyComma:          "comma",
	KeySlash:          "slash",
	KeyPeriod:         "period",
	KeyGrave:          "grave",
	KeyReturn:         "return",
	KeyTab:            "tab",
	KeySpace:          "space",
	KeyDelete:         "delete",
	KeyEscape:         "escape",
	KeyCommand:        "command",
	KeyShift:          "shift",
	KeyCapsLock:       "caps_lock",
	KeyOption:         "option",
	KeyControl:        "control",
	KeyRightCommand:   "right_command",
	KeyRightShift:     "right_shift",
	KeyRightOption:    "right_option",
	KeyRightControl:   "right_control",
	KeyFunction:       "function",
	KeyLeftArrow:      "left_arrow",
	KeyDownArrow:      "down_arrow",
	KeyUpArrow:        "up_arrow",
	KeyRightArrow:     "right_arrow",
	KeyForwardDelete:  "forward_delete",
	KeyInsert:         "insert",
	KeyHome:           "home",
	KeyEnd:            "end",
	KeyPageUp:         "page_up",
	KeyPageDown:       "page_down",
	KeySection:        "section",
	KeyF1:             "f1",
	KeyF2:             "f2",
	KeyF3:             "f3",
	KeyF4:             "f4",
	KeyF5:             "f5",
	KeyF6:             "f6",
	KeyF7:             "f7",
	KeyF8:             "f8",
	KeyF9:             "f9",
	KeyF10:            "f10",
	KeyF11:            "f11",
	KeyF12:            "f12",
	KeyF13:            "f13",
	KeyF14:            "f14",
	KeyF15:            "f15",
	KeyF16:            "f16",
	KeyF17:            "f17",
	KeyF18:            "f18",
	KeyF19:            "f19",
	KeyF20:            "f20",
	KeyNumpad0:        "numpad0",
	KeyNumpad1:        "numpad1",
	KeyNumpad2:        "numpad2",
	KeyNumpad3:        "numpad3",
	KeyNumpad4:        "numpad4",
	KeyNumpad5:        "numpad5",
	KeyNumpad6:        "numpad6",
	KeyNumpad7:        "numpad7",
	KeyNumpad8:        "numpad8",
	KeyNumpad9:        "numpad9",
	KeyNumpadEqual:    "numpad_equal",
	KeyNumpadDecimal:  "numpad_decimal",
	KeyNumpadPlus:     "numpad_plus",
	KeyNumpadMinus:    "numpad_minus",
	KeyNumpadMultiply: "numpad_multiply",
	KeyNumpadDivide:   "numpad_divide",
	KeyNumpadClear:    "numpad_clear",
	KeyNumpadEnter:    "numpad_enter",
	KeyNumpadComma:    "numpad_comma",
}

var keysByName = func() map[string]KeyCode {
	m := make(map[string]KeyCode, len(keyNames))
	for k, n := range keyNames {
		m[n] = k
	}
	return m
}()

// Valid reports whether k is a known key code.
func (k KeyCode) Valid() bool {
	_, ok := keyNames[k]
	return ok
}

func (k KeyCode) String() string {
	if n, ok := keyNames[k]; ok {
		return n
	}
	return fmt.Sprintf("key(0x%02x)", uint8(k))
}

// ParseKeyCode is the inverse of KeyCode.String.
func ParseKeyCode(s string) (KeyCode, error) {
	if k, ok := keysByName[s]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown key code %q", s)
}
