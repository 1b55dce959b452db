// Package recognize sends recorded strokes to a handwriting recognition
// service and turns the reply into display text. Every failure is absorbed
// into a per-mode demo result so the canvas keeps working.
package recognize

import (
	"fmt"
	"strings"
)

// Mode selects which interpretation schema the service applies.
type Mode string

const (
	ModeText    Mode = "TEXT"
	ModeMath    Mode = "MATH"
	ModeDiagram Mode = "DIAGRAM"
)

var Modes = []Mode{ModeText, ModeMath, ModeDiagram}

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToUpper(strings.TrimSpace(s))); m {
	case ModeText, ModeMath, ModeDiagram:
		return m, nil
	}
	return "", fmt.Errorf("unknown recognition mode %q", s)
}

// contentType is the service's name for the mode.
func (m Mode) contentType() string {
	switch m {
	case ModeMath:
		return "Math"
	case ModeDiagram:
		return "Diagram"
	default:
		return "Text"
	}
}

// field is the response key holding results for the mode.
func (m Mode) field() string {
	switch m {
	case ModeMath:
		return "math"
	case ModeDiagram:
		return "diagram"
	default:
		return "text"
	}
}

var demoText = map[Mode]string{
	ModeText:    "Hello, world!",
	ModeMath:    "x^2 + y^2 = r^2",
	ModeDiagram: "[Box] -> [Circle]",
}

// DemoText is the canned result shown when the service cannot be used.
func DemoText(m Mode) string {
	if s, ok := demoText[m]; ok {
		return s
	}
	return demoText[ModeText]
}
