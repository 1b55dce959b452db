package recognize

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Fallback markers used when the mode's result list is present but unusable.
const (
	NoTextResult    = "[no text result]"
	NoMathResult    = "[no math result]"
	NoDiagramResult = "[no diagram result]"
)

// Interpret turns a service reply into display text for mode. The lookup
// cascades: first entry of the mode's field, then the mode's marker when that
// field is empty, then the whole reply when the field is missing.
func Interpret(mode Mode, body []byte) (string, error) {
	var reply map[string]any
	if err := json.Unmarshal(body, &reply); err != nil {
		return "", fmt.Errorf("decode recognition reply: %w", err)
	}

	raw, ok := reply[mode.field()]
	if !ok {
		var buf bytes.Buffer
		if err := json.Compact(&buf, body); err != nil {
			return string(body), nil
		}
		return buf.String(), nil
	}

	first := firstEntry(raw)
	switch mode {
	case ModeMath:
		if label, ok := labelOf(first); ok {
			return label, nil
		}
		return NoMathResult, nil
	case ModeDiagram:
		if first == nil {
			return NoDiagramResult, nil
		}
		out, err := json.Marshal(first)
		if err != nil {
			return NoDiagramResult, nil
		}
		return string(out), nil
	default:
		if label, ok := labelOf(first); ok {
			return label, nil
		}
		return NoTextResult, nil
	}
}

func firstEntry(v any) any {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	return list[0]
}

func labelOf(v any) (string, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	label, ok := obj["label"].(string)
	return label, ok
}
