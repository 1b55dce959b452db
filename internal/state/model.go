package state

import (
	"fmt"
	"strings"
	"time"
)

// Point is a canvas-space sample. Points are never modified after recording.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Tool selects how a stroke is painted. It never affects recorded geometry.
type Tool string

const (
	ToolPen         Tool = "pen"
	ToolHighlighter Tool = "highlighter"
	ToolEraser      Tool = "eraser"
)

// ParseTool accepts a tool name in any case.
func ParseTool(s string) (Tool, error) {
	switch t := Tool(strings.ToLower(strings.TrimSpace(s))); t {
	case ToolPen, ToolHighlighter, ToolEraser:
		return t, nil
	}
	return "", fmt.Errorf("unknown tool %q", s)
}

// Stroke is one continuous pointer-down-to-pointer-up path.
type Stroke struct {
	ID        string    `json:"id"`
	Tool      Tool      `json:"tool"`
	Points    []Point   `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// MinStrokePoints is the number of samples a sequence needs to become a stroke.
const MinStrokePoints = 2

type OpType string

const (
	OpInsertStroke OpType = "draw"
	OpClear        OpType = "clear"
	OpPage         OpType = "page"
	OpResult       OpType = "result"
)

// Op is a notebook change as seen by observers.
type Op struct {
	Type    OpType  `json:"type"`
	Stroke  *Stroke `json:"stroke,omitempty"`
	PageID  int     `json:"page_id,omitempty"`
	Pages   []Page  `json:"pages,omitempty"`
	Text    string  `json:"text,omitempty"`
	Status  string  `json:"status,omitempty"`
	Lamport uint64  `json:"lamport"`
	Site    string  `json:"site"`
}
