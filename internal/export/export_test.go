package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InkBoard/internal/state"
)

func TestFileName(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "page-1-1700000000123.png", FileName(1, at, "png"))
	assert.Equal(t, "page-3-1700000000123.pdf", FileName(3, at, "pdf"))
}

func TestWritePNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(5, 5, color.Black)

	dir := filepath.Join(t.TempDir(), "nested")
	path, err := WritePNG(dir, 2, time.UnixMilli(42), img)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "page-2-42.png"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestThumbnail(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	var buf bytes.Buffer
	require.NoError(t, Thumbnail(&buf, img, 100))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx())
	assert.Equal(t, 50, decoded.Bounds().Dy())
}

func TestWritePDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.pdf")
	strokes := []state.Stroke{
		{ID: "a", Tool: state.ToolPen, Points: []state.Point{{X: 10, Y: 10}, {X: 20, Y: 20}, {X: 30, Y: 10}}},
		{ID: "b", Tool: state.ToolHighlighter, Points: []state.Point{{X: 5, Y: 50}, {X: 90, Y: 50}}},
	}
	require.NoError(t, WritePDF(path, strokes, 1024, 700))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}
