package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndRecent(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "db", "history.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	base := time.Unix(1700000000, 0)
	_, err = s.Record(ctx, Entry{PageID: 1, Mode: "TEXT", Text: "first", Status: "Recognized TEXT", Strokes: 2, CreatedAt: base})
	require.NoError(t, err)
	id, err := s.Record(ctx, Entry{PageID: 2, Mode: "MATH", Text: "x^2", Status: "Offline demo", Demo: true, Strokes: 1, CreatedAt: base.Add(time.Second)})
	require.NoError(t, err)

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "x^2", got[0].Text)
	assert.True(t, got[0].Demo)
	assert.Equal(t, "first", got[1].Text)
	assert.True(t, got[1].CreatedAt.Equal(base))

	got, err = s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
