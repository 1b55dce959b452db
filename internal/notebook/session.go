// Package notebook owns one notebook: the stroke recorder, the committed
// strokes of the resident page, the page list, the compositor and the
// recognition gateway. UI and network layers drive it through Session.
package notebook

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"InkBoard/internal/export"
	"InkBoard/internal/history"
	"InkBoard/internal/recognize"
	"InkBoard/internal/render"
	"InkBoard/internal/state"
)

const (
	StatusRecognizing = "Recognizing..."
	StatusCleared     = "Canvas cleared"
	StatusBusy        = "Recognition already in progress"
)

// ErrStale is returned by Recognize when the page was cleared or switched
// while the request was in flight; the result is not applied.
var ErrStale = errors.New("recognition result is stale")

// Journal records applied recognition results.
type Journal interface {
	Record(ctx context.Context, e history.Entry) (int64, error)
}

type Options struct {
	Width, Height int
	Gateway       *recognize.Gateway
	Journal       Journal
	Mode          recognize.Mode
	Logger        *slog.Logger
}

// Session is safe for use from the UI goroutine and from network handlers.
type Session struct {
	mu       sync.Mutex
	recorder *state.Recorder
	board    *state.Board
	pages    *state.PageStore
	comp     *render.Compositor
	gateway  *recognize.Gateway
	journal  Journal
	emitter  *state.Emitter
	viewport state.Viewport

	mode       recognize.Mode
	status     string
	result     recognize.Result
	generation uint64
	busy       bool
	remotePage int

	now func() time.Time
	log *slog.Logger
}

func New(opts Options) *Session {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1024, 700
	}
	if opts.Mode == "" {
		opts.Mode = recognize.ModeText
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Gateway == nil {
		h := recognize.NewHandle(recognize.Demo{}, recognize.RetryPolicy{MaxAttempts: 1}, opts.Logger)
		_ = h.Open(context.Background())
		opts.Gateway = recognize.NewGateway(h, opts.Logger)
	}
	s := &Session{
		recorder: state.NewRecorder(),
		board:    state.NewBoard(),
		pages:    state.NewPageStore(),
		comp:     render.NewCompositor(opts.Width, opts.Height),
		gateway:  opts.Gateway,
		journal:  opts.Journal,
		emitter:  state.NewEmitter(),
		viewport: state.Viewport{Width: float64(opts.Width), Height: float64(opts.Height)},
		mode:     opts.Mode,
		now:      time.Now,
		log:      opts.Logger,
	}
	s.redrawLocked()
	return s
}

// Subscribe registers fn for every emitted op.
func (s *Session) Subscribe(fn func(state.Op)) (cancel func()) {
	return s.emitter.Subscribe(fn)
}

func (s *Session) redrawLocked() {
	if err := s.comp.Render(s.board.Strokes(), s.recorder.Current(), s.recorder.Tool()); err != nil {
		s.log.Error("render failed", "error", err)
	}
}

// SetViewport sets the on-screen rectangle the surface is displayed in.
func (s *Session) SetViewport(vp state.Viewport) {
	s.mu.Lock()
	s.viewport = vp
	s.mu.Unlock()
}

func (s *Session) PointerDown(ev state.PointerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, h := s.comp.Size()
	s.recorder.Down(ev, s.viewport, w, h)
	s.redrawLocked()
}

func (s *Session) PointerMove(ev state.PointerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, h := s.comp.Size()
	if s.recorder.Move(ev, s.viewport, w, h) {
		s.redrawLocked()
	}
}

func (s *Session) PointerUp(ev state.PointerEvent)     { s.finish(s.recorder.Up, ev) }
func (s *Session) PointerLeave(ev state.PointerEvent)  { s.finish(s.recorder.Leave, ev) }
func (s *Session) PointerCancel(ev state.PointerEvent) { s.finish(s.recorder.Cancel, ev) }

func (s *Session) finish(end func(state.PointerEvent) (state.Stroke, bool), ev state.PointerEvent) {
	s.mu.Lock()
	if !s.recorder.Active() {
		s.mu.Unlock()
		return
	}
	stroke, ok := end(ev)
	committed := ok && s.board.Commit(stroke)
	s.redrawLocked()
	s.mu.Unlock()

	if committed {
		s.emitter.Emit(state.Op{Type: state.OpInsertStroke, Stroke: &stroke})
	}
}

func (s *Session) SetTool(t state.Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder.SetTool(t)
	s.redrawLocked()
}

func (s *Session) Tool() state.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorder.Tool()
}

func (s *Session) SetMode(m recognize.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	s.status = fmt.Sprintf("Mode switched to %s", m)
}

func (s *Session) Mode() recognize.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// resetLocked drops all strokes and invalidates in-flight recognitions.
func (s *Session) resetLocked(status string) {
	s.recorder.Discard()
	s.board.Clear()
	s.result = recognize.Result{}
	s.status = status
	s.generation++
	s.redrawLocked()
}

// Clear empties the current page.
func (s *Session) Clear() {
	s.mu.Lock()
	s.resetLocked(StatusCleared)
	page := s.pages.Active()
	s.mu.Unlock()
	s.emitter.Emit(state.Op{Type: state.OpClear, PageID: page.ID})
}

// AddPage appends a page, activates it and clears the surface.
func (s *Session) AddPage() state.Page {
	s.mu.Lock()
	page := s.pages.Add()
	s.resetLocked(fmt.Sprintf("Added %s", page.Label))
	pages := s.pages.Pages()
	s.mu.Unlock()
	s.emitter.Emit(state.Op{Type: state.OpPage, PageID: page.ID, Pages: pages})
	return page
}

// SwitchPage activates the page and clears the surface.
func (s *Session) SwitchPage(id int) error {
	s.mu.Lock()
	if err := s.pages.Switch(id); err != nil {
		s.mu.Unlock()
		return err
	}
	page := s.pages.Active()
	s.resetLocked(fmt.Sprintf("Switched to %s", page.Label))
	pages := s.pages.Pages()
	s.mu.Unlock()
	s.emitter.Emit(state.Op{Type: state.OpPage, PageID: page.ID, Pages: pages})
	return nil
}

// DeletePage removes the active page. With one page left it clears the page
// and its status instead and returns false.
func (s *Session) DeletePage() bool {
	s.mu.Lock()
	removed, ok := s.pages.Delete()
	if !ok {
		s.resetLocked("")
		s.mu.Unlock()
		s.emitter.Emit(state.Op{Type: state.OpClear, PageID: removed.ID})
		return false
	}
	active := s.pages.Active()
	s.resetLocked(fmt.Sprintf("Deleted %s", removed.Label))
	pages := s.pages.Pages()
	s.mu.Unlock()
	s.emitter.Emit(state.Op{Type: state.OpPage, PageID: active.ID, Pages: pages})
	return true
}

// Resize resets the surface to w x h and redraws from the stroke model.
func (s *Session) Resize(w, h int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cw, ch := s.comp.Size(); cw == w && ch == h {
		return nil
	}
	if err := s.comp.Resize(w, h); err != nil {
		return err
	}
	s.redrawLocked()
	return nil
}

// Recognize sends the committed strokes of the current page to the gateway.
// At most one request is in flight. Failures come back as a demo Result;
// the returned error is ErrNoStrokes, recognize.ErrBusy or ErrStale.
func (s *Session) Recognize(ctx context.Context) (recognize.Result, error) {
	s.mu.Lock()
	mode := s.mode
	if s.busy {
		s.mu.Unlock()
		return recognize.Result{Mode: mode, Status: StatusBusy}, recognize.ErrBusy
	}
	strokes := s.board.Strokes()
	if len(strokes) == 0 {
		s.status = recognize.StatusNoStrokes
		s.mu.Unlock()
		return recognize.Result{Mode: mode, Status: recognize.StatusNoStrokes}, recognize.ErrNoStrokes
	}
	s.busy = true
	s.status = StatusRecognizing
	gen := s.generation
	page := s.pages.Active()
	w, h := s.comp.Size()
	s.mu.Unlock()

	res, err := s.gateway.Recognize(ctx, recognize.Request{
		Mode:     mode,
		Strokes:  strokes,
		Width:    w,
		Height:   h,
		Snapshot: committedSnapshot(strokes, w, h),
	})

	s.mu.Lock()
	s.busy = false
	if gen != s.generation {
		s.mu.Unlock()
		s.log.Info("dropping stale recognition result", "page", page.ID, "mode", string(mode))
		return res, ErrStale
	}
	s.result = res
	s.status = res.Status
	s.mu.Unlock()

	s.emitter.Emit(state.Op{Type: state.OpResult, PageID: page.ID, Text: res.Text, Status: res.Status})
	if s.journal != nil {
		_, jerr := s.journal.Record(context.WithoutCancel(ctx), history.Entry{
			PageID:  page.ID,
			Mode:    string(mode),
			Text:    res.Text,
			Status:  res.Status,
			Demo:    res.Demo,
			Strokes: len(strokes),
		})
		if jerr != nil {
			s.log.Warn("record recognition", "error", jerr)
		}
	}
	return res, err
}

func committedSnapshot(strokes []state.Stroke, w, h int) image.Image {
	c := render.NewCompositor(w, h)
	if err := c.Render(strokes, nil, state.ToolPen); err != nil {
		return nil
	}
	return c.Frame()
}

func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) Result() recognize.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) Strokes() []state.Stroke { return s.board.Strokes() }

func (s *Session) Pages() []state.Page { return s.pages.Pages() }

func (s *Session) ActivePage() state.Page { return s.pages.Active() }

// PageNumber is the 1-based display position of the active page.
func (s *Session) PageNumber() int { return s.pages.Number() }

func (s *Session) Size() (int, int) { return s.comp.Size() }

// Frame returns a copy of the drawing surface.
func (s *Session) Frame() *image.RGBA { return s.comp.Frame() }

func (s *Session) EncodePNG(w io.Writer) error { return s.comp.EncodePNG(w) }

// ExportPNG writes the surface as page-<number>-<unix millis>.png in dir.
func (s *Session) ExportPNG(dir string) (string, error) {
	s.mu.Lock()
	number := s.pages.Number()
	frame := s.comp.Frame()
	at := s.now()
	s.mu.Unlock()
	path, err := export.WritePNG(dir, number, at, frame)
	s.exported(path, err)
	return path, err
}

func (s *Session) exported(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status = fmt.Sprintf("Export failed: %v", err)
		s.log.Error("export failed", "error", err)
		return
	}
	s.status = fmt.Sprintf("Exported %s", filepath.Base(path))
	s.log.Info("exported page", "path", path)
}

// ExportPDF writes the committed strokes as vectors to a PDF named like ExportPNG.
func (s *Session) ExportPDF(dir string) (string, error) {
	s.mu.Lock()
	number := s.pages.Number()
	strokes := s.board.Strokes()
	w, h := s.comp.Size()
	at := s.now()
	s.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		err = fmt.Errorf("create export directory: %w", err)
		s.exported("", err)
		return "", err
	}
	path := filepath.Join(dir, export.FileName(number, at, "pdf"))
	if err := export.WritePDF(path, strokes, w, h); err != nil {
		s.exported("", err)
		return "", err
	}
	s.exported(path, nil)
	return path, nil
}

// ApplyRemote replays an op received from a share host. Strokes are
// deduplicated by ID, so replays are harmless. Nothing is re-emitted.
func (s *Session) ApplyRemote(op state.Op) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch op.Type {
	case state.OpInsertStroke:
		if op.Stroke != nil && s.board.Commit(*op.Stroke) {
			s.redrawLocked()
		}
	case state.OpClear:
		s.resetLocked(StatusCleared)
	case state.OpPage:
		if op.PageID != s.remotePage {
			s.remotePage = op.PageID
			s.resetLocked(fmt.Sprintf("Host on page %d", op.PageID))
		}
	case state.OpResult:
		s.result = recognize.Result{Text: op.Text, Status: op.Status}
		s.status = op.Status
	}
}
