package mpv

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/logger"
	"github.com/tejashwikalptaru/songscope/internal/ports"
	"github.com/tejashwikalptaru/songscope/internal/testutil"
)

// fakeMPV answers IPC commands on the far end of a pipe.
type fakeMPV struct {
	conn    net.Conn
	writeMu sync.Mutex

	mu       sync.Mutex
	commands [][]any
	handlers map[string]func(args []any) (any, string)

	done chan struct{}
}

func newFakeMPV(t *testing.T) (*fakeMPV, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	f := &fakeMPV{
		conn:     server,
		handlers: map[string]func(args []any) (any, string){},
		done:     make(chan struct{}),
	}
	go f.serve()
	t.Cleanup(func() {
		_ = server.Close()
		<-f.done
	})
	return f, client
}

func (f *fakeMPV) serve() {
	defer close(f.done)
	dec := json.NewDecoder(f.conn)
	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			return
		}

		f.mu.Lock()
		f.commands = append(f.commands, req.Command)
		handler := f.handlers[fmt.Sprint(req.Command[0])]
		f.mu.Unlock()

		if req.RequestID == 0 {
			continue
		}
		var data any
		errStr := "success"
		if handler != nil {
			data, errStr = handler(req.Command)
		}
		f.send(map[string]any{"request_id": req.RequestID, "error": errStr, "data": data})
	}
}

func (f *fakeMPV) send(v any) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_ = json.NewEncoder(f.conn).Encode(v)
}

func (f *fakeMPV) handle(command string, h func(args []any) (any, string)) {
	f.mu.Lock()
	f.handlers[command] = h
	f.mu.Unlock()
}

func (f *fakeMPV) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.commands))
	for i, c := range f.commands {
		out[i] = strings.TrimSpace(fmt.Sprintln(c...))
	}
	return out
}

// recorder collects callbacks.
type recorder struct {
	ready  chan struct{}
	states chan domain.PlaybackStatus
}

func newRecorder() *recorder {
	return &recorder{
		ready:  make(chan struct{}, 4),
		states: make(chan domain.PlaybackStatus, 16),
	}
}

func (r *recorder) events() ports.WidgetEvents {
	return ports.WidgetEvents{
		OnReady:       func() { r.ready <- struct{}{} },
		OnStateChange: func(s domain.PlaybackStatus) { r.states <- s },
	}
}

func (r *recorder) nextState(t *testing.T) domain.PlaybackStatus {
	t.Helper()
	select {
	case s := <-r.states:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no state change delivered")
		return 0
	}
}

func newTestWidget(t *testing.T) (*Widget, *fakeMPV, *recorder) {
	t.Helper()
	f, conn := newFakeMPV(t)
	rec := newRecorder()
	w := newWidget(conn, rec.events(), logger.NewTestLogger())
	t.Cleanup(func() { _ = w.Destroy() })
	return w, f, rec
}

func makeReady(t *testing.T, f *fakeMPV, rec *recorder) {
	t.Helper()
	f.send(map[string]any{"event": "file-loaded"})
	select {
	case <-rec.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("OnReady not delivered")
	}
}

func TestWidget_ObserveAndCommands(t *testing.T) {
	w, f, _ := newTestWidget(t)

	require.NoError(t, w.observe())
	require.NoError(t, w.Play())
	require.NoError(t, w.Pause())
	require.NoError(t, w.SeekTo(90*time.Second))
	require.NoError(t, w.SetVolume(40))
	require.NoError(t, w.Mute())
	require.NoError(t, w.Unmute())
	require.NoError(t, w.SetLoop(true))
	require.NoError(t, w.SetLoop(false))

	assert.Equal(t, []string{
		"observe_property 1 pause",
		"observe_property 2 eof-reached",
		"observe_property 3 paused-for-cache",
		"set_property pause false",
		"set_property pause true",
		"seek 90 absolute",
		"set_property volume 40",
		"set_property mute true",
		"set_property mute false",
		"set_property loop-file inf",
		"set_property loop-file no",
	}, f.sent())
}

func TestWidget_StopPausesAndRewinds(t *testing.T) {
	w, f, _ := newTestWidget(t)

	require.NoError(t, w.Stop())
	assert.Equal(t, []string{"set_property pause true", "seek 0 absolute"}, f.sent())
}

func TestWidget_PositionQueries(t *testing.T) {
	w, f, _ := newTestWidget(t)
	f.handle("get_property", func(args []any) (any, string) {
		switch args[1] {
		case "time-pos":
			return 12.5, "success"
		default:
			return nil, "property unavailable"
		}
	})

	pos, err := w.CurrentTime()
	require.NoError(t, err)
	assert.Equal(t, 12500*time.Millisecond, pos)

	d, err := w.Duration()
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestWidget_CommandError(t *testing.T) {
	w, f, _ := newTestWidget(t)
	f.handle("seek", func([]any) (any, string) { return nil, "error running command" })

	err := w.SeekTo(time.Second)
	var se *domain.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "seek", se.Op)
}

func TestWidget_ReadyAndStateEvents(t *testing.T) {
	_, f, rec := newTestWidget(t)

	// Ignored until the file is loaded
	f.send(map[string]any{"event": "property-change", "name": "pause", "data": true})

	makeReady(t, f, rec)

	f.send(map[string]any{"event": "property-change", "name": "pause", "data": false})
	assert.Equal(t, domain.StatusPlaying, rec.nextState(t))

	f.send(map[string]any{"event": "property-change", "name": "paused-for-cache", "data": true})
	assert.Equal(t, domain.StatusBuffering, rec.nextState(t))

	f.send(map[string]any{"event": "property-change", "name": "pause", "data": true})
	assert.Equal(t, domain.StatusPaused, rec.nextState(t))

	f.send(map[string]any{"event": "property-change", "name": "eof-reached", "data": true})
	assert.Equal(t, domain.StatusEnded, rec.nextState(t))

	// A second file-loaded does not report ready again
	f.send(map[string]any{"event": "file-loaded"})
	f.send(map[string]any{"event": "property-change", "name": "pause", "data": false})
	assert.Equal(t, domain.StatusPlaying, rec.nextState(t))
	assert.Empty(t, rec.ready)
}

func TestWidget_DestroyClosesEverything(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	client, server := net.Pipe()
	f := &fakeMPV{conn: server, handlers: map[string]func([]any) (any, string){}, done: make(chan struct{})}
	go f.serve()

	rec := newRecorder()
	w := newWidget(client, rec.events(), logger.NewTestLogger())
	makeReady(t, f, rec)

	require.NoError(t, w.Destroy())
	require.NoError(t, w.Destroy())
	<-f.done
	_ = server.Close()

	assert.ErrorIs(t, w.Play(), domain.ErrWidgetClosed)
	_, err := w.CurrentTime()
	assert.ErrorIs(t, err, domain.ErrWidgetClosed)
	assert.Contains(t, f.sent(), "quit")
}

func TestWidget_ConnectionLostReportsEnded(t *testing.T) {
	w, f, rec := newTestWidget(t)
	makeReady(t, f, rec)

	_ = f.conn.Close()
	assert.Equal(t, domain.StatusEnded, rec.nextState(t))
	assert.ErrorIs(t, w.Play(), domain.ErrWidgetClosed)
}

func TestFactory_RejectsBadID(t *testing.T) {
	f := NewFactory("", nil)
	assert.Equal(t, DefaultPath, f.Path)

	_, err := f.Create("nope", ports.WidgetEvents{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFactory_MissingBinary(t *testing.T) {
	f := NewFactory("/nonexistent/songscope-mpv", logger.NewTestLogger())

	_, err := f.Create("dQw4w9WgXcQ", ports.WidgetEvents{})
	assert.True(t, domain.IsServiceError(err))
}
