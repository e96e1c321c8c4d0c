// Package mpv provides a PlayerWidget backed by an mpv process.
//
// mpv plays the watch URL through its ytdl hook and is driven over its JSON
// IPC socket: one JSON object per line in each direction. Commands carry a
// request_id that mpv echoes in its reply; events carry an "event" field.
package mpv

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/ports"
)

const (
	// DefaultPath is the mpv binary looked up in PATH.
	DefaultPath = "mpv"

	defaultStartTimeout = 5 * time.Second
	commandTimeout      = 3 * time.Second
	quitGrace           = 2 * time.Second
)

// Properties observed for state changes.
const (
	propPause     = "pause"
	propEOF       = "eof-reached"
	propBuffering = "paused-for-cache"
)

// Factory starts one mpv process per widget.
type Factory struct {
	// Path of the mpv binary
	Path string

	// Args are appended to the default command line
	Args []string

	// StartTimeout bounds the wait for the IPC socket
	StartTimeout time.Duration

	Logger *slog.Logger

	seq atomic.Uint64
}

// NewFactory creates a factory for the mpv binary at path ("" means DefaultPath).
func NewFactory(path string, logger *slog.Logger) *Factory {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Factory{
		Path:         path,
		StartTimeout: defaultStartTimeout,
		Logger:       logger,
	}
}

// Create starts mpv paused on the video and connects to its IPC socket.
func (f *Factory) Create(videoID string, events ports.WidgetEvents) (ports.PlayerWidget, error) {
	if _, ok := domain.ExtractVideoID(domain.WatchURL(videoID)); !ok {
		return nil, domain.NewValidationError("video_id", videoID, "not a video identifier")
	}

	socket := filepath.Join(os.TempDir(), fmt.Sprintf("songscope-mpv-%d-%d.sock", os.Getpid(), f.seq.Add(1)))
	args := []string{
		"--no-terminal",
		"--keep-open=yes",
		"--pause",
		"--force-window=immediate",
		"--title=SongScope",
		"--input-ipc-server=" + socket,
	}
	args = append(args, f.Args...)
	args = append(args, domain.WatchURL(videoID))

	cmd := exec.Command(f.Path, args...)
	if err := cmd.Start(); err != nil {
		return nil, domain.NewServiceError("mpv", "start", 0, "failed to start mpv", err)
	}

	conn, err := dial(socket, f.StartTimeout)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		_ = os.Remove(socket)
		return nil, domain.NewServiceError("mpv", "connect", 0, "IPC socket not available", err)
	}

	log := f.Logger.With(slog.String("video_id", videoID), slog.Int("pid", cmd.Process.Pid))
	w := newWidget(conn, events, log)
	w.cmd = cmd
	w.socket = socket

	if err := w.observe(); err != nil {
		_ = w.Destroy()
		return nil, err
	}

	log.Debug("mpv widget created")
	return w, nil
}

// dial retries until mpv has created its socket.
func dial(socket string, timeout time.Duration) (net.Conn, error) {
	if timeout <= 0 {
		timeout = defaultStartTimeout
	}
	deadline := time.Now().Add(timeout)
	for {
		conn, err := net.Dial("unix", socket)
		if err == nil {
			return conn, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// request is one IPC command.
type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id,omitempty"`
}

// message is either a command reply or an event.
type message struct {
	RequestID int64           `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	Event     string          `json:"event"`
	Name      string          `json:"name"`
}

// Widget is one mpv process bound to one video.
//
// A reader goroutine routes replies to waiting commands and turns events into
// callbacks. Callbacks run on a separate dispatcher goroutine so they never
// run under the widget's locks nor inside one of its methods.
type Widget struct {
	logger    *slog.Logger
	callbacks ports.WidgetEvents

	conn    net.Conn
	writeMu sync.Mutex
	enc     *json.Encoder

	cmd    *exec.Cmd
	socket string

	nextID atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan message
	ready   bool
	closed  bool

	events     chan func()
	done       chan struct{}
	readerDone chan struct{}
	once       sync.Once
}

func newWidget(conn net.Conn, callbacks ports.WidgetEvents, logger *slog.Logger) *Widget {
	w := &Widget{
		logger:     logger,
		callbacks:  callbacks,
		conn:       conn,
		enc:        json.NewEncoder(conn),
		pending:    make(map[int64]chan message),
		events:     make(chan func(), 16),
		done:       make(chan struct{}),
		readerDone: make(chan struct{}),
	}

	go w.dispatch()
	go w.readLoop()
	return w
}

func (w *Widget) observe() error {
	for i, prop := range []string{propPause, propEOF, propBuffering} {
		if _, err := w.call("observe_property", i+1, prop); err != nil {
			return err
		}
	}
	return nil
}

// call sends one command and waits for its reply.
func (w *Widget) call(args ...any) (json.RawMessage, error) {
	id := w.nextID.Add(1)
	reply := make(chan message, 1)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, domain.ErrWidgetClosed
	}
	w.pending[id] = reply
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.pending, id)
		w.mu.Unlock()
	}()

	op := fmt.Sprint(args[0])

	w.writeMu.Lock()
	err := w.enc.Encode(request{Command: args, RequestID: id})
	w.writeMu.Unlock()
	if err != nil {
		return nil, domain.NewServiceError("mpv", op, 0, "failed to send command", err)
	}

	timer := time.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case msg := <-reply:
		if msg.Error != "success" {
			return nil, domain.NewServiceError("mpv", op, 0, msg.Error, nil)
		}
		return msg.Data, nil
	case <-w.readerDone:
		return nil, domain.ErrWidgetClosed
	case <-w.done:
		return nil, domain.ErrWidgetClosed
	case <-timer.C:
		return nil, domain.NewServiceError("mpv", op, 0, "command timed out", nil)
	}
}

func (w *Widget) readLoop() {
	defer close(w.readerDone)

	scanner := bufio.NewScanner(w.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			w.logger.Debug("ignoring malformed IPC line", slog.Any("error", err))
			continue
		}
		if msg.Event != "" {
			w.handleEvent(msg)
			continue
		}

		w.mu.Lock()
		reply := w.pending[msg.RequestID]
		w.mu.Unlock()
		if reply != nil {
			reply <- msg
		}
	}

	// The process went away on its own (window closed, crash).
	w.mu.Lock()
	wasReady := w.ready && !w.closed
	w.closed = true
	w.mu.Unlock()
	if wasReady {
		w.logger.Info("mpv connection lost")
		w.emitState(domain.StatusEnded)
	}
}

func (w *Widget) handleEvent(msg message) {
	switch msg.Event {
	case "file-loaded":
		w.mu.Lock()
		first := !w.ready
		w.ready = true
		w.mu.Unlock()
		if first && w.callbacks.OnReady != nil {
			w.emit(w.callbacks.OnReady)
		}

	case "property-change":
		w.mu.Lock()
		ready := w.ready
		w.mu.Unlock()
		if !ready {
			return
		}

		var on bool
		if err := json.Unmarshal(msg.Data, &on); err != nil {
			return
		}
		switch {
		case msg.Name == propPause && on:
			w.emitState(domain.StatusPaused)
		case msg.Name == propPause:
			w.emitState(domain.StatusPlaying)
		case msg.Name == propEOF && on:
			w.emitState(domain.StatusEnded)
		case msg.Name == propBuffering && on:
			w.emitState(domain.StatusBuffering)
		}
	}
}

func (w *Widget) emitState(status domain.PlaybackStatus) {
	if cb := w.callbacks.OnStateChange; cb != nil {
		w.emit(func() { cb(status) })
	}
}

func (w *Widget) emit(fn func()) {
	select {
	case w.events <- fn:
	case <-w.done:
	}
}

func (w *Widget) dispatch() {
	for {
		select {
		case fn := <-w.events:
			fn()
		case <-w.done:
			return
		}
	}
}

func (w *Widget) setProperty(name string, value any) error {
	_, err := w.call("set_property", name, value)
	return err
}

func (w *Widget) getSeconds(name string) (time.Duration, error) {
	data, err := w.call("get_property", name)
	if err != nil {
		return 0, err
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return 0, domain.NewParseError("mpv."+name, "not a number", err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Play starts or resumes playback.
func (w *Widget) Play() error {
	return w.setProperty(propPause, false)
}

// Pause pauses playback.
func (w *Widget) Pause() error {
	return w.setProperty(propPause, true)
}

// Stop pauses and rewinds to the start.
func (w *Widget) Stop() error {
	if err := w.Pause(); err != nil {
		return err
	}
	return w.SeekTo(0)
}

// SeekTo jumps to an absolute position.
func (w *Widget) SeekTo(position time.Duration) error {
	_, err := w.call("seek", position.Seconds(), "absolute")
	return err
}

// SetVolume sets the volume in percent.
func (w *Widget) SetVolume(percent int) error {
	return w.setProperty("volume", percent)
}

// Mute silences playback.
func (w *Widget) Mute() error {
	return w.setProperty("mute", true)
}

// Unmute restores sound.
func (w *Widget) Unmute() error {
	return w.setProperty("mute", false)
}

// SetLoop makes mpv restart the file at its end.
func (w *Widget) SetLoop(enabled bool) error {
	value := "no"
	if enabled {
		value = "inf"
	}
	return w.setProperty("loop-file", value)
}

// CurrentTime returns the playback position.
func (w *Widget) CurrentTime() (time.Duration, error) {
	return w.getSeconds("time-pos")
}

// Duration returns the length of the video.
// mpv reports an error until the length is known; that is zero here.
func (w *Widget) Duration() (time.Duration, error) {
	d, err := w.getSeconds("duration")
	var se *domain.ServiceError
	if errors.As(err, &se) && se.StatusCode == 0 && se.Message == "property unavailable" {
		return 0, nil
	}
	return d, err
}

// Destroy quits mpv and releases the socket. Safe to call more than once.
// It does not wait for a callback that is running.
func (w *Widget) Destroy() error {
	var err error
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.done)

		w.writeMu.Lock()
		_ = w.conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		_ = w.enc.Encode(request{Command: []any{"quit"}})
		w.writeMu.Unlock()

		err = w.conn.Close()
		<-w.readerDone

		if w.cmd != nil {
			w.waitProcess()
		}
		if w.socket != "" {
			_ = os.Remove(w.socket)
		}
		w.logger.Debug("mpv widget destroyed")
	})
	return err
}

func (w *Widget) waitProcess() {
	exited := make(chan struct{})
	go func() {
		_ = w.cmd.Wait()
		close(exited)
	}()

	select {
	case <-exited:
	case <-time.After(quitGrace):
		w.logger.Warn("mpv did not quit, killing it")
		_ = w.cmd.Process.Kill()
		<-exited
	}
}

var _ ports.PlayerWidget = (*Widget)(nil)
