// Package engine wires the crop controller, compositor, session recorder and
// capture stream into one editor, and replays recorded sessions offline.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/ivlev/videocrop/internal/analyzer"
	"github.com/ivlev/videocrop/internal/capture"
	"github.com/ivlev/videocrop/internal/compositor"
	"github.com/ivlev/videocrop/internal/cropper"
	"github.com/ivlev/videocrop/internal/geometry"
	"github.com/ivlev/videocrop/internal/player"
	"github.com/ivlev/videocrop/internal/session"
)

var (
	ErrNoCrop          = errors.New("crop region is not set")
	ErrNotReady        = errors.New("video is not laid out yet")
	ErrRecordingActive = errors.New("recording in progress")
	ErrNoRegion        = errors.New("no region of interest found")
)

// Tab is the panel shown next to the video.
type Tab string

const (
	TabPreview  Tab = "preview"
	TabGenerate Tab = "generate"
)

// State is a snapshot of everything the view renders.
type State struct {
	Playing        bool          `json:"playing"`
	CropperVisible bool          `json:"cropperVisible"`
	Recording      bool          `json:"recording"`
	ActiveTab      Tab           `json:"activeTab"`
	AspectRatio    string        `json:"aspectRatio"`
	Rect           geometry.Rect `json:"rect"`
	Display        geometry.Size `json:"display"`
	Native         geometry.Size `json:"native"`
	CurrentTime    float64       `json:"currentTime"`
	Duration       float64       `json:"duration"`
	Time           string        `json:"time"`
	Volume         float64       `json:"volume"`
	PlaybackRate   float64       `json:"playbackRate"`
	Samples        int           `json:"samples"`
	HasClip        bool          `json:"hasClip"`
}

type Options struct {
	OutputDir string
	Format    session.Format
	Aspect    cropper.AspectRatio
	Detector  analyzer.Detector
	Logger    *slog.Logger
}

// Editor is the view-model. All methods are safe for concurrent use.
type Editor struct {
	player     *player.Player
	controller *cropper.Controller
	compositor *compositor.Compositor
	recorder   *session.Recorder
	capture    *capture.Stream
	opts       Options
	logger     *slog.Logger

	mu             sync.Mutex
	cropperVisible bool
	recording      bool
	tab            Tab

	unsubscribe func()
	detachSink  func()
}

func NewEditor(p *player.Player, comp *compositor.Compositor, stream *capture.Stream, opts Options) *Editor {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Format == "" {
		opts.Format = session.FormatJSON
	}
	if opts.Aspect == "" {
		opts.Aspect = cropper.DefaultRatio
	}
	if opts.Detector == nil {
		opts.Detector = analyzer.NewContrastDetector()
	}

	e := &Editor{
		player:     p,
		controller: cropper.NewController(opts.Aspect),
		compositor: comp,
		recorder:   session.NewRecorder(),
		capture:    stream,
		opts:       opts,
		logger:     opts.Logger,
		tab:        TabPreview,
	}
	e.unsubscribe = e.controller.Subscribe(e.onRect)
	e.detachSink = comp.AddSink(stream)
	return e
}

// onRect runs synchronously on every crop change.
func (e *Editor) onRect(r geometry.Rect) {
	e.compositor.SetRect(r)
	e.recorder.Record(r, e.player.CurrentTime(), e.player.Volume(), e.player.PlaybackRate())
}

func (e *Editor) Player() *player.Player          { return e.player }
func (e *Editor) Controller() *cropper.Controller { return e.controller }
func (e *Editor) Recorder() *session.Recorder     { return e.recorder }

func (e *Editor) State() State {
	e.mu.Lock()
	visible, recording, tab := e.cropperVisible, e.recording, e.tab
	e.mu.Unlock()

	current, duration := e.player.CurrentTime(), e.player.Duration()
	return State{
		Playing:        e.player.Playing(),
		CropperVisible: visible,
		Recording:      recording,
		ActiveTab:      tab,
		AspectRatio:    string(e.controller.AspectRatio()),
		Rect:           e.controller.Rect(),
		Display:        e.player.DisplaySize(),
		Native:         e.player.NativeSize(),
		CurrentTime:    current,
		Duration:       duration,
		Time:           player.FormatTime(current) + " / " + player.FormatTime(duration),
		Volume:         e.player.Volume(),
		PlaybackRate:   e.player.PlaybackRate(),
		Samples:        e.recorder.Len(),
		HasClip:        e.capture.HasData(),
	}
}

// ShowCropper fits a fresh rectangle to the displayed video. Showing a
// visible cropper is a no-op.
func (e *Editor) ShowCropper() geometry.Rect {
	e.mu.Lock()
	if e.cropperVisible {
		e.mu.Unlock()
		return e.controller.Rect()
	}
	e.cropperVisible = true
	e.mu.Unlock()

	e.controller.SetContainer(e.player.DisplaySize())
	return e.controller.Rect()
}

// HideCropper removes the rectangle; the compositor stops drawing.
func (e *Editor) HideCropper() {
	e.mu.Lock()
	e.cropperVisible = false
	e.mu.Unlock()

	e.controller.Reset(e.controller.AspectRatio())
	e.compositor.SetRect(geometry.Rect{})
}

func (e *Editor) visible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cropperVisible
}

// SetAspectRatio re-fits a visible cropper. A hidden cropper only remembers
// the ratio for the next ShowCropper.
func (e *Editor) SetAspectRatio(ratio cropper.AspectRatio) {
	if e.visible() {
		e.controller.SetAspectRatio(ratio)
		return
	}
	e.controller.Reset(ratio)
}

// SetContainer is called when the video element is resized.
func (e *Editor) SetContainer(size geometry.Size) {
	e.player.SetDisplaySize(size)
	if e.visible() {
		e.controller.SetContainer(size)
	}
}

func (e *Editor) DragStart(x, y float64) {
	if e.visible() {
		e.controller.DragStart(x, y)
	}
}

func (e *Editor) DragMove(x, y float64) {
	if e.visible() {
		e.controller.DragMove(x, y)
	}
}

func (e *Editor) DragEnd() {
	e.controller.DragEnd()
}

// AutoPosition centres the crop on the largest high-contrast region of the
// current frame and returns that region in native pixels.
func (e *Editor) AutoPosition() (image.Rectangle, error) {
	if !e.visible() || e.controller.Rect().IsZero() {
		return image.Rectangle{}, ErrNoCrop
	}
	sf, ok := geometry.NewScaleFactors(e.player.DisplaySize(), e.player.NativeSize())
	if !ok {
		return image.Rectangle{}, ErrNotReady
	}
	frame, err := e.player.Frame()
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("read frame: %w", err)
	}

	blocks, err := e.opts.Detector.Detect(frame)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("detect: %w", err)
	}
	block, ok := analyzer.Largest(blocks)
	if !ok {
		return image.Rectangle{}, ErrNoRegion
	}

	cx, cy := analyzer.Center(block.Rect.Sub(frame.Bounds().Min))
	center := sf.ToLayout(geometry.Rect{X: cx, Y: cy})
	e.controller.CenterOn(center.X)
	e.logger.Debug("crop auto-positioned", "region", block.Rect, "x", center.X)
	return block.Rect, nil
}

func (e *Editor) Play()        { e.player.Play() }
func (e *Editor) Pause()       { e.player.Pause() }
func (e *Editor) Toggle() bool { return e.player.Toggle() }

func (e *Editor) Seek(t float64)      { e.player.Seek(t) }
func (e *Editor) SetVolume(v float64) { e.player.SetVolume(v) }

func (e *Editor) SetPlaybackRate(r float64) error {
	return e.player.SetPlaybackRate(r)
}

func (e *Editor) SetTab(tab Tab) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tab = tab
}

// StartRecording clears previous samples and chunks, then starts the capture
// stream sized to the crop's native resolution. Starting twice is a no-op
// reported by false. The capture outlives ctx cancellation; only
// StopRecording, Cancel or Close end it.
func (e *Editor) StartRecording(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recording {
		return false, nil
	}

	rect := e.controller.Rect()
	if !e.cropperVisible || rect.IsZero() {
		return false, ErrNoCrop
	}
	native, ok := geometry.MapToNative(e.player.DisplaySize(), e.player.NativeSize(), rect)
	if !ok {
		return false, ErrNotReady
	}
	w, h := geometry.SurfaceSize(native)

	if _, err := e.capture.Start(context.WithoutCancel(ctx), w, h); err != nil {
		return false, err
	}
	e.recorder.Start()
	e.recording = true
	e.logger.Info("session recording started", "rect", rect, "native", fmt.Sprintf("%dx%d", w, h))
	return true, nil
}

// GenerateSession switches to the generate tab and starts recording.
func (e *Editor) GenerateSession(ctx context.Context) (bool, error) {
	e.SetTab(TabGenerate)
	return e.StartRecording(ctx)
}

// StopRecording ends the session and flushes the capture stream. Stopping
// while idle is a no-op.
func (e *Editor) StopRecording() error {
	e.mu.Lock()
	if !e.recording {
		e.mu.Unlock()
		return nil
	}
	e.recording = false
	e.mu.Unlock()

	e.recorder.Stop()
	err := e.capture.Stop()
	e.logger.Info("session recording stopped", "samples", e.recorder.Len())
	return err
}

func (e *Editor) Recording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recording
}

// SaveRecording writes the clip to the output directory and clears it.
func (e *Editor) SaveRecording() (string, error) {
	if e.Recording() {
		return "", ErrRecordingActive
	}
	return e.capture.SaveClip(e.opts.OutputDir)
}

// TakeClip returns the recorded clip and clears it, like a download.
func (e *Editor) TakeClip() ([]byte, error) {
	if e.Recording() {
		return nil, ErrRecordingActive
	}
	data := e.capture.Bytes()
	if len(data) == 0 {
		return nil, capture.ErrNoRecording
	}
	e.capture.Clear()
	return data, nil
}

// ExportSession writes the recorded samples to the output directory. An empty
// session is exported as an empty list.
func (e *Editor) ExportSession() (string, error) {
	path, err := session.WriteFile(e.opts.OutputDir, e.recorder.Samples(), e.opts.Format)
	if err != nil {
		return "", fmt.Errorf("export session: %w", err)
	}
	e.logger.Info("session exported", "path", path, "samples", e.recorder.Len())
	return path, nil
}

// SessionJSON is the exported session document.
func (e *Editor) SessionJSON() ([]byte, error) {
	return session.Marshal(e.recorder.Samples(), session.FormatJSON)
}

// Preview returns a copy of the last composited surface, or nil.
func (e *Editor) Preview() *image.RGBA {
	return e.compositor.Snapshot()
}

// Cancel restores the initial state: paused at 0 with default volume and
// rate, default aspect ratio, no cropper, no recording and no samples.
// Recorded clip data is kept.
func (e *Editor) Cancel() error {
	var err error
	e.mu.Lock()
	wasRecording := e.recording
	e.recording = false
	e.cropperVisible = false
	e.tab = TabPreview
	e.mu.Unlock()

	e.recorder.Reset()
	if wasRecording {
		err = e.capture.Stop()
	}
	e.player.Reset()
	e.controller.Reset(cropper.DefaultRatio)
	e.compositor.SetRect(geometry.Rect{})
	e.logger.Info("editor reset")
	return err
}

// Run drives playback and compositing from clock until ctx is done. Any
// active recording is stopped on return.
func (e *Editor) Run(ctx context.Context, clock compositor.Clock) {
	e.compositor.Run(ctx, clock, func(dt time.Duration) {
		e.player.Advance(dt.Seconds())
	})
	if err := e.StopRecording(); err != nil {
		e.logger.Error("stop recording", "error", err)
	}
}

// Close detaches the editor from its collaborators.
func (e *Editor) Close() error {
	err := e.StopRecording()
	e.unsubscribe()
	e.detachSink()
	return err
}
