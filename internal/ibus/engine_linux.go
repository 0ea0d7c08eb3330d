//go:build linux

package ibus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"halfqwerty/internal/config"
	"halfqwerty/internal/logging"
	"halfqwerty/internal/metrics"
)

// IBus D-Bus constants
const (
	FactoryPath      = "/org/freedesktop/IBus/Factory"
	FactoryInterface = "org.freedesktop.IBus.Factory"
	EngineInterface  = "org.freedesktop.IBus.Engine"
	ServiceInterface = "org.freedesktop.IBus.Service"
	enginePathFormat = "/org/freedesktop/IBus/Engine/halfqwerty/%d"
)

// ibusText is the D-Bus form of IBusText: (sa{sv}sv).
type ibusText struct {
	Name        string
	Attachments map[string]dbus.Variant
	Text        string
	AttrList    dbus.Variant
}

// ibusAttrList is the D-Bus form of an empty IBusAttrList: (sa{sv}av).
type ibusAttrList struct {
	Name        string
	Attachments map[string]dbus.Variant
	Attributes  []dbus.Variant
}

func newIBusText(text string) dbus.Variant {
	attrs := ibusAttrList{
		Name:        "IBusAttrList",
		Attachments: map[string]dbus.Variant{},
		Attributes:  []dbus.Variant{},
	}
	return dbus.MakeVariant(ibusText{
		Name:        "IBusText",
		Attachments: map[string]dbus.Variant{},
		Text:        text,
		AttrList:    dbus.MakeVariant(attrs),
	})
}

// Bus is the part of a D-Bus connection the engines use. *dbus.Conn
// implements it.
type Bus interface {
	Export(v any, path dbus.ObjectPath, iface string) error
	Emit(path dbus.ObjectPath, name string, values ...any) error
}

// Engine is one IBus input context exported on the session bus.
type Engine struct {
	conn    Bus
	path    dbus.ObjectPath
	handler *Handler
	crash   *logging.CrashHandler
	logger  *slog.Logger
	onDone  func()
}

// CommitText implements Sink.
func (e *Engine) CommitText(text string) error {
	return e.conn.Emit(e.path, EngineInterface+".CommitText", newIBusText(text))
}

// ForwardKeyEvent implements Sink.
func (e *Engine) ForwardKeyEvent(keyval, keycode, state uint32) error {
	return e.conn.Emit(e.path, EngineInterface+".ForwardKeyEvent", keyval, keycode, state)
}

// ProcessKeyEvent handles key press/release events from IBus.
// Returns true if the key was consumed, false to pass through.
func (e *Engine) ProcessKeyEvent(keyval, keycode, state uint32) (handled bool, derr *dbus.Error) {
	defer e.crash.Recover("ProcessKeyEvent")
	return e.handler.ProcessKeyEvent(keyval, keycode, state), nil
}

// FocusIn is called when the engine gains input focus.
func (e *Engine) FocusIn() *dbus.Error {
	defer e.crash.Recover("FocusIn")
	e.handler.FocusIn()
	return nil
}

// FocusOut is called when the engine loses input focus.
func (e *Engine) FocusOut() *dbus.Error {
	defer e.crash.Recover("FocusOut")
	e.handler.FocusOut()
	return nil
}

// Enable is called when the engine is enabled.
func (e *Engine) Enable() *dbus.Error {
	defer e.crash.Recover("Enable")
	e.handler.Enable()
	e.logger.Debug("enabled", "path", e.path)
	return nil
}

// Disable is called when the engine is disabled.
func (e *Engine) Disable() *dbus.Error {
	defer e.crash.Recover("Disable")
	e.handler.Disable()
	e.logger.Debug("disabled", "path", e.path)
	return nil
}

// Reset is called when the client resets its state, e.g. after a cursor
// jump.
func (e *Engine) Reset() *dbus.Error {
	defer e.crash.Recover("Reset")
	e.handler.Reset()
	return nil
}

// SetCapabilities informs about client capabilities.
func (e *Engine) SetCapabilities(caps uint32) *dbus.Error {
	e.logger.Debug("SetCapabilities", "caps", caps)
	return nil
}

func (e *Engine) SetContentType(purpose, hints uint32) *dbus.Error {
	return nil
}

func (e *Engine) SetCursorLocation(x, y, w, h int32) *dbus.Error {
	return nil
}

func (e *Engine) SetSurroundingText(text dbus.Variant, cursorPos, anchorPos uint32) *dbus.Error {
	return nil
}

// PropertyActivate switches layouts.
func (e *Engine) PropertyActivate(propName string, state uint32) *dbus.Error {
	defer e.crash.Recover("PropertyActivate")
	if !e.handler.ActivateProperty(propName) {
		e.logger.Debug("unknown property", "name", propName)
	}
	return nil
}

func (e *Engine) PageUp() *dbus.Error { return nil }

func (e *Engine) PageDown() *dbus.Error { return nil }

func (e *Engine) CursorUp() *dbus.Error { return nil }

func (e *Engine) CursorDown() *dbus.Error { return nil }

func (e *Engine) CandidateClicked(index, button, state uint32) *dbus.Error { return nil }

// Destroy is called on the Service interface when IBus drops the engine.
func (e *Engine) Destroy() *dbus.Error {
	e.conn.Export(nil, e.path, EngineInterface)
	e.conn.Export(nil, e.path, ServiceInterface)
	e.handler.Close()
	if e.onDone != nil {
		e.onDone()
	}
	e.logger.Debug("engine destroyed", "path", e.path)
	return nil
}

// Factory implements the IBus Factory D-Bus interface and owns the live
// engines.
type Factory struct {
	conn    Bus
	name    string
	crash   *logging.CrashHandler
	logger  *slog.Logger
	metrics *metrics.Engine

	mu      sync.Mutex
	cfg     *config.Config
	nextID  uint32
	engines map[dbus.ObjectPath]*Engine
}

// NewFactory creates a factory for the engine named in cfg.IBus. m may be
// nil.
func NewFactory(conn Bus, cfg *config.Config, crash *logging.CrashHandler, logger *slog.Logger, m *metrics.Engine) *Factory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Factory{
		conn:    conn,
		name:    cfg.IBus.EngineName,
		crash:   crash,
		logger:  logger,
		metrics: m,
		cfg:     cfg,
		engines: make(map[dbus.ObjectPath]*Engine),
	}
}

// CreateEngine creates a new engine instance for IBus.
func (f *Factory) CreateEngine(engineName string) (dbus.ObjectPath, *dbus.Error) {
	defer f.crash.Recover("CreateEngine")

	if engineName != f.name {
		return "", dbus.NewError("org.freedesktop.IBus.NoEngine",
			[]any{"Unknown engine: " + engineName})
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	path := dbus.ObjectPath(fmt.Sprintf(enginePathFormat, f.nextID))
	e := &Engine{
		conn:   f.conn,
		path:   path,
		crash:  f.crash,
		logger: f.logger.With("engine", f.nextID),
	}
	e.handler = NewHandler(f.cfg, e, e.logger)
	e.handler.SetMetrics(f.metrics)
	e.onDone = func() { f.remove(path) }

	if err := f.conn.Export(e, path, EngineInterface); err != nil {
		e.handler.Close()
		return "", dbus.MakeFailedError(err)
	}
	if err := f.conn.Export(e, path, ServiceInterface); err != nil {
		f.conn.Export(nil, path, EngineInterface)
		e.handler.Close()
		return "", dbus.MakeFailedError(err)
	}
	f.engines[path] = e
	f.metrics.EngineCreated()

	f.logger.Info("engine created", "path", path, "layout", f.cfg.Engine.Layout)
	return path, nil
}

func (f *Factory) remove(path dbus.ObjectPath) {
	f.mu.Lock()
	if _, ok := f.engines[path]; ok {
		delete(f.engines, path)
		f.metrics.EngineDestroyed()
	}
	f.mu.Unlock()
}

func (f *Factory) snapshot() []*Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Engine, 0, len(f.engines))
	for _, e := range f.engines {
		out = append(out, e)
	}
	return out
}

// Apply pushes a reloaded configuration to every live engine and to engines
// created later.
func (f *Factory) Apply(cfg *config.Config) {
	f.mu.Lock()
	f.cfg = cfg
	f.mu.Unlock()

	for _, e := range f.snapshot() {
		e.handler.Apply(cfg)
	}
	f.metrics.Reloaded()
	f.logger.Info("configuration applied", "layout", cfg.Engine.Layout, "protocol", cfg.Engine.Protocol)
}

// TickLoop drives legacy-protocol engines until ctx is done.
func (f *Factory) TickLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, e := range f.snapshot() {
				f.crash.Guard("Tick", e.handler.Tick)
			}
		}
	}
}

// MetricsLoop writes the metrics file every interval until ctx is done, and
// once more on the way out. An empty path disables it.
func (f *Factory) MetricsLoop(ctx context.Context, path string, interval time.Duration) {
	if path == "" || f.metrics == nil {
		return
	}
	write := func() {
		if err := f.metrics.WriteFile(path); err != nil {
			f.logger.Warn("write metrics failed", "path", path, "error", err)
		}
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			write()
			return
		case <-ticker.C:
			write()
		}
	}
}

// Close releases every engine.
func (f *Factory) Close() {
	for _, e := range f.snapshot() {
		e.handler.Close()
	}
}

// Serve claims busName on conn, exports the factory, and blocks until ctx
// is done.
func Serve(ctx context.Context, conn *dbus.Conn, factory *Factory, busName string, tick time.Duration) error {
	if err := conn.Export(factory, FactoryPath, FactoryInterface); err != nil {
		return fmt.Errorf("export factory: %w", err)
	}

	reply, err := conn.RequestName(busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return errors.New("bus name already taken")
	}

	go factory.TickLoop(ctx, tick)

	<-ctx.Done()
	factory.Close()
	return nil
}
