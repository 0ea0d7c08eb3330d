package tutor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"halfqwerty/internal/ime"
	"halfqwerty/internal/layout"
	"halfqwerty/internal/store"
)

// Options configures a UI.
type Options struct {
	Layout        layout.Variant
	EngineOptions []ime.Option
	// Tick is how often pending chords are expired.
	Tick time.Duration
	// NextLine produces practice lines.
	NextLine func() string
	// OnResult is called once for every finished line.
	OnResult func(*store.Result) error
	Logger   *slog.Logger
}

// UI is the terminal front end of the tutor.
type UI struct {
	screen  tcell.Screen
	opts    Options
	session *Session
	logger  *slog.Logger

	reported bool
	message  string
	results  []*store.Result
	lastDraw time.Time
}

var (
	styleDefault = tcell.StyleDefault
	styleTitle   = tcell.StyleDefault.Bold(true)
	styleCorrect = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleWrong   = tcell.StyleDefault.Foreground(tcell.ColorRed).Reverse(true)
	stylePending = tcell.StyleDefault.Dim(true)
	styleStatus  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// NewUI creates a tutor on screen. The caller initialises and finalises the
// screen.
func NewUI(screen tcell.Screen, opts Options) *UI {
	if opts.Tick <= 0 {
		opts.Tick = 10 * time.Millisecond
	}
	if opts.NextLine == nil {
		gen, _ := NewGenerator(DefaultWords(), uint64(time.Now().UnixNano()))
		opts.NextLine = func() string { return gen.Line(10) }
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &UI{
		screen:  screen,
		opts:    opts,
		session: NewSession(opts.NextLine(), opts.Layout, opts.EngineOptions...),
		logger:  logger,
	}
}

// Session returns the current practice session.
func (u *UI) Session() *Session { return u.session }

// Results returns the lines finished so far.
func (u *UI) Results() []*store.Result { return u.results }

// Run shows the tutor until the user quits or ctx is done.
func (u *UI) Run(ctx context.Context) error {
	defer u.session.Close()

	stop := make(chan struct{})
	defer close(stop)
	go u.tickLoop(ctx, stop)

	u.draw()
	for {
		ev := u.screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			u.screen.Sync()
			u.draw()
		case *tcell.EventKey:
			if u.handleKey(ev) {
				return nil
			}
			u.draw()
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}
			if u.session.Tick() {
				u.afterInput()
				u.draw()
			} else if u.session.Started() && !u.session.Done() && time.Since(u.lastDraw) > 250*time.Millisecond {
				// live WPM
				u.draw()
			}
		}
	}
}

// tickLoop wakes the event loop so expired chords resolve without a key.
func (u *UI) tickLoop(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(u.opts.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			u.screen.PostEvent(tcell.NewEventInterrupt(nil))
			return
		case <-ticker.C:
			// dropped when the queue is full; the next tick retries
			_ = u.screen.PostEvent(tcell.NewEventInterrupt(nil))
		}
	}
}

// handleKey processes one key and reports whether the tutor should quit.
func (u *UI) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyCtrlR:
		u.restart()
		return false
	case tcell.KeyEnter:
		if u.session.Done() {
			u.restart()
		}
		return false
	case tcell.KeyF1:
		u.session.Key(ime.KeyStickyCtrl)
	case tcell.KeyF2:
		u.session.Key(ime.KeyStickyShift)
	case tcell.KeyF3:
		u.session.Key(ime.KeyStickyAlt)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		u.session.Key(ime.KeyBackspace)
	case tcell.KeyDelete:
		u.session.Key(ime.KeyDelete)
	case tcell.KeyRune:
		r := ev.Rune()
		if r < 0x80 && ime.IsPrintable(byte(r)) {
			u.session.Key(byte(r))
		}
	}
	u.afterInput()
	return false
}

func (u *UI) afterInput() {
	if !u.session.Done() || u.reported {
		return
	}
	u.reported = true
	r := u.session.Result()
	u.results = append(u.results, r)
	u.message = fmt.Sprintf("done: %.1f wpm, %.1f%% accuracy. Enter for the next line.", r.WPM, r.Accuracy)
	u.logger.Info("line finished", "wpm", r.WPM, "accuracy", r.Accuracy, "layout", r.Layout)

	if u.opts.OnResult != nil {
		if err := u.opts.OnResult(r); err != nil {
			u.message = fmt.Sprintf("done: %.1f wpm, but the result was not saved: %v", r.WPM, err)
			u.logger.Error("save result failed", "error", err)
		}
	}
}

func (u *UI) restart() {
	u.session.Restart(u.opts.NextLine())
	u.reported = false
	u.message = ""
}

func (u *UI) draw() {
	s := u.screen
	s.Clear()
	u.lastDraw = time.Now()

	put(s, 0, 0, styleTitle, fmt.Sprintf("Half-QWERTY tutor  [%s]", u.session.Layout()))
	put(s, 0, 1, stylePending, "F1 ctrl  F2 shift  F3 alt  Ctrl-R new line  Esc quit")

	target := u.session.Target()
	typed := u.session.Typed()
	for i := 0; i < len(target); i++ {
		st := stylePending
		if i < len(typed) {
			if typed[i] == target[i] {
				st = styleCorrect
			} else {
				st = styleWrong
			}
		}
		s.SetContent(i, 3, rune(target[i]), nil, st)
	}
	put(s, 0, 4, styleDefault, typed)
	if !u.session.Done() {
		s.ShowCursor(len(typed), 4)
	} else {
		s.HideCursor()
	}

	stats := u.session.Stats()
	status := fmt.Sprintf("wpm %5.1f  accuracy %5.1f%%  mirrored %3.0f%%",
		stats.WPM(), stats.Accuracy(), stats.MirrorRatio()*100)
	if mods := u.session.Modifiers(); mods != 0 {
		status += "  sticky " + mods.String()
	}
	if u.session.ChordPending() {
		status += "  [space]"
	}
	put(s, 0, 6, styleStatus, status)
	put(s, 0, 8, styleDefault, u.message)

	s.Show()
}

func put(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range text {
		s.SetContent(x+i, y, r, nil, style)
	}
}
