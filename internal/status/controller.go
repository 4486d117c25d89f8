// Package status turns bridged audio signals into tray icon updates and keeps
// a snapshot of what is currently displayed.
package status

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf16"

	"github.com/urraka/volumeicon/internal/audio"
	"github.com/urraka/volumeicon/internal/health"
	"github.com/urraka/volumeicon/internal/icons"
	"github.com/urraka/volumeicon/internal/logging"
)

var log = logging.L("status")

// MaxTooltip is the tooltip limit in UTF-16 code units, excluding the
// terminating NUL of the shell's 64-unit buffer.
const MaxTooltip = 63

// DefaultTooltipFormat renders "Volume: 42%".
const DefaultTooltipFormat = "Volume: %d%%"

const mutedSuffix = " (muted)"

// Source is the endpoint lifecycle manager as seen by the controller.
type Source interface {
	ChangeEndpoint() error
	LevelInfo() (audio.VolumeState, error)
	State() audio.State
	EndpointID() string
}

// Tray shows a single notification-area icon.
type Tray interface {
	Add(icon icons.Handle, tip string) error
	Modify(icon icons.Handle, tip string) error
	Delete() error
}

// IconSet resolves a table index to a platform icon.
type IconSet interface {
	Icon(i int) icons.Handle
}

// Options controls presentation.
type Options struct {
	TooltipFormat string
	// MuteIcon selects the muted glyph instead of "0" while muted.
	MuteIcon bool
}

// Snapshot is the last displayed state.
type Snapshot struct {
	Level      int               `json:"level" yaml:"level"`
	Muted      bool              `json:"muted" yaml:"muted"`
	Icon       int               `json:"icon" yaml:"icon"`
	Tooltip    string            `json:"tooltip" yaml:"tooltip"`
	Endpoint   string            `json:"endpoint" yaml:"endpoint"`
	State      string            `json:"state" yaml:"state"`
	Health     health.Status     `json:"health" yaml:"health"`
	Components map[string]string `json:"components,omitempty" yaml:"components,omitempty"`
	Displayed  bool              `json:"displayed" yaml:"displayed"`
	UpdatedAt  time.Time         `json:"updatedAt" yaml:"updatedAt"`
}

// Controller owns the displayed icon. Handle, Start and Stop must run on the
// UI thread; Snapshot may be called from any goroutine.
type Controller struct {
	src    Source
	icons  IconSet
	tray   Tray
	health *health.Monitor
	opts   Options
	now    func() time.Time

	mu      sync.RWMutex
	snap    Snapshot
	started bool
}

// New creates a controller. A nil health monitor gets a private one.
func New(src Source, set IconSet, tray Tray, hm *health.Monitor, opts Options) *Controller {
	if hm == nil {
		hm = health.NewMonitor()
	}
	if opts.TooltipFormat == "" {
		opts.TooltipFormat = DefaultTooltipFormat
	}
	return &Controller{
		src:    src,
		icons:  set,
		tray:   tray,
		health: hm,
		opts:   opts,
		now:    time.Now,
	}
}

// Start adds the tray icon showing the current level. A failed read shows 0.
func (c *Controller) Start() error {
	var (
		level, idx int
		muted      bool
		tip        string
	)
	state, err := c.src.LevelInfo()
	if err != nil {
		log.Warn("initial volume read failed", logging.KeyError, err)
		c.health.Update(health.ComponentVolume, health.Degraded, err.Error())
		idx, tip = icons.Index(0, false), Tooltip(c.opts.TooltipFormat, 0, false)
	} else {
		c.health.Update(health.ComponentVolume, health.Healthy, "")
		level, muted = state.Level(), state.Muted
		idx, tip = c.present(state)
	}
	if c.src.State() == audio.Attached {
		c.health.Update(health.ComponentEndpoint, health.Healthy, "")
	} else {
		c.health.Update(health.ComponentEndpoint, health.Unhealthy, "no endpoint attached")
	}

	if err := c.tray.Add(c.icons.Icon(idx), tip); err != nil {
		c.health.Update(health.ComponentTray, health.Unhealthy, err.Error())
		return fmt.Errorf("status: add tray icon: %w", err)
	}
	c.health.Update(health.ComponentTray, health.Healthy, "")

	c.mu.Lock()
	c.started = true
	c.recordLocked(level, muted, idx, tip)
	c.mu.Unlock()

	log.Info("tray icon added", logging.KeyLevel, level, logging.KeyEndpoint, c.src.EndpointID())
	return nil
}

// Handle processes one drained signal set. An endpoint change is applied
// before the level is re-read; a failed read leaves the icon unchanged.
func (c *Controller) Handle(sig audio.Signal) {
	if sig == 0 {
		return
	}
	log.Debug("handling signal", logging.KeySignal, sig.String())

	if sig.Has(audio.EndpointChanged) {
		if err := c.src.ChangeEndpoint(); err != nil {
			log.Warn("switching endpoint failed", logging.KeyError, err)
			c.health.Update(health.ComponentEndpoint, health.Unhealthy, err.Error())
		} else {
			log.Info("default endpoint changed", logging.KeyEndpoint, c.src.EndpointID())
			c.health.Update(health.ComponentEndpoint, health.Healthy, "")
		}
	}

	state, err := c.src.LevelInfo()
	if err != nil {
		log.Debug("volume read failed, keeping icon", logging.KeyError, err)
		c.health.Update(health.ComponentVolume, health.Degraded, err.Error())
		c.touch()
		return
	}
	c.health.Update(health.ComponentVolume, health.Healthy, "")

	if err := c.show(state); err != nil {
		log.Warn("tray update failed", logging.KeyError, err)
	}
}

// Stop removes the tray icon. Calling it before Start or twice is a no-op.
func (c *Controller) Stop() error {
	c.mu.Lock()
	started := c.started
	c.started = false
	c.mu.Unlock()

	if !started {
		return nil
	}
	if err := c.tray.Delete(); err != nil {
		return fmt.Errorf("status: delete tray icon: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the last displayed state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	s := c.snap
	c.mu.RUnlock()

	summary := c.health.Summary()
	s.Health = health.Status(summary["status"].(string))
	s.Components, _ = summary["components"].(map[string]string)
	return s
}

func (c *Controller) show(state audio.VolumeState) error {
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if !started {
		return nil
	}

	idx, tip := c.present(state)
	if err := c.tray.Modify(c.icons.Icon(idx), tip); err != nil {
		c.health.Update(health.ComponentTray, health.Degraded, err.Error())
		return err
	}
	c.health.Update(health.ComponentTray, health.Healthy, "")

	c.mu.Lock()
	c.recordLocked(state.Level(), state.Muted, idx, tip)
	c.mu.Unlock()
	return nil
}

// present picks the icon index and tooltip for state.
func (c *Controller) present(state audio.VolumeState) (int, string) {
	level := state.Level()
	idx := icons.Index(level, state.Muted && c.opts.MuteIcon)
	return idx, Tooltip(c.opts.TooltipFormat, level, state.Muted)
}

func (c *Controller) recordLocked(level int, muted bool, idx int, tip string) {
	c.snap.Level = level
	c.snap.Muted = muted
	c.snap.Icon = idx
	c.snap.Tooltip = tip
	c.snap.Displayed = true
	c.snap.Endpoint = c.src.EndpointID()
	c.snap.State = c.src.State().String()
	c.snap.UpdatedAt = c.now()
}

// touch refreshes the endpoint fields without changing what is displayed.
func (c *Controller) touch() {
	c.mu.Lock()
	c.snap.Endpoint = c.src.EndpointID()
	c.snap.State = c.src.State().String()
	c.snap.UpdatedAt = c.now()
	c.mu.Unlock()
}

// Tooltip formats the tooltip for level and truncates it to MaxTooltip.
func Tooltip(format string, level int, muted bool) string {
	if format == "" {
		format = DefaultTooltipFormat
	}
	s := fmt.Sprintf(format, level)
	if muted {
		s += mutedSuffix
	}
	return TruncateTooltip(s, MaxTooltip)
}

// TruncateTooltip cuts s so its UTF-16 encoding is at most n code units,
// never splitting a surrogate pair.
func TruncateTooltip(s string, n int) string {
	units := 0
	for i, r := range s {
		w := utf16.RuneLen(r)
		if w < 0 {
			w = 1
		}
		if units+w > n {
			return s[:i]
		}
		units += w
	}
	return s
}
