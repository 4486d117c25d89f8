package status

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urraka/volumeicon/internal/audio"
	"github.com/urraka/volumeicon/internal/health"
	"github.com/urraka/volumeicon/internal/icons"
)

type fakeSource struct {
	state     audio.VolumeState
	endpoint  string
	next      string
	lifecycle audio.State
	queryErr  error
	changeErr error
	reads     int
	changes   int
}

func (s *fakeSource) ChangeEndpoint() error {
	s.changes++
	if s.changeErr != nil {
		s.endpoint = ""
		s.lifecycle = audio.Detached
		return s.changeErr
	}
	s.endpoint = s.next
	s.lifecycle = audio.Attached
	return nil
}

func (s *fakeSource) LevelInfo() (audio.VolumeState, error) {
	s.reads++
	if s.queryErr != nil {
		return audio.VolumeState{}, s.queryErr
	}
	return s.state, nil
}

func (s *fakeSource) State() audio.State { return s.lifecycle }
func (s *fakeSource) EndpointID() string { return s.endpoint }

type trayCall struct {
	op   string
	icon icons.Handle
	tip  string
}

type fakeTray struct {
	calls     []trayCall
	modifyErr error
}

func (t *fakeTray) Add(icon icons.Handle, tip string) error {
	t.calls = append(t.calls, trayCall{"add", icon, tip})
	return nil
}

func (t *fakeTray) Modify(icon icons.Handle, tip string) error {
	t.calls = append(t.calls, trayCall{"modify", icon, tip})
	return t.modifyErr
}

func (t *fakeTray) Delete() error {
	t.calls = append(t.calls, trayCall{op: "delete"})
	return nil
}

func (t *fakeTray) last() trayCall { return t.calls[len(t.calls)-1] }

// indexIcons maps index i to handle 1000+i so tests can read back the index.
type indexIcons struct{}

func (indexIcons) Icon(i int) icons.Handle { return icons.Handle(1000 + i) }

func icon(i int) icons.Handle { return icons.Handle(1000 + i) }

func newTestController(t *testing.T, src *fakeSource, opts Options) (*Controller, *fakeTray, *health.Monitor) {
	t.Helper()
	tray := &fakeTray{}
	hm := health.NewMonitor()
	c := New(src, indexIcons{}, tray, hm, opts)
	require.NoError(t, c.Start())
	return c, tray, hm
}

func attached(step, count uint32, muted bool) *fakeSource {
	return &fakeSource{
		state:     audio.VolumeState{Step: step, StepCount: count, Muted: muted},
		endpoint:  "D1",
		next:      "D2",
		lifecycle: audio.Attached,
	}
}

func TestStartAddsCurrentLevel(t *testing.T) {
	src := attached(50, 101, false)
	c, tray, hm := newTestController(t, src, Options{MuteIcon: true})

	require.Len(t, tray.calls, 1)
	assert.Equal(t, trayCall{"add", icon(50), "Volume: 50%"}, tray.calls[0])

	snap := c.Snapshot()
	assert.Equal(t, 50, snap.Level)
	assert.Equal(t, "D1", snap.Endpoint)
	assert.Equal(t, "attached", snap.State)
	assert.True(t, snap.Displayed)
	assert.Equal(t, health.Healthy, hm.Overall())
	assert.Equal(t, health.Healthy, snap.Health)
}

func TestStartWithQueryFailureShowsZero(t *testing.T) {
	src := attached(0, 0, false)
	src.queryErr = audio.ErrQuery
	c, tray, hm := newTestController(t, src, Options{MuteIcon: true})

	require.Len(t, tray.calls, 1)
	assert.Equal(t, trayCall{"add", icon(0), "Volume: 0%"}, tray.calls[0])
	check, ok := hm.Get(health.ComponentVolume)
	require.True(t, ok)
	assert.Equal(t, health.Degraded, check.Status)

	snap := c.Snapshot()
	assert.Equal(t, 0, snap.Level)
	assert.Equal(t, 0, snap.Icon)
	assert.False(t, snap.Muted)
	assert.Equal(t, health.Degraded, snap.Health)
}

func TestStartQueryFailureThenRecovers(t *testing.T) {
	src := attached(0, 0, false)
	src.queryErr = audio.ErrQuery
	c, tray, hm := newTestController(t, src, Options{})
	require.Equal(t, 0, c.Snapshot().Level)

	src.queryErr = nil
	src.state = audio.VolumeState{Step: 35, StepCount: 101}
	c.Handle(audio.VolumeChanged)

	require.Len(t, tray.calls, 2)
	assert.Equal(t, trayCall{"modify", icon(35), "Volume: 35%"}, tray.last())
	snap := c.Snapshot()
	assert.Equal(t, 35, snap.Level)
	assert.Equal(t, 35, snap.Icon)
	check, _ := hm.Get(health.ComponentVolume)
	assert.Equal(t, health.Healthy, check.Status)
	assert.Equal(t, health.Healthy, snap.Health)
}

func TestHandleVolumeChanged(t *testing.T) {
	tests := []struct {
		name     string
		state    audio.VolumeState
		muteIcon bool
		wantIcon int
		wantTip  string
	}{
		{"half", audio.VolumeState{Step: 50, StepCount: 101}, true, 50, "Volume: 50%"},
		{"full", audio.VolumeState{Step: 100, StepCount: 101}, true, 100, "Volume: 100%"},
		{"muted glyph", audio.VolumeState{Step: 100, StepCount: 101, Muted: true}, true, icons.MutedIndex, "Volume: 0% (muted)"},
		{"muted zero", audio.VolumeState{Step: 100, StepCount: 101, Muted: true}, false, 0, "Volume: 0% (muted)"},
		{"single step", audio.VolumeState{Step: 0, StepCount: 1}, true, audio.DegenerateLevel, "Volume: 100%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := attached(0, 101, false)
			c, tray, _ := newTestController(t, src, Options{MuteIcon: tt.muteIcon})

			src.state = tt.state
			c.Handle(audio.VolumeChanged)

			assert.Equal(t, trayCall{"modify", icon(tt.wantIcon), tt.wantTip}, tray.last())
			assert.Equal(t, tt.wantIcon, c.Snapshot().Icon)
			assert.Equal(t, tt.state.Muted, c.Snapshot().Muted)
		})
	}
}

func TestCoalescedSignalsRefreshOnce(t *testing.T) {
	src := attached(10, 101, false)
	c, tray, _ := newTestController(t, src, Options{})
	bridge := audio.NewBridge(nil)

	src.state.Step = 30
	bridge.Post(audio.VolumeChanged)
	src.state.Step = 80
	bridge.Post(audio.VolumeChanged)

	<-bridge.Wake()
	readsBefore := src.reads
	c.Handle(bridge.Take())

	assert.Equal(t, readsBefore+1, src.reads)
	require.Len(t, tray.calls, 2)
	assert.Equal(t, trayCall{"modify", icon(80), "Volume: 80%"}, tray.last())
	assert.Equal(t, audio.Signal(0), bridge.Take())
}

func TestEndpointChangeBeforeRead(t *testing.T) {
	src := attached(10, 101, false)
	c, tray, _ := newTestController(t, src, Options{})

	src.state.Step = 60
	c.Handle(audio.EndpointChanged | audio.VolumeChanged)

	assert.Equal(t, 1, src.changes)
	assert.Equal(t, "D2", c.Snapshot().Endpoint)
	assert.Equal(t, icon(60), tray.last().icon)
}

func TestEndpointChangeFailure(t *testing.T) {
	src := attached(10, 101, false)
	c, tray, hm := newTestController(t, src, Options{})

	src.changeErr = fmt.Errorf("%w: no default device", audio.ErrEndpointUnavailable)
	src.queryErr = audio.ErrQuery
	c.Handle(audio.EndpointChanged)

	require.Len(t, tray.calls, 1, "stale icon must stay")
	check, _ := hm.Get(health.ComponentEndpoint)
	assert.Equal(t, health.Unhealthy, check.Status)

	snap := c.Snapshot()
	assert.Equal(t, "detached", snap.State)
	assert.Equal(t, "", snap.Endpoint)
	assert.Equal(t, 10, snap.Level)
	assert.Equal(t, health.Unhealthy, snap.Health)
}

func TestQueryFailureKeepsIcon(t *testing.T) {
	src := attached(40, 101, false)
	c, tray, _ := newTestController(t, src, Options{})

	src.queryErr = errors.New("device gone")
	c.Handle(audio.VolumeChanged)

	require.Len(t, tray.calls, 1)
	assert.Equal(t, 40, c.Snapshot().Level)
	assert.Equal(t, "Volume: 40%", c.Snapshot().Tooltip)
}

func TestModifyFailureKeepsSnapshot(t *testing.T) {
	src := attached(40, 101, false)
	c, tray, hm := newTestController(t, src, Options{})

	tray.modifyErr = errors.New("shell busy")
	src.state.Step = 90
	c.Handle(audio.VolumeChanged)

	assert.Equal(t, 40, c.Snapshot().Level)
	check, _ := hm.Get(health.ComponentTray)
	assert.Equal(t, health.Degraded, check.Status)
}

func TestHandleEmptySignal(t *testing.T) {
	src := attached(40, 101, false)
	c, tray, _ := newTestController(t, src, Options{})
	reads := src.reads

	c.Handle(0)
	assert.Equal(t, reads, src.reads)
	assert.Len(t, tray.calls, 1)
}

func TestStopDeletesOnce(t *testing.T) {
	src := attached(40, 101, false)
	c, tray, _ := newTestController(t, src, Options{})

	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())
	assert.Equal(t, "delete", tray.last().op)
	assert.Len(t, tray.calls, 2)

	// Signals after Stop do not touch the tray.
	c.Handle(audio.VolumeChanged)
	assert.Len(t, tray.calls, 2)
}

func TestStopBeforeStart(t *testing.T) {
	tray := &fakeTray{}
	c := New(attached(0, 101, false), indexIcons{}, tray, nil, Options{})
	require.NoError(t, c.Stop())
	assert.Empty(t, tray.calls)
}

func TestTooltip(t *testing.T) {
	assert.Equal(t, "Volume: 42%", Tooltip("", 42, false))
	assert.Equal(t, "Volume: 0% (muted)", Tooltip(DefaultTooltipFormat, 0, true))
	assert.Equal(t, "Vol 7", Tooltip("Vol %d", 7, false))

	long := Tooltip(strings.Repeat("x", 80)+" %d", 5, true)
	assert.Len(t, long, MaxTooltip)
}

func TestTruncateTooltipUTF16(t *testing.T) {
	// Each emoji is a surrogate pair: two UTF-16 units.
	s := strings.Repeat("\U0001F50A", 40)
	got := TruncateTooltip(s, MaxTooltip)
	units := len(utf16.Encode([]rune(got)))
	assert.Equal(t, 62, units)

	assert.Equal(t, "abc", TruncateTooltip("abc", MaxTooltip))
	assert.Equal(t, "ab", TruncateTooltip("abc", 2))
	assert.Equal(t, "", TruncateTooltip("\U0001F50A", 1))
}
