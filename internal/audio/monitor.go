// Package audio tracks the default audio render endpoint and its volume.
//
// Monitor owns the attached endpoint and its volume control. Notifications
// from the OS arrive on foreign threads and are turned into Signals on a
// Bridge; the UI thread consumes them and calls back into Monitor.
package audio

import (
	"fmt"
	"sync"

	"github.com/urraka/volumeicon/internal/logging"
)

var log = logging.L("audio")

// State is the lifecycle state of a Monitor.
type State int

const (
	Unattached State = iota
	Attached
	Detached
	Disposed
)

func (s State) String() string {
	switch s {
	case Unattached:
		return "unattached"
	case Attached:
		return "attached"
	case Detached:
		return "detached"
	case Disposed:
		return "disposed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Monitor attaches to the default multimedia render endpoint and re-attaches
// when the default changes. All endpoint state is guarded by mu.
type Monitor struct {
	enum     Enumerator
	notifier *Notifier

	mu                 sync.Mutex
	state              State
	endpoint           Endpoint
	endpointID         string
	volume             VolumeControl
	deviceNotifyActive bool
	volumeNotifyActive bool
}

// NewMonitor creates a monitor over enum that posts notifications to bridge.
func NewMonitor(enum Enumerator, bridge *Bridge) *Monitor {
	return &Monitor{
		enum:     enum,
		notifier: NewNotifier(bridge),
	}
}

// Notifier returns the callback object registered with the subsystem.
func (m *Monitor) Notifier() *Notifier {
	return m.notifier
}

// Initialize subscribes to default-device changes and attaches to the current
// default endpoint. Any error is fatal to startup; call Dispose to clean up.
func (m *Monitor) Initialize() error {
	m.mu.Lock()
	if m.state == Disposed {
		m.mu.Unlock()
		return ErrDisposed
	}
	if !m.deviceNotifyActive {
		if err := m.enum.RegisterDeviceNotify(m.notifier); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("%w: device notifications: %w", ErrRegistration, err)
		}
		m.deviceNotifyActive = true
	}
	m.mu.Unlock()

	return m.Attach()
}

// Attach resolves the default render endpoint, activates its volume control
// and subscribes to volume changes. On failure nothing stays attached.
func (m *Monitor) Attach() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case Disposed:
		return ErrDisposed
	case Attached:
		return nil
	}

	endpoint, err := m.enum.DefaultEndpoint(FlowRender, RoleMultimedia)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEndpointUnavailable, err)
	}

	id := endpoint.ID()

	volume, err := endpoint.ActivateVolume()
	if err != nil {
		endpoint.Release()
		return fmt.Errorf("%w: %s: %w", ErrActivation, id, err)
	}

	if err := volume.RegisterVolumeNotify(m.notifier); err != nil {
		volume.Release()
		endpoint.Release()
		return fmt.Errorf("%w: %s: %w", ErrRegistration, id, err)
	}

	m.endpoint = endpoint
	m.endpointID = id
	m.volume = volume
	m.volumeNotifyActive = true
	m.state = Attached

	log.Info("endpoint attached", logging.KeyEndpoint, m.endpointID)
	return nil
}

// Detach unsubscribes from and releases the attached endpoint. It is a no-op
// when nothing is attached.
func (m *Monitor) Detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detachLocked()
}

func (m *Monitor) detachLocked() {
	if m.volume != nil {
		if m.volumeNotifyActive {
			if err := m.volume.UnregisterVolumeNotify(m.notifier); err != nil {
				log.Warn("unregister volume notifications failed",
					logging.KeyEndpoint, m.endpointID, logging.KeyError, err)
			}
			m.volumeNotifyActive = false
		}
		m.volume.Release()
		m.volume = nil
	}

	if m.endpoint != nil {
		m.endpoint.Release()
		m.endpoint = nil
		log.Info("endpoint detached", logging.KeyEndpoint, m.endpointID)
	}

	m.endpointID = ""
	if m.state == Attached {
		m.state = Detached
	}
}

// ChangeEndpoint detaches from the current endpoint and attaches to the new
// default. When Attach fails the monitor stays detached until the next call.
func (m *Monitor) ChangeEndpoint() error {
	m.mu.Lock()
	if m.state == Disposed {
		m.mu.Unlock()
		return ErrDisposed
	}
	m.detachLocked()
	m.mu.Unlock()

	return m.Attach()
}

// LevelInfo reads the mute flag and step info of the attached endpoint.
func (m *Monitor) LevelInfo() (VolumeState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Disposed {
		return VolumeState{}, ErrDisposed
	}
	if m.volume == nil {
		return VolumeState{}, fmt.Errorf("%w: no endpoint attached", ErrQuery)
	}

	muted, err := m.volume.Mute()
	if err != nil {
		return VolumeState{}, fmt.Errorf("%w: mute: %w", ErrQuery, err)
	}
	step, count, err := m.volume.StepInfo()
	if err != nil {
		return VolumeState{}, fmt.Errorf("%w: step info: %w", ErrQuery, err)
	}

	return VolumeState{Step: step, StepCount: count, Muted: muted}, nil
}

// Dispose detaches, drops the device subscription and releases the
// enumerator. Later calls are no-ops.
func (m *Monitor) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Disposed {
		return
	}

	m.detachLocked()

	if m.deviceNotifyActive {
		if err := m.enum.UnregisterDeviceNotify(m.notifier); err != nil {
			log.Warn("unregister device notifications failed", logging.KeyError, err)
		}
		m.deviceNotifyActive = false
	}

	m.notifier.Release()
	m.enum.Release()
	m.state = Disposed
}

// State returns the lifecycle state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// EndpointID returns the id of the attached endpoint, or "" when detached.
func (m *Monitor) EndpointID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endpointID
}
