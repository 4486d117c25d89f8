package audio

import "sync/atomic"

// Capability names one of the notification interfaces a Notifier answers to.
type Capability int

const (
	CapabilityDevice Capability = iota + 1
	CapabilityVolume
)

// Notifier is the single callback object registered with the audio subsystem
// for both device and volume notifications. Its handlers only post to the
// bridge; they never touch monitor state.
type Notifier struct {
	bridge atomic.Pointer[Bridge]
}

// NewNotifier returns a notifier forwarding to b.
func NewNotifier(b *Bridge) *Notifier {
	n := &Notifier{}
	n.bridge.Store(b)
	return n
}

// Query maps a capability to the implementation answering it, or nil.
func (n *Notifier) Query(c Capability) any {
	switch c {
	case CapabilityDevice:
		return DeviceNotifier(n)
	case CapabilityVolume:
		return VolumeNotifier(n)
	default:
		return nil
	}
}

// OnDefaultDeviceChanged forwards render/multimedia default changes, the
// only flow and role the monitor attaches to.
func (n *Notifier) OnDefaultDeviceChanged(flow Flow, role Role, deviceID string) {
	if flow != FlowRender || role != RoleMultimedia {
		return
	}
	if b := n.bridge.Load(); b != nil {
		b.Post(EndpointChanged)
	}
}

func (n *Notifier) OnVolumeNotify() {
	if b := n.bridge.Load(); b != nil {
		b.Post(VolumeChanged)
	}
}

// Release drops the bridge reference; later callbacks are ignored.
func (n *Notifier) Release() {
	n.bridge.Store(nil)
}
