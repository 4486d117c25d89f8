package audio

// Flow is the data-flow direction of an endpoint (EDataFlow).
type Flow int

const (
	FlowRender Flow = iota
	FlowCapture
	FlowAll
)

// Role is the device role an endpoint is default for (ERole).
type Role int

const (
	RoleConsole Role = iota
	RoleMultimedia
	RoleCommunications
)

// Enumerator is the OS audio device subsystem. All methods except the
// callbacks it delivers are called from the UI thread.
type Enumerator interface {
	// DefaultEndpoint returns the current default device for flow/role, or
	// an error wrapping ErrNotFound if none exists.
	DefaultEndpoint(flow Flow, role Role) (Endpoint, error)
	RegisterDeviceNotify(n DeviceNotifier) error
	UnregisterDeviceNotify(n DeviceNotifier) error
	Release()
}

// Endpoint is a handle to one audio device.
type Endpoint interface {
	ID() string
	ActivateVolume() (VolumeControl, error)
	Release()
}

// VolumeControl is the endpoint's master volume interface.
type VolumeControl interface {
	RegisterVolumeNotify(n VolumeNotifier) error
	UnregisterVolumeNotify(n VolumeNotifier) error
	Mute() (bool, error)
	StepInfo() (step, count uint32, err error)
	Release()
}

// DeviceNotifier receives default-device changes. It is invoked on threads
// owned by the audio subsystem.
type DeviceNotifier interface {
	OnDefaultDeviceChanged(flow Flow, role Role, deviceID string)
}

// VolumeNotifier receives volume or mute changes of one endpoint. It is
// invoked on threads owned by the audio subsystem.
type VolumeNotifier interface {
	OnVolumeNotify()
}
