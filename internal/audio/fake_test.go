package audio

import (
	"fmt"
	"slices"
	"sync"
)

// fakeSubsystem is an in-memory Enumerator with per-device fault injection.
type fakeSubsystem struct {
	mu          sync.Mutex
	devices     map[string]*fakeDevice
	defaultID   string
	notifiers   []DeviceNotifier
	registerErr error
	regs        int
	unregs      int
	released    int
}

type fakeDevice struct {
	id          string
	activateErr error
	registerErr error
	queryErr    error
	step        uint32
	count       uint32
	muted       bool
	notifiers   []VolumeNotifier
	regs        int
	unregs      int
	endpoints   int // outstanding endpoint handles
	volumes     int // outstanding volume handles
}

func newFakeSubsystem(ids ...string) *fakeSubsystem {
	f := &fakeSubsystem{devices: make(map[string]*fakeDevice)}
	for _, id := range ids {
		f.devices[id] = &fakeDevice{id: id, step: 50, count: 101}
	}
	if len(ids) > 0 {
		f.defaultID = ids[0]
	}
	return f
}

func (f *fakeSubsystem) device(id string) *fakeDevice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.devices[id]
}

func (f *fakeSubsystem) DefaultEndpoint(flow Flow, role Role) (Endpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.devices[f.defaultID]
	if !ok {
		return nil, fmt.Errorf("default %q: %w", f.defaultID, ErrNotFound)
	}
	d.endpoints++
	return &fakeEndpoint{sub: f, dev: d}, nil
}

func (f *fakeSubsystem) RegisterDeviceNotify(n DeviceNotifier) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return f.registerErr
	}
	f.regs++
	f.notifiers = append(f.notifiers, n)
	return nil
}

func (f *fakeSubsystem) UnregisterDeviceNotify(n DeviceNotifier) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unregs++
	f.notifiers = slices.DeleteFunc(f.notifiers, func(x DeviceNotifier) bool { return x == n })
	return nil
}

func (f *fakeSubsystem) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
}

// setDefault switches the default device and notifies subscribers the way
// the OS does: once per role.
func (f *fakeSubsystem) setDefault(id string) {
	f.mu.Lock()
	f.defaultID = id
	notifiers := slices.Clone(f.notifiers)
	f.mu.Unlock()

	for _, role := range []Role{RoleConsole, RoleMultimedia, RoleCommunications} {
		for _, n := range notifiers {
			n.OnDefaultDeviceChanged(FlowRender, role, id)
		}
	}
}

// fireVolume delivers a volume notification to the device's subscribers and
// reports how many received it.
func (f *fakeSubsystem) fireVolume(id string) int {
	f.mu.Lock()
	d := f.devices[id]
	notifiers := slices.Clone(d.notifiers)
	f.mu.Unlock()

	for _, n := range notifiers {
		n.OnVolumeNotify()
	}
	return len(notifiers)
}

func (f *fakeSubsystem) setVolume(id string, step, count uint32, muted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.devices[id]
	d.step, d.count, d.muted = step, count, muted
}

type fakeEndpoint struct {
	sub      *fakeSubsystem
	dev      *fakeDevice
	released bool
}

func (e *fakeEndpoint) ID() string { return e.dev.id }

func (e *fakeEndpoint) ActivateVolume() (VolumeControl, error) {
	e.sub.mu.Lock()
	defer e.sub.mu.Unlock()
	if e.dev.activateErr != nil {
		return nil, e.dev.activateErr
	}
	e.dev.volumes++
	return &fakeVolume{sub: e.sub, dev: e.dev}, nil
}

func (e *fakeEndpoint) Release() {
	e.sub.mu.Lock()
	defer e.sub.mu.Unlock()
	if e.released {
		panic("endpoint released twice")
	}
	e.released = true
	e.dev.endpoints--
}

type fakeVolume struct {
	sub      *fakeSubsystem
	dev      *fakeDevice
	released bool
}

func (v *fakeVolume) RegisterVolumeNotify(n VolumeNotifier) error {
	v.sub.mu.Lock()
	defer v.sub.mu.Unlock()
	if v.dev.registerErr != nil {
		return v.dev.registerErr
	}
	v.dev.regs++
	v.dev.notifiers = append(v.dev.notifiers, n)
	return nil
}

func (v *fakeVolume) UnregisterVolumeNotify(n VolumeNotifier) error {
	v.sub.mu.Lock()
	defer v.sub.mu.Unlock()
	v.dev.unregs++
	v.dev.notifiers = slices.DeleteFunc(v.dev.notifiers, func(x VolumeNotifier) bool { return x == n })
	return nil
}

func (v *fakeVolume) Mute() (bool, error) {
	v.sub.mu.Lock()
	defer v.sub.mu.Unlock()
	return v.dev.muted, v.dev.queryErr
}

func (v *fakeVolume) StepInfo() (uint32, uint32, error) {
	v.sub.mu.Lock()
	defer v.sub.mu.Unlock()
	return v.dev.step, v.dev.count, v.dev.queryErr
}

func (v *fakeVolume) Release() {
	v.sub.mu.Lock()
	defer v.sub.mu.Unlock()
	if v.released {
		panic("volume control released twice")
	}
	v.released = true
	v.dev.volumes--
}
