//go:build windows && (amd64 || arm64)

package audio

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"
)

// wasapiEnumerator wraps IMMDeviceEnumerator. Flow and Role values map 1:1 to
// EDataFlow and ERole. COM must be initialized on the calling thread.
type wasapiEnumerator struct {
	ptr uintptr

	mu        sync.Mutex
	callbacks map[capabilityQuerier]*comCallback
}

// NewEnumerator creates the MMDeviceEnumerator.
func NewEnumerator() (Enumerator, error) {
	unk, err := ole.CreateInstance(clsidMMDeviceEnumerator, iidIMMDeviceEnumerator)
	if err != nil {
		return nil, fmt.Errorf("create MMDeviceEnumerator: %w", err)
	}
	return &wasapiEnumerator{
		ptr:       uintptr(unsafe.Pointer(unk)),
		callbacks: make(map[capabilityQuerier]*comCallback),
	}, nil
}

// callback returns the COM object for target, creating it on first use so a
// Notifier registered for both capabilities is a single COM identity.
func (e *wasapiEnumerator) callback(target capabilityQuerier) *comCallback {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cb, ok := e.callbacks[target]; ok {
		return cb
	}
	cb := newComCallback(target)
	e.callbacks[target] = cb
	return cb
}

func asQuerier(c Capability, n any) capabilityQuerier {
	if q, ok := n.(capabilityQuerier); ok {
		return q
	}
	return singleCapability{c: c, target: n}
}

func (e *wasapiEnumerator) DefaultEndpoint(flow Flow, role Role) (Endpoint, error) {
	var dev uintptr
	err := comCall(e.ptr, enumGetDefaultAudioEndpoint,
		uintptr(flow), uintptr(role), uintptr(unsafe.Pointer(&dev)))
	if err != nil {
		if isHRESULT(err, hrNotFound) {
			return nil, fmt.Errorf("GetDefaultAudioEndpoint: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("GetDefaultAudioEndpoint: %w", err)
	}

	id, err := deviceID(dev)
	if err != nil {
		comRelease(dev)
		return nil, err
	}
	return &wasapiEndpoint{enum: e, ptr: dev, id: id}, nil
}

func (e *wasapiEnumerator) RegisterDeviceNotify(n DeviceNotifier) error {
	cb := e.callback(asQuerier(CapabilityDevice, n))
	if err := comCall(e.ptr, enumRegisterEndpointNotify, cb.deviceIface()); err != nil {
		return fmt.Errorf("RegisterEndpointNotificationCallback: %w", err)
	}
	return nil
}

func (e *wasapiEnumerator) UnregisterDeviceNotify(n DeviceNotifier) error {
	cb := e.callback(asQuerier(CapabilityDevice, n))
	if err := comCall(e.ptr, enumUnregisterEndpointNotify, cb.deviceIface()); err != nil {
		return fmt.Errorf("UnregisterEndpointNotificationCallback: %w", err)
	}
	return nil
}

// Release drops the enumerator and our references on every callback object.
// Callback objects still referenced by the OS live until it releases them.
func (e *wasapiEnumerator) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for target, cb := range e.callbacks {
		cb.release()
		delete(e.callbacks, target)
	}
	comRelease(e.ptr)
	e.ptr = 0
}

func deviceID(dev uintptr) (string, error) {
	var p *uint16
	if err := comCall(dev, deviceGetID, uintptr(unsafe.Pointer(&p))); err != nil {
		return "", fmt.Errorf("IMMDevice.GetId: %w", err)
	}
	defer windows.CoTaskMemFree(unsafe.Pointer(p))
	return windows.UTF16PtrToString(p), nil
}

type wasapiEndpoint struct {
	enum *wasapiEnumerator
	ptr  uintptr
	id   string
}

func (d *wasapiEndpoint) ID() string { return d.id }

func (d *wasapiEndpoint) ActivateVolume() (VolumeControl, error) {
	var vol uintptr
	err := comCall(d.ptr, deviceActivate,
		uintptr(unsafe.Pointer(iidIAudioEndpointVolume)),
		clsctxInprocServer,
		0,
		uintptr(unsafe.Pointer(&vol)))
	if err != nil {
		return nil, fmt.Errorf("IMMDevice.Activate(IAudioEndpointVolume): %w", err)
	}
	return &wasapiVolume{enum: d.enum, ptr: vol}, nil
}

func (d *wasapiEndpoint) Release() {
	comRelease(d.ptr)
	d.ptr = 0
}

type wasapiVolume struct {
	enum *wasapiEnumerator
	ptr  uintptr
}

func (v *wasapiVolume) RegisterVolumeNotify(n VolumeNotifier) error {
	cb := v.enum.callback(asQuerier(CapabilityVolume, n))
	if err := comCall(v.ptr, volRegisterControlChangeNotify, cb.volumeIface()); err != nil {
		return fmt.Errorf("RegisterControlChangeNotify: %w", err)
	}
	return nil
}

func (v *wasapiVolume) UnregisterVolumeNotify(n VolumeNotifier) error {
	cb := v.enum.callback(asQuerier(CapabilityVolume, n))
	if err := comCall(v.ptr, volUnregisterControlChangeNotify, cb.volumeIface()); err != nil {
		return fmt.Errorf("UnregisterControlChangeNotify: %w", err)
	}
	return nil
}

func (v *wasapiVolume) Mute() (bool, error) {
	var muted int32
	if err := comCall(v.ptr, volGetMute, uintptr(unsafe.Pointer(&muted))); err != nil {
		return false, fmt.Errorf("GetMute: %w", err)
	}
	return muted != 0, nil
}

func (v *wasapiVolume) StepInfo() (uint32, uint32, error) {
	var step, count uint32
	err := comCall(v.ptr, volGetVolumeStepInfo,
		uintptr(unsafe.Pointer(&step)), uintptr(unsafe.Pointer(&count)))
	if err != nil {
		return 0, 0, fmt.Errorf("GetVolumeStepInfo: %w", err)
	}
	return step, count, nil
}

func (v *wasapiVolume) Release() {
	comRelease(v.ptr)
	v.ptr = 0
}
