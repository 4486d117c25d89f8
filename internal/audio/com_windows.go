//go:build windows && (amd64 || arm64)

package audio

import (
	"errors"
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"
)

// Core Audio GUIDs.
var (
	clsidMMDeviceEnumerator         = ole.NewGUID("{BCDE0395-E52F-467C-8E3D-C4579291692E}")
	iidIMMDeviceEnumerator          = ole.NewGUID("{A95664D2-9614-4F35-A746-DE8DB63617E6}")
	iidIAudioEndpointVolume         = ole.NewGUID("{5CDF2C82-841E-4546-9722-0CF74078229A}")
	iidIMMNotificationClient        = ole.NewGUID("{7991EEC9-7E89-4D85-8390-6C703CEC60C0}")
	iidIAudioEndpointVolumeCallback = ole.NewGUID("{657804FA-D6AD-4496-8A60-352752AF4F89}")
)

const (
	hrOK          = 0x00000000
	hrNoInterface = 0x80004002
	hrPointer     = 0x80004003
	hrNotFound    = 0x80070490 // HRESULT_FROM_WIN32(ERROR_NOT_FOUND)

	clsctxInprocServer = 0x1
)

// vtable indices. IUnknown occupies 0..2 on every interface.
const (
	vtblRelease = 2

	// IMMDeviceEnumerator
	enumGetDefaultAudioEndpoint  = 4
	enumRegisterEndpointNotify   = 6
	enumUnregisterEndpointNotify = 7

	// IMMDevice
	deviceActivate = 3
	deviceGetID    = 5

	// IAudioEndpointVolume
	volRegisterControlChangeNotify   = 3
	volUnregisterControlChangeNotify = 4
	volGetMute                       = 15
	volGetVolumeStepInfo             = 16
)

// comCall invokes the method at vtableIdx on the interface pointer obj.
func comCall(obj uintptr, vtableIdx int, args ...uintptr) error {
	vtbl := *(*uintptr)(unsafe.Pointer(obj))
	fn := *(*uintptr)(unsafe.Pointer(vtbl + uintptr(vtableIdx)*unsafe.Sizeof(uintptr(0))))

	all := make([]uintptr, 0, 1+len(args))
	all = append(all, obj)
	all = append(all, args...)

	hr, _, _ := syscall.SyscallN(fn, all...)
	if int32(hr) < 0 {
		return ole.NewError(hr)
	}
	return nil
}

func comRelease(obj uintptr) {
	if obj != 0 {
		comCall(obj, vtblRelease)
	}
}

func isHRESULT(err error, hr uintptr) bool {
	var oleErr *ole.OleError
	return errors.As(err, &oleErr) && oleErr.Code() == hr
}

// capabilityQuerier is implemented by Notifier; the COM object below exposes
// whichever capabilities its target answers to.
type capabilityQuerier interface {
	Query(c Capability) any
}

// singleCapability adapts a bare DeviceNotifier or VolumeNotifier.
type singleCapability struct {
	c      Capability
	target any
}

func (s singleCapability) Query(c Capability) any {
	if c == s.c {
		return s.target
	}
	return nil
}

// callbackFace is the memory a COM caller sees as an interface pointer: a
// vtable pointer followed by our back-reference.
type callbackFace struct {
	vtbl  *uintptr
	owner *comCallback
}

// comCallback is one COM object answering to both IMMNotificationClient and
// IAudioEndpointVolumeCallback. It stays in liveCallbacks, and therefore
// reachable by the Go GC, until its COM reference count drops to zero.
type comCallback struct {
	device callbackFace
	volume callbackFace
	refs   atomic.Int32
	target capabilityQuerier
}

var liveCallbacks sync.Map // *comCallback -> struct{}

func newComCallback(target capabilityQuerier) *comCallback {
	cb := &comCallback{target: target}
	cb.device = callbackFace{vtbl: &deviceVtbl[0], owner: cb}
	cb.volume = callbackFace{vtbl: &volumeVtbl[0], owner: cb}
	cb.refs.Store(1)
	liveCallbacks.Store(cb, struct{}{})
	return cb
}

func (cb *comCallback) deviceIface() uintptr { return uintptr(unsafe.Pointer(&cb.device)) }
func (cb *comCallback) volumeIface() uintptr { return uintptr(unsafe.Pointer(&cb.volume)) }

func (cb *comCallback) addRef() uint32 {
	return uint32(cb.refs.Add(1))
}

func (cb *comCallback) release() uint32 {
	n := cb.refs.Add(-1)
	if n == 0 {
		liveCallbacks.Delete(cb)
	}
	return uint32(n)
}

// query maps an IID to the face implementing it.
func (cb *comCallback) query(iid *ole.GUID) *callbackFace {
	switch {
	case ole.IsEqualGUID(iid, iidIMMNotificationClient):
		if cb.target.Query(CapabilityDevice) != nil {
			return &cb.device
		}
	case ole.IsEqualGUID(iid, iidIAudioEndpointVolumeCallback):
		if cb.target.Query(CapabilityVolume) != nil {
			return &cb.volume
		}
	case ole.IsEqualGUID(iid, ole.IID_IUnknown):
		if cb.target.Query(CapabilityDevice) != nil {
			return &cb.device
		}
		return &cb.volume
	}
	return nil
}

func faceOwner(this uintptr) *comCallback {
	return (*callbackFace)(unsafe.Pointer(this)).owner
}

var (
	deviceVtbl = [...]uintptr{
		syscall.NewCallback(cbQueryInterface),
		syscall.NewCallback(cbAddRef),
		syscall.NewCallback(cbRelease),
		syscall.NewCallback(cbOnDeviceStateChanged),
		syscall.NewCallback(cbOnDeviceAdded),
		syscall.NewCallback(cbOnDeviceRemoved),
		syscall.NewCallback(cbOnDefaultDeviceChanged),
		syscall.NewCallback(cbOnPropertyValueChanged),
	}
	volumeVtbl = [...]uintptr{
		syscall.NewCallback(cbQueryInterface),
		syscall.NewCallback(cbAddRef),
		syscall.NewCallback(cbRelease),
		syscall.NewCallback(cbOnNotify),
	}
)

func cbQueryInterface(this, riid, ppv uintptr) uintptr {
	if ppv == 0 {
		return hrPointer
	}
	out := (*uintptr)(unsafe.Pointer(ppv))

	cb := faceOwner(this)
	face := cb.query((*ole.GUID)(unsafe.Pointer(riid)))
	if face == nil {
		*out = 0
		return hrNoInterface
	}
	cb.addRef()
	*out = uintptr(unsafe.Pointer(face))
	return hrOK
}

func cbAddRef(this uintptr) uintptr {
	return uintptr(faceOwner(this).addRef())
}

func cbRelease(this uintptr) uintptr {
	return uintptr(faceOwner(this).release())
}

func cbOnDeviceStateChanged(this, deviceID, newState uintptr) uintptr { return hrOK }
func cbOnDeviceAdded(this, deviceID uintptr) uintptr                  { return hrOK }
func cbOnDeviceRemoved(this, deviceID uintptr) uintptr                { return hrOK }

// The PROPERTYKEY argument is passed by reference on amd64 and arm64.
func cbOnPropertyValueChanged(this, deviceID, key uintptr) uintptr { return hrOK }

func cbOnDefaultDeviceChanged(this, flow, role, deviceID uintptr) uintptr {
	n, ok := faceOwner(this).target.Query(CapabilityDevice).(DeviceNotifier)
	if !ok {
		return hrOK
	}
	id := windows.UTF16PtrToString((*uint16)(unsafe.Pointer(deviceID)))
	n.OnDefaultDeviceChanged(Flow(uint32(flow)), Role(uint32(role)), id)
	return hrOK
}

func cbOnNotify(this, data uintptr) uintptr {
	if n, ok := faceOwner(this).target.Query(CapabilityVolume).(VolumeNotifier); ok {
		n.OnVolumeNotify()
	}
	return hrOK
}
