//go:build windows

package tray

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"

	"github.com/urraka/volumeicon/internal/icons"
	"github.com/urraka/volumeicon/internal/logging"
)

var log = logging.L("tray")

const (
	className = "volumeicon"
	iconID    = 1

	// wmSignal tells the window that bridged audio signals are pending.
	wmSignal = win.WM_USER + 12

	nifShowTip = 0x00000080
)

var (
	errCreateWindow = errors.New("tray: CreateWindowEx failed")
	errNotifyAdd    = errors.New("tray: Shell_NotifyIcon(NIM_ADD) failed")
	errNotifyModify = errors.New("tray: Shell_NotifyIcon(NIM_MODIFY) failed")
	errNotifyDelete = errors.New("tray: Shell_NotifyIcon(NIM_DELETE) failed")
	errPostSignal   = errors.New("tray: PostMessage(signal) failed")
)

// Handler receives window events on the UI thread.
type Handler interface {
	// HandleSignal runs when Wake was called at least once since the last run.
	HandleSignal()
	// HandleClose runs once before the window is destroyed.
	HandleClose()
}

var (
	registerOnce sync.Once
	registerErr  error
	wndProcPtr   uintptr

	// windows maps live HWNDs to their Window for wndProc dispatch.
	windows sync.Map
)

// Window is a hidden top-level window owning one notification-area icon.
// All methods except Wake and Close must be called on the thread that
// created it.
type Window struct {
	hwnd           win.HWND
	handler        Handler
	nid            win.NOTIFYICONDATA
	added          bool
	taskbarCreated uint32
}

func registerClass() error {
	registerOnce.Do(func() {
		wndProcPtr = syscall.NewCallback(wndProc)
		cls, err := syscall.UTF16PtrFromString(className)
		if err != nil {
			registerErr = err
			return
		}
		wc := win.WNDCLASSEX{
			CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
			LpfnWndProc:   wndProcPtr,
			HInstance:     win.GetModuleHandle(nil),
			LpszClassName: cls,
		}
		if win.RegisterClassEx(&wc) == 0 {
			registerErr = fmt.Errorf("tray: RegisterClassEx: %w", syscall.GetLastError())
		}
	})
	return registerErr
}

// New creates the hidden window. The calling goroutine must stay locked to
// its OS thread and later call Run.
func New(h Handler) (*Window, error) {
	if err := registerClass(); err != nil {
		return nil, err
	}

	cls, _ := syscall.UTF16PtrFromString(className)
	title, _ := syscall.UTF16PtrFromString(className)
	hwnd := win.CreateWindowEx(0, cls, title, 0, 0, 0, 0, 0, 0, 0, win.GetModuleHandle(nil), nil)
	if hwnd == 0 {
		return nil, errCreateWindow
	}

	taskbar, _ := syscall.UTF16PtrFromString("TaskbarCreated")
	w := &Window{
		hwnd:           hwnd,
		handler:        h,
		taskbarCreated: win.RegisterWindowMessage(taskbar),
	}
	w.nid.CbSize = uint32(unsafe.Sizeof(w.nid))
	w.nid.HWnd = hwnd
	w.nid.UID = iconID

	windows.Store(hwnd, w)
	log.Debug("hidden window created")
	return w, nil
}

// Wake posts a signal message to the window. Safe from any goroutine and
// from OS callback threads.
func (w *Window) Wake() error {
	if win.PostMessage(w.hwnd, wmSignal, 0, 0) == 0 {
		return errPostSignal
	}
	return nil
}

// Close asks the window to close. Safe from any goroutine.
func (w *Window) Close() {
	win.PostMessage(w.hwnd, win.WM_CLOSE, 0, 0)
}

// Destroy tears the window down without running the close handler. Used
// when startup fails before Run.
func (w *Window) Destroy() {
	windows.Delete(w.hwnd)
	win.DestroyWindow(w.hwnd)
}

// Run pumps messages until the window is destroyed.
func (w *Window) Run() error {
	var msg win.MSG
	for {
		switch r := win.GetMessage(&msg, 0, 0, 0); r {
		case 0:
			return nil
		case -1:
			return fmt.Errorf("tray: GetMessage: %w", syscall.GetLastError())
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
}

// Add shows the icon in the notification area.
func (w *Window) Add(icon icons.Handle, tip string) error {
	w.set(icon, tip)
	if !win.Shell_NotifyIcon(win.NIM_ADD, &w.nid) {
		return errNotifyAdd
	}
	w.nid.UVersion = win.NOTIFYICON_VERSION_4
	win.Shell_NotifyIcon(win.NIM_SETVERSION, &w.nid)
	w.added = true
	return nil
}

// Modify replaces the icon and tooltip.
func (w *Window) Modify(icon icons.Handle, tip string) error {
	w.set(icon, tip)
	if !win.Shell_NotifyIcon(win.NIM_MODIFY, &w.nid) {
		return errNotifyModify
	}
	return nil
}

// Delete removes the icon.
func (w *Window) Delete() error {
	if !w.added {
		return nil
	}
	w.added = false
	if !win.Shell_NotifyIcon(win.NIM_DELETE, &w.nid) {
		return errNotifyDelete
	}
	return nil
}

func (w *Window) set(icon icons.Handle, tip string) {
	w.nid.UFlags = win.NIF_ICON | win.NIF_TIP | nifShowTip
	w.nid.HIcon = win.HICON(icon)
	clear(w.nid.SzTip[:])
	copy(w.nid.SzTip[:], encodeTip(tip))
}

// readd restores the icon after Explorer restarts.
func (w *Window) readd() {
	if !w.added {
		return
	}
	if !win.Shell_NotifyIcon(win.NIM_ADD, &w.nid) {
		log.Warn("re-adding tray icon failed")
		return
	}
	w.nid.UVersion = win.NOTIFYICON_VERSION_4
	win.Shell_NotifyIcon(win.NIM_SETVERSION, &w.nid)
	log.Info("tray icon restored after taskbar restart")
}

func wndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	v, ok := windows.Load(hwnd)
	if !ok {
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}
	w := v.(*Window)

	switch msg {
	case wmSignal:
		w.handler.HandleSignal()
		return 0
	case win.WM_CLOSE:
		w.handler.HandleClose()
		win.DestroyWindow(hwnd)
		return 0
	case win.WM_DESTROY:
		windows.Delete(hwnd)
		win.PostQuitMessage(0)
		return 0
	case w.taskbarCreated:
		w.readd()
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}
