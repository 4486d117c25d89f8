//go:build windows

package icons

import (
	"errors"
	"image"
	"unsafe"

	"github.com/lxn/win"
)

var (
	errDIBSection  = errors.New("icons: CreateDIBSection failed")
	errMaskBitmap  = errors.New("icons: CreateBitmap failed")
	errCreateIcon  = errors.New("icons: CreateIconIndirect failed")
	errFactoryGone = errors.New("icons: factory closed")
)

// HICONFactory creates HICONs from rendered images. It owns one 32bpp
// top-down DIB section and one monochrome mask, reused for every icon since
// CreateIconIndirect copies the bitmaps.
type HICONFactory struct {
	color win.HBITMAP
	mask  win.HBITMAP
	bits  []uint32
}

// NewHICONFactory allocates the shared bitmaps. Close releases them.
func NewHICONFactory() (*HICONFactory, error) {
	var bi win.BITMAPINFOHEADER
	bi.BiSize = uint32(unsafe.Sizeof(bi))
	bi.BiWidth = Size
	bi.BiHeight = -Size
	bi.BiPlanes = 1
	bi.BiBitCount = 32
	bi.BiCompression = win.BI_RGB

	hdc := win.GetDC(0)
	if hdc == 0 {
		return nil, errDIBSection
	}
	defer win.ReleaseDC(0, hdc)

	var bits unsafe.Pointer
	hbm := win.CreateDIBSection(hdc, &bi, win.DIB_RGB_COLORS, &bits, 0, 0)
	if hbm == 0 || bits == nil {
		return nil, errDIBSection
	}

	mask := win.CreateBitmap(Size, Size, 1, 1, nil)
	if mask == 0 {
		win.DeleteObject(win.HGDIOBJ(hbm))
		return nil, errMaskBitmap
	}

	return &HICONFactory{
		color: hbm,
		mask:  mask,
		bits:  unsafe.Slice((*uint32)(bits), Size*Size),
	}, nil
}

// CreateIcon copies img into the DIB as straight-alpha BGRA and
// creates an icon from it.
func (f *HICONFactory) CreateIcon(img *image.NRGBA) (Handle, error) {
	if f.bits == nil {
		return 0, errFactoryGone
	}
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			c := img.NRGBAAt(x, y)
			f.bits[y*Size+x] = uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
		}
	}

	ii := win.ICONINFO{
		FIcon:    1,
		HbmMask:  f.mask,
		HbmColor: f.color,
	}
	h := win.CreateIconIndirect(&ii)
	if h == 0 {
		return 0, errCreateIcon
	}
	return Handle(h), nil
}

// DestroyIcon releases an icon created by CreateIcon.
func (f *HICONFactory) DestroyIcon(h Handle) {
	if h != 0 {
		win.DestroyIcon(win.HICON(h))
	}
}

// Close deletes the shared bitmaps. Icons already created stay valid.
func (f *HICONFactory) Close() {
	if f.bits == nil {
		return
	}
	win.DeleteObject(win.HGDIOBJ(f.color))
	win.DeleteObject(win.HGDIOBJ(f.mask))
	f.bits = nil
}
