package icons

import (
	"fmt"
	"image"
	"image/color"
)

// Handle is an opaque platform icon handle (an HICON on Windows).
type Handle uintptr

// Factory turns rendered images into platform icon handles.
type Factory interface {
	CreateIcon(img *image.NRGBA) (Handle, error)
	DestroyIcon(h Handle)
}

// Table holds one pre-created handle per icon index. It is immutable after
// Build until Destroy.
type Table struct {
	factory   Factory
	handles   [Count]Handle
	destroyed bool
}

// Build renders every icon once and creates its handle. On failure the
// handles created so far are destroyed.
func Build(f Factory, fg color.NRGBA) (*Table, error) {
	t := &Table{factory: f}
	for i := 0; i < Count; i++ {
		img, err := Render(i, fg)
		if err != nil {
			t.destroyUpTo(i)
			return nil, err
		}
		h, err := f.CreateIcon(img)
		if err != nil {
			t.destroyUpTo(i)
			return nil, fmt.Errorf("icons: create icon %d: %w", i, err)
		}
		t.handles[i] = h
	}
	log.Debug("icon table built", "count", Count)
	return t, nil
}

// Index maps a displayed level and mute flag to a table index. Levels
// outside 0..MaxLevel are clamped.
func Index(level int, muted bool) int {
	if muted {
		return MutedIndex
	}
	return clampLevel(level)
}

// Icon returns the handle at index i, or 0 when i is out of range or the
// table has been destroyed.
func (t *Table) Icon(i int) Handle {
	if t.destroyed || i < 0 || i >= Count {
		return 0
	}
	return t.handles[i]
}

// Level returns the numeric icon for level.
func (t *Table) Level(level int) Handle {
	return t.Icon(clampLevel(level))
}

// Muted returns the muted icon.
func (t *Table) Muted() Handle {
	return t.Icon(MutedIndex)
}

// Destroy releases every handle. Safe to call more than once.
func (t *Table) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyUpTo(Count)
	t.destroyed = true
}

func (t *Table) destroyUpTo(n int) {
	for i := 0; i < n; i++ {
		if t.handles[i] != 0 {
			t.factory.DestroyIcon(t.handles[i])
			t.handles[i] = 0
		}
	}
}
