package audio

import (
	"strings"
	"sync/atomic"

	"github.com/urraka/volumeicon/internal/logging"
)

// Signal is a payload-free notification for the UI thread. Values are bit
// flags so pending signals coalesce into a set.
type Signal uint32

const (
	VolumeChanged Signal = 1 << iota
	EndpointChanged
)

// Has reports whether s contains every flag of other.
func (s Signal) Has(other Signal) bool {
	return s&other == other && other != 0
}

func (s Signal) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	if s.Has(EndpointChanged) {
		parts = append(parts, "endpoint_changed")
	}
	if s.Has(VolumeChanged) {
		parts = append(parts, "volume_changed")
	}
	return strings.Join(parts, "|")
}

// Bridge carries signals from audio-subsystem threads to the single UI thread.
// Posting never blocks: pending signals accumulate in a bitmask and at most
// one wake-up is outstanding at a time.
type Bridge struct {
	pending atomic.Uint32
	wake    chan struct{}
	onWake  func() error
	closed  atomic.Bool
}

// NewBridge creates a bridge. onWake, if non-nil, runs on the posting thread
// each time a new wake-up is queued; it must not block. When it fails the
// wake-up is withdrawn so the next Post tries again.
func NewBridge(onWake func() error) *Bridge {
	return &Bridge{
		wake:   make(chan struct{}, 1),
		onWake: onWake,
	}
}

// Post records s and wakes the UI loop. Safe from any goroutine.
func (b *Bridge) Post(s Signal) {
	if s == 0 || b.closed.Load() {
		return
	}
	b.pending.Or(uint32(s))

	select {
	case b.wake <- struct{}{}:
		if b.onWake == nil {
			return
		}
		if err := b.onWake(); err != nil {
			select {
			case <-b.wake:
			default:
			}
			log.Warn("wake-up not delivered", logging.KeySignal, s.String(), logging.KeyError, err)
		}
	default:
		// a wake-up is already outstanding and will observe s
	}
}

// Wake returns the channel that receives one value per queued wake-up.
func (b *Bridge) Wake() <-chan struct{} {
	return b.wake
}

// Take returns and clears every pending signal. The outstanding wake-up, if
// any, is consumed first so a Post racing with Take always produces either
// its flag in this result or a fresh wake-up.
func (b *Bridge) Take() Signal {
	select {
	case <-b.wake:
	default:
	}
	return Signal(b.pending.Swap(0))
}

// Close stops accepting signals. Pending signals remain available to Take.
func (b *Bridge) Close() {
	b.closed.Store(true)
}
