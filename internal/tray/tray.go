// Package tray hosts the hidden window and notification-area icon.
package tray

import "unicode/utf16"

// tipUnits is the size of the shell's tooltip buffer in UTF-16 units,
// including the terminating NUL.
const tipUnits = 64

// encodeTip converts tip to UTF-16, cut to tipUnits-1 units without
// splitting a surrogate pair.
func encodeTip(tip string) []uint16 {
	units := utf16.Encode([]rune(tip))
	if len(units) < tipUnits {
		return units
	}
	n := tipUnits - 1
	if isHighSurrogate(units[n-1]) {
		n--
	}
	return units[:n]
}

func isHighSurrogate(u uint16) bool {
	return u >= 0xd800 && u < 0xdc00
}
