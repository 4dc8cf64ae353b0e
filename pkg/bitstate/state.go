package bitstate

import (
	"errors"
	"strconv"
	"strings"
)

// SlotCount is the number of slots packed into a status value.
const SlotCount = 16

// Errors returned by slot parsing and command building.
var (
	ErrSlotOutOfRange  = errors.New("slot out of range")
	ErrInvalidButtonID = errors.New("invalid button id")
)

// State holds one flag per slot, index 0..15.
type State [SlotCount]bool

// Encode unpacks value into a State. Bit i maps to slot i.
func Encode(value uint16) State {
	var s State
	for i := 0; i < SlotCount; i++ {
		s[i] = value&1 == 1
		value >>= 1
	}
	return s
}

// Decode packs a State into its status value.
func Decode(s State) uint16 {
	var value uint16
	for i := SlotCount - 1; i >= 0; i-- {
		if s[i] {
			value |= 1 << uint(i)
		}
	}
	return value
}

// Count returns the number of slots set in s.
func (s State) Count() int {
	n := 0
	for _, on := range s {
		if on {
			n++
		}
	}
	return n
}

// String renders the state as 16 characters, slot 0 first.
func (s State) String() string {
	var b strings.Builder
	b.Grow(SlotCount)
	for _, on := range s {
		if on {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// ParseSlot extracts the slot index from a button id of the form
// "<prefix>_<slot>", for example "btn_3".
func ParseSlot(id string) (int, error) {
	parts := strings.Split(id, "_")
	if len(parts) < 2 {
		return 0, ErrInvalidButtonID
	}
	slot, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, ErrInvalidButtonID
	}
	if slot < 0 || slot >= SlotCount {
		return 0, ErrSlotOutOfRange
	}
	return slot, nil
}
