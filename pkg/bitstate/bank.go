package bitstate

import "fmt"

// Bank identifies one of the two groups of eight mutually exclusive slots.
type Bank uint8

const (
	// BankA covers slots 0-7.
	BankA Bank = 1

	// BankB covers slots 8-15.
	BankB Bank = 2
)

// BankSize is the number of slots in a bank.
const BankSize = 8

// BankOf returns the bank that contains slot.
func BankOf(slot int) Bank {
	if slot < BankSize {
		return BankA
	}
	return BankB
}

// String returns the bank name.
func (b Bank) String() string {
	switch b {
	case BankA:
		return "A"
	case BankB:
		return "B"
	default:
		return "UNKNOWN"
	}
}

// first returns the first slot index of the bank.
func (b Bank) first() int {
	if b == BankB {
		return BankSize
	}
	return 0
}

// Select returns a copy of current with slot set and every other slot of the
// same bank cleared. Slots of the other bank are copied unchanged.
func Select(current State, slot int) (State, error) {
	if slot < 0 || slot >= SlotCount {
		return current, ErrSlotOutOfRange
	}
	next := current
	start := BankOf(slot).first()
	for i := start; i < start+BankSize; i++ {
		next[i] = i == slot
	}
	return next, nil
}

// BuildCommand selects slot in current and returns the new state together
// with the wire command "X/0/<value>/<bank>".
func BuildCommand(current State, slot int) (State, string, error) {
	next, err := Select(current, slot)
	if err != nil {
		return current, "", err
	}
	return next, FormatCommand(Decode(next), BankOf(slot)), nil
}

// FormatCommand renders the bank selection command for a packed value.
// Field order and separators are fixed by the remote server.
func FormatCommand(value uint16, bank Bank) string {
	return fmt.Sprintf("X/0/%d/%d", value, uint8(bank))
}
