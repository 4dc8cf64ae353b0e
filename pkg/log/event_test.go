package log

import (
	"strings"
	"testing"
)

func TestDirectionString(t *testing.T) {
	tests := []struct {
		dir  Direction
		want string
	}{
		{DirectionIn, "IN"},
		{DirectionOut, "OUT"},
		{Direction(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.dir.String(); got != tt.want {
			t.Errorf("Direction(%d).String() = %q, want %q", tt.dir, got, tt.want)
		}
	}
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		cat  Category
		want string
	}{
		{CategoryMessage, "MESSAGE"},
		{CategoryState, "STATE"},
		{CategoryError, "ERROR"},
		{Category(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.cat.String(); got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", tt.cat, got, tt.want)
		}
	}
}

func TestMessageKindString(t *testing.T) {
	tests := []struct {
		kind MessageKind
		want string
	}{
		{MessageKindPoll, "POLL"},
		{MessageKindBankCommand, "BANK_COMMAND"},
		{MessageKindFarewell, "FAREWELL"},
		{MessageKindEphemeral, "EPHEMERAL"},
		{MessageKindStatus, "STATUS"},
		{MessageKind(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("MessageKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestNewMessageEvent(t *testing.T) {
	m := NewMessageEvent(MessageKindBankCommand, []byte("X/0/8/1"))
	if m.Text != "X/0/8/1" || m.Size != 7 || m.Truncated {
		t.Errorf("unexpected event: %+v", m)
	}

	big := []byte(strings.Repeat("a", MaxTextSize+10))
	m = NewMessageEvent(MessageKindEphemeral, big)
	if !m.Truncated {
		t.Error("expected Truncated")
	}
	if len(m.Text) != MaxTextSize {
		t.Errorf("len(Text) = %d, want %d", len(m.Text), MaxTextSize)
	}
	if m.Size != MaxTextSize+10 {
		t.Errorf("Size = %d, want %d", m.Size, MaxTextSize+10)
	}
}
