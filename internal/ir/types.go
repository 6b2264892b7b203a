package ir

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// IDSize is the width in bytes of account and record identifiers.
const IDSize = 32

// EventWaveFunctionAdded is the journaled name of the registry's only event.
const EventWaveFunctionAdded = "WaveFunctionAdded"

// AccountID identifies a submitter. The registry treats it as opaque.
type AccountID [IDSize]byte

// RecordID is the content-addressed key of a stored WaveFunction.
type RecordID [IDSize]byte

// String returns the 0x-prefixed lowercase hex form.
func (a AccountID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether every byte of the account is zero.
func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

// MarshalText implements encoding.TextMarshaler.
func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AccountID) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// String returns the 0x-prefixed lowercase hex form.
func (id RecordID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// IsZero reports whether the id is unset.
func (id RecordID) IsZero() bool {
	return id == RecordID{}
}

// MarshalText implements encoding.TextMarshaler.
func (id RecordID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *RecordID) UnmarshalText(text []byte) error {
	parsed, err := ParseRecordID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseAccountID parses a 32-byte hex account, with or without the 0x prefix.
func ParseAccountID(s string) (AccountID, error) {
	var a AccountID
	if err := decodeFixed(s, a[:]); err != nil {
		return AccountID{}, fmt.Errorf("parse account id: %w", err)
	}
	return a, nil
}

// ParseRecordID parses a 32-byte hex record id, with or without the 0x prefix.
func ParseRecordID(s string) (RecordID, error) {
	var id RecordID
	if err := decodeFixed(s, id[:]); err != nil {
		return RecordID{}, fmt.Errorf("parse record id: %w", err)
	}
	return id, nil
}

// DecodeHex decodes a hex byte string, with or without the 0x prefix.
// An empty string (or a bare "0x") decodes to an empty slice.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// EncodeHex returns the 0x-prefixed lowercase hex form of b.
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func decodeFixed(s string, dst []byte) error {
	b, err := DecodeHex(s)
	if err != nil {
		return err
	}
	if len(b) != len(dst) {
		return fmt.Errorf("expected %d bytes, got %d", len(dst), len(b))
	}
	copy(dst, b)
	return nil
}

// WaveFunction is a stored record: an opaque payload and its submitter.
type WaveFunction struct {
	Function []byte    `json:"function"`
	Author   AccountID `json:"author"`
}

// Clone returns a deep copy. The copy never shares the payload's backing array.
func (w WaveFunction) Clone() WaveFunction {
	fn := make([]byte, len(w.Function))
	copy(fn, w.Function)
	return WaveFunction{Function: fn, Author: w.Author}
}

// Equal reports whether both payload and author match.
// A nil and an empty payload compare equal.
func (w WaveFunction) Equal(other WaveFunction) bool {
	return w.Author == other.Author && bytes.Equal(w.Function, other.Function)
}

// WaveFunctionAdded is the notification the registry deposits on success.
type WaveFunctionAdded struct {
	Function []byte    `json:"function"`
	Author   AccountID `json:"author"`
	ID       RecordID  `json:"id"`
}

// Event is a journaled notification.
// Seq is assigned by the store when the enclosing transaction commits and is
// strictly increasing across the journal.
type Event struct {
	Seq      int64     `json:"seq"`
	CallID   string    `json:"call_id"`
	Name     string    `json:"name"`
	Function []byte    `json:"function"`
	Author   AccountID `json:"author"`
	ID       RecordID  `json:"id"`
}

// NewWaveFunctionAddedEvent wraps a notification for the journal.
func NewWaveFunctionAddedEvent(callID string, n WaveFunctionAdded) Event {
	fn := make([]byte, len(n.Function))
	copy(fn, n.Function)
	return Event{
		CallID:   callID,
		Name:     EventWaveFunctionAdded,
		Function: fn,
		Author:   n.Author,
		ID:       n.ID,
	}
}

// Record returns the stored record the event refers to.
func (e Event) Record() WaveFunction {
	return WaveFunction{Function: e.Function, Author: e.Author}.Clone()
}
