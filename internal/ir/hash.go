package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
const (
	DomainEvent  = "gatehouse/event/v1"
	DomainWiring = "gatehouse/wiring/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The separator keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed id of an observation event.
// Session and seq are part of the identity, so the same payload observed at
// two points in time gets two ids.
func EventID(session string, seq int64, payload map[string]any) (string, error) {
	obj := map[string]any{
		"session": session,
		"seq":     seq,
		"payload": payload,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}

// WiringHash computes a stable digest of a compiled wiring table.
func WiringHash(table *WiringTable) (string, error) {
	canonical, err := CanonicalStruct(table)
	if err != nil {
		return "", fmt.Errorf("WiringHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainWiring, canonical), nil
}

// MustEventID is like EventID but panics on error.
// Use only in tests or when the payload is known to be valid.
func MustEventID(session string, seq int64, payload map[string]any) string {
	id, err := EventID(session, seq, payload)
	if err != nil {
		panic(err)
	}
	return id
}
