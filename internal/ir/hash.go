package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DomainSnapshot prefixes snapshot digests. The version suffix enables future
// algorithm migration.
const DomainSnapshot = "xlnarrate/snapshot/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest computes the content-addressed identity of a narration input:
// the ordered operations plus the table metadata they were narrated against.
//
// Two narrations with equal digests were rendered from identical snapshots,
// so their documents are byte-identical.
func Digest(ops []Operation, tables any) (string, error) {
	encoded, err := EncodeOperations(ops)
	if err != nil {
		return "", fmt.Errorf("Digest: %w", err)
	}

	snapshot := map[string]any{
		"ir_version": IRVersion,
		"operations": json.RawMessage(encoded),
		"tables":     tables,
	}
	canonical, err := MarshalCanonical(snapshot)
	if err != nil {
		return "", fmt.Errorf("Digest: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainSnapshot, canonical), nil
}
