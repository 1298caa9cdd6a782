package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"

	"golang.org/x/xerrors"
)

// Size is the width of a content fingerprint in bytes.
const Size = sha256.Size

// HexLength is the length of a hex encoded fingerprint.
const HexLength = Size * 2

var hexRe = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// Fingerprint is the content-derived identity the whole system keys on.
// Two identical byte sequences always produce the same fingerprint,
// regardless of filename.
type Fingerprint [Size]byte

// Calculate derives the fingerprint of raw content bytes. Pure and
// deterministic; callers reject empty content before invoking it.
func Calculate(content []byte) Fingerprint {
	return sha256.Sum256(content)
}

// FromHex decodes a 64-char hex string into a fingerprint.
func FromHex(s string) (Fingerprint, error) {
	var fp Fingerprint
	if !hexRe.MatchString(s) {
		return fp, xerrors.Errorf("invalid fingerprint hex: %s", s)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fp, xerrors.Errorf("invalid fingerprint hex: %w", err)
	}
	copy(fp[:], raw)
	return fp, nil
}

// IsHex reports whether s looks like an encoded fingerprint.
func IsHex(s string) bool {
	return hexRe.MatchString(s)
}

func (f Fingerprint) Hex() string {
	return hex.EncodeToString(f[:])
}

// Bytes returns the raw digest, the form fingerprints take on the ledger
// wire.
func (f Fingerprint) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, f[:])
	return out
}
