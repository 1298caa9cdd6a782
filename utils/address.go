package utils

import (
	"regexp"
	"strings"

	"cryptex-node/types"
)

var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// NormalizeAddress is the single canonicalization point for wallet
// addresses. Every ingress path (request parsing, catalog keying, ledger
// calls) goes through it before comparing or storing an address.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func IsValidAddress(address string) bool {
	return addressRe.MatchString(strings.TrimSpace(address))
}

func IsZeroAddress(address string) bool {
	return NormalizeAddress(address) == types.ZeroAddress
}

func SameAddress(a string, b string) bool {
	return NormalizeAddress(a) == NormalizeAddress(b)
}
