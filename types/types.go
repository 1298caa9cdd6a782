package types

import (
	"time"

	"golang.org/x/xerrors"
)

// ZeroAddress is the ledger's sentinel for an unregistered fingerprint.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// CatalogRecord is the off-chain mirror of a confirmed ledger registration.
// It is created once per fingerprint and only its Owner field is ever
// updated, after a confirmed ledger transfer.
type CatalogRecord struct {
	Id          string    `json:"id"`
	Fingerprint string    `json:"fileHash"`
	Filename    string    `json:"filename"`
	Owner       string    `json:"owner"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ActivityKind string

const (
	ActivityRegister = ActivityKind("register")
	ActivityVerify   = ActivityKind("verify")
	ActivityTransfer = ActivityKind("transfer")
)

func ParseActivityKind(s string) (ActivityKind, error) {
	switch ActivityKind(s) {
	case ActivityRegister, ActivityVerify, ActivityTransfer:
		return ActivityKind(s), nil
	default:
		return "", xerrors.Errorf("unknown activity kind: %s", s)
	}
}

type ActivityOutcome string

const (
	OutcomeSuccess = ActivityOutcome("success")
	OutcomeFailure = ActivityOutcome("failure")
	OutcomePending = ActivityOutcome("pending")
)

func ParseActivityOutcome(s string) (ActivityOutcome, error) {
	switch ActivityOutcome(s) {
	case OutcomeSuccess, OutcomeFailure, OutcomePending:
		return ActivityOutcome(s), nil
	default:
		return "", xerrors.Errorf("unknown activity outcome: %s", s)
	}
}

// ActivityEntry records one coordinator decision, successful or not.
// Seq is assigned by the activity log and strictly increases.
type ActivityEntry struct {
	Seq     int64           `json:"id"`
	Kind    ActivityKind    `json:"type"`
	Asset   string          `json:"asset"`
	From    string          `json:"from"`
	To      string          `json:"to"`
	Date    time.Time       `json:"date"`
	Outcome ActivityOutcome `json:"status"`
	Address string          `json:"userAddress"`
}

// UserProfile is keyed by the lowercase wallet address.
type UserProfile struct {
	Address string `json:"walletAddress"`
	Name    string `json:"username"`
	Email   string `json:"email"`
}
