package vault

import (
	"context"
	"time"

	"cryptex-node/fingerprint"
	"cryptex-node/ledger"
	"cryptex-node/node/activity"
	"cryptex-node/node/catalog"
	"cryptex-node/types"
	"cryptex-node/utils"

	logging "github.com/ipfs/go-log/v2"
	uuid "github.com/satori/go.uuid"
)

var log = logging.Logger("vault")

// vault service is the ownership coordinator. It arbitrates registration,
// verification and transfer across the ledger, the catalog and the activity
// log. The ledger is consulted or mutated first in every workflow; the
// catalog is only written after a positive ledger result, which keeps the
// two stores consistent outside a bounded window. The coordinator holds no
// cross-request state and takes no fingerprint-level locks: concurrent
// workflows racing on the same fingerprint are arbitrated by the ledger's
// own atomicity.
type VaultSvcApi interface {
	Register(ctx context.Context, filename string, content []byte, owner string) (*RegisterResult, error)
	Verify(ctx context.Context, filename string, content []byte, claimant string) (*VerifyResult, error)
	Transfer(ctx context.Context, fp string, currentOwner string, newOwner string) (*TransferResult, error)
}

type RegisterState int

const (
	RegisterCommitted RegisterState = iota
	RegisterAlreadyOwned
	RegisterValidationFailed
)

type RegisterResult struct {
	State RegisterState
	// current ledger owner, set when State is RegisterAlreadyOwned
	Owner  string
	Record *types.CatalogRecord
}

type VerifyState int

const (
	VerifyConfirmed VerifyState = iota
	VerifyOwnedByOther
	VerifyNotRegistered
	VerifyCatalogMissing
)

type VerifyResult struct {
	State       VerifyState
	Fingerprint string
	// ledger owner, set when State is VerifyOwnedByOther
	Owner  string
	Record *types.CatalogRecord
}

type TransferState int

const (
	TransferCommitted TransferState = iota
	TransferUnauthorized
	TransferNotFound
)

type TransferResult struct {
	State    TransferState
	NewOwner string
}

type VaultSvc struct {
	ledgerSvc   ledger.LedgerSvcApi
	catalogSvc  catalog.CatalogSvcApi
	activitySvc activity.ActivitySvcApi
}

func NewVaultSvc(ledgerSvc ledger.LedgerSvcApi, catalogSvc catalog.CatalogSvcApi, activitySvc activity.ActivitySvcApi) *VaultSvc {
	return &VaultSvc{
		ledgerSvc:   ledgerSvc,
		catalogSvc:  catalogSvc,
		activitySvc: activitySvc,
	}
}

// appendActivity records the workflow decision. A failed audit write never
// turns a committed ledger result into a client-visible failure.
func (vs *VaultSvc) appendActivity(ctx context.Context, kind types.ActivityKind, asset string, from string, to string, outcome types.ActivityOutcome, actor string) {
	_, err := vs.activitySvc.Append(ctx, &types.ActivityEntry{
		Kind:    kind,
		Asset:   asset,
		From:    from,
		To:      to,
		Date:    time.Now().UTC(),
		Outcome: outcome,
		Address: actor,
	})
	if err != nil {
		log.Errorf("failed to append activity entry: %v", err)
	}
}

// Register claims the content's fingerprint for owner. The ledger write is
// confirmed by an independent re-read of the owner: a ledger that accepts
// writes optimistically and resolves ownership asynchronously is only
// trusted once its own read path agrees. The catalog record is created
// after that confirmation and never before.
func (vs *VaultSvc) Register(ctx context.Context, filename string, content []byte, owner string) (*RegisterResult, error) {
	owner = utils.NormalizeAddress(owner)
	fp := fingerprint.Calculate(content)

	existing, err := vs.ledgerSvc.GetOwner(ctx, fp.Bytes())
	if err != nil {
		vs.appendActivity(ctx, types.ActivityRegister, filename, types.ZeroAddress, owner, types.OutcomeFailure, owner)
		return nil, err
	}
	if !utils.IsZeroAddress(existing) {
		log.Debugf("fingerprint %s already claimed by %s", fp.Hex(), existing)
		vs.appendActivity(ctx, types.ActivityRegister, filename, types.ZeroAddress, owner, types.OutcomeFailure, owner)
		return &RegisterResult{State: RegisterAlreadyOwned, Owner: existing}, nil
	}

	if _, err = vs.ledgerSvc.RegisterOwner(ctx, fp.Bytes(), owner); err != nil {
		vs.appendActivity(ctx, types.ActivityRegister, filename, types.ZeroAddress, owner, types.OutcomeFailure, owner)
		return nil, err
	}

	confirmed, err := vs.ledgerSvc.GetOwner(ctx, fp.Bytes())
	if err != nil {
		vs.appendActivity(ctx, types.ActivityRegister, filename, types.ZeroAddress, owner, types.OutcomeFailure, owner)
		return nil, err
	}
	if !utils.SameAddress(confirmed, owner) {
		log.Warnf("ownership validation failed. fingerprint=%s submitted=%s confirmed=%s", fp.Hex(), owner, confirmed)
		vs.appendActivity(ctx, types.ActivityRegister, filename, types.ZeroAddress, owner, types.OutcomeFailure, owner)
		return &RegisterResult{State: RegisterValidationFailed}, nil
	}

	record := &types.CatalogRecord{
		Id:          uuid.NewV4().String(),
		Fingerprint: fp.Hex(),
		Filename:    filename,
		Owner:       owner,
		Size:        int64(len(content)),
		CreatedAt:   time.Now().UTC(),
	}
	if err = vs.catalogSvc.Put(ctx, record, content); err != nil {
		// the ledger committed but the catalog did not; surface it, the
		// divergence is visible on the next verification
		vs.appendActivity(ctx, types.ActivityRegister, filename, types.ZeroAddress, owner, types.OutcomeFailure, owner)
		return nil, err
	}

	vs.appendActivity(ctx, types.ActivityRegister, filename, types.ZeroAddress, owner, types.OutcomeSuccess, owner)
	log.Infof("registration committed. fingerprint=%s owner=%s", fp.Hex(), owner)
	return &RegisterResult{State: RegisterCommitted, Record: record}, nil
}

// Verify is a read-only decision tree; it mutates nothing but the activity
// log. The ledger is the authority: the catalog owner field is never
// consulted for the verification verdict.
func (vs *VaultSvc) Verify(ctx context.Context, filename string, content []byte, claimant string) (*VerifyResult, error) {
	claimant = utils.NormalizeAddress(claimant)
	fp := fingerprint.Calculate(content)

	ok, err := vs.ledgerSvc.VerifyOwner(ctx, fp.Bytes(), claimant)
	if err != nil {
		vs.appendActivity(ctx, types.ActivityVerify, filename, claimant, types.ZeroAddress, types.OutcomeFailure, claimant)
		return nil, err
	}

	if ok {
		record, err := vs.catalogSvc.GetByFingerprint(ctx, fp.Hex())
		if types.ErrRecordNotFound.Is(err) {
			// the ledger says yes but the catalog has no record: the bounded
			// inconsistency window became user-visible. Surfaced, not healed.
			log.Warnf("catalog inconsistency. fingerprint=%s claimant=%s", fp.Hex(), claimant)
			vs.appendActivity(ctx, types.ActivityVerify, filename, claimant, types.ZeroAddress, types.OutcomeFailure, claimant)
			return &VerifyResult{State: VerifyCatalogMissing, Fingerprint: fp.Hex()}, nil
		} else if err != nil {
			vs.appendActivity(ctx, types.ActivityVerify, filename, claimant, types.ZeroAddress, types.OutcomeFailure, claimant)
			return nil, err
		}

		vs.appendActivity(ctx, types.ActivityVerify, filename, claimant, types.ZeroAddress, types.OutcomeSuccess, claimant)
		return &VerifyResult{State: VerifyConfirmed, Fingerprint: fp.Hex(), Record: record}, nil
	}

	owner, err := vs.ledgerSvc.GetOwner(ctx, fp.Bytes())
	if err != nil {
		vs.appendActivity(ctx, types.ActivityVerify, filename, claimant, types.ZeroAddress, types.OutcomeFailure, claimant)
		return nil, err
	}
	if !utils.IsZeroAddress(owner) {
		// informational outcome: the claimant simply is not the owner
		vs.appendActivity(ctx, types.ActivityVerify, filename, claimant, types.ZeroAddress, types.OutcomeFailure, claimant)
		return &VerifyResult{State: VerifyOwnedByOther, Fingerprint: fp.Hex(), Owner: owner}, nil
	}

	vs.appendActivity(ctx, types.ActivityVerify, filename, claimant, types.ZeroAddress, types.OutcomeFailure, claimant)
	return &VerifyResult{State: VerifyNotRegistered, Fingerprint: fp.Hex()}, nil
}

// Transfer moves ownership of a registered fingerprint. The catalog owner
// check is a cheap pre-authorization; the ledger's own transfer
// precondition re-validates it. No ledger call is made for an unauthorized
// claimant.
func (vs *VaultSvc) Transfer(ctx context.Context, fp string, currentOwner string, newOwner string) (*TransferResult, error) {
	currentOwner = utils.NormalizeAddress(currentOwner)
	newOwner = utils.NormalizeAddress(newOwner)

	decoded, err := fingerprint.FromHex(fp)
	if err != nil {
		return nil, types.Wrap(types.ErrInvalidFingerprint, err)
	}

	record, err := vs.catalogSvc.GetByFingerprint(ctx, fp)
	if types.ErrRecordNotFound.Is(err) {
		vs.appendActivity(ctx, types.ActivityTransfer, fp, currentOwner, newOwner, types.OutcomeFailure, currentOwner)
		return &TransferResult{State: TransferNotFound}, nil
	} else if err != nil {
		vs.appendActivity(ctx, types.ActivityTransfer, fp, currentOwner, newOwner, types.OutcomeFailure, currentOwner)
		return nil, err
	}

	if !utils.SameAddress(record.Owner, currentOwner) {
		log.Debugf("unauthorized transfer attempt. fingerprint=%s claimed=%s", fp, currentOwner)
		vs.appendActivity(ctx, types.ActivityTransfer, record.Filename, currentOwner, newOwner, types.OutcomeFailure, currentOwner)
		return &TransferResult{State: TransferUnauthorized}, nil
	}

	if _, err = vs.ledgerSvc.TransferOwner(ctx, decoded.Bytes(), currentOwner, newOwner); err != nil {
		vs.appendActivity(ctx, types.ActivityTransfer, record.Filename, currentOwner, newOwner, types.OutcomeFailure, currentOwner)
		return nil, err
	}

	if err = vs.catalogSvc.UpdateOwner(ctx, fp, newOwner); err != nil {
		vs.appendActivity(ctx, types.ActivityTransfer, record.Filename, currentOwner, newOwner, types.OutcomeFailure, currentOwner)
		return nil, err
	}

	vs.appendActivity(ctx, types.ActivityTransfer, record.Filename, currentOwner, newOwner, types.OutcomeSuccess, currentOwner)
	log.Infof("transfer committed. fingerprint=%s from=%s to=%s", fp, currentOwner, newOwner)
	return &TransferResult{State: TransferCommitted, NewOwner: newOwner}, nil
}
