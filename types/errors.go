package types

import "cosmossdk.io/errors"

var (
	ModuleLedger  = "ledger"
	ModuleCatalog = "catalog"
	ModuleVault   = "vault"
	ModuleNode    = "node"

	ErrCreateLedgerServiceFailed = errors.Register(ModuleLedger, 10000, "failed to create the ledger service")
	ErrStopLedgerServiceFailed   = errors.Register(ModuleLedger, 10001, "failed to stop the ledger service")
	ErrLedgerUnavailable         = errors.Register(ModuleLedger, 10002, "the ledger is unavailable")
	ErrLedgerRejected            = errors.Register(ModuleLedger, 10003, "the ledger rejected the write")

	ErrOpenCatalogFailed      = errors.Register(ModuleCatalog, 10100, "failed to open the catalog store")
	ErrRecordNotFound         = errors.Register(ModuleCatalog, 10101, "record not found in the catalog")
	ErrRecordExists           = errors.Register(ModuleCatalog, 10102, "a record already exists for the fingerprint")
	ErrPutRecordFailed        = errors.Register(ModuleCatalog, 10103, "failed to store the catalog record")
	ErrQueryRecordFailed      = errors.Register(ModuleCatalog, 10104, "failed to query the catalog")
	ErrAppendActivityFailed   = errors.Register(ModuleCatalog, 10105, "failed to append the activity entry")
	ErrQueryActivityFailed    = errors.Register(ModuleCatalog, 10106, "failed to query the activity log")
	ErrUpsertProfileFailed    = errors.Register(ModuleCatalog, 10107, "failed to upsert the user profile")
	ErrProfileNotFound        = errors.Register(ModuleCatalog, 10108, "user profile not found")
	ErrInvalidActivityEntry   = errors.Register(ModuleCatalog, 10109, "invalid activity entry")
	ErrCatalogInconsistency   = errors.Register(ModuleCatalog, 10110, "the ledger confirms ownership but the catalog has no record")

	ErrInvalidParameters          = errors.Register(ModuleVault, 10200, "invalid parameters")
	ErrAlreadyOwned               = errors.Register(ModuleVault, 10201, "the asset is already copyrighted")
	ErrOwnershipValidationFailed  = errors.Register(ModuleVault, 10202, "ownership validation failed after registration")
	ErrNotRegistered              = errors.Register(ModuleVault, 10203, "the asset is not registered")
	ErrUnauthorized               = errors.Register(ModuleVault, 10204, "not authorized to transfer the asset")
	ErrInvalidFingerprint         = errors.Register(ModuleVault, 10205, "invalid fingerprint")

	ErrInvalidRepoPath     = errors.Register(ModuleNode, 10300, "invalid repo path")
	ErrCreateDirFailed     = errors.Register(ModuleNode, 10301, "failed to create the directory")
	ErrOpenDataStoreFailed = errors.Register(ModuleNode, 10302, "failed to open the datastore")
	ErrOpenIndexDbFailed   = errors.Register(ModuleNode, 10303, "failed to open the index database")
	ErrEncodeConfigFailed  = errors.Register(ModuleNode, 10304, "failed to encode the config")
	ErrDecodeConfigFailed  = errors.Register(ModuleNode, 10305, "failed to decode the config")
	ErrInvalidConfig       = errors.Register(ModuleNode, 10306, "invalid config")
	ErrInvalidServerAddress = errors.Register(ModuleNode, 10307, "invalid server address")
)

func Wrap(err0 error, err1 error) error {
	return errors.Wrapf(err0, ", due to %v", err1)
}

func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
