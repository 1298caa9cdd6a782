package ledger

import (
	"context"
	"net/http"
	"time"

	"cryptex-node/types"
	"cryptex-node/utils"

	"github.com/filecoin-project/go-jsonrpc"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("ledger")

const (
	namespace = "Ledger"

	DefaultGasLimit = uint64(300000)
	DefaultTimeout  = 30 * time.Second
)

// TxReceipt is the terminal outcome of a ledger write. Committed=false
// means the ledger's own precondition refused the claim; transport errors
// never reach this struct.
type TxReceipt struct {
	TxHash    string
	Height    int64
	GasUsed   uint64
	Committed bool
	Reason    string
}

// ledger service provides typed access to the external ownership ledger.
// The ledger is authoritative: every workflow consults or mutates it before
// trusting any catalog state.
type LedgerSvcApi interface {
	GetOwner(ctx context.Context, fp []byte) (string, error)
	RegisterOwner(ctx context.Context, fp []byte, owner string) (*TxReceipt, error)
	VerifyOwner(ctx context.Context, fp []byte, claimant string) (bool, error)
	TransferOwner(ctx context.Context, fp []byte, from string, to string) (*TxReceipt, error)
	Stop(ctx context.Context) error
}

// gatewayStub is populated by the jsonrpc client; method names match the
// ledger daemon's Ledger namespace.
type gatewayStub struct {
	GetOwner      func(ctx context.Context, fp []byte) (string, error)
	RegisterOwner func(ctx context.Context, fp []byte, owner string, gas uint64) (TxReceipt, error)
	VerifyOwner   func(ctx context.Context, fp []byte, claimant string) (bool, error)
	TransferOwner func(ctx context.Context, fp []byte, from string, to string, gas uint64) (TxReceipt, error)
}

type LedgerSvc struct {
	remote  string
	stub    gatewayStub
	closer  jsonrpc.ClientCloser
	gm      gasometer
	timeout time.Duration
}

func NewLedgerSvc(ctx context.Context, remote string, gasLimit uint64, timeout time.Duration) (*LedgerSvc, error) {
	log.Debugf("initialize ledger client, remote=%s", remote)

	var stub gatewayStub
	closer, err := jsonrpc.NewMergeClient(ctx, remote, namespace, []interface{}{&stub}, http.Header{})
	if err != nil {
		return nil, types.Wrap(types.ErrCreateLedgerServiceFailed, err)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &LedgerSvc{
		remote:  remote,
		stub:    stub,
		closer:  closer,
		gm:      gasometer{limit: gasLimit},
		timeout: timeout,
	}, nil
}

func (l *LedgerSvc) Stop(ctx context.Context) error {
	log.Info("stop ledger client.")
	if l.closer != nil {
		l.closer()
	}
	return nil
}

func (l *LedgerSvc) GetOwner(ctx context.Context, fp []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	owner, err := l.stub.GetOwner(ctx, fp)
	if err != nil {
		return "", types.Wrap(types.ErrLedgerUnavailable, err)
	}
	return utils.NormalizeAddress(owner), nil
}

func (l *LedgerSvc) VerifyOwner(ctx context.Context, fp []byte, claimant string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ok, err := l.stub.VerifyOwner(ctx, fp, utils.NormalizeAddress(claimant))
	if err != nil {
		return false, types.Wrap(types.ErrLedgerUnavailable, err)
	}
	return ok, nil
}

// RegisterOwner attempts to claim fp for owner. This call is the unique
// point where ownership is actually created; the catalog only mirrors its
// confirmed result.
func (l *LedgerSvc) RegisterOwner(ctx context.Context, fp []byte, owner string) (*TxReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	receipt, err := l.stub.RegisterOwner(ctx, fp, utils.NormalizeAddress(owner), l.gm.CalculateGas())
	if err != nil {
		return nil, types.Wrap(types.ErrLedgerUnavailable, err)
	}
	if !receipt.Committed {
		return &receipt, types.Wrapf(types.ErrLedgerRejected, "register rejected: %s", receipt.Reason)
	}
	log.Debugf("RegisterOwner tx succeed. tx=%s height=%d", receipt.TxHash, receipt.Height)
	return &receipt, nil
}

func (l *LedgerSvc) TransferOwner(ctx context.Context, fp []byte, from string, to string) (*TxReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	receipt, err := l.stub.TransferOwner(ctx, fp, utils.NormalizeAddress(from), utils.NormalizeAddress(to), l.gm.CalculateGas())
	if err != nil {
		return nil, types.Wrap(types.ErrLedgerUnavailable, err)
	}
	if !receipt.Committed {
		return &receipt, types.Wrapf(types.ErrLedgerRejected, "transfer rejected: %s", receipt.Reason)
	}
	log.Debugf("TransferOwner tx succeed. tx=%s height=%d", receipt.TxHash, receipt.Height)
	return &receipt, nil
}
