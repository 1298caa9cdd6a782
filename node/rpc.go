package node

import (
	"context"
	"net/http"

	"cryptex-node/api"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/gorilla/mux"
	logging "github.com/ipfs/go-log/v2"
	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"golang.org/x/xerrors"
)

var rpclog = logging.Logger("rpc")

type StopFunc func(ctx context.Context) error

func ServeRPC(h http.Handler, addr multiaddr.Multiaddr) (StopFunc, error) {
	lst, err := manet.Listen(addr)
	if err != nil {
		return nil, xerrors.Errorf("could not listen: %w", err)
	}

	srv := &http.Server{
		Handler: h,
	}

	go func() {
		err = srv.Serve(manet.NetListener(lst))
		if err != http.ErrServerClosed {
			rpclog.Warnf("rpc server failed: %s", err)
		}
	}()

	return srv.Shutdown, nil
}

func VaultRpcHandler(va api.VaultApi) (http.Handler, error) {
	m := mux.NewRouter()

	rpcServer := jsonrpc.NewServer()
	rpcServer.Register("Cryptex", va)

	m.Handle("/rpc/v0", rpcServer)

	ah := &auth.Handler{
		Next: m.ServeHTTP,
	}
	return ah, nil
}
