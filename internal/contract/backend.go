package contract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Backend is the slice of the JSON-RPC provider the gateway talks to.
// Transactions are signed by the node, which holds the accounts unlocked.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Accounts(ctx context.Context) ([]common.Address, error)
	SendFromAccount(ctx context.Context, call ethereum.CallMsg) (common.Hash, error)
	Close()
}

type RPCBackend struct {
	*ethclient.Client
	rpc *rpc.Client
}

func Dial(ctx context.Context, url string) (*RPCBackend, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}

	return &RPCBackend{Client: ethclient.NewClient(client), rpc: client}, nil
}

func (b *RPCBackend) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := b.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}

	return accounts, nil
}

func (b *RPCBackend) SendFromAccount(ctx context.Context, call ethereum.CallMsg) (common.Hash, error) {
	args := map[string]interface{}{
		"from": call.From,
		"to":   call.To,
		"gas":  hexutil.Uint64(call.Gas),
		"data": hexutil.Bytes(call.Data),
	}
	if call.Value != nil {
		args["value"] = (*hexutil.Big)(call.Value)
	}

	var hash common.Hash
	if err := b.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}

	return hash, nil
}

func (b *RPCBackend) Close() {
	b.Client.Close()
}
