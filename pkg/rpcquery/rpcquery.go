// Package rpcquery runs metadata filters against a Solana JSON-RPC node.
package rpcquery

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.firedancer.io/solcandy/pkg/metadata"
	"k8s.io/klog/v2"
)

// EnvRPCURL names the environment variable consulted when no endpoint is given.
const EnvRPCURL = "SOLANA_RPC_URL"

// ResolveEndpoint maps cluster monikers to their public RPC endpoints.
// Anything else is returned as is. An empty string falls back to
// $SOLANA_RPC_URL, then to mainnet-beta.
func ResolveEndpoint(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		s = strings.TrimSpace(os.Getenv(EnvRPCURL))
	}
	switch strings.ToLower(s) {
	case "", "mainnet", "mainnet-beta", "m":
		return rpc.MainNetBeta_RPC
	case "devnet", "d":
		return rpc.DevNet_RPC
	case "testnet", "t":
		return rpc.TestNet_RPC
	case "localnet", "localhost", "l":
		return rpc.LocalNet_RPC
	default:
		return s
	}
}

// Client implements discovery.AccountQuerier with getProgramAccounts.
type Client struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
	timeout    time.Duration
}

type Option func(*Client)

func WithCommitment(c rpc.CommitmentType) Option {
	return func(cl *Client) { cl.commitment = c }
}

// WithTimeout bounds each query. Zero means no limit beyond the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.timeout = d }
}

func New(endpoint string, opts ...Option) *Client {
	return NewFromRPC(rpc.New(ResolveEndpoint(endpoint)), opts...)
}

func NewFromRPC(client *rpc.Client, opts ...Option) *Client {
	c := &Client{
		rpc:        client,
		commitment: rpc.CommitmentConfirmed,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Close() error {
	return c.rpc.Close()
}

// FetchFilteredAccounts returns the (sliced) data of every account owned
// by program that passes filter, in the order the node returned them.
func (c *Client) FetchFilteredAccounts(ctx context.Context, program solana.PublicKey, filter metadata.Filter) ([][]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := c.rpc.GetProgramAccountsWithOpts(ctx, program, ProgramAccountsOpts(filter, c.commitment))
	if err != nil {
		klog.Errorf("getProgramAccounts(%s) failed after %s: %s", program, time.Since(start), err)
		return nil, fmt.Errorf("getProgramAccounts(%s): %w", program, err)
	}
	klog.V(3).Infof("getProgramAccounts(%s) returned %d accounts in %s", program, len(res), time.Since(start))

	out := make([][]byte, 0, len(res))
	for _, acc := range res {
		if acc == nil || acc.Account == nil || acc.Account.Data == nil {
			return nil, fmt.Errorf("getProgramAccounts(%s): account without data", program)
		}
		out = append(out, acc.Account.Data.GetBinary())
	}
	return out, nil
}

// ProgramAccountsOpts translates filter into getProgramAccounts options.
func ProgramAccountsOpts(filter metadata.Filter, commitment rpc.CommitmentType) *rpc.GetProgramAccountsOpts {
	opts := &rpc.GetProgramAccountsOpts{
		Commitment: commitment,
		Encoding:   solana.EncodingBase64,
	}
	if filter.DataSize != 0 {
		opts.Filters = append(opts.Filters, rpc.RPCFilter{DataSize: filter.DataSize})
	}
	for _, m := range filter.Memcmp {
		opts.Filters = append(opts.Filters, rpc.RPCFilter{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: m.Offset,
				Bytes:  solana.Base58(m.Bytes),
			},
		})
	}
	if filter.Slice != nil {
		offset, length := filter.Slice.Offset, filter.Slice.Length
		opts.DataSlice = &rpc.DataSlice{
			Offset: &offset,
			Length: &length,
		}
	}
	return opts
}
