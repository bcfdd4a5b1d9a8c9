// Package rpcflags holds the RPC connection flags shared by subcommands.
package rpcflags

import (
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/pflag"
	"go.firedancer.io/solcandy/pkg/rpcquery"
)

type Flags struct {
	RPC        string
	Commitment string
	Timeout    time.Duration
}

func Register(fs *pflag.FlagSet) *Flags {
	f := new(Flags)
	fs.StringVarP(&f.RPC, "rpc", "u", "", "RPC URL or cluster moniker (mainnet-beta, devnet, testnet, localnet); defaults to $"+rpcquery.EnvRPCURL)
	fs.StringVar(&f.Commitment, "commitment", string(rpc.CommitmentConfirmed), "Commitment level (processed, confirmed, finalized)")
	fs.DurationVar(&f.Timeout, "timeout", 2*time.Minute, "Timeout of a single getProgramAccounts call (0 = none)")
	return f
}

func ParseCommitment(s string) (rpc.CommitmentType, error) {
	switch c := rpc.CommitmentType(strings.ToLower(strings.TrimSpace(s))); c {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
		return c, nil
	default:
		return "", fmt.Errorf("invalid commitment %q", s)
	}
}

func (f *Flags) Endpoint() string {
	return rpcquery.ResolveEndpoint(f.RPC)
}

func (f *Flags) Client() (*rpcquery.Client, error) {
	commitment, err := ParseCommitment(f.Commitment)
	if err != nil {
		return nil, err
	}
	return rpcquery.New(f.Endpoint(),
		rpcquery.WithCommitment(commitment),
		rpcquery.WithTimeout(f.Timeout),
	), nil
}
