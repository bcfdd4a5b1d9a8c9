// Package discovery lists the mints a candy machine has distributed.
//
// Every mint created by a candy machine carries the machine's creator
// authority as first creator in its metadata account, so a single
// filtered getProgramAccounts call against the metadata program finds
// all of them.
package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/solcandy/pkg/candy"
	"go.firedancer.io/solcandy/pkg/metadata"
	"k8s.io/klog/v2"
)

var (
	ErrFetchAccounts    = errors.New("failed to fetch accounts from solana network")
	ErrMalformedAccount = errors.New("malformed metadata account")
)

// AccountQuerier fetches the accounts owned by program that match filter.
// Results are returned in node order, one byte slice per account.
type AccountQuerier interface {
	FetchFilteredAccounts(ctx context.Context, program solana.PublicKey, filter metadata.Filter) ([][]byte, error)
}

// ListMintKeys returns the mint address of every token distributed by cm.
//
// The result is all-or-nothing: on error no keys are returned.
func ListMintKeys(ctx context.Context, q AccountQuerier, cm candy.CandyMachine) ([]solana.PublicKey, error) {
	filter, err := creatorFilter(cm)
	if err != nil {
		return nil, err
	}
	slices, err := fetch(ctx, q, cm, filter)
	if err != nil {
		return nil, err
	}

	keys := make([]solana.PublicKey, len(slices))
	for i, b := range slices {
		if len(b) != metadata.KeyLength {
			queryResults.WithLabelValues(cm.Version.String(), resultMalformed).Inc()
			return nil, fmt.Errorf("%w: account %d: got %d bytes, want %d", ErrMalformedAccount, i, len(b), metadata.KeyLength)
		}
		keys[i] = solana.PublicKeyFromBytes(b)
	}

	queryResults.WithLabelValues(cm.Version.String(), resultOK).Inc()
	mintsDiscovered.Add(float64(len(keys)))
	klog.V(2).Infof("Candy machine %s: found %d mints", cm, len(keys))
	return keys, nil
}

// ListRecords is like ListMintKeys but fetches and decodes whole metadata
// accounts instead of only the mint field.
func ListRecords(ctx context.Context, q AccountQuerier, cm candy.CandyMachine) ([]*metadata.Record, error) {
	filter, err := creatorFilter(cm)
	if err != nil {
		return nil, err
	}
	filter = filter.WithoutSlice()
	accounts, err := fetch(ctx, q, cm, filter)
	if err != nil {
		return nil, err
	}

	records := make([]*metadata.Record, len(accounts))
	for i, data := range accounts {
		if _, ok := filter.Match(data); !ok {
			queryResults.WithLabelValues(cm.Version.String(), resultMalformed).Inc()
			return nil, fmt.Errorf("%w: account %d does not match the creator filter", ErrMalformedAccount, i)
		}
		rec, err := metadata.DecodeRecord(data)
		if err != nil {
			queryResults.WithLabelValues(cm.Version.String(), resultMalformed).Inc()
			return nil, fmt.Errorf("%w: account %d: %s", ErrMalformedAccount, i, err)
		}
		records[i] = rec
	}

	queryResults.WithLabelValues(cm.Version.String(), resultOK).Inc()
	mintsDiscovered.Add(float64(len(records)))
	klog.V(2).Infof("Candy machine %s: decoded %d metadata records", cm, len(records))
	return records, nil
}

func creatorFilter(cm candy.CandyMachine) (metadata.Filter, error) {
	creator, err := cm.Creator()
	if err != nil {
		return metadata.Filter{}, err
	}
	klog.V(3).Infof("Candy machine %s: creator authority %s", cm, creator)
	return metadata.CreatorFilter(creator), nil
}

func fetch(ctx context.Context, q AccountQuerier, cm candy.CandyMachine, filter metadata.Filter) ([][]byte, error) {
	if klog.V(5).Enabled() {
		klog.Infof("Candy machine %s: querying %s with filter:\n%s", cm, candy.MetadataProgramID, spew.Sdump(filter))
	}
	accounts, err := q.FetchFilteredAccounts(ctx, candy.MetadataProgramID, filter)
	if err != nil {
		queryResults.WithLabelValues(cm.Version.String(), resultFetchError).Inc()
		klog.V(1).Infof("Candy machine %s: fetch failed: %s", cm, err)
		return nil, ErrFetchAccounts
	}
	if accounts == nil {
		accounts = [][]byte{}
	}
	return accounts, nil
}
