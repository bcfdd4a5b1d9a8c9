package discovery

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/solcandy/pkg/candy"
	"go.firedancer.io/solcandy/pkg/metadata"
)

type stubQuerier struct {
	mu       sync.Mutex
	accounts [][]byte
	err      error

	calls    int
	programs []solana.PublicKey
	filters  []metadata.Filter
}

func (s *stubQuerier) FetchFilteredAccounts(_ context.Context, program solana.PublicKey, filter metadata.Filter) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.programs = append(s.programs, program)
	s.filters = append(s.filters, filter)
	if s.err != nil {
		return s.accounts, s.err
	}
	return s.accounts, nil
}

// recordStore answers queries by applying the filter to a set of full
// metadata accounts, like an RPC node would.
type recordStore struct {
	records [][]byte
}

func (s *recordStore) FetchFilteredAccounts(ctx context.Context, program solana.PublicKey, filter metadata.Filter) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !program.Equals(candy.MetadataProgramID) {
		return nil, nil
	}
	var out [][]byte
	for _, data := range s.records {
		if got, ok := filter.Match(data); ok {
			out = append(out, append([]byte(nil), got...))
		}
	}
	return out, nil
}

func mustEncode(t *testing.T, mint, creator solana.PublicKey, name string) []byte {
	rec := &metadata.Record{
		Mint:      mint,
		Name:      name,
		Symbol:    "CNDY",
		URI:       "https://arweave.net/" + name,
		Creators:  []metadata.Creator{{Address: creator, Verified: true}},
		IsMutable: true,
	}
	data, err := rec.Encode()
	require.NoError(t, err)
	return data
}

func newKey(t *testing.T) solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

var (
	candyV1 = candy.New(solana.MustPublicKeyFromBase58("4xGR6jwwAhBebU9ugdq7pkzsz7Q1P3Djg72Fby1xmUkA"), candy.V1)
	candyV2 = candy.New(solana.MustPublicKeyFromBase58("C24whbLeUARPsuiJAkZ41dxrmRKBhqzQqQ6hfLMRY1mD"), candy.V2)
)

func TestListMintKeys_QueryShape(t *testing.T) {
	for _, cm := range []candy.CandyMachine{candyV1, candyV2} {
		q := &stubQuerier{}
		_, err := ListMintKeys(context.Background(), q, cm)
		require.NoError(t, err)

		require.Equal(t, 1, q.calls)
		assert.Equal(t, candy.MetadataProgramID, q.programs[0])

		creator, err := cm.Creator()
		require.NoError(t, err)
		assert.Equal(t, metadata.CreatorFilter(creator), q.filters[0])
	}
}

func TestListMintKeys_PreservesOrder(t *testing.T) {
	mints := []solana.PublicKey{newKey(t), newKey(t), newKey(t), newKey(t)}
	mints = append(mints, mints[1]) // duplicates pass through untouched

	q := &stubQuerier{}
	for _, m := range mints {
		q.accounts = append(q.accounts, m.Bytes())
	}
	got, err := ListMintKeys(context.Background(), q, candyV2)
	require.NoError(t, err)
	assert.Equal(t, mints, got)
}

func TestListMintKeys_Empty(t *testing.T) {
	for _, accounts := range [][][]byte{nil, {}} {
		got, err := ListMintKeys(context.Background(), &stubQuerier{accounts: accounts}, candyV1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestListMintKeys_FetchError(t *testing.T) {
	transportErr := errors.New("connection reset by peer")
	before := testutil.ToFloat64(queryResults.WithLabelValues("v2", resultFetchError))

	q := &stubQuerier{
		accounts: [][]byte{newKey(t).Bytes()},
		err:      transportErr,
	}
	got, err := ListMintKeys(context.Background(), q, candyV2)
	require.ErrorIs(t, err, ErrFetchAccounts)
	assert.False(t, errors.Is(err, transportErr))
	assert.Nil(t, got)

	after := testutil.ToFloat64(queryResults.WithLabelValues("v2", resultFetchError))
	assert.Equal(t, before+1, after)
}

func TestListMintKeys_MalformedSlice(t *testing.T) {
	q := &stubQuerier{accounts: [][]byte{newKey(t).Bytes(), make([]byte, 31)}}
	got, err := ListMintKeys(context.Background(), q, candyV1)
	require.ErrorIs(t, err, ErrMalformedAccount)
	assert.Nil(t, got)
}

func TestListMintKeys_InvalidVersion(t *testing.T) {
	q := &stubQuerier{}
	_, err := ListMintKeys(context.Background(), q, candy.New(candyV1.Key, candy.Version(0)))
	require.ErrorIs(t, err, candy.ErrInvalidVersion)
	assert.Equal(t, 0, q.calls)
}

func TestListMintKeys_RecordStore(t *testing.T) {
	creatorV2, err := candyV2.Creator()
	require.NoError(t, err)

	var (
		store   recordStore
		wantV1  []solana.PublicKey
		wantV2  []solana.PublicKey
		strange = newKey(t)
	)
	for i := 0; i < 14; i++ {
		m1, m2 := newKey(t), newKey(t)
		wantV1 = append(wantV1, m1)
		wantV2 = append(wantV2, m2)
		store.records = append(store.records,
			mustEncode(t, m1, candyV1.Key, "v1"),
			mustEncode(t, m2, creatorV2, "v2"),
			mustEncode(t, newKey(t), strange, "other"),
		)
	}
	// v2 minted under the raw machine key must not be picked up.
	store.records = append(store.records, mustEncode(t, newKey(t), candyV2.Key, "decoy"))

	got, err := ListMintKeys(context.Background(), &store, candyV1)
	require.NoError(t, err)
	assert.Equal(t, wantV1, got)

	got, err = ListMintKeys(context.Background(), &store, candyV2)
	require.NoError(t, err)
	assert.Equal(t, wantV2, got)
}

func TestListMintKeys_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ListMintKeys(ctx, &recordStore{}, candyV1)
	require.ErrorIs(t, err, ErrFetchAccounts)
}

func TestListMintKeys_Concurrent(t *testing.T) {
	creatorV2, err := candyV2.Creator()
	require.NoError(t, err)
	store := &recordStore{records: [][]byte{
		mustEncode(t, newKey(t), candyV1.Key, "a"),
		mustEncode(t, newKey(t), creatorV2, "b"),
	}}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		cm := candyV1
		if i%2 == 1 {
			cm = candyV2
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys, err := ListMintKeys(context.Background(), store, cm)
			assert.NoError(t, err)
			assert.Len(t, keys, 1)
		}()
	}
	wg.Wait()
}

func TestListRecords(t *testing.T) {
	creatorV2, err := candyV2.Creator()
	require.NoError(t, err)
	mint := newKey(t)
	store := &recordStore{records: [][]byte{
		mustEncode(t, newKey(t), candyV1.Key, "v1"),
		mustEncode(t, mint, creatorV2, "v2 #1"),
	}}

	records, err := ListRecords(context.Background(), store, candyV2)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, mint, records[0].Mint)
	assert.Equal(t, "v2 #1", records[0].Name)
	first, ok := records[0].FirstCreator()
	require.True(t, ok)
	assert.Equal(t, creatorV2, first)
}

func TestListRecords_Errors(t *testing.T) {
	{
		_, err := ListRecords(context.Background(), &stubQuerier{err: errors.New("boom")}, candyV1)
		require.ErrorIs(t, err, ErrFetchAccounts)
	}
	{
		q := &stubQuerier{accounts: [][]byte{make([]byte, metadata.RecordSize)}}
		_, err := ListRecords(context.Background(), q, candyV1)
		require.ErrorIs(t, err, ErrMalformedAccount)
	}
	{
		// Right size and creator, wrong account key.
		data := mustEncode(t, newKey(t), candyV1.Key, "x")
		data[0] = 0
		_, err := ListRecords(context.Background(), &stubQuerier{accounts: [][]byte{data}}, candyV1)
		require.ErrorIs(t, err, ErrMalformedAccount)
	}
}
