// Package metadata describes Token Metadata accounts: where fields live
// inside the fixed-size account, and how to select accounts by creator.
package metadata

import (
	"github.com/gagliardetto/solana-go"
)

// Metadata account layout.
const (
	RecordSize = 679
	KeyLength  = 32

	// MintOffset follows the one-byte account key and the update authority.
	MintOffset = 1 + KeyLength

	// FirstCreatorOffset is where creators[0].address lands when name,
	// symbol and uri are stored at their padded maximum lengths (which
	// every record created by a candy machine does).
	FirstCreatorOffset = MintOffset + KeyLength +
		(4 + MaxNameLength) +
		(4 + MaxSymbolLength) +
		(4 + MaxURILength) +
		2 + // seller fee basis points
		1 + // creators option tag
		4 // creators vec length
)

const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
)

// Memcmp requires Bytes to appear at Offset within the account data.
type Memcmp struct {
	Offset uint64
	Bytes  []byte
}

// Slice asks the node to return only [Offset, Offset+Length) of each
// matching account.
type Slice struct {
	Offset uint64
	Length uint64
}

// Filter selects accounts of a program by size and content.
type Filter struct {
	DataSize uint64
	Memcmp   []Memcmp
	Slice    *Slice
}

// CreatorFilter matches metadata accounts whose first creator is creator,
// returning only the mint address of each match.
func CreatorFilter(creator solana.PublicKey) Filter {
	return Filter{
		DataSize: RecordSize,
		Memcmp: []Memcmp{
			{Offset: FirstCreatorOffset, Bytes: creator.Bytes()},
		},
		Slice: &Slice{Offset: MintOffset, Length: KeyLength},
	}
}

// WithoutSlice returns a copy of f that fetches whole accounts.
func (f Filter) WithoutSlice() Filter {
	out := Filter{
		DataSize: f.DataSize,
		Memcmp:   make([]Memcmp, len(f.Memcmp)),
	}
	copy(out.Memcmp, f.Memcmp)
	return out
}

// Match reports whether data would be selected by f, and returns the part
// of it the node would send back.
func (f Filter) Match(data []byte) ([]byte, bool) {
	if f.DataSize != 0 && uint64(len(data)) != f.DataSize {
		return nil, false
	}
	for _, m := range f.Memcmp {
		end := m.Offset + uint64(len(m.Bytes))
		if end > uint64(len(data)) {
			return nil, false
		}
		if string(data[m.Offset:end]) != string(m.Bytes) {
			return nil, false
		}
	}
	if f.Slice == nil {
		return data, true
	}
	start := f.Slice.Offset
	if start > uint64(len(data)) {
		start = uint64(len(data))
	}
	end := start + f.Slice.Length
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	return data[start:end], true
}
