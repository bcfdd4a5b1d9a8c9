package metadata

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var ErrInvalidRecord = errors.New("invalid metadata record")

// Key is the account discriminator stored in the first byte.
type Key uint8

const KeyMetadataV1 Key = 4

type Creator struct {
	Address  solana.PublicKey `json:"address"`
	Verified bool             `json:"verified"`
	Share    uint8            `json:"share"`
}

// Record is the leading part of a metadata account, up to the mutability flag.
// Fields after it (edition nonce, collection, uses, ...) are not decoded.
type Record struct {
	Key                  Key              `json:"-"`
	UpdateAuthority      solana.PublicKey `json:"updateAuthority"`
	Mint                 solana.PublicKey `json:"mint"`
	Name                 string           `json:"name"`
	Symbol               string           `json:"symbol"`
	URI                  string           `json:"uri"`
	SellerFeeBasisPoints uint16           `json:"sellerFeeBasisPoints"`
	Creators             []Creator        `json:"creators,omitempty"`
	PrimarySaleHappened  bool             `json:"primarySaleHappened"`
	IsMutable            bool             `json:"isMutable"`
}

// FirstCreator returns creators[0], if any.
func (r *Record) FirstCreator() (solana.PublicKey, bool) {
	if len(r.Creators) == 0 {
		return solana.PublicKey{}, false
	}
	return r.Creators[0].Address, true
}

// DecodeRecord parses the borsh-encoded metadata account data.
func DecodeRecord(data []byte) (*Record, error) {
	dec := bin.NewBorshDecoder(data)
	rec := new(Record)

	key, err := dec.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("%w: key: %s", ErrInvalidRecord, err)
	}
	rec.Key = Key(key)
	if rec.Key != KeyMetadataV1 {
		return nil, fmt.Errorf("%w: unexpected account key %d", ErrInvalidRecord, key)
	}
	if rec.UpdateAuthority, err = readPublicKey(dec); err != nil {
		return nil, fmt.Errorf("%w: update authority: %s", ErrInvalidRecord, err)
	}
	if rec.Mint, err = readPublicKey(dec); err != nil {
		return nil, fmt.Errorf("%w: mint: %s", ErrInvalidRecord, err)
	}
	if rec.Name, err = readPaddedString(dec); err != nil {
		return nil, fmt.Errorf("%w: name: %s", ErrInvalidRecord, err)
	}
	if rec.Symbol, err = readPaddedString(dec); err != nil {
		return nil, fmt.Errorf("%w: symbol: %s", ErrInvalidRecord, err)
	}
	if rec.URI, err = readPaddedString(dec); err != nil {
		return nil, fmt.Errorf("%w: uri: %s", ErrInvalidRecord, err)
	}
	if rec.SellerFeeBasisPoints, err = dec.ReadUint16(bin.LE); err != nil {
		return nil, fmt.Errorf("%w: seller fee: %s", ErrInvalidRecord, err)
	}

	hasCreators, err := dec.ReadBool()
	if err != nil {
		return nil, fmt.Errorf("%w: creators: %s", ErrInvalidRecord, err)
	}
	if hasCreators {
		n, err := dec.ReadUint32(bin.LE)
		if err != nil {
			return nil, fmt.Errorf("%w: creators: %s", ErrInvalidRecord, err)
		}
		// Metaplex caps creators at 5; anything larger is garbage.
		if n > 5 {
			return nil, fmt.Errorf("%w: %d creators", ErrInvalidRecord, n)
		}
		rec.Creators = make([]Creator, n)
		for i := range rec.Creators {
			c := &rec.Creators[i]
			if c.Address, err = readPublicKey(dec); err != nil {
				return nil, fmt.Errorf("%w: creator %d: %s", ErrInvalidRecord, i, err)
			}
			if c.Verified, err = dec.ReadBool(); err != nil {
				return nil, fmt.Errorf("%w: creator %d: %s", ErrInvalidRecord, i, err)
			}
			if c.Share, err = dec.ReadUint8(); err != nil {
				return nil, fmt.Errorf("%w: creator %d: %s", ErrInvalidRecord, i, err)
			}
		}
	}

	if rec.PrimarySaleHappened, err = dec.ReadBool(); err != nil {
		return nil, fmt.Errorf("%w: primary sale: %s", ErrInvalidRecord, err)
	}
	if rec.IsMutable, err = dec.ReadBool(); err != nil {
		return nil, fmt.Errorf("%w: mutability: %s", ErrInvalidRecord, err)
	}
	return rec, nil
}

func readPublicKey(dec *bin.Decoder) (solana.PublicKey, error) {
	b, err := dec.ReadNBytes(KeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(b), nil
}

func readPaddedString(dec *bin.Decoder) (string, error) {
	n, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return "", err
	}
	b, err := dec.ReadNBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(b, "\x00")), nil
}

// Encode serializes r the way the metadata program lays out a fresh
// account: strings padded to their maximum length and the whole account
// zero-filled to RecordSize.
func (r *Record) Encode() ([]byte, error) {
	if len(r.Creators) > 5 {
		return nil, fmt.Errorf("%w: %d creators", ErrInvalidRecord, len(r.Creators))
	}
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	key := r.Key
	if key == 0 {
		key = KeyMetadataV1
	}
	if err := enc.WriteUint8(uint8(key)); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(r.UpdateAuthority[:], false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(r.Mint[:], false); err != nil {
		return nil, err
	}
	for _, field := range []struct {
		value string
		max   int
	}{
		{r.Name, MaxNameLength},
		{r.Symbol, MaxSymbolLength},
		{r.URI, MaxURILength},
	} {
		if len(field.value) > field.max {
			return nil, fmt.Errorf("%w: %q longer than %d bytes", ErrInvalidRecord, field.value, field.max)
		}
		padded := make([]byte, field.max)
		copy(padded, field.value)
		if err := enc.WriteUint32(uint32(field.max), bin.LE); err != nil {
			return nil, err
		}
		if err := enc.WriteBytes(padded, false); err != nil {
			return nil, err
		}
	}
	if err := enc.WriteUint16(r.SellerFeeBasisPoints, bin.LE); err != nil {
		return nil, err
	}
	if err := enc.WriteBool(r.Creators != nil); err != nil {
		return nil, err
	}
	if r.Creators != nil {
		if err := enc.WriteUint32(uint32(len(r.Creators)), bin.LE); err != nil {
			return nil, err
		}
		for _, c := range r.Creators {
			if err := enc.WriteBytes(c.Address[:], false); err != nil {
				return nil, err
			}
			if err := enc.WriteBool(c.Verified); err != nil {
				return nil, err
			}
			if err := enc.WriteUint8(c.Share); err != nil {
				return nil, err
			}
		}
	}
	if err := enc.WriteBool(r.PrimarySaleHappened); err != nil {
		return nil, err
	}
	if err := enc.WriteBool(r.IsMutable); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if len(out) > RecordSize {
		return nil, fmt.Errorf("%w: encoded size %d exceeds %d", ErrInvalidRecord, len(out), RecordSize)
	}
	padded := make([]byte, RecordSize)
	copy(padded, out)
	return padded, nil
}
