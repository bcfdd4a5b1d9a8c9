package candy

import (
	"errors"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
	"github.com/minio/sha256-simd"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	ErrOnCurve               = errors.New("derived address is on-curve")
	ErrNoViableBump          = errors.New("unable to find a viable program address bump seed")
)

// FindProgramAddress returns the canonical program derived address for
// seeds under program: the first bump, counting down from 255, whose
// address falls off the ed25519 curve.
//
// ErrNoViableBump means all 256 candidates landed on the curve. Callers
// must treat it as fatal for the seeds; there is no fallback address.
func FindProgramAddress(seeds [][]byte, program solana.PublicKey) (solana.PublicKey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	bump := []byte{0}
	withBump[len(seeds)] = bump

	for b := 255; b >= 0; b-- {
		bump[0] = uint8(b)
		addr, err := CreateProgramAddress(withBump, program)
		switch {
		case err == nil:
			return addr, uint8(b), nil
		case errors.Is(err, ErrOnCurve):
			continue
		default:
			return solana.PublicKey{}, 0, err
		}
	}
	return solana.PublicKey{}, 0, ErrNoViableBump
}

// CreateProgramAddress hashes seeds, program and the PDA marker into an
// address. Fails with ErrOnCurve if the result is a valid ed25519 point.
func CreateProgramAddress(seeds [][]byte, program solana.PublicKey) (solana.PublicKey, error) {
	if len(seeds) > MaxSeeds {
		return solana.PublicKey{}, ErrMaxSeedLengthExceeded
	}

	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return solana.PublicKey{}, ErrMaxSeedLengthExceeded
		}
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write([]byte(pdaMarker))

	var out solana.PublicKey
	copy(out[:], h.Sum(nil))
	if isOnCurve(out[:]) {
		return solana.PublicKey{}, ErrOnCurve
	}
	return out, nil
}

func isOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
