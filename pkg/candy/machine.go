// Package candy models Metaplex candy machines and derives the creator
// authority that ends up in the metadata of every mint they distribute.
package candy

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// CandyMachine references one deployed candy machine account.
type CandyMachine struct {
	Key     solana.PublicKey
	Version Version
}

func New(key solana.PublicKey, version Version) CandyMachine {
	return CandyMachine{Key: key, Version: version}
}

// Parse builds a CandyMachine from a base58 account key and a version tag.
func Parse(key string, version string) (CandyMachine, error) {
	v, err := ParseVersion(version)
	if err != nil {
		return CandyMachine{}, err
	}
	pk, err := solana.PublicKeyFromBase58(key)
	if err != nil {
		return CandyMachine{}, fmt.Errorf("invalid candy machine key %q: %w", key, err)
	}
	return New(pk, v), nil
}

// Creator returns the address recorded as first creator of each mint.
//
// v1 machines sign as themselves. v2 machines sign through a PDA of the
// candy machine v2 program seeded with CreatorSeed and the machine key.
func (c CandyMachine) Creator() (solana.PublicKey, error) {
	creator, _, err := c.CreatorWithBump()
	return creator, err
}

// CreatorWithBump is Creator plus the bump seed of the v2 PDA.
// The bump is always 0 for v1.
func (c CandyMachine) CreatorWithBump() (solana.PublicKey, uint8, error) {
	switch c.Version {
	case V1:
		return c.Key, 0, nil
	case V2:
		creator, bump, err := FindProgramAddress(
			[][]byte{[]byte(CreatorSeed), c.Key[:]},
			CandyMachineV2ProgramID,
		)
		if err != nil {
			return solana.PublicKey{}, 0, fmt.Errorf("failed to derive creator of candy machine %s: %w", c.Key, err)
		}
		return creator, bump, nil
	default:
		return solana.PublicKey{}, 0, fmt.Errorf("%w: %s", ErrInvalidVersion, c.Version)
	}
}

func (c CandyMachine) String() string {
	return fmt.Sprintf("%s (%s)", c.Key, c.Version)
}
