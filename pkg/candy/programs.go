package candy

import "github.com/gagliardetto/solana-go"

var (
	// MetadataProgramID is the Metaplex Token Metadata program.
	MetadataProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

	// CandyMachineV2ProgramID owns every v2 candy machine and signs mints
	// through the creator PDA derived from CreatorSeed.
	CandyMachineV2ProgramID = solana.MustPublicKeyFromBase58("cndy3Z4yapfJBmL3ShUp5exZKqR3z33thTzeNMm2gRZ")
)

const CreatorSeed = "candy_machine"
