package fwact

import "github.com/lkc-technologies/fwact/internal/constants"

// Re-export sizing constants for callers assembling a Context or an
// ifaces.ManifestTree without needing to import internal/constants.
const (
	BlockSize           = constants.BlockSize
	MaxArgs             = constants.MaxArgs
	TrimProgressDivisor = constants.TrimProgressDivisor
	MaxMemsetBlocks     = constants.MaxMemsetBlocks
	Blake2b256HexLen    = constants.Blake2b256HexLen
)
