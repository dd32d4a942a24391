// Package constants holds the sizing and layout constants shared across the
// dispatcher, its actions, and the supporting codecs.
package constants

// BlockSize is the addressing unit for all destination offsets, per the
// on-disk layout the dispatcher writes against.
const BlockSize = 512

// MaxArgs is the largest argv an action can take. 8 is enough for every
// built-in (the widest, such as raw_memset and fat_attrib, take 3
// arguments after the action name).
const MaxArgs = 8

// TrimProgressDivisor implements the "1 unit per 128KiB" trim heuristic:
// 256 blocks of BlockSize bytes each is 128KiB.
const TrimProgressDivisor = 256

// MaxMemsetBlocks bounds raw_memset's block count so count*BlockSize never
// overflows an int32 byte count.
const MaxMemsetBlocks = (1<<31 - 1) / BlockSize

// Blake2b256HexLen is the length of a lowercase-hex-encoded BLAKE2b-256
// digest: 32 bytes, two hex characters each.
const Blake2b256HexLen = 64
