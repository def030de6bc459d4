// Package checkpoint saves and restores trained parameter values together
// with optimizer running state.
//
// # File layout
//
// All integers are little-endian.
//
//	0x00  magic "DAGR"
//	0x04  uint32 format version
//	0x08  uint32 flags (bit 0: optimizer state present)
//	0x0C  uint32 reserved
//	0x10  uint64 JSON header size
//	0x18  uint64 data section size
//	0x20  [32]byte SHA-256 of the data section
//	0x40  JSON header, zero padded to a 64-byte boundary
//	...   data section: float64 per parameter, then float64 per state key
//
// The JSON header lists parameter names and optimizer state keys in data
// section order.
package checkpoint
