package checkpoint

import (
	"crypto/sha256"
	"time"
)

// Format constants.
const (
	MagicBytes      = "DAGR"
	FormatVersion   = 1
	FixedHeaderSize = 64   // 0x40
	HeaderAlignment = 64   // data section starts on this boundary
	ChecksumOffset  = 0x20 // SHA-256 of the data section
	ChecksumSize    = 32

	maxHeaderSize = 16 << 20
)

// FlagHasOptimizer marks a file carrying optimizer state.
const FlagHasOptimizer uint32 = 1 << 0

// Version is written into every header.
const Version = "0.1.0"

// Header is the JSON header of a checkpoint file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	DagradVersion string            `json:"dagrad_version"`
	CreatedAt     time.Time         `json:"created_at"`
	Params        []string          `json:"params"`
	Optimizer     *OptimizerMeta    `json:"optimizer,omitempty"`
	Metadata      map[string]string `json:"metadata"`
}

// OptimizerMeta describes the optimizer whose state follows the parameters.
type OptimizerMeta struct {
	Name  string   `json:"name"`
	LR    float64  `json:"lr"`
	State []string `json:"state"`
}

// computeChecksum computes the SHA-256 checksum of data.
func computeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// padding returns the zero bytes needed after a header of size n.
func padding(n int64) int64 {
	pos := int64(FixedHeaderSize) + n
	return (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment
}
