package checkpoint

import "errors"

// Errors returned while reading or restoring a checkpoint.
var (
	ErrInvalidMagic       = errors.New("checkpoint: invalid magic bytes")
	ErrUnsupportedVersion = errors.New("checkpoint: unsupported format version")
	ErrHeaderTooLarge     = errors.New("checkpoint: header exceeds maximum size")
	ErrChecksumMismatch   = errors.New("checkpoint: checksum mismatch, file may be corrupted")
	ErrCorrupt            = errors.New("checkpoint: data section does not match header")
	ErrParamMismatch      = errors.New("checkpoint: parameters do not match")
	ErrOptimizerMismatch  = errors.New("checkpoint: optimizer does not match")
)
