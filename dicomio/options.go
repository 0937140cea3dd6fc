// Package dicomio implements the zero-copy, byte-oriented stream cursor
// (spec §4.D) used by the file reader/writer and the DIMSE command-set
// codec. It never heap-allocates beyond the caller-provided window except
// where explicitly promoting a value to owned storage.
package dicomio

import "github.com/go-playground/validator/v10"

// PreambleMode controls Part-10 preamble enforcement (spec §6).
type PreambleMode int

const (
	PreambleRequire PreambleMode = iota
	PreambleOptional
	PreambleIgnore
)

// FileMetaMode controls File Meta Information enforcement (spec §6).
type FileMetaMode int

const (
	FileMetaRequire FileMetaMode = iota
	FileMetaOptional
	FileMetaIgnore
)

// InvalidVRPolicy controls the action taken on an unrecognised VR code
// (spec §6).
type InvalidVRPolicy int

const (
	InvalidVRThrow InvalidVRPolicy = iota
	InvalidVRMapToUN
	InvalidVRPreserve
)

// DeflateMode controls zlib wrapping for the deflated transfer syntax
// (spec §6).
type DeflateMode int

const (
	DeflateAuto DeflateMode = iota
	DeflateOn
	DeflateOff
)

// Options is the configuration surface of spec §6, validated with
// struct tags the way codeninja55/go-radx validates its flat config
// structs — a hand-rolled field walker would just reimplement what the
// validator already does for a struct this shape.
type Options struct {
	Preamble          PreambleMode
	FileMeta          FileMetaMode
	InvalidVR         InvalidVRPolicy
	MaxLength         uint32 `validate:"omitempty"`
	MaxSequenceDepth  uint32 `validate:"required,min=1,max=1024"`
	Deflate           DeflateMode
}

// DefaultOptions returns the options used when a caller supplies none:
// strict preamble/FMI handling, unknown VR mapped to UN, 32-deep sequence
// cap, auto deflate detection.
func DefaultOptions() Options {
	return Options{
		Preamble:         PreambleRequire,
		FileMeta:         FileMetaRequire,
		InvalidVR:        InvalidVRMapToUN,
		MaxSequenceDepth: 32,
		Deflate:          DeflateAuto,
	}
}

var validate = validator.New()

// Validate checks the struct-tag constraints on Options (spec §6's
// configuration surface).
func (o Options) Validate() error {
	return validate.Struct(o)
}
