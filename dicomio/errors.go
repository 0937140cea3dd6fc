package dicomio

import "errors"

var (
	ErrTruncated           = errors.New("dicomio: truncated read, value length exceeds remaining window")
	ErrInvalidVR           = errors.New("dicomio: invalid value representation")
	ErrLengthLimitExceeded = errors.New("dicomio: element length exceeds configured max_length")
)
