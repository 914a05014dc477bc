package protocol

import "errors"

// Decode errors. ErrPartial is not a failure — it tells the caller to read
// more bytes from the socket and retry the same buffer, matching spec.md
// §4.1's "Partial returns leave the buffer unadvanced" contract.
var (
	ErrPartial        = errors.New("protocol: incomplete frame")
	ErrInvalidPrefix  = errors.New("protocol: invalid type prefix")
	ErrInvalidLength  = errors.New("protocol: invalid length")
	ErrInvalidBoolean = errors.New("protocol: invalid boolean")
	ErrInvalidNumber  = errors.New("protocol: invalid number")
	ErrMissingNewline = errors.New("protocol: missing CRLF terminator")
)
