package voice

import (
	"errors"
	"fmt"
)

// IntegrityError reports a payload whose trailing checksum is missing or does
// not match its contents. Such packets are always dropped.
type IntegrityError struct {
	Bits     int
	Checksum uint32
	Computed uint32
}

func (e *IntegrityError) Error() string {
	if e.Bits < checksumBits {
		return fmt.Sprintf("voice payload of %d bits is too short to carry a checksum", e.Bits)
	}
	return fmt.Sprintf("voice payload checksum mismatch: payload carries %08x, computed %08x", e.Checksum, e.Computed)
}

var _ error = (*IntegrityError)(nil)

// ProtocolViolation reports a payload that passed the checksum but does not
// follow the voice payload layout.
type ProtocolViolation struct {
	SpeakerID uint64
	Reason    string
}

func (e *ProtocolViolation) Error() string {
	if e.SpeakerID == 0 {
		return "voice protocol violation: " + e.Reason
	}
	return fmt.Sprintf("voice protocol violation from speaker %d: %s", e.SpeakerID, e.Reason)
}

var _ error = (*ProtocolViolation)(nil)

// DecodeFailure reports an error returned by a speaker's Opus decoder.
type DecodeFailure struct {
	SpeakerID uint64
	Frame     uint16
	Tick      uint32
	Concealed bool
	Err       error
}

func (e *DecodeFailure) Error() string {
	op := "decode"
	if e.Concealed {
		op = "conceal"
	}
	return fmt.Sprintf("failed to %s frame %d of speaker %d at tick %d: %v", op, e.Frame, e.SpeakerID, e.Tick, e.Err)
}

func (e *DecodeFailure) Unwrap() error {
	return e.Err
}

var _ error = (*DecodeFailure)(nil)

// ProtocolPolicy selects what happens to a packet that violates the payload
// layout.
type ProtocolPolicy string

const (
	// ProtocolAbort stops the whole run.
	ProtocolAbort ProtocolPolicy = "abort"
	// ProtocolSkip drops the packet and continues.
	ProtocolSkip ProtocolPolicy = "skip"
)

// DecodePolicy selects what happens when a speaker's decoder fails.
type DecodePolicy string

const (
	// DecodeIsolate stops decoding for the failing speaker only. Its audio up
	// to the failure is kept.
	DecodeIsolate DecodePolicy = "isolate"
	// DecodeAbort stops the whole run.
	DecodeAbort DecodePolicy = "abort"
)

// Policy decides which errors a run survives.
type Policy struct {
	Protocol ProtocolPolicy
	Decode   DecodePolicy
}

// DefaultPolicy aborts on protocol violations and isolates decode failures.
var DefaultPolicy = Policy{Protocol: ProtocolAbort, Decode: DecodeIsolate}

// ParseProtocolPolicy validates a protocol policy name.
func ParseProtocolPolicy(s string) (ProtocolPolicy, error) {
	switch p := ProtocolPolicy(s); p {
	case ProtocolAbort, ProtocolSkip:
		return p, nil
	default:
		return "", fmt.Errorf("unknown protocol policy %q: expected %q or %q", s, ProtocolAbort, ProtocolSkip)
	}
}

// ParseDecodePolicy validates a decode policy name.
func ParseDecodePolicy(s string) (DecodePolicy, error) {
	switch p := DecodePolicy(s); p {
	case DecodeIsolate, DecodeAbort:
		return p, nil
	default:
		return "", fmt.Errorf("unknown decode policy %q: expected %q or %q", s, DecodeIsolate, DecodeAbort)
	}
}

// IsRecoverable reports whether the run may continue after err. Integrity
// errors are always recoverable; anything that is not one of the package's
// error types never is.
func (p Policy) IsRecoverable(err error) bool {
	var integrity *IntegrityError
	var violation *ProtocolViolation
	var failure *DecodeFailure

	switch {
	case errors.As(err, &integrity):
		return true
	case errors.As(err, &violation):
		return p.Protocol == ProtocolSkip
	case errors.As(err, &failure):
		return p.Decode == DecodeIsolate
	default:
		return false
	}
}
