package structs

import (
	"fmt"
	"strings"

	"github.com/voidshard/pms/pkg/errors"
)

const (
	// xrootdPrefix marks a destination on the remote object store
	xrootdPrefix = "root://"
)

// Protocol is how a file is moved to or from a job's working area.
//
// Protocols travel on the wire by name, never by ordinal.
type Protocol string

const (
	// LOCAL is a plain filesystem copy
	LOCAL Protocol = "local"

	// XROOTD is a transfer to / from the remote object store
	XROOTD Protocol = "xrootd"
)

// IsValid reports whether p is one of the known protocols.
func (p Protocol) IsValid() bool {
	switch p {
	case LOCAL, XROOTD:
		return true
	default:
		return false
	}
}

// MarshalText refuses to put unknown protocols on the wire.
func (p Protocol) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("%w %q", errors.ErrInvalidProtocol, string(p))
	}
	return []byte(p), nil
}

// UnmarshalText accepts any case of a known protocol name.
func (p *Protocol) UnmarshalText(text []byte) error {
	v := ToProtocol(string(text))
	if v == "" {
		return fmt.Errorf("%w %q", errors.ErrInvalidProtocol, string(text))
	}
	*p = v
	return nil
}

// ToProtocol returns the protocol with the given name, or "" if there is none.
func ToProtocol(s string) Protocol {
	switch strings.ToLower(s) {
	case "local":
		return LOCAL
	case "xrootd":
		return XROOTD
	default:
		return ""
	}
}

// ProtocolFor picks the protocol able to reach the given destination.
func ProtocolFor(destination string) Protocol {
	if strings.HasPrefix(destination, xrootdPrefix) {
		return XROOTD
	}
	return LOCAL
}
