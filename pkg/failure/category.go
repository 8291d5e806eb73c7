package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Category is a named group of request failures.
type Category int

const (
	// Unknown marks an error that no category claims.
	Unknown Category = iota
	// Timeout groups failures where an operation ran out of time.
	Timeout
	// Connection groups failures to set up or keep a connection.
	Connection
	// Protocol groups failures where the peer sent something malformed.
	Protocol
)

// Categories lists every classifying category in table order.
var Categories = []Category{Timeout, Connection, Protocol}

// ErrUnknownCategory is returned by ParseCategory for names it does not know.
var ErrUnknownCategory = errors.New("unknown failure category")

// String returns the string representation of the Category.
func (c Category) String() string {
	switch c {
	case Timeout:
		return "Timeout"
	case Connection:
		return "Connection"
	case Protocol:
		return "Protocol"
	default:
		return "Unknown"
	}
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(name string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(name, c.String()) {
			return c, nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// Kind identifies one concrete failure that belongs to a category. Kinds
// are resolved to Go identities through a Registry; a kind whose
// originating package has not provided identities resolves to nothing.
type Kind string

// Timeout kinds.
const (
	KindConnectionTimedOut Kind = "connection-timed-out"
	KindGenericTimeout     Kind = "generic-timeout"
	KindOpenTimeout        Kind = "open-timeout"
	KindReadTimeout        Kind = "read-timeout"
)

// Connection kinds.
const (
	KindUnexpectedEOF      Kind = "unexpected-end-of-stream"
	KindConnectionAborted  Kind = "connection-aborted"
	KindConnectionRefused  Kind = "connection-refused"
	KindConnectionReset    Kind = "connection-reset"
	KindHostUnreachable    Kind = "host-unreachable"
	KindInvalidArgument    Kind = "invalid-argument"
	KindNetworkUnreachable Kind = "network-unreachable"
	KindSocket             Kind = "socket-error"

	// KindTLS only resolves once the tlsfailure package has been loaded.
	KindTLS Kind = "tls-error"
)

// Protocol kinds.
const (
	KindBadResponse  Kind = "bad-response"
	KindHeaderSyntax Kind = "header-syntax-error"
	KindProtocol     Kind = "generic-protocol-error"
	KindGzipDecoding Kind = "gzip-decoding-error"
)

// members is the fixed membership table. Lists are disjoint.
var members = map[Category][]Kind{
	Timeout: {
		KindConnectionTimedOut,
		KindGenericTimeout,
		KindOpenTimeout,
		KindReadTimeout,
	},
	Connection: {
		KindUnexpectedEOF,
		KindConnectionAborted,
		KindConnectionRefused,
		KindConnectionReset,
		KindHostUnreachable,
		KindInvalidArgument,
		KindNetworkUnreachable,
		KindSocket,
		KindTLS,
	},
	Protocol: {
		KindBadResponse,
		KindHeaderSyntax,
		KindProtocol,
		KindGzipDecoding,
	},
}

// Kinds returns the member kinds of c in table order, resolvable or not.
func Kinds(c Category) []Kind {
	return append([]Kind(nil), members[c]...)
}
