package failure

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"syscall"
)

// stdCatalog resolves every kind whose identities live in packages this
// package already links. KindTLS is deliberately absent.
func stdCatalog() map[Kind][]Identity {
	return map[Kind][]Identity{
		KindConnectionTimedOut: {Sentinel("syscall.ETIMEDOUT", syscall.ETIMEDOUT)},
		KindGenericTimeout:     {Sentinel("context.DeadlineExceeded", context.DeadlineExceeded)},
		KindOpenTimeout: {
			Variant(&net.OpError{Op: "dial", Net: "tcp", Err: os.ErrDeadlineExceeded}, "dial-timeout", isDialTimeout),
		},
		KindReadTimeout: {Sentinel("os.ErrDeadlineExceeded", os.ErrDeadlineExceeded)},

		KindUnexpectedEOF: {
			Sentinel("io.EOF", io.EOF),
			Sentinel("io.ErrUnexpectedEOF", io.ErrUnexpectedEOF),
		},
		KindConnectionAborted:  {Sentinel("syscall.ECONNABORTED", syscall.ECONNABORTED)},
		KindConnectionRefused:  {Sentinel("syscall.ECONNREFUSED", syscall.ECONNREFUSED)},
		KindConnectionReset:    {Sentinel("syscall.ECONNRESET", syscall.ECONNRESET)},
		KindHostUnreachable:    {Sentinel("syscall.EHOSTUNREACH", syscall.EHOSTUNREACH)},
		KindInvalidArgument:    {Sentinel("syscall.EINVAL", syscall.EINVAL)},
		KindNetworkUnreachable: {Sentinel("syscall.ENETUNREACH", syscall.ENETUNREACH)},
		KindSocket: {
			TypeOf(&net.DNSError{Err: "no such host", Name: "example.invalid", IsNotFound: true}),
			TypeOf(&net.AddrError{Err: "missing port in address", Addr: "example.invalid"}),
		},

		// net/http reports malformed status lines with plain errors.New
		// values, so the message prefix is the only discriminant.
		KindBadResponse: {
			Sentinel("http.ErrSchemeMismatch", http.ErrSchemeMismatch),
			Variant(errors.New(`malformed HTTP response "SSH-2.0"`), "malformed-http", hasPrefix("malformed HTTP ")),
		},
		KindHeaderSyntax: {
			Variant(textproto.ProtocolError("malformed MIME header line: :"), "malformed-header", hasPrefix("malformed MIME header")),
		},
		KindProtocol: {
			TypeOf(textproto.ProtocolError("short response: 1")),
			TypeOf(&http.ProtocolError{ErrorString: "unexpected trailer"}),
		},
		KindGzipDecoding: {
			Sentinel("gzip.ErrHeader", gzip.ErrHeader),
			Sentinel("gzip.ErrChecksum", gzip.ErrChecksum),
			TypeOf(flate.CorruptInputError(0)),
		},
	}
}

func isDialTimeout(err error) bool {
	oe := err.(*net.OpError)
	return oe.Op == "dial" && oe.Timeout()
}

func hasPrefix(prefix string) func(error) bool {
	return func(err error) bool {
		return strings.HasPrefix(err.Error(), prefix)
	}
}
