// Package tlsfailure provides the tls-error kind of the Connection
// category. Importing it is not enough; call Load, then rebind Connection,
// or call Enable to do both.
package tlsfailure

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"reqfail/pkg/failure"
)

var (
	once   sync.Once
	loaded atomic.Bool
)

// Identities returns the crypto/tls and crypto/x509 failures that count as
// tls-error.
func Identities() []failure.Identity {
	return []failure.Identity{
		failure.TypeOf(tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"}),
		failure.TypeOf(&tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"}),
		failure.TypeOf(tls.AlertError(40)),
		failure.TypeOf(&tls.CertificateVerificationError{Err: x509.UnknownAuthorityError{}}),
		failure.TypeOf(x509.UnknownAuthorityError{}),
		failure.TypeOf(x509.HostnameError{Certificate: &x509.Certificate{DNSNames: []string{"example.org"}}, Host: "example.com"}),
		failure.TypeOf(x509.CertificateInvalidError{Reason: x509.Expired}),
		failure.Variant(&net.OpError{Op: "remote error", Err: errors.New("tls: bad certificate")}, "remote-error", isRemoteError),
	}
}

func isRemoteError(err error) bool {
	return err.(*net.OpError).Op == "remote error"
}

// Load provides the tls-error identities to the default registry. Repeated
// calls do nothing.
func Load() {
	once.Do(func() {
		failure.Provide(failure.KindTLS, Identities()...)
		loaded.Store(true)
	})
}

// Loaded reports whether Load has run.
func Loaded() bool { return loaded.Load() }

// Enable loads the identities and rebinds Connection.
func Enable() {
	Load()
	failure.BindCategory(failure.Connection)
}
