// Package failure classifies the errors an outbound request can fail with.
//
// The errors come from net, os, syscall, io, net/http, net/textproto,
// compress/gzip and, optionally, crypto/tls. They share no common type and
// cannot be edited, so membership is recorded after the fact: a Registry
// resolves each failure Kind to Go identities (sentinel values or dynamic
// types) and binds them into an index keyed by type identity.
//
// # Three granularities
//
// Any request failure:
//
//	if failure.Is(err, failure.ErrAny) {
//	    // retry later, report, ...
//	}
//
// One category:
//
//	if failure.Is(err, failure.ErrTimeout) {
//	    // raise the deadline
//	}
//
// The exact failure, with the standard library as usual:
//
//	if errors.Is(err, syscall.ECONNREFUSED) {
//	    // nobody listens
//	}
//
// # Categories
//
//	Category   | Kinds
//	-----------|---------------------------------------------------------
//	Timeout    | connection-timed-out, generic-timeout, open-timeout,
//	           | read-timeout
//	Connection | unexpected-end-of-stream, connection-aborted,
//	           | connection-refused, connection-reset, host-unreachable,
//	           | invalid-argument, network-unreachable, socket-error,
//	           | tls-error (once tlsfailure is loaded)
//	Protocol   | bad-response, header-syntax-error, generic-protocol-error,
//	           | gzip-decoding-error
//
// # Wrapping at the boundary
//
// errors.Is only consults the error being inspected, never the target, so
// a raw *net.OpError can not answer errors.Is(err, ErrTimeout). Code that
// issues requests should pass failures through Wrap:
//
//	resp, err := hc.Do(req)
//	if err != nil {
//	    return nil, failure.Wrap(err)
//	}
//
// after which errors.Is(err, failure.ErrConnection) works and errors.As
// still finds the *net.OpError underneath. Is and Marker.Match work on
// raw errors as well.
//
// # Binding
//
// The default registry binds every category at init. Kinds provided later,
// like tls-error, need another BindCategory call:
//
//	tlsfailure.Load()
//	failure.BindCategory(failure.Connection)
//
// Binding never fails: kinds that can not be resolved are skipped and
// identities that are already bound stay as they are.
package failure
