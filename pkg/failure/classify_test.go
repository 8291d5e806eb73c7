package failure_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"net/url"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reqfail/pkg/failure"
)

func refused() error {
	return &url.Error{
		Op:  "Get",
		URL: "http://127.0.0.1:1",
		Err: &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category failure.Category
		kind     failure.Kind
	}{
		{"nil", nil, failure.Unknown, ""},
		{"plain error", errors.New("boom"), failure.Unknown, ""},
		{"connection refused", refused(), failure.Connection, failure.KindConnectionRefused},
		{"connection reset on read", &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET)}, failure.Connection, failure.KindConnectionReset},
		{"read timed out", &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded}, failure.Timeout, failure.KindReadTimeout},
		{"dial timed out", &net.OpError{Op: "dial", Net: "tcp", Err: os.ErrDeadlineExceeded}, failure.Timeout, failure.KindOpenTimeout},
		{"dial failed without timeout", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("nope")}, failure.Unknown, ""},
		{"context deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), failure.Timeout, failure.KindGenericTimeout},
		{"context canceled", context.Canceled, failure.Unknown, ""},
		{"os level timeout", os.NewSyscallError("connect", syscall.ETIMEDOUT), failure.Timeout, failure.KindConnectionTimedOut},
		{"unexpected eof", fmt.Errorf("read body: %w", io.ErrUnexpectedEOF), failure.Connection, failure.KindUnexpectedEOF},
		{"dns", &net.DNSError{Err: "no such host", Name: "nowhere.invalid", IsNotFound: true}, failure.Connection, failure.KindSocket},
		{"malformed status line", errors.New(`malformed HTTP status code "abc"`), failure.Protocol, failure.KindBadResponse},
		{"malformed header", textproto.ProtocolError("malformed MIME header line: nope"), failure.Protocol, failure.KindHeaderSyntax},
		{"other textproto violation", textproto.ProtocolError("short response: 2"), failure.Protocol, failure.KindProtocol},
		{"joined", errors.Join(errors.New("first"), syscall.EHOSTUNREACH), failure.Connection, failure.KindHostUnreachable},
		{"already classified", &failure.Error{Category: failure.Protocol, Kind: failure.KindBadResponse, Err: io.EOF}, failure.Protocol, failure.KindBadResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, k := failure.Classify(tt.err)
			assert.Equal(t, tt.category, c)
			assert.Equal(t, tt.kind, k)
			assert.Equal(t, tt.category, failure.CategoryOf(tt.err))
		})
	}
}

func TestConnectionRefused(t *testing.T) {
	err := refused()

	assert.True(t, failure.Is(err, failure.ErrConnection))
	assert.True(t, failure.Is(err, failure.ErrAny))
	assert.False(t, failure.Is(err, failure.ErrTimeout))
	assert.False(t, failure.Is(err, failure.ErrProtocol))

	wrapped := failure.Wrap(err)
	assert.ErrorIs(t, wrapped, failure.ErrConnection)
	assert.ErrorIs(t, wrapped, failure.ErrAny)
	assert.NotErrorIs(t, wrapped, failure.ErrTimeout)
	assert.NotErrorIs(t, wrapped, failure.ErrProtocol)
	assert.ErrorIs(t, wrapped, syscall.ECONNREFUSED)

	var opErr *net.OpError
	require.ErrorAs(t, wrapped, &opErr)
	assert.Equal(t, "dial", opErr.Op)
	assert.Equal(t, err.Error(), wrapped.Error())
}

func TestReadTimedOut(t *testing.T) {
	err := &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded}

	assert.True(t, failure.Is(err, failure.ErrTimeout))
	assert.True(t, failure.Is(err, failure.ErrAny))
	assert.False(t, failure.Is(err, failure.ErrConnection))

	wrapped := failure.Wrap(err)
	assert.ErrorIs(t, wrapped, failure.ErrTimeout)
	assert.ErrorIs(t, wrapped, os.ErrDeadlineExceeded)
	assert.NotErrorIs(t, wrapped, failure.ErrConnection)
}

func TestClassify_RealSockets(t *testing.T) {
	t.Run("refused dial", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := ln.Addr().String()
		require.NoError(t, ln.Close())

		_, err = net.DialTimeout("tcp", addr, time.Second)
		require.Error(t, err)
		assert.True(t, failure.Is(err, failure.ErrConnection), "%v", err)
		assert.False(t, failure.Is(err, failure.ErrTimeout))
	})

	t.Run("read deadline", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer ln.Close()
		go func() {
			c, err := ln.Accept()
			if err == nil {
				time.Sleep(time.Second)
				c.Close()
			}
		}()

		conn, err := net.Dial("tcp", ln.Addr().String())
		require.NoError(t, err)
		defer conn.Close()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(50*time.Millisecond)))

		_, err = conn.Read(make([]byte, 1))
		require.Error(t, err)
		c, k := failure.Classify(err)
		assert.Equal(t, failure.Timeout, c)
		assert.Equal(t, failure.KindReadTimeout, k)
	})

	t.Run("corrupt gzip", func(t *testing.T) {
		_, err := gzip.NewReader(bytes.NewReader([]byte("definitely not gzip")))
		require.Error(t, err)
		assert.True(t, failure.Is(err, failure.ErrProtocol))
	})
}

func TestWrap(t *testing.T) {
	assert.Nil(t, failure.Wrap(nil))

	once := failure.Wrap(refused())
	twice := failure.Wrap(once)
	assert.Same(t, once, twice)

	var fe *failure.Error
	require.ErrorAs(t, once, &fe)
	assert.Equal(t, failure.Connection, fe.Category)
	assert.Equal(t, failure.KindConnectionRefused, fe.Kind)

	outer := fmt.Errorf("sync: %w", once)
	assert.Same(t, outer, failure.Wrap(outer))
}

func TestWrapf(t *testing.T) {
	assert.Nil(t, failure.Wrapf(nil, "ignored %d", 1))

	err := failure.Wrapf(syscall.ECONNRESET, "fetch %s", "http://example.org")
	assert.Equal(t, "fetch http://example.org: "+syscall.ECONNRESET.Error(), err.Error())
	assert.ErrorIs(t, err, failure.ErrConnection)
	assert.ErrorIs(t, err, syscall.ECONNRESET)

	plain := failure.Wrapf(errors.New("boom"), "step")
	assert.Equal(t, "step: boom", plain.Error())
	assert.NotErrorIs(t, plain, failure.ErrAny)
}

func TestMarkers(t *testing.T) {
	for _, c := range failure.Categories {
		m := failure.SentinelOf(c)
		assert.Equal(t, c, m.Category())
		assert.ErrorIs(t, m, failure.ErrAny, "every category is a request failure")
	}
	assert.Same(t, failure.ErrAny, failure.SentinelOf(failure.Unknown))
	assert.NotErrorIs(t, failure.ErrTimeout, failure.ErrConnection)
	assert.False(t, failure.Is(syscall.ECONNRESET, nil))
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    failure.Category
		wantErr bool
	}{
		{"Timeout", failure.Timeout, false},
		{"connection", failure.Connection, false},
		{"PROTOCOL", failure.Protocol, false},
		{"unknown", failure.Unknown, true},
		{"", failure.Unknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := failure.ParseCategory(tt.in)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.ErrorIs(t, err, failure.ErrUnknownCategory)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.Equal(t, "Unknown", failure.Category(42).String())
}
