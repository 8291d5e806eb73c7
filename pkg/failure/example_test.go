package failure_test

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"

	"reqfail/pkg/failure"
)

// Example_granularities shows the three ways to match one failure.
func Example_granularities() {
	raw := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	err := failure.Wrap(raw)

	fmt.Println("any:", errors.Is(err, failure.ErrAny))
	fmt.Println("connection:", errors.Is(err, failure.ErrConnection))
	fmt.Println("timeout:", errors.Is(err, failure.ErrTimeout))
	fmt.Println("exact:", errors.Is(err, syscall.ECONNREFUSED))

	// Output:
	// any: true
	// connection: true
	// timeout: false
	// exact: true
}

// Example_classify shows introspection of a raw error.
func Example_classify() {
	c, k := failure.Classify(&net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded})
	fmt.Println(c, k)

	// Output:
	// Timeout read-timeout
}

// Example_kinds lists the members of a category.
func Example_kinds() {
	for _, k := range failure.Kinds(failure.Protocol) {
		fmt.Println(k)
	}

	// Output:
	// bad-response
	// header-syntax-error
	// generic-protocol-error
	// gzip-decoding-error
}
