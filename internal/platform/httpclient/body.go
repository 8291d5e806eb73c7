package httpclient

import (
	"compress/gzip"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"reqfail/pkg/failure"
)

// ErrResponseTooLarge indicates a response body above the client's limit.
var ErrResponseTooLarge = errors.New("http: response body too large")

// ReadBody reads and closes resp.Body, decoding gzip when the server sent
// it. Errors while reading are classified like request errors, so a
// corrupt gzip stream is a Protocol failure and a connection dropped
// mid-body is a Connection failure. An empty gzip-encoded body, as sent
// with 204 and 304, reads as empty.
func (c *Client) ReadBody(resp *stdhttp.Response) ([]byte, error) {
	defer resp.Body.Close()

	var src io.Reader = resp.Body
	if gzipEncoded(resp) {
		zr, err := gzip.NewReader(resp.Body)
		if err == io.EOF {
			return []byte{}, nil
		}
		if err != nil {
			return nil, failure.Wrap(err)
		}
		defer zr.Close()
		src = zr
	}
	if c.maxResponseBody > 0 {
		src = io.LimitReader(src, c.maxResponseBody+1)
	}

	body, err := io.ReadAll(src)
	if err != nil {
		return nil, failure.Wrap(err)
	}
	if c.maxResponseBody > 0 && int64(len(body)) > c.maxResponseBody {
		return nil, ErrResponseTooLarge
	}
	return body, nil
}

func gzipEncoded(resp *stdhttp.Response) bool {
	if resp.Uncompressed || resp.Body == stdhttp.NoBody || resp.ContentLength == 0 {
		return false
	}
	return strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip")
}
