package http

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// SupportedEncodings is sent as Accept-Encoding when the configured header
// set doesn't carry one.
const SupportedEncodings = "gzip, deflate, zstd"

// decodeBody reverses the codings listed in a Content-Encoding header.
// Codings are applied in listed order, so they are removed back to front.
// Unknown codings leave the body untouched.
func decodeBody(contentEncoding string, body []byte) ([]byte, error) {
	if len(body) == 0 {
		return body, nil
	}
	codings := strings.Split(strings.ToLower(contentEncoding), ",")
	for i := len(codings) - 1; i >= 0; i-- {
		var err error
		body, err = decodeOne(strings.TrimSpace(codings[i]), body)
		if err != nil {
			return nil, err
		}
	}
	return body, nil
}

func decodeOne(coding string, data []byte) ([]byte, error) {
	switch coding {
	case "gzip", "x-gzip":
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case "deflate":
		// Servers disagree on whether deflate means zlib-wrapped or raw.
		if r, err := zlib.NewReader(bytes.NewReader(data)); err == nil {
			defer r.Close()
			return io.ReadAll(r)
		}
		r := flate.NewReader(bytes.NewReader(data))
		defer r.Close()
		return io.ReadAll(r)
	case "zstd":
		d, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer d.Close()
		return d.DecodeAll(data, nil)
	}
	return data, nil
}
