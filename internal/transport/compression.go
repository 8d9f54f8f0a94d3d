package transport

import (
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// Encoding identifies a content-coding supported for negotiation.
type Encoding string

const (
	EncodingBrotli   Encoding = "br"
	EncodingGzip     Encoding = "gzip"
	EncodingDeflate  Encoding = "deflate"
	EncodingIdentity Encoding = "identity"
)

// Compression configures which content-codings the client advertises
// and accepts (§4.5). Order is preference order, most preferred first.
type Compression struct {
	Preferred []Encoding
}

// DefaultCompression advertises brotli, then gzip, then deflate.
func DefaultCompression() Compression {
	return Compression{Preferred: []Encoding{EncodingBrotli, EncodingGzip, EncodingDeflate}}
}

// AcceptEncoding builds the Accept-Encoding header value for the
// configured preference order.
func (c Compression) AcceptEncoding() string {
	if len(c.Preferred) == 0 {
		return string(EncodingIdentity)
	}

	parts := make([]string, len(c.Preferred))
	for i, enc := range c.Preferred {
		parts[i] = string(enc)
	}
	return strings.Join(parts, ", ")
}

// Stats reports byte counts for a single decode operation.
type Stats struct {
	EncodedBytes int64
	DecodedBytes int64
	Encoding     Encoding
}

// countingWriter tallies bytes written to it without buffering.
type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}

// Decode reads body, decoding it per the Content-Encoding header
// value, and returns the decoded bytes plus stats. An unrecognized
// encoding is an error: the caller should surface it as a protocol
// failure rather than silently passing compressed bytes through.
func Decode(contentEncoding string, body io.Reader) ([]byte, Stats, error) {
	enc := Encoding(strings.ToLower(strings.TrimSpace(contentEncoding)))

	counter := &countingWriter{}
	tee := io.TeeReader(body, counter)

	var r io.Reader
	switch enc {
	case "", EncodingIdentity:
		r = tee
	case EncodingGzip:
		gz, err := gzip.NewReader(tee)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("transport: gzip decode: %w", err)
		}
		defer gz.Close()
		r = gz
	case EncodingDeflate:
		fl := flate.NewReader(tee)
		defer fl.Close()
		r = fl
	case EncodingBrotli:
		r = brotli.NewReader(tee)
	default:
		return nil, Stats{}, fmt.Errorf("transport: unsupported content-encoding %q", contentEncoding)
	}

	decoded, err := io.ReadAll(r)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("transport: decode body: %w", err)
	}

	return decoded, Stats{
		EncodedBytes: counter.n,
		DecodedBytes: int64(len(decoded)),
		Encoding:     enc,
	}, nil
}

// Supported reports whether enc is one of the known content-codings.
func Supported(enc Encoding) bool {
	switch enc {
	case EncodingBrotli, EncodingGzip, EncodingDeflate, EncodingIdentity:
		return true
	default:
		return false
	}
}
