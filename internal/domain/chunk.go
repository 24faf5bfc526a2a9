package domain

import "bytes"

var (
	crlf          = []byte("\r\n")
	lf            = []byte("\n")
	keepAliveByte = []byte{0x05}
	eotMarker     = []byte("EOT")
)

// CleanChunk normalises CRLF line endings and strips the 0x05 keep-alive
// filler the gateway interleaves with data. The input is not modified.
func CleanChunk(b []byte) []byte {
	out := bytes.ReplaceAll(b, crlf, lf)
	return bytes.ReplaceAll(out, keepAliveByte, nil)
}

// HasEOT reports whether a cleaned chunk ends with the end-of-transmission marker.
func HasEOT(cleaned []byte) bool {
	return bytes.HasSuffix(cleaned, eotMarker)
}
