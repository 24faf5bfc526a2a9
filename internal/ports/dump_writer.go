package ports

import "io"

// DumpWriter persists the raw cleaned hex stream exactly as received.
// Close commits the dump; Abort drops what was written and leaves any
// previously committed dump in place.
type DumpWriter interface {
	io.WriteCloser
	Abort() error
}
