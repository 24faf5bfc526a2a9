package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// DumpFile writes the raw hex stream to disk as it is received.
// Data goes to a temporary file that replaces the target on Close.
// Abort removes the temporary file and keeps the previous dump.
type DumpFile struct {
	path string
	tmp  *os.File
	w    *bufio.Writer
}

// CreateDumpFile opens a dump for writing at path.
func CreateDumpFile(path string) (*DumpFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("dump dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, fmt.Errorf("create dump: %w", err)
	}
	return &DumpFile{path: path, tmp: tmp, w: bufio.NewWriter(tmp)}, nil
}

// Write appends raw bytes to the dump.
func (d *DumpFile) Write(p []byte) (int, error) {
	return d.w.Write(p)
}

// Close flushes the dump and moves it into place.
func (d *DumpFile) Close() error {
	if d.tmp == nil {
		return nil
	}
	tmp := d.tmp
	d.tmp = nil

	if err := d.w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("flush dump: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close dump: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), d.path)
}

// Abort discards everything written so far.
func (d *DumpFile) Abort() error {
	if d.tmp == nil {
		return nil
	}
	tmp := d.tmp
	d.tmp = nil

	tmp.Close()
	if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove partial dump: %w", err)
	}
	return nil
}

// Path returns the final dump path.
func (d *DumpFile) Path() string {
	return d.path
}
