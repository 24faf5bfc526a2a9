package fs

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bft-labs/smlship/internal/domain"
)

// HexToBinary converts a hex dump (whitespace-separated byte tokens, one
// frame per line) into the raw bytes it describes. It returns the number of
// bytes written.
func HexToBinary(r io.Reader, w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	sc := bufio.NewScanner(r)

	var total int64
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(string(domain.CleanChunk(sc.Bytes())))
		if line == "EOT" {
			continue
		}
		for i, tok := range strings.Fields(line) {
			b, err := domain.ParseToken(tok)
			if err != nil {
				return total, fmt.Errorf("line %d token %d: %w", lineNo, i+1, err)
			}
			if err := bw.WriteByte(b); err != nil {
				return total, err
			}
			total++
		}
	}
	if err := sc.Err(); err != nil {
		return total, err
	}
	return total, bw.Flush()
}
