package sml

import "github.com/bft-labs/smlship/internal/domain"

// IsTag reports whether b is an integer type-length tag.
func IsTag(b byte) bool {
	hi := b >> 4
	return hi == 0x5 || hi == 0x6
}

// Index scans frame left to right and returns every tagged field in scan order.
// Bytes covered by a field are skipped and never rescanned as tags.
// Declared lengths are not bounds-checked here; see domain.Field.Value.
func Index(frame []byte) []domain.Field {
	var fields []domain.Field
	for i := 0; i < len(frame); i++ {
		if !IsTag(frame[i]) {
			continue
		}
		n := int(frame[i] & 0x0F)
		fields = append(fields, domain.Field{Offset: i, Length: n})
		if n > 1 {
			i += n - 1
		}
	}
	return fields
}
