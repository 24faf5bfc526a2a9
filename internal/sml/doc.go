// Package sml locates and decodes the fields of the three frame kinds the
// meter head forwards: a timestamp frame, a power frame and a battery frame.
//
// The frames are fragments of SML (Smart Message Language) lists. Instead of
// a full schema parser, fields are found positionally: a byte whose high
// nibble is 5 (signed integer) or 6 (unsigned integer) is a type-length tag
// whose low nibble is the field length including the tag itself.
package sml
