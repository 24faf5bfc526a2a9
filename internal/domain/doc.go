// Package domain contains the core entities and value objects for smlship.
//
// This package is the innermost layer of the application. It has no
// dependencies on infrastructure concerns (network, file system, logging)
// and contains only pure data types and their invariants.
//
// # Entities
//
//   - [Frame]: one line of hex byte tokens from the gateway dump
//   - [Field]: position and length of a tag-length-value field inside a frame
//   - [Reading]: a decoded {timestamp, energy, battery voltage} triple
//   - [Summary]: counters describing one decode run
//   - [State]: persisted watermark for incremental runs
package domain
