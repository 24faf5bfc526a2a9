// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// Ports are the boundaries between the decoding core and the outside world.
// They define what the application needs from external systems without
// specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [ChunkSource]: pulls cleaned chunks of the hex stream (gateway, file, serial)
//   - [ReadingSink]: receives decoded readings (CSV, InfluxDB, SQLite)
//   - [DumpWriter]: persists the raw hex stream as received
//   - [StateRepository]: persists the incremental watermark
//   - [Logger]: structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them.
package ports
