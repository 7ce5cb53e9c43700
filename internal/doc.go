// Package forecastd normalizes third-party forecast sensor payloads
// into canonical time series.
//
// # Architecture
//
// The service is structured into several key packages:
//   - forecast: format detection and parsing for the provider payloads
//   - loader: resampling, live readings, and forecast/live composition
//   - units: base-unit normalization
//   - states: sensor state snapshot access (in-memory store)
//   - database: Postgres-backed state store
//   - ingest: Home Assistant state ingestion
//   - api: HTTP surface and middleware
//   - scheduler: periodic ingestion
//   - models: shared data structures
//
// Key Features
//
//   - Format Detection:
//     Each provider payload is recognized structurally; ambiguous
//     payloads are rejected rather than guessed.
//
//   - Resampling:
//     Parsed series are normalized to base units and linearly
//     interpolated onto arbitrary caller-supplied time grids.
//
//   - Composition:
//     A live sensor reading can replace the first sample of a
//     forecast series so output starts from measured reality.
//
// For more information about specific packages, see their respective
// documentation.
package forecastd
