// Package config loads and validates satchel's TOML configuration.
//
// Configuration covers the shared queue directory, the library database,
// enrichment pipeline tuning (provider timeouts, merge tolerances), the
// link-wrapping secret, logging, and notifications. Load applies defaults,
// expands ~ in paths, and validates the result so the rest of the program
// can treat the Config as trusted input.
package config
