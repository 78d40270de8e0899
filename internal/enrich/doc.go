// Package enrich defines the enrichment provider contract and the
// fan-out/fan-in machinery the pipeline uses to run providers.
//
// Providers are independent and optional: each is invoked concurrently
// with its own timeout, a failing or absent provider only leaves fields
// empty, and results merge in declared priority order so the outcome never
// depends on completion order. Higher-priority data wins; lower-priority
// results may only fill fields a higher-priority result left empty.
package enrich
