// Package logging configures log/slog for satchel.
//
// It provides a console handler for interactive use, a JSON handler for log
// files and machine consumption, typed attribute helpers, and the shared
// field-name constants used across the pipeline so log output stays
// greppable (component, record_id, provider, event_type).
package logging
