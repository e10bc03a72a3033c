// Package config defines the configuration surface for a check run: CLI-level
// options, the YAML config file with per-site overrides, validation, and the
// XDG directory helpers.
//
// Configuration is resolved once at startup (flags over file values over
// defaults) and then passed by injection. Per-site blocks are keyed by hostname
// and merged over the defaults block field by field.
package config
