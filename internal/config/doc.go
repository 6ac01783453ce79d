// Package config loads, normalizes, and validates subsail settings.
//
// Settings live in a TOML file (default ~/.config/subsail/config.toml). A
// missing file is not an error: defaults apply. The engine never reads the
// file itself; callers turn a Config into subtitle.Options with
// EngineOptions.
package config
