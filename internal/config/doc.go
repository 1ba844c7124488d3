// Package config defines the controller's configuration table and loads
// optional YAML overrides on top of the compiled-in defaults.
//
// Durations are written as Go duration strings ("2s", "500ms"). Every
// interval must fit the millisecond tick counter, so values above 24h are
// rejected.
package config
