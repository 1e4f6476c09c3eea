// Package config provides configuration structures and utilities for rtps.
// It defines the runtime options of the engine and its server, the optional
// YAML configuration file, environment overrides, and validation of the
// user-tunable engine settings.
package config
