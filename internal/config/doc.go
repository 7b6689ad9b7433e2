// Package config loads application configuration from environment variables
// (prefix CHIP) merged over an optional YAML file, and centralizes all file
// system paths. Paths are always resolved relative to the executable
// directory, never the current working directory, so the tools behave the
// same no matter where they are launched from.
package config
