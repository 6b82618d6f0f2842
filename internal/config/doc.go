// Package config handles configuration loading, parsing, and validation
// from defaults, an optional YAML file, a .env file and TASKLY_* environment
// variables. It provides type-safe access to the settings the server, storage
// and auth layers need while keeping those details out of business logic.
package config
