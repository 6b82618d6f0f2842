// Package store defines the persistence interfaces for users and tasks, the
// sentinel errors every implementation reports, and the storage-neutral
// TaskQuery that list requests are translated into. Concrete implementations
// live under internal/platform (postgres, mongo).
package store
