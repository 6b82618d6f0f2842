// Package service contains the application use cases. It orchestrates domain
// objects and the storage interfaces from internal/store to fulfil the task
// and account operations exposed by the API.
//
// Services receive their dependencies through constructor injection and never
// depend on a concrete storage backend. They add context to errors with %w so
// the API layer can still match store and domain sentinels with errors.Is.
package service
