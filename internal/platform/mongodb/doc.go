// Package mongodb implements the store interfaces on MongoDB with the official
// Go driver. Identifiers are ObjectIDs exchanged as hex strings, and a task is
// stored as a single flat document in which caller-defined fields sit beside
// owner, status and the timestamps.
package mongodb
