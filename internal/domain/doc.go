// Package domain contains the core business entities of Taskly (users and
// tasks) together with their validation rules and sentinel errors. It knows
// nothing about HTTP or storage; identifiers are opaque strings assigned by
// whichever store persists the entity.
package domain
