package service

import "errors"

// ErrMissingTaskID indicates the store accepted an insert but reported no
// generated identifier. The API layer maps it to 500.
var ErrMissingTaskID = errors.New("task store returned no identifier")
