package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Reserved task keys. Everything else in a task document is a caller field.
const (
	FieldID        = "_id"
	FieldOwner     = "owner"
	FieldStatus    = "status"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// IsReservedField reports whether name is managed by the server rather than the caller.
func IsReservedField(name string) bool {
	switch name {
	case FieldID, FieldOwner, FieldStatus, FieldCreatedAt, FieldUpdatedAt:
		return true
	}
	return false
}

// Task is a single to-do record. Besides the fixed fields a task carries any
// number of caller-defined fields (title, description, due date, ...), which
// are stored and returned untouched.
//
// Status is free-form; the server does not enforce a set of values.
type Task struct {
	ID        string
	OwnerID   string
	Status    string
	Fields    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTask builds a task for ownerID from a decoded request body. Reserved keys in
// the body are ignored except status; createdAt and updatedAt are both set to now.
func NewTask(ownerID string, body map[string]any, now time.Time) (*Task, error) {
	if ownerID == "" {
		return nil, ErrEmptyOwner
	}
	if err := checkFieldNames(body); err != nil {
		return nil, err
	}

	status, _, err := stringField(body, FieldStatus, ErrInvalidStatus)
	if err != nil {
		return nil, err
	}

	return &Task{
		OwnerID:   ownerID,
		Status:    status,
		Fields:    callerFields(body),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarshalJSON flattens caller fields and reserved fields into one object.
func (t Task) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(t.Fields)+5)
	for k, v := range t.Fields {
		doc[k] = v
	}
	doc[FieldID] = t.ID
	doc[FieldOwner] = t.OwnerID
	if t.Status != "" {
		doc[FieldStatus] = t.Status
	}
	doc[FieldCreatedAt] = t.CreatedAt
	doc[FieldUpdatedAt] = t.UpdatedAt
	return json.Marshal(doc)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (t *Task) UnmarshalJSON(data []byte) error {
	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return err
	}

	var reserved struct {
		ID        string    `json:"_id"`
		Owner     string    `json:"owner"`
		Status    string    `json:"status"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
	if err := json.Unmarshal(data, &reserved); err != nil {
		return err
	}

	*t = Task{
		ID:        reserved.ID,
		OwnerID:   reserved.Owner,
		Status:    reserved.Status,
		Fields:    callerFields(doc),
		CreatedAt: reserved.CreatedAt,
		UpdatedAt: reserved.UpdatedAt,
	}
	return nil
}

// TaskUpdate is a partial update. Nil pointers leave the stored value as is;
// Fields are merged key by key into the stored caller fields.
type TaskUpdate struct {
	OwnerID   *string
	Status    *string
	Fields    map[string]any
	UpdatedAt time.Time
}

// NewTaskUpdate builds an update from a decoded request body. An owner in the
// body re-stamps the task owner; a null status clears it.
func NewTaskUpdate(body map[string]any, now time.Time) (TaskUpdate, error) {
	if err := checkFieldNames(body); err != nil {
		return TaskUpdate{}, err
	}

	upd := TaskUpdate{
		Fields:    callerFields(body),
		UpdatedAt: now,
	}

	owner, ok, err := stringField(body, FieldOwner, ErrInvalidOwner)
	if err != nil {
		return TaskUpdate{}, err
	}
	if ok {
		if owner == "" {
			return TaskUpdate{}, ErrEmptyOwner
		}
		upd.OwnerID = &owner
	}

	status, ok, err := stringField(body, FieldStatus, ErrInvalidStatus)
	if err != nil {
		return TaskUpdate{}, err
	}
	if ok {
		upd.Status = &status
	}

	return upd, nil
}

// Apply writes the update onto t.
func (t *Task) Apply(u TaskUpdate) {
	if u.OwnerID != nil {
		t.OwnerID = *u.OwnerID
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if len(u.Fields) > 0 && t.Fields == nil {
		t.Fields = make(map[string]any, len(u.Fields))
	}
	for k, v := range u.Fields {
		t.Fields[k] = v
	}
	t.UpdatedAt = u.UpdatedAt
}

// callerFields copies body without the reserved keys. It never returns nil.
func callerFields(body map[string]any) map[string]any {
	fields := make(map[string]any, len(body))
	for k, v := range body {
		if !IsReservedField(k) {
			fields[k] = v
		}
	}
	return fields
}

// checkFieldNames rejects caller field names that MongoDB would read as an
// operator or a nested path. Both backends then store the same top-level keys.
func checkFieldNames(body map[string]any) error {
	for k := range body {
		if k == "" || strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
			return fmt.Errorf("%w (got %q)", ErrInvalidFieldName, k)
		}
	}
	return nil
}

// stringField reads an optional string from body. JSON null counts as present
// and empty; any other non-string value yields invalid.
func stringField(body map[string]any, key string, invalid error) (string, bool, error) {
	raw, ok := body[key]
	if !ok {
		return "", false, nil
	}
	switch v := raw.(type) {
	case nil:
		return "", true, nil
	case string:
		return v, true, nil
	default:
		return "", true, fmt.Errorf("%w (got %T)", invalid, raw)
	}
}
