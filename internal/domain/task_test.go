package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

func TestNewTask(t *testing.T) {
	body := map[string]any{
		"title":     "A",
		"status":    "todo",
		"owner":     "someone-else",
		"_id":       "client-id",
		"createdAt": "2000-01-01T00:00:00Z",
		"priority":  float64(2),
	}

	task, err := NewTask("U1", body, testNow)

	require.NoError(t, err)
	assert.Empty(t, task.ID)
	assert.Equal(t, "U1", task.OwnerID, "owner comes from the caller identity, not the body")
	assert.Equal(t, "todo", task.Status)
	assert.Equal(t, map[string]any{"title": "A", "priority": float64(2)}, task.Fields)
	assert.Equal(t, testNow, task.CreatedAt)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
}

func TestNewTaskValidation(t *testing.T) {
	_, err := NewTask("", map[string]any{}, testNow)
	assert.ErrorIs(t, err, ErrEmptyOwner)

	_, err = NewTask("U1", map[string]any{"status": 3}, testNow)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.ErrorIs(t, err, ErrValidation)

	task, err := NewTask("U1", nil, testNow)
	require.NoError(t, err)
	assert.NotNil(t, task.Fields)
}

func TestTaskJSONRoundTrip(t *testing.T) {
	task := Task{
		ID:        "t1",
		OwnerID:   "U1",
		Status:    "done",
		Fields:    map[string]any{"title": "A", "tags": []any{"x", "y"}},
		CreatedAt: testNow,
		UpdatedAt: testNow.Add(time.Minute),
	}

	data, err := json.Marshal(task)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "t1", flat["_id"])
	assert.Equal(t, "U1", flat["owner"])
	assert.Equal(t, "done", flat["status"])
	assert.Equal(t, "A", flat["title"])
	assert.Equal(t, "2024-05-01T12:30:00Z", flat["createdAt"])

	var decoded Task
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, task, decoded)
}

func TestTaskJSONOmitsEmptyStatus(t *testing.T) {
	data, err := json.Marshal(Task{ID: "t1", OwnerID: "U1", Fields: map[string]any{}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"status"`)
}

func TestNewTaskUpdate(t *testing.T) {
	upd, err := NewTaskUpdate(map[string]any{
		"owner":  "U2",
		"status": "in-progress",
		"title":  "B",
		"_id":    "ignored",
	}, testNow)

	require.NoError(t, err)
	require.NotNil(t, upd.OwnerID)
	assert.Equal(t, "U2", *upd.OwnerID)
	require.NotNil(t, upd.Status)
	assert.Equal(t, "in-progress", *upd.Status)
	assert.Equal(t, map[string]any{"title": "B"}, upd.Fields)
	assert.Equal(t, testNow, upd.UpdatedAt)
}

func TestNewTaskUpdateOptionalFields(t *testing.T) {
	upd, err := NewTaskUpdate(map[string]any{"title": "B"}, testNow)
	require.NoError(t, err)
	assert.Nil(t, upd.OwnerID)
	assert.Nil(t, upd.Status)

	upd, err = NewTaskUpdate(map[string]any{"status": nil}, testNow)
	require.NoError(t, err)
	require.NotNil(t, upd.Status)
	assert.Equal(t, "", *upd.Status)

	_, err = NewTaskUpdate(map[string]any{"owner": ""}, testNow)
	assert.ErrorIs(t, err, ErrEmptyOwner)

	_, err = NewTaskUpdate(map[string]any{"owner": 42.0}, testNow)
	assert.ErrorIs(t, err, ErrInvalidOwner)
}

func TestTaskApply(t *testing.T) {
	task := &Task{
		ID:        "t1",
		OwnerID:   "U1",
		Status:    "todo",
		Fields:    map[string]any{"title": "A", "notes": "keep"},
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	owner := "U2"
	later := testNow.Add(time.Hour)

	task.Apply(TaskUpdate{
		OwnerID:   &owner,
		Fields:    map[string]any{"title": "B"},
		UpdatedAt: later,
	})

	assert.Equal(t, "U2", task.OwnerID)
	assert.Equal(t, "todo", task.Status)
	assert.Equal(t, map[string]any{"title": "B", "notes": "keep"}, task.Fields)
	assert.Equal(t, testNow, task.CreatedAt)
	assert.Equal(t, later, task.UpdatedAt)
}

func TestTaskRejectsAmbiguousFieldNames(t *testing.T) {
	for _, name := range []string{"meta.x", "$set", "", "a.b.c"} {
		_, err := NewTask("U1", map[string]any{name: 1}, testNow)
		assert.ErrorIs(t, err, ErrInvalidFieldName, "create %q", name)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = NewTaskUpdate(map[string]any{name: 1}, testNow)
		assert.ErrorIs(t, err, ErrInvalidFieldName, "update %q", name)
	}

	task, err := NewTask("U1", map[string]any{"price$": 1, "due_date": "2024-06-01"}, testNow)
	require.NoError(t, err)
	assert.Len(t, task.Fields, 2)
}

func TestTaskUnmarshalKeepsLargeIntegers(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"t1","owner":"U1","big":9007199254740993,"ratio":0.5}`), &task))
	assert.Equal(t, json.Number("9007199254740993"), task.Fields["big"])
	assert.Equal(t, json.Number("0.5"), task.Fields["ratio"])

	data, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"big":9007199254740993`)
}
