package mongodb

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/phrazzld/taskly-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// taskDocument renders task as the flat document stored in the tasks collection.
func taskDocument(id, ownerID primitive.ObjectID, task *domain.Task) bson.M {
	doc := bson.M{}
	for k, v := range task.Fields {
		doc[k] = v
	}
	doc[domain.FieldID] = id
	doc[domain.FieldOwner] = ownerID
	if task.Status != "" {
		doc[domain.FieldStatus] = task.Status
	}
	doc[domain.FieldCreatedAt] = task.CreatedAt
	doc[domain.FieldUpdatedAt] = task.UpdatedAt
	return doc
}

// taskFromDocument converts a stored document back into a Task. Timestamps
// written as ISO strings by older clients are accepted as well as BSON dates.
func taskFromDocument(doc bson.M) (*domain.Task, error) {
	task := &domain.Task{Fields: map[string]any{}}

	for k, v := range doc {
		switch k {
		case domain.FieldID:
			task.ID = idString(v)
		case domain.FieldOwner:
			task.OwnerID = idString(v)
		case domain.FieldStatus:
			if s, ok := v.(string); ok {
				task.Status = s
			}
		case domain.FieldCreatedAt, domain.FieldUpdatedAt:
			ts, err := timeValue(v)
			if err != nil {
				return nil, fmt.Errorf("task %v field %s: %w", doc[domain.FieldID], k, err)
			}
			if k == domain.FieldCreatedAt {
				task.CreatedAt = ts
			} else {
				task.UpdatedAt = ts
			}
		default:
			task.Fields[k] = plainValue(v)
		}
	}
	return task, nil
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	}
	return fmt.Sprint(v)
}

func timeValue(v any) (time.Time, error) {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC(), nil
	case time.Time:
		return t.UTC(), nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, err
		}
		return parsed.UTC(), nil
	case nil:
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
}

// plainValue converts driver-specific values into the types a JSON decoder
// with UseNumber produces, so caller fields look the same whichever store
// served them.
func plainValue(v any) any {
	switch val := v.(type) {
	case bson.M:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = plainValue(item)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = plainValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plainValue(item)
		}
		return out
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC()
	case int32:
		return json.Number(strconv.FormatInt(int64(val), 10))
	case int64:
		return json.Number(strconv.FormatInt(val, 10))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return val
		}
		return json.Number(strconv.FormatFloat(val, 'g', -1, 64))
	}
	return v
}
