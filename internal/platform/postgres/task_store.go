package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/taskly-api/internal/domain"
	"github.com/phrazzld/taskly-api/internal/platform/logger"
	"github.com/phrazzld/taskly-api/internal/store"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var taskColumns = []string{"id", "owner_id", "status", "attributes", "created_at", "updated_at"}

// reservedSortColumns maps reserved task fields to their columns. Every other
// sort field is looked up inside the attributes document.
var reservedSortColumns = map[string]string{
	domain.FieldID:        "id",
	domain.FieldOwner:     "owner_id",
	domain.FieldStatus:    "status",
	domain.FieldCreatedAt: "created_at",
	domain.FieldUpdatedAt: "updated_at",
}

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// List implements store.TaskStore.List
func (s *PostgresTaskStore) List(ctx context.Context, q store.TaskQuery) ([]*domain.Task, int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	listSQL, listArgs, err := buildListQuery(q)
	if err != nil {
		return nil, 0, err
	}
	countSQL, countArgs, err := buildCountQuery(q)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, listSQL, listArgs...)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("owner_id", q.OwnerID),
			slog.String("error", err.Error()))
		return nil, 0, store.NewStoreError("task", "list", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0, q.Limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, store.NewStoreError("task", "list", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, store.NewStoreError("task", "list", MapError(err))
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		log.Error("failed to count tasks",
			slog.String("owner_id", q.OwnerID),
			slog.String("error", err.Error()))
		return nil, 0, store.NewStoreError("task", "count", MapError(err))
	}

	log.Debug("tasks listed",
		slog.String("owner_id", q.OwnerID),
		slog.Int("returned", len(tasks)),
		slog.Int64("total", total))
	return tasks, total, nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	taskID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Select(taskColumns...).
		From("tasks").
		Where(squirrel.Eq{"id": taskID.String()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build task query: %w", err)
	}

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task", slog.String("task_id", id), slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "get", MapError(err))
	}
	return task, nil
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	ownerID, err := parseID(task.OwnerID)
	if err != nil {
		return "", err
	}
	attrs, err := encodeAttributes(task.Fields)
	if err != nil {
		return "", err
	}

	query, args, err := psql.Insert("tasks").
		Columns(taskColumns...).
		Values(uuid.New(), ownerID, nullString(task.Status), attrs, task.CreatedAt, task.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build insert: %w", err)
	}

	var id uuid.UUID
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		log.Error("failed to create task",
			slog.String("owner_id", task.OwnerID),
			slog.String("error", err.Error()))
		return "", store.NewStoreError("task", "create", MapError(err))
	}
	if id == uuid.Nil {
		return "", store.NewStoreError("task", "create", errors.New("insert returned no identifier"))
	}

	task.ID = id.String()
	log.Info("task created", slog.String("task_id", task.ID), slog.String("owner_id", task.OwnerID))
	return task.ID, nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, id string, upd domain.TaskUpdate) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	taskID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	builder, err := buildUpdate(taskID, upd)
	if err != nil {
		return nil, err
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update: %w", err)
	}

	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task to update not found", slog.String("task_id", id))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to update task", slog.String("task_id", id), slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", "update", MapError(err))
	}

	log.Info("task updated", slog.String("task_id", id))
	return task, nil
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	taskID, err := parseID(id)
	if err != nil {
		return err
	}

	query, args, err := psql.Delete("tasks").Where(squirrel.Eq{"id": taskID.String()}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to delete task", slog.String("task_id", id), slog.String("error", err.Error()))
		return store.NewStoreError("task", "delete", MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Info("task deleted", slog.String("task_id", id))
	return nil
}

// taskFilter is the WHERE clause shared by the list and count queries.
func taskFilter(q store.TaskQuery) (squirrel.Sqlizer, error) {
	ownerID, err := parseID(q.OwnerID)
	if err != nil {
		return nil, err
	}
	filter := squirrel.Eq{"owner_id": ownerID.String()}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	return filter, nil
}

func buildListQuery(q store.TaskQuery) (string, []any, error) {
	filter, err := taskFilter(q)
	if err != nil {
		return "", nil, err
	}

	sel := psql.Select(taskColumns...).From("tasks").Where(filter)

	if path := q.SortPath(); path != nil {
		// Missing values sort first, as MongoDB orders them.
		if column, ok := reservedSortColumns[q.OrderBy]; ok {
			sel = sel.OrderBy(column + " ASC NULLS FIRST")
		} else {
			sel = sel.OrderByClause("attributes #> ? ASC NULLS FIRST", path)
		}
	}
	// Tie-breakers keep pages stable when the sort key repeats or is absent.
	sel = sel.OrderBy("created_at ASC", "id ASC").
		Limit(uint64(q.Limit)).
		Offset(uint64(q.Skip))

	return sel.ToSql()
}

func buildCountQuery(q store.TaskQuery) (string, []any, error) {
	filter, err := taskFilter(q)
	if err != nil {
		return "", nil, err
	}
	return psql.Select("COUNT(*)").From("tasks").Where(filter).ToSql()
}

func buildUpdate(taskID uuid.UUID, upd domain.TaskUpdate) (squirrel.UpdateBuilder, error) {
	b := psql.Update("tasks").Set("updated_at", upd.UpdatedAt)

	if upd.OwnerID != nil {
		ownerID, err := parseID(*upd.OwnerID)
		if err != nil {
			return b, err
		}
		b = b.Set("owner_id", ownerID.String())
	}
	if upd.Status != nil {
		b = b.Set("status", nullString(*upd.Status))
	}
	if len(upd.Fields) > 0 {
		attrs, err := encodeAttributes(upd.Fields)
		if err != nil {
			return b, err
		}
		// jsonb || merges top-level keys, replacing the ones named in the update.
		b = b.Set("attributes", squirrel.Expr("attributes || ?::jsonb", attrs))
	}

	return b.Where(squirrel.Eq{"id": taskID.String()}).
		Suffix("RETURNING id, owner_id, status, attributes, created_at, updated_at"), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		id, ownerID uuid.UUID
		status      sql.NullString
		attrs       []byte
		createdAt   time.Time
		updatedAt   time.Time
	)
	if err := row.Scan(&id, &ownerID, &status, &attrs, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	fields, err := decodeAttributes(attrs)
	if err != nil {
		return nil, err
	}

	return &domain.Task{
		ID:        id.String(),
		OwnerID:   ownerID.String(),
		Status:    status.String,
		Fields:    fields,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}, nil
}

func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", store.ErrInvalidID, id)
	}
	return parsed, nil
}

func encodeAttributes(fields map[string]any) ([]byte, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: task fields are not valid JSON: %w", store.ErrInvalidEntity, err)
	}
	return data, nil
}

// decodeAttributes reads the attributes column back into caller fields.
// Numbers come back as json.Number so large integers keep their exact value.
func decodeAttributes(attrs []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(attrs) == 0 {
		return fields, nil
	}
	dec := json.NewDecoder(bytes.NewReader(attrs))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to decode task attributes: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
