package shared

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceID(t *testing.T) {
	t.Parallel()

	assert.Empty(t, GetTraceID(context.Background()))

	ctx := SetTraceID(context.Background())
	traceID := GetTraceID(ctx)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), traceID)

	other := GetTraceID(SetTraceID(context.Background()))
	assert.NotEqual(t, traceID, other)
}

func TestUserIDContext(t *testing.T) {
	t.Parallel()

	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = UserIDFromContext(WithUserID(context.Background(), ""))
	assert.False(t, ok, "empty IDs are treated as missing")

	id, ok := UserIDFromContext(WithUserID(context.Background(), "U1"))
	assert.True(t, ok)
	assert.Equal(t, "U1", id)
}
