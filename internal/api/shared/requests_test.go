package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type selfValidating struct {
	called bool
}

func (s *selfValidating) Validate() error {
	s.called = true
	return nil
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"email":"a@b.co"}`},
		{name: "empty body", body: ``, wantErr: true},
		{name: "malformed", body: `{"email":`, wantErr: true},
		{name: "trailing data", body: `{"email":"a@b.co"} {}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var req sampleRequest
			err := DecodeJSON(r, &req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a@b.co", req.Email)
		})
	}
}

func TestDecodeJSONEmptyBody(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.ErrorIs(t, DecodeJSON(r, &sampleRequest{}), ErrEmptyBody)
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateRequest(&sampleRequest{Email: "a@b.co"}))
	assert.Error(t, ValidateRequest(&sampleRequest{Email: "nope"}))
	assert.Error(t, ValidateRequest(&sampleRequest{}))

	sv := &selfValidating{}
	assert.NoError(t, ValidateRequest(sv))
	assert.True(t, sv.called)
}

func TestDecodeDocumentKeepsNumbersExact(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"big":9007199254740993,"nested":{"n":1.25}}`))
	doc, err := DecodeDocument(req)
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), doc["big"])
	assert.Equal(t, map[string]any{"n": json.Number("1.25")}, doc["nested"])

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`null`))
	doc, err = DecodeDocument(req)
	require.NoError(t, err)
	assert.Nil(t, doc)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1} {}`))
	_, err = DecodeDocument(req)
	assert.Error(t, err)
}
