package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := New(http.StatusBadGateway, "FETCH_FAILED", "Failed to fetch service records")

	assert.Equal(t, "Failed to fetch service records", err.Error())
	assert.Equal(t, http.StatusBadGateway, err.StatusCode)
	assert.Equal(t, "FETCH_FAILED", err.ErrorCode)
}

func TestMutationError(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := MutationError("delete", cause)

	assert.Equal(t, "MUTATION_FAILED", err.ErrorCode)
	assert.Equal(t, "Failed to delete service", err.Message)
	assert.Equal(t, cause.Error(), err.Details)
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("service_date", "must be YYYY-MM-DD")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	detail, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "service_date", detail.Field)
}

func TestAppErrorWrapping(t *testing.T) {
	cause := fmt.Errorf("sql: database is closed")
	err := NewFetchError("listing services", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "FETCH")
	assert.Contains(t, err.Error(), "listing services")

	wrapped := fmt.Errorf("reload: %w", err)
	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrTypeFetch, appErr.Type)
	assert.True(t, IsType(wrapped, ErrTypeFetch))
	assert.False(t, IsType(wrapped, ErrTypeMutation))
}

func TestAppErrorContext(t *testing.T) {
	err := NewMutationError("updating service", nil).
		WithContext("service_id", "svc-1")

	assert.Equal(t, "svc-1", err.Context["service_id"])
	assert.Equal(t, "[MUTATION] updating service", err.Error())
}
