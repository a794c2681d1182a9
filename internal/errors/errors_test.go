package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeAndRefThroughWrapping(t *testing.T) {
	err := fmt.Errorf("submit v1: %w", Challenge("captcha required", "https://hh.ru/captcha"))

	de, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, ErrTypeChallenge, de.Type)
	assert.Equal(t, ErrTypeChallenge, TypeOf(err))
	assert.Equal(t, "https://hh.ru/captcha", RefOf(err))
	assert.True(t, IsType(err, ErrTypeChallenge))
	assert.NotEmpty(t, de.StackTrace())
}

func TestForeignErrors(t *testing.T) {
	err := stderrors.New("boom")

	_, ok := As(err)
	assert.False(t, ok)
	assert.Equal(t, ErrorType(""), TypeOf(err))
	assert.Equal(t, "", RefOf(err))
	assert.Equal(t, "", RefOf(Duplicate("already applied")))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Upstream("search failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "UPSTREAM: search failed: connection reset", err.Error())
	assert.Equal(t, "FETCH_FAILED: no results", Fetch("no results", nil).Error())
}
