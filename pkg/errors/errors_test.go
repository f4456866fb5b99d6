package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobErrorMessage(t *testing.T) {
	err := NewNetwork("dou", "failed to fetch", io.ErrUnexpectedEOF)
	assert.Equal(t, "[network] dou: failed to fetch - unexpected EOF", err.Error())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	err = NewDuplicate("dou-python", "insert rejected by uniqueness constraint")
	assert.Equal(t, "[duplicate] dou-python: insert rejected by uniqueness constraint", err.Error())
}

func TestTypePredicatesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("building scraper: %w", NewConfiguration("conflicting filters", nil))
	assert.True(t, IsConfiguration(wrapped))
	assert.False(t, IsNetwork(wrapped))
	assert.Equal(t, ErrorTypeConfiguration, TypeOf(wrapped))

	assert.Equal(t, ErrorType(""), TypeOf(stderrors.New("plain")))
}

func TestRetryAfter(t *testing.T) {
	d, ok := RetryAfter(NewRateLimit("telegram", 3*time.Second))
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)

	_, ok = RetryAfter(NewRateLimit("telegram", 0))
	assert.False(t, ok)

	_, ok = RetryAfter(NewNotification("telegram", "boom", nil))
	assert.False(t, ok)
}

func TestRetryableAndFatal(t *testing.T) {
	assert.True(t, NewNetwork("x", "m", nil).IsRetryable())
	assert.True(t, NewRateLimit("x", time.Second).IsRetryable())
	assert.False(t, NewParsing("x", "m", nil).IsRetryable())

	assert.True(t, NewConfiguration("m", nil).IsFatal())
	assert.False(t, NewStore("x", "m", nil).IsFatal())
}
