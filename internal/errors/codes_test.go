package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineErrorFormatting(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Transient("embedding request failed", cause)

	assert.Contains(t, err.Error(), "TRANSIENT")
	assert.Contains(t, err.Error(), "connection reset")
	assert.ErrorIs(t, err, cause)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeUnauthorized, CodeOf(Unauthorized("bad key")))
	assert.Equal(t, ErrCodeNotIndexed, CodeOf(NotIndexed("r1")))
	assert.Equal(t, ErrorCode(""), CodeOf(stderrors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", RateLimitExceeded("slow down"))
	assert.Equal(t, ErrCodeRateLimitExceeded, CodeOf(wrapped))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{Unauthorized("bad key"), false},
		{InvalidArgument("empty input"), false},
		{NotIndexed("r1"), false},
		{RateLimitExceeded("slow down"), true},
		{Transient("net", nil), true},
		{ServiceUnavailable("down"), true},
		{stderrors.New("unclassified"), true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRetryable(tt.err), "%v", tt.err)
	}
}

func TestClassifyProviderError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   ErrorCode
	}{
		{"unauthorized", http.StatusUnauthorized, ErrCodeUnauthorized},
		{"forbidden", http.StatusForbidden, ErrCodeUnauthorized},
		{"rate limited", http.StatusTooManyRequests, ErrCodeRateLimitExceeded},
		{"bad request", http.StatusBadRequest, ErrCodeInvalidArgument},
		{"server error", http.StatusInternalServerError, ErrCodeTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyProviderError(&openai.APIError{HTTPStatusCode: tt.status})
			require.NotNil(t, err)
			assert.Equal(t, tt.want, err.Code)
		})
	}

	assert.Nil(t, ClassifyProviderError(nil))
	assert.Equal(t, ErrCodeTransient, ClassifyProviderError(stderrors.New("dial tcp: refused")).Code)
}
