package schema

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsKind(t *testing.T) {
	base := ConfigurationError("resolve", "Atlantis", ErrUnknownJurisdiction)
	wrapped := fmt.Errorf("process: %w", base)

	assert.True(t, IsKind(base, KindConfiguration))
	assert.True(t, IsKind(wrapped, KindConfiguration))
	assert.False(t, IsKind(wrapped, KindRetrieval))
	assert.True(t, errors.Is(wrapped, ErrUnknownJurisdiction))
	assert.Equal(t, KindConfiguration, KindOf(wrapped))
	assert.False(t, IsKind(errors.New("plain"), KindGeneration))
	assert.False(t, IsKind(nil, KindGeneration))
}

func TestIsKind_Nested(t *testing.T) {
	inner := GenerationError("embed", context.DeadlineExceeded)
	outer := RetrievalError("retrieve", "Central", inner)

	assert.True(t, IsKind(outer, KindRetrieval))
	assert.True(t, IsKind(outer, KindGeneration))
	assert.True(t, errors.Is(outer, context.DeadlineExceeded))
	assert.Equal(t, KindRetrieval, KindOf(outer))
}

func TestErrorMessage(t *testing.T) {
	err := ConfigurationError("resolve", "Atlantis", ErrUnknownJurisdiction)
	assert.Equal(t, "resolve: configuration error [jurisdiction=Atlantis]: unknown jurisdiction", err.Error())
	assert.Nil(t, NewError("x", KindGeneration, nil))
}
