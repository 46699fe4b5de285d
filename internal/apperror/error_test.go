package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/career-coach/internal/apperror"
)

func TestKindsSurviveWrapping(t *testing.T) {
	base := apperror.ExtractionFailed("resume.pdf", errors.New("bad xref"))
	wrapped := fmt.Errorf("failed to extract: %w", base)

	assert.True(t, apperror.Is(wrapped, apperror.KindExtractionFailed))
	assert.False(t, apperror.Is(wrapped, apperror.KindMalformedResponse))

	appErr, ok := apperror.From(wrapped)
	require.True(t, ok)
	assert.Equal(t, "resume.pdf", appErr.Subject)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Code)
	assert.ErrorContains(t, wrapped, "bad xref")
}

func TestUnsupportedFormatCarriesMediaType(t *testing.T) {
	err := apperror.UnsupportedFormat("image/png")

	assert.Equal(t, apperror.KindUnsupportedFormat, err.Kind)
	assert.Equal(t, "image/png", err.Subject)
	assert.Contains(t, err.Error(), "image/png")
}

func TestMalformedResponseKeepsRawText(t *testing.T) {
	err := apperror.MalformedResponse("not json", nil)

	assert.Equal(t, "not json", err.Raw)
	assert.Equal(t, http.StatusBadGateway, err.Code)
}

func TestFromPlainError(t *testing.T) {
	_, ok := apperror.From(errors.New("boom"))
	assert.False(t, ok)
	assert.False(t, apperror.Is(nil, apperror.KindConflict))
}
