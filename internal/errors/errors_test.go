package errors

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByCode(t *testing.T) {
	err := NotFound("article %q not found", "how-to-train")
	wrapped := fmt.Errorf("favorite: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrValidation))
	assert.Equal(t, `article "how-to-train" not found`, err.Error())
}

func TestAs_ExposesCode(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Validation("bad tag pattern"))

	var domainErr *Error
	assert.True(t, errors.As(wrapped, &domainErr))
	assert.Equal(t, CodeValidation, domainErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, domainErr.HTTPStatus())
}

func TestInternal_Unwraps(t *testing.T) {
	err := Internal("storage failed", io.ErrUnexpectedEOF)

	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, "storage failed: unexpected EOF", err.Error())
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
}

func TestCode_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, CodeNotFound.HTTPStatus())
	assert.Equal(t, http.StatusConflict, CodeAlreadyExists.HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, CodeUnauthorized.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, Code("SOMETHING_ELSE").HTTPStatus())
}
