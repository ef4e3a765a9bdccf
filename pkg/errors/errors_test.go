package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeSiteNotFound, "site not found")
	assert.Equal(t, "[SIT_001] site not found", err.Error())

	withDetail := err.WithDetail("sit_42")
	assert.Equal(t, "[SIT_001] site not found: sit_42", withDetail.Error())
	// WithDetail clones; the original stays untouched.
	assert.Empty(t, err.Detail)
}

func TestNewf(t *testing.T) {
	err := Newf(ErrCodeValidation, "score %d out of range", 150)
	assert.Equal(t, "[COMMON_010] score 150 out of range", err.Error())
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrCodeDatabaseError, "query failed")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCodeDatabaseError, err.Code)
	assert.NotEmpty(t, err.Stack)
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeDatabaseError, "query failed"))
}

func TestWrapUnknownPreservesInnerCode(t *testing.T) {
	inner := New(ErrCodeClauseNotFound, "no such clause")
	err := Wrap(fmt.Errorf("list failed: %w", inner), ErrCodeUnknown, "listing clauses")
	assert.Equal(t, ErrCodeClauseNotFound, err.Code)
}

func TestIsCodeTraversesChain(t *testing.T) {
	inner := New(ErrCodeProviderTimeout, "deadline exceeded")
	wrapped := Wrap(inner, ErrCodeExternalService, "analyzer call failed")
	again := fmt.Errorf("analysis aborted: %w", wrapped)

	assert.True(t, IsCode(again, ErrCodeProviderTimeout))
	assert.True(t, IsCode(again, ErrCodeExternalService))
	assert.False(t, IsCode(again, ErrCodeNotFound))
	assert.False(t, IsCode(nil, ErrCodeNotFound))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrCodeAnalysisNotFound, "miss")))
	assert.True(t, IsNotFound(New(ErrCodeSiteNotFound, "miss")))
	assert.True(t, IsNotFound(Wrap(New(ErrCodeResultNotFound, "miss"), ErrCodeInternal, "lookup")))
	assert.False(t, IsNotFound(New(ErrCodeConflict, "dup")))
	assert.False(t, IsNotFound(stderrors.New("plain")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, ErrCodeUnknownFlag, GetCode(New(ErrCodeUnknownFlag, "bad flag")))
	assert.Equal(t, ErrCodeUnknown, GetCode(stderrors.New("plain")))
}

func TestHTTPStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatusForCode(ErrCodeAnalysisNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatusForCode(ErrCodeInsufficientContent))
	assert.Equal(t, http.StatusConflict, HTTPStatusForCode(ErrCodeSchedulerBusy))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatusForCode(ErrCodeProviderTimeout))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusForCode(ErrorCode("BOGUS")))
}

func TestClientServerErrorSplit(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeValidation))
	assert.False(t, IsServerError(ErrCodeValidation))
	assert.True(t, IsServerError(ErrCodeProviderError))
	assert.False(t, IsClientError(ErrCodeProviderError))
}

func TestFactories(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NotFound("x").Code)
	assert.Equal(t, ErrCodeBadRequest, InvalidParam("x").Code)
	assert.Equal(t, ErrCodeValidation, NewValidation("x").Code)
	assert.Equal(t, ErrCodeInternal, Internal("x").Code)
	assert.Equal(t, ErrCodeConflict, Conflict("x").Code)
	assert.Equal(t, ErrCodeTimeout, Timeout("x").Code)
}

func TestNilReceiverHelpers(t *testing.T) {
	var e *AppError
	assert.Nil(t, e.WithDetail("x"))
	assert.Nil(t, e.WithCause(stderrors.New("x")))
}
