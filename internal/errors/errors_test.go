package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"

	"github.com/unveil/mediaquiz/internal/errors"
)

func TestError_HTTPStatusCode(t *testing.T) {
	tests := map[string]struct {
		err  *errors.Error
		want int
	}{
		"invalid argument maps to 400": {
			err:  errors.InvalidArgument("bad option %d", 7),
			want: http.StatusBadRequest,
		},
		"not found maps to 404": {
			err:  errors.NotFound("session not found"),
			want: http.StatusNotFound,
		},
		"failed precondition maps to 409": {
			err:  errors.FailedPrecondition("wrong phase"),
			want: http.StatusConflict,
		},
		"unknown code falls back to 500": {
			err:  errors.New(errors.Code(codes.DataLoss)),
			want: http.StatusInternalServerError,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatusCode())
		})
	}
}

func TestConvert(t *testing.T) {
	cause := stderrors.New("connection refused")

	e := errors.Convert(fmt.Errorf("fetch: %w", cause))
	assert.Equal(t, errors.CodeInternal, e.Code)
	assert.ErrorIs(t, e, cause)

	wrapped := fmt.Errorf("answer: %w", errors.InvalidArgument("option out of range"))
	e = errors.Convert(wrapped)
	assert.Equal(t, errors.CodeInvalidArgument, e.Code)
	assert.Equal(t, "option out of range", e.Message)
	assert.True(t, errors.Is(wrapped, errors.CodeInvalidArgument))
	assert.False(t, errors.Is(wrapped, errors.CodeNotFound))
}
