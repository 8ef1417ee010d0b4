package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, ""},
		{errors.New("boom"), KindInternal},
		{NewParseError("bad json", nil), KindParse},
		{fmt.Errorf("wrapped: %w", NewNotFoundError("receipt", 1)), KindNotFound},
		{NewValidationError("date", "is required"), KindValidation},
		{fmt.Errorf("ctx: %w", NewStorageError("upload", errors.New("io"))), KindStorage},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, KindOf(tc.err), "%v", tc.err)
	}
}

func TestSentinels(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NewNotFoundError("shop", "x"))
	require.ErrorIs(t, err, ErrNotFound)
	require.NotErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, NewValidationError("name", "is required"), ErrValidation)

	cause := errors.New("disk full")
	require.ErrorIs(t, NewStorageError("write", cause), cause)
}

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{NewValidationError("items", "must contain at least 1 entries"), codes.InvalidArgument},
		{NewNotFoundError("receipt", 7), codes.NotFound},
		{NewConflictError("duplicate category", nil), codes.AlreadyExists},
		{NewExtractionError("unsupported image format", nil), codes.FailedPrecondition},
		{NewParseError("no json object", nil), codes.Aborted},
		{NewStorageError("upload", nil), codes.Internal},
		{errors.New("unexpected"), codes.Internal},
		{fmt.Errorf("rpc: %w", context.DeadlineExceeded), codes.DeadlineExceeded},
		{status.Error(codes.Unavailable, "down"), codes.Unavailable},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, status.Code(ToStatus(tc.err)), "%v", tc.err)
	}
	require.NoError(t, ToStatus(nil))
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{
		{Field: "date", Message: "is required"},
		{Field: "items[0].price", Message: "must be greater than or equal to 0"},
	}}
	require.Equal(t, "VALIDATION_ERROR: date: is required; items[0].price: must be greater than or equal to 0", err.Error())
}
