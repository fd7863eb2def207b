package api

import (
	"context"
	"errors"

	"github.com/solatis/qbfilter/internal/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errNoStore is returned by saved filter operations without a database.
var errNoStore = errors.New("saved filters require a database (--db-url or QB_DATABASE_URL)")

// invalidArgument lists the errors caused by the request content.
var invalidArgument = []error{
	types.ErrMalformedRule,
	types.ErrInvalidPayload,
	types.ErrPayloadTooLarge,
	types.ErrInvalidCondition,
	types.ErrFieldNotAllowed,
	types.ErrExpectedArray,
	types.ErrUnexpectedArray,
	types.ErrInvalidValue,
	types.ErrRangeArity,
	types.ErrInvalidDate,
	types.ErrOperatorNotApplicable,
	types.ErrTooDeep,
	types.ErrInvalidTable,
	types.ErrInvalidField,
}

// ToStatus maps service errors onto gRPC status errors.
// Validation errors map to INVALID_ARGUMENT.
// Missing filters map to NOT_FOUND.
// Context timeouts map to DEADLINE_EXCEEDED.
// Missing or failing storage maps to UNAVAILABLE.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	for _, target := range invalidArgument {
		if errors.Is(err, target) {
			return status.Error(codes.InvalidArgument, err.Error())
		}
	}

	switch {
	case errors.Is(err, types.ErrFilterNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Unavailable, err.Error())
	}
}
