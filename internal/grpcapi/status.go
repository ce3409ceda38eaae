package grpcapi

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"chapterhub.org/internal/access"
)

var kindCodes = map[access.Kind]codes.Code{
	access.KindUnauthenticated:   codes.Unauthenticated,
	access.KindBadRequest:        codes.InvalidArgument,
	access.KindMemberNotFound:    codes.PermissionDenied,
	access.KindNoRoleAssignments: codes.PermissionDenied,
	access.KindMembershipExpired: codes.PermissionDenied,
	access.KindForbidden:         codes.PermissionDenied,
	access.KindInternal:          codes.Internal,
}

// StatusFromError converts an access failure into a gRPC status. Errors that
// already carry a status pass through unchanged.
func StatusFromError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	e := access.AsError(err)
	code, ok := kindCodes[e.Kind]
	if !ok {
		code = codes.Internal
	}
	return status.Error(code, e.PublicMessage())
}
