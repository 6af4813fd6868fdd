package service

import (
	"errors"
	"fmt"

	"multisig-registry/internal/core/domain"
	"multisig-registry/pkg/apperror"
)

// toAppError maps domain validation failures to their API error kinds.
// Anything unrecognised is an internal error wrapped with op.
func toAppError(op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var thErr *domain.ThresholdError
	if errors.As(err, &thErr) {
		return apperror.ErrInvalidThreshold(thErr.Members, thErr.Required)
	}

	var mErr *domain.MemberError
	if errors.As(err, &mErr) {
		switch {
		case errors.Is(mErr.Err, domain.ErrDuplicateMember):
			return apperror.ErrDuplicateMember(mErr.Member.Hex())
		case errors.Is(mErr.Err, domain.ErrNotMember):
			return apperror.ErrNotMember(mErr.Member.Hex())
		case errors.Is(mErr.Err, domain.ErrInvalidMember):
			return apperror.Validation(mErr.Error())
		}
	}

	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}
