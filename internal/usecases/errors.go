package usecases

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied       = errors.New("user is not authorized to this action")
	ErrAuthenticationRequired = fmt.Errorf("%w: authentication required", ErrPermissionDenied)
	ErrUserIsNotAChatMember   = fmt.Errorf("%w: user is not a chat member", ErrPermissionDenied)
	ErrNotMessageSender       = fmt.Errorf("%w: only the sender can edit a message", ErrPermissionDenied)
	ErrBusinessLogicViolation = errors.New("business logic violation")
	ErrUnknownStatus          = fmt.Errorf("%w: unknown delivery status", ErrBusinessLogicViolation)
)
