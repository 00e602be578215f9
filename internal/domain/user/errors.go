package user

import "errors"

var (
	ErrInvalidToken            = errors.New("invalid or expired token")
	ErrAdminPrivilegeRequired  = errors.New("admin privilege required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)
