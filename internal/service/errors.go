package service

import "errors"

var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrMessageNotFound    = errors.New("message not found")
	ErrForbidden          = errors.New("not authorized")
	ErrInvalidPayload     = errors.New("invalid message payload")
	ErrEmptyName          = errors.New("name must not be blank")

	ErrGitHubNotLinked    = errors.New("github url not set")
	ErrGitHubUserNotFound = errors.New("github user not found")
	ErrGitHubUnavailable  = errors.New("github unavailable")
)
