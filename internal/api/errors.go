package api

import (
	"errors"
	"net/http"

	"rvsync/backend/internal/service"
	apperrors "rvsync/backend/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// serviceError maps service sentinels onto HTTP errors. Anything else becomes a 500.
func serviceError(err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return apperrors.NewNotFoundError(apperrors.CodeUserNotFound, "User not found")
	case errors.Is(err, service.ErrMessageNotFound):
		return apperrors.NewNotFoundError(apperrors.CodeMessageNotFound, "Message not found")
	case errors.Is(err, service.ErrForbidden):
		return apperrors.NewForbiddenError(apperrors.CodeForbidden, "Not authorized")
	case errors.Is(err, service.ErrUserAlreadyExists):
		return apperrors.NewConflictError(apperrors.CodeConflict, "A user with this email already exists")
	case errors.Is(err, service.ErrInvalidPayload):
		return apperrors.NewBadRequestError(apperrors.CodeValidationFailed, "Message must not be empty").Wrap(err)
	case errors.Is(err, service.ErrEmptyName):
		return apperrors.NewBadRequestError(apperrors.CodeValidationFailed, "Name must not be blank")
	case errors.Is(err, service.ErrGitHubNotLinked):
		return apperrors.NewBadRequestError(apperrors.CodeGitHubNotLinked, "GitHub URL not set")
	case errors.Is(err, service.ErrGitHubUserNotFound):
		return apperrors.NewBadRequestError(apperrors.CodeBadRequest, "GitHub user not found").Wrap(err)
	case errors.Is(err, service.ErrGitHubUnavailable):
		return apperrors.NewError(http.StatusBadGateway, apperrors.CodeUpstream, "Failed to fetch GitHub repositories").Wrap(err)
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.NewUnauthorizedError(apperrors.CodeUnauthorized, "Invalid email or password")
	default:
		return err
	}
}

// bindError turns a ShouldBindJSON failure into a 400
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.FromValidation(verrs)
	}
	return apperrors.NewBadRequestError(apperrors.CodeBadRequest, "Invalid request format").Wrap(err)
}
