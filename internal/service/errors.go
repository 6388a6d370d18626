package service

import (
	"fmt"

	apperrors "github.com/yourusername/exam-api/internal/pkg/errors"
)

// Ошибки сервисов поверх общих apperrors
var (
	ErrInvalidAnswer = fmt.Errorf("%w: invalid answer", apperrors.ErrValidation)
	ErrInvalidItem   = fmt.Errorf("%w: invalid item", apperrors.ErrValidation)
	ErrNotOwner      = fmt.Errorf("%w: attempt belongs to another user", apperrors.ErrForbidden)
)
