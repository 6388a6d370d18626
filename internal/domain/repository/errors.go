package repository

import (
	"fmt"

	apperrors "github.com/yourusername/exam-api/internal/pkg/errors"
)

var (
	// ErrDuplicateAttempt означает, что для бронирования уже создана попытка.
	ErrDuplicateAttempt = fmt.Errorf("%w: attempt for this booking already exists", apperrors.ErrConflict)
	// ErrAttemptNotInProgress означает, что попытка уже завершена.
	ErrAttemptNotInProgress = fmt.Errorf("%w: attempt is not in progress", apperrors.ErrConflict)
)
