package selection

import (
	"errors"
	"fmt"

	apperrors "github.com/yourusername/exam-api/internal/pkg/errors"
)

var (
	// ErrInsufficientPool: в каталоге меньше вопросов, чем запрошено. Повтор не поможет.
	ErrInsufficientPool = fmt.Errorf("%w: insufficient item pool", apperrors.ErrUnprocessable)

	// ErrUnknownAlgorithm: запрошена неизвестная стратегия (ошибка конфигурации экзамена).
	ErrUnknownAlgorithm = fmt.Errorf("%w: unknown selection algorithm", apperrors.ErrUnprocessable)

	// ErrInvalidRequest: некорректные параметры запроса.
	ErrInvalidRequest = fmt.Errorf("%w: invalid selection request", apperrors.ErrValidation)

	// ErrHistoryUnavailable: источник истории недоступен. Не фатально: выборка идёт как cold start.
	ErrHistoryUnavailable = errors.New("selection history unavailable")

	// ErrRecorderFailure: не удалось записать использование. Не фатально: только лог и метрика.
	ErrRecorderFailure = errors.New("usage recorder failure")
)
