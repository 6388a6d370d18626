package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerSettings: параметры размыкателя источника истории
type BreakerSettings struct {
	// ConsecutiveFailures: после скольких ошибок подряд цепь размыкается
	ConsecutiveFailures uint32
	// Timeout: сколько цепь остаётся разомкнутой до пробного запроса
	Timeout time.Duration
}

// BreakerHistorySource оборачивает HistorySource размыкателем цепи.
// Пока цепь разомкнута, запросы истории сразу завершаются ErrHistoryUnavailable
// и выборка идёт как cold start, не нагружая упавшую базу.
type BreakerHistorySource struct {
	next   HistorySource
	cb     *gobreaker.CircuitBreaker[History]
	logger zerolog.Logger
}

// NewBreakerHistorySource создаёт источник истории с размыкателем
func NewBreakerHistorySource(next HistorySource, settings BreakerSettings) *BreakerHistorySource {
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = 5
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}

	s := &BreakerHistorySource{
		next:   next,
		logger: log.With().Str("component", "history_breaker").Logger(),
	}
	historyBreakerState.Set(0)

	s.cb = gobreaker.NewCircuitBreaker[History](gobreaker.Settings{
		Name:        "selection-history",
		MaxRequests: 1,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		// Отмена запроса клиентом не говорит о здоровье базы
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("History breaker state changed")
			historyBreakerState.Set(breakerStateValue(to))
		},
	})
	return s
}

// RecentHistory реализует HistorySource
func (s *BreakerHistorySource) RecentHistory(ctx context.Context, requesterID, categoryID uint, limit int) (History, error) {
	history, err := s.cb.Execute(func() (History, error) {
		return s.next.RecentHistory(ctx, requesterID, categoryID, limit)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
		}
		return nil, err
	}
	return history, nil
}

// State возвращает текущее состояние цепи
func (s *BreakerHistorySource) State() gobreaker.State {
	return s.cb.State()
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
