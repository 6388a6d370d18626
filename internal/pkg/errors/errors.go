package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden используется, когда ресурс принадлежит другому пользователю.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (повторная попытка по бронированию,
	// ответы на уже завершённую попытку).
	ErrConflict = errors.New("resource state conflict")

	// ErrUnprocessable используется, когда запрос корректен, но не может быть выполнен
	// на текущих данных (например, в каталоге недостаточно вопросов).
	ErrUnprocessable = errors.New("request cannot be processed")
)
