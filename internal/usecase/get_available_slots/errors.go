package get_available_slots

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_available_slots.usecase: internal error")
)
