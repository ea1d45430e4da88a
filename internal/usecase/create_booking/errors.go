package create_booking

import "errors"

// ErrInternal возвращается при внутренних ошибках usecase
var ErrInternal = errors.New("create_booking: internal error")
