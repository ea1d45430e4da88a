package generate_slots

import "errors"

// ErrInternal возвращается при внутренних ошибках usecase
var ErrInternal = errors.New("generate_slots: internal error")
