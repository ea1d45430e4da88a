package slotsettings

import "errors"

// ErrInternal возвращается при внутренних ошибках сервиса
var ErrInternal = errors.New("slotsettings.service: internal error")
