package lock

import (
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// ErrLockTimeout блокировку не удалось получить до истечения контекста
var ErrLockTimeout = fmt.Errorf("%w: lock is held by another process", domain.ErrConflict)
