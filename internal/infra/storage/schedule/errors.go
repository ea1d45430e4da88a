package schedule

import "errors"

var (
	// ErrScheduleNotFound возвращается, когда расписание не найдено
	ErrScheduleNotFound = errors.New("schedule.repository: schedule not found")

	// ErrVersionConflict возвращается, когда расписание изменили параллельно
	ErrVersionConflict = errors.New("schedule.repository: schedule version conflict")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("schedule.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("schedule.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("schedule.repository: failed to scan row")

	// ErrCorruptedData возвращается, когда сохраненные данные нарушают инварианты агрегата
	ErrCorruptedData = errors.New("schedule.repository: stored schedule violates invariants")
)
