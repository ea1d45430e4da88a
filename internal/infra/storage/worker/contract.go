package worker

import "github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"

// DBExecutor общий интерфейс для пула и транзакции
type DBExecutor = dbmetrics.DBExecutor
