package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
)

const (
	// SQLSTATE коды PostgreSQL, при которых транзакцию можно повторить целиком
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"

	defaultMaxRetries = 3
	defaultRetryDelay = 20 * time.Millisecond
)

var (
	// ErrBeginTx ошибка открытия транзакции
	ErrBeginTx = errors.New("txmanager: failed to begin transaction")

	// ErrCommitTx ошибка фиксации транзакции
	ErrCommitTx = errors.New("txmanager: failed to commit transaction")

	// ErrRetriesExhausted транзакция не прошла после всех повторов
	ErrRetriesExhausted = errors.New("txmanager: serialization retries exhausted")
)

// TransactionManager выполняет функцию в транзакции, которая передается через context
type TransactionManager struct {
	db         dbmetrics.TxBeginner
	maxRetries int
	retryDelay time.Duration
}

// Option настройка менеджера
type Option func(*TransactionManager)

// WithMaxRetries количество повторов при конфликте сериализации
func WithMaxRetries(n int) Option {
	return func(m *TransactionManager) {
		m.maxRetries = n
	}
}

// WithRetryDelay базовая пауза между повторами (растет линейно)
func WithRetryDelay(d time.Duration) Option {
	return func(m *TransactionManager) {
		m.retryDelay = d
	}
}

// NewTransactionManager создает менеджер транзакций
func NewTransactionManager(db dbmetrics.TxBeginner, opts ...Option) *TransactionManager {
	m := &TransactionManager{
		db:         db,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Do выполняет fn в транзакции READ COMMITTED
func (m *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
}

// DoReadOnly выполняет fn в транзакции только для чтения
func (m *TransactionManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

// DoSerializable выполняет fn в транзакции SERIALIZABLE
// При конфликте сериализации или дедлоке fn выполняется заново, поэтому fn должна быть идемпотентной
func (m *TransactionManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * m.retryDelay):
			}
		}

		retry, err := m.attempt(ctx, opts, fn)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr)
}

func (m *TransactionManager) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	_, err := m.attempt(ctx, opts, fn)
	return err
}

// attempt выполняет одну попытку; retry=true, если ошибку можно вылечить повтором
func (m *TransactionManager) attempt(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) (retry bool, err error) {
	// Вложенный вызов переиспользует внешнюю транзакцию
	if dbmetrics.IsInTransaction(ctx) {
		return false, fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBeginTx, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(dbmetrics.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return isRetryable(err) || isRetryable(lastTxError(tx)), err
	}

	if err := tx.Commit(); err != nil {
		return isRetryable(err), fmt.Errorf("%w: %v", ErrCommitTx, err)
	}

	return false, nil
}

func lastTxError(tx dbmetrics.TxExecutor) error {
	if t, ok := tx.(interface{ LastError() error }); ok {
		return t.LastError()
	}
	return nil
}

// isRetryable проверяет, является ли ошибка конфликтом сериализации или дедлоком
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == codeSerializationFailure || pqErr.Code == codeDeadlockDetected
	}
	return false
}
