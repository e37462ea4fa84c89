package retry

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"grocery/internal/domain/domainerr"

	"github.com/jackc/pgx/v5/pgconn"
)

// DB・キャッシュ呼び出しのタイムアウトと再試行
type Policy struct {
	// 1回あたりの上限
	Timeout time.Duration
	// 合計の試行回数（1なら再試行なし）
	Attempts int
	// 次の試行までの待ち
	Backoff time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Timeout: 5 * time.Second, Attempts: 2, Backoff: 100 * time.Millisecond}
}

// Do は fn を実行し、一時的なエラーなら待ってからやり直す。
// 最後まで一時エラーなら domainerr.ErrTransient で包んで返す。
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			t := time.NewTimer(p.Backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return fmt.Errorf("%w: %w", domainerr.ErrTransient, err)
			case <-t.C:
			}
		}

		err = call(ctx, p.Timeout, fn)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", domainerr.ErrTransient, err)
}

func call(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(cctx)
	// 呼び出し側のキャンセルではなく、こちらのタイムアウトで切れた
	if err != nil && errors.Is(cctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return err
}

// やり直せば通るかもしれないエラーか
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domainerr.ErrTransient) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08": // connection exception
			return true
		case pgErr.Code == "40001", pgErr.Code == "40P01": // serialization / deadlock
			return true
		case pgErr.Code == "57P03": // cannot connect now
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
