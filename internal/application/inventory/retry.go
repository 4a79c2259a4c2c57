package inventory

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/rs/zerolog"
)

// RetryPolicy reintentos acotados con backoff exponencial y jitter para errores transitorios
// (domain.ErrConflict, domain.ErrStoreUnavailable). Los errores de negocio nunca se reintentan.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy 5 intentos, 20ms base, tope 500ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: 20 * time.Millisecond, MaxDelay: 500 * time.Millisecond}
}

func (p RetryPolicy) run(ctx context.Context, log zerolog.Logger, op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !domain.IsRetryable(err) || attempt >= attempts {
			return err
		}
		delay := p.backoff(attempt)
		log.Warn().Err(err).Str("op", op).Int("intento", attempt).Dur("espera", delay).Msg("error transitorio, reintentando")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// backoff base*2^(n-1) con tope, jitter en [d/2, d].
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.BaseDelay
	if d <= 0 {
		return 0
	}
	for i := 1; i < attempt && d < p.MaxDelay; i++ {
		d *= 2
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	half := d / 2
	return half + time.Duration(rand.Int64N(int64(half)+1))
}

// Options dependencias comunes de los casos de uso del motor.
type Options struct {
	Logger zerolog.Logger
	Retry  RetryPolicy
	Now    func() time.Time
}

// DefaultOptions logger silencioso, DefaultRetryPolicy y reloj UTC.
func DefaultOptions() Options {
	return Options{Logger: zerolog.Nop(), Retry: DefaultRetryPolicy(), Now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC() }

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = utcNow
	}
	if o.Retry.MaxAttempts == 0 {
		o.Retry = DefaultRetryPolicy()
	}
	return o
}
