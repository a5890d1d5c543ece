// Package detector adapts external annotation services to the fuser's
// detector interfaces, layering caching, retries and circuit breaking
// over the raw clients.
package detector

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/adityagoyal009/ocean-sentinel/internal/cache"
	"github.com/adityagoyal009/ocean-sentinel/internal/monitoring"
	"github.com/adityagoyal009/ocean-sentinel/internal/resilience"
)

const defaultTTL = 24 * time.Hour

// Options carries the shared plumbing for every adapter. Zero values
// disable the corresponding layer: no cache, no breaker, no metrics.
type Options struct {
	Cache    cache.Store
	TTL      time.Duration
	Retry    resilience.Policy
	Breakers *resilience.BreakerSet
	Metrics  *monitoring.Collector
}

func (o Options) ttl() time.Duration {
	if o.TTL > 0 {
		return o.TTL
	}
	return defaultTTL
}

// fetch serves a detector response from cache when possible, otherwise
// calls out under retry and circuit-breaker protection and stores the
// fresh result. Cache failures are logged, never fatal.
func fetch[T any](ctx context.Context, o Options, name string, image []byte, call func(context.Context) (*T, error)) (out *T, cached bool, err error) {
	var key string
	if o.Cache != nil {
		key = cache.Key(image)
		payload, err := o.Cache.Get(ctx, name, key)
		if err != nil {
			zap.L().Warn("detector: cache read failed",
				zap.String("detector", name),
				zap.Error(err),
			)
		} else if payload != nil {
			var hit T
			uerr := json.Unmarshal(payload, &hit)
			if uerr == nil {
				o.Metrics.RecordCacheHit(name)
				return &hit, true, nil
			}
			zap.L().Warn("detector: cache payload unreadable",
				zap.String("detector", name),
				zap.Error(uerr),
			)
		}
	}
	o.Metrics.RecordCacheMiss(name)

	attempt := call
	if o.Breakers != nil {
		b := o.Breakers.Get(name)
		attempt = func(ctx context.Context) (*T, error) {
			return resilience.CallVal(ctx, b, call)
		}
	}

	out, err = resilience.RetryVal(ctx, o.Retry, name, attempt)
	if err != nil {
		o.Metrics.RecordFailure(name)
		return nil, false, err
	}

	if o.Cache != nil {
		payload, err := json.Marshal(out)
		if err == nil {
			err = o.Cache.Set(ctx, name, key, payload, o.ttl())
		}
		if err != nil {
			zap.L().Warn("detector: cache write failed",
				zap.String("detector", name),
				zap.Error(err),
			)
		}
	}
	return out, false, nil
}

// transientStatus marks errors carrying a retryable HTTP status so the
// retry layer distinguishes them from permanent rejections.
func transientStatus(err error, code int) error {
	if err == nil {
		return nil
	}
	if code > 0 && resilience.RetryableStatus(code) {
		return resilience.MarkTransient(err, code)
	}
	return err
}

// sniffMediaType reports the image MIME type for API payloads, falling
// back to JPEG when detection is inconclusive.
func sniffMediaType(image []byte) string {
	switch t := http.DetectContentType(image); t {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return t
	default:
		return "image/jpeg"
	}
}
