// Package providers implements the external machine-translation backends
// and the manager that arbitrates between them. Every backend shares the
// same request pipeline: result cache, quota gate, request spacing, usage
// accounting.
package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	// ErrQuotaExceeded is returned before any network call when the
	// provider's character budget for the current period is spent.
	ErrQuotaExceeded = errors.New("provider quota exceeded")
	// ErrEmptyResult is returned when a provider answers without a
	// usable translation.
	ErrEmptyResult = errors.New("provider returned empty translation")
)

type quotaPeriod int

const (
	quotaMonthly quotaPeriod = iota
	quotaDaily
)

// clientCore is the pipeline shared by all backends. charLimit of zero
// means unmetered.
type clientCore struct {
	name      string
	charLimit int64
	period    quotaPeriod
	limiter   *rate.Limiter
	cache     *lruCache
	usage     *UsageTracker
	log       *logrus.Logger
}

func newClientCore(name string, charLimit int64, period quotaPeriod, spacing time.Duration, cache *lruCache, usage *UsageTracker, log *logrus.Logger) *clientCore {
	return &clientCore{
		name:      name,
		charLimit: charLimit,
		period:    period,
		limiter:   rate.NewLimiter(rate.Every(spacing), 1),
		cache:     cache,
		usage:     usage,
		log:       log,
	}
}

func (c *clientCore) used() int64 {
	if c.period == quotaDaily {
		return c.usage.DayChars(c.name)
	}
	return c.usage.MonthChars(c.name)
}

// do runs one translation through the shared pipeline. The call func
// performs the actual network request.
func (c *clientCore) do(ctx context.Context, text, sourceLang, targetLang string, call func(ctx context.Context) (string, error)) (string, error) {
	key := cacheKey(sourceLang, targetLang, text)
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}
	chars := int64(utf8.RuneCountInString(text))
	if c.charLimit > 0 && c.used()+chars > c.charLimit {
		return "", fmt.Errorf("%s: %w", c.name, ErrQuotaExceeded)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	translated, err := call(ctx)
	if err != nil {
		return "", err
	}
	if translated == "" {
		return "", fmt.Errorf("%s: %w", c.name, ErrEmptyResult)
	}
	c.usage.Record(c.name, int(chars))
	c.cache.Put(key, translated)
	return translated, nil
}

// sequentialBatch translates texts one by one, skipping failures. The
// returned map only holds texts that succeeded.
func sequentialBatch(ctx context.Context, texts []string, translate func(ctx context.Context, text string) (string, error)) map[string]string {
	out := make(map[string]string, len(texts))
	for _, text := range texts {
		if _, done := out[text]; done {
			continue
		}
		translated, err := translate(ctx, text)
		if err != nil {
			continue
		}
		out[text] = translated
	}
	return out
}
