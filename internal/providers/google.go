package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	googleEndpoint      = "https://translation.googleapis.com/language/translate/v2"
	googleMonthlyQuota  = 500_000
	googleMinReqSpacing = 100 * time.Millisecond
	googleBatchChunk    = 100
)

// GoogleTranslate uses the Cloud Translation v2 REST API with an API key.
// Unlike the other backends it supports multi-text requests natively.
type GoogleTranslate struct {
	core   *clientCore
	http   *resty.Client
	apiKey string
}

func NewGoogleTranslate(apiKey string, cache *lruCache, usage *UsageTracker, log *logrus.Logger) *GoogleTranslate {
	return &GoogleTranslate{
		core:   newClientCore("google", googleMonthlyQuota, quotaMonthly, googleMinReqSpacing, cache, usage, log),
		http:   resty.New().SetTimeout(15 * time.Second),
		apiKey: apiKey,
	}
}

func (g *GoogleTranslate) Name() string { return "google" }

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

func (g *GoogleTranslate) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return g.core.do(ctx, text, sourceLang, targetLang, func(ctx context.Context) (string, error) {
		results, err := g.request(ctx, []string{text}, sourceLang, targetLang)
		if err != nil {
			return "", err
		}
		if len(results) == 0 {
			return "", ErrEmptyResult
		}
		return results[0], nil
	})
}

// TranslateBatch sends texts in chunks of up to 100, falling back to the
// cache and quota gate per chunk. Chunks that fail are skipped.
func (g *GoogleTranslate) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) map[string]string {
	out := make(map[string]string, len(texts))
	pending := make([]string, 0, len(texts))
	for _, text := range texts {
		if _, done := out[text]; done {
			continue
		}
		if cached, ok := g.core.cache.Get(cacheKey(sourceLang, targetLang, text)); ok {
			out[text] = cached
			continue
		}
		pending = append(pending, text)
	}
	for start := 0; start < len(pending); start += googleBatchChunk {
		end := start + googleBatchChunk
		if end > len(pending) {
			end = len(pending)
		}
		chunk := pending[start:end]
		var chars int64
		for _, text := range chunk {
			chars += int64(len([]rune(text)))
		}
		if g.core.charLimit > 0 && g.core.used()+chars > g.core.charLimit {
			g.core.log.WithField("provider", g.Name()).Warn("quota exhausted, dropping remaining batch")
			break
		}
		if err := g.core.limiter.Wait(ctx); err != nil {
			break
		}
		results, err := g.request(ctx, chunk, sourceLang, targetLang)
		if err != nil || len(results) != len(chunk) {
			g.core.log.WithError(err).WithField("provider", g.Name()).Warn("batch chunk failed")
			continue
		}
		g.core.usage.Record(g.Name(), int(chars))
		for i, text := range chunk {
			out[text] = results[i]
			g.core.cache.Put(cacheKey(sourceLang, targetLang, text), results[i])
		}
	}
	return out
}

func (g *GoogleTranslate) request(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	var resp googleResponse
	r, err := g.http.R().SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetBody(map[string]any{
			"q":      texts,
			"source": sourceLang,
			"target": targetLang,
			"format": "text",
		}).
		SetResult(&resp).
		Post(googleEndpoint)
	if err != nil {
		return nil, err
	}
	if r.IsError() {
		return nil, fmt.Errorf("google translate: %s; body: %s", r.Status(), r.String())
	}
	out := make([]string, 0, len(resp.Data.Translations))
	for _, t := range resp.Data.Translations {
		out = append(out, t.TranslatedText)
	}
	return out, nil
}
