package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	deeplFreeEndpoint  = "https://api-free.deepl.com/v2/translate"
	deeplMonthlyQuota  = 500_000
	deeplMinReqSpacing = 200 * time.Millisecond
)

// DeepL talks to the DeepL REST API using the free-plan endpoint unless a
// custom one is configured.
type DeepL struct {
	core     *clientCore
	http     *resty.Client
	apiKey   string
	endpoint string
}

func NewDeepL(apiKey, endpoint string, cache *lruCache, usage *UsageTracker, log *logrus.Logger) *DeepL {
	if endpoint == "" {
		endpoint = deeplFreeEndpoint
	}
	return &DeepL{
		core:     newClientCore("deepl", deeplMonthlyQuota, quotaMonthly, deeplMinReqSpacing, cache, usage, log),
		http:     resty.New().SetTimeout(15 * time.Second),
		apiKey:   apiKey,
		endpoint: endpoint,
	}
}

func (d *DeepL) Name() string { return "deepl" }

// deeplLang maps lowercase two-letter codes onto DeepL's dialect codes.
func deeplLang(code string, target bool) string {
	if target && strings.EqualFold(code, "pt") {
		return "PT-BR"
	}
	return strings.ToUpper(code)
}

func (d *DeepL) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return d.core.do(ctx, text, sourceLang, targetLang, func(ctx context.Context) (string, error) {
		var resp struct {
			Translations []struct {
				Text string `json:"text"`
			} `json:"translations"`
		}
		r, err := d.http.R().SetContext(ctx).
			SetHeader("Authorization", "DeepL-Auth-Key "+d.apiKey).
			SetFormData(map[string]string{
				"text":        text,
				"source_lang": deeplLang(sourceLang, false),
				"target_lang": deeplLang(targetLang, true),
			}).
			SetResult(&resp).
			Post(d.endpoint)
		if err != nil {
			return "", err
		}
		if r.IsError() {
			return "", fmt.Errorf("deepl translate: %s; body: %s", r.Status(), r.String())
		}
		if len(resp.Translations) == 0 {
			return "", ErrEmptyResult
		}
		return resp.Translations[0].Text, nil
	})
}

func (d *DeepL) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) map[string]string {
	return sequentialBatch(ctx, texts, func(ctx context.Context, text string) (string, error) {
		return d.Translate(ctx, text, sourceLang, targetLang)
	})
}
