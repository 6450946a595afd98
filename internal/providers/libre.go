package providers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const libreMinReqSpacing = time.Second

// libreServers are public LibreTranslate instances. The client rotates to
// the next one when a request fails or gets throttled.
var libreServers = []string{
	"https://libretranslate.com/translate",
	"https://translate.argosopentech.com/translate",
	"https://libretranslate.de/translate",
}

// LibreTranslate is the keyless fallback backend. It has no quota of its
// own; availability of the public servers is the only limit.
type LibreTranslate struct {
	core    *clientCore
	http    *resty.Client
	mu      sync.Mutex
	servers []string
	current int
}

func NewLibreTranslate(cache *lruCache, usage *UsageTracker, log *logrus.Logger) *LibreTranslate {
	return &LibreTranslate{
		core:    newClientCore("libre", 0, quotaMonthly, libreMinReqSpacing, cache, usage, log),
		http:    resty.New().SetTimeout(20 * time.Second),
		servers: libreServers,
	}
}

func (l *LibreTranslate) Name() string { return "libre" }

func (l *LibreTranslate) rotate() {
	l.mu.Lock()
	l.current = (l.current + 1) % len(l.servers)
	l.mu.Unlock()
}

func (l *LibreTranslate) server() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.servers[l.current]
}

func (l *LibreTranslate) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return l.core.do(ctx, text, sourceLang, targetLang, func(ctx context.Context) (string, error) {
		var lastErr error
		for range l.servers {
			server := l.server()
			var resp struct {
				TranslatedText string `json:"translatedText"`
			}
			r, err := l.http.R().SetContext(ctx).
				SetBody(map[string]string{
					"q":      text,
					"source": sourceLang,
					"target": targetLang,
					"format": "text",
				}).
				SetResult(&resp).
				Post(server)
			if err != nil {
				lastErr = err
				l.rotate()
				continue
			}
			if r.StatusCode() == 429 || r.StatusCode() >= 500 {
				lastErr = fmt.Errorf("libre translate %s: %s", server, r.Status())
				l.rotate()
				continue
			}
			if r.IsError() {
				return "", fmt.Errorf("libre translate %s: %s; body: %s", server, r.Status(), r.String())
			}
			return resp.TranslatedText, nil
		}
		return "", fmt.Errorf("all libretranslate servers failed: %w", lastErr)
	})
}

func (l *LibreTranslate) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) map[string]string {
	return sequentialBatch(ctx, texts, func(ctx context.Context, text string) (string, error) {
		return l.Translate(ctx, text, sourceLang, targetLang)
	})
}
