package ports

import "context"

// Provider is a single external translation service. Translate returns an
// error for any failure (HTTP, quota, rate limit); callers treat it as "no
// translation from this provider" and fall back.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) map[string]string
}
