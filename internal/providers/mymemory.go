package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	mymemoryEndpoint        = "https://api.mymemory.translated.net/get"
	mymemoryAnonDailyQuota  = 5_000
	mymemoryEmailDailyQuota = 50_000
	mymemoryMinReqSpacing   = time.Second
)

// MyMemory queries the MyMemory public API. Supplying a contact email
// raises the daily character allowance from 5k to 50k.
type MyMemory struct {
	core  *clientCore
	http  *resty.Client
	email string
}

func NewMyMemory(email string, cache *lruCache, usage *UsageTracker, log *logrus.Logger) *MyMemory {
	quota := int64(mymemoryAnonDailyQuota)
	if email != "" {
		quota = mymemoryEmailDailyQuota
	}
	return &MyMemory{
		core:  newClientCore("mymemory", quota, quotaDaily, mymemoryMinReqSpacing, cache, usage, log),
		http:  resty.New().SetTimeout(15 * time.Second),
		email: email,
	}
}

func (m *MyMemory) Name() string { return "mymemory" }

func (m *MyMemory) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return m.core.do(ctx, text, sourceLang, targetLang, func(ctx context.Context) (string, error) {
		var resp struct {
			ResponseStatus int `json:"responseStatus"`
			ResponseData   struct {
				TranslatedText string `json:"translatedText"`
			} `json:"responseData"`
		}
		req := m.http.R().SetContext(ctx).
			SetQueryParam("q", text).
			SetQueryParam("langpair", sourceLang+"|"+targetLang).
			SetResult(&resp)
		if m.email != "" {
			req.SetQueryParam("de", m.email)
		}
		r, err := req.Get(mymemoryEndpoint)
		if err != nil {
			return "", err
		}
		if r.IsError() {
			return "", fmt.Errorf("mymemory translate: %s; body: %s", r.Status(), r.String())
		}
		if resp.ResponseStatus != 200 {
			return "", fmt.Errorf("mymemory translate: status %d", resp.ResponseStatus)
		}
		return resp.ResponseData.TranslatedText, nil
	})
}

func (m *MyMemory) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) map[string]string {
	return sequentialBatch(ctx, texts, func(ctx context.Context, text string) (string, error) {
		return m.Translate(ctx, text, sourceLang, targetLang)
	})
}
