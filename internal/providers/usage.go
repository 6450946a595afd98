package providers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// providerUsage accumulates character and request counts for one provider.
type providerUsage struct {
	Chars      int64 `json:"chars"`
	CharsToday int64 `json:"chars_today"`
	Requests   int64 `json:"requests"`
}

// usageFile is stored flat: provider entries sit beside the month and day
// markers at the top level of the JSON object.
type usageFile struct {
	Month     string
	Day       string
	Providers map[string]providerUsage
}

func (f usageFile) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(f.Providers)+2)
	out["month"] = f.Month
	out["day"] = f.Day
	for name, u := range f.Providers {
		out[name] = u
	}
	return json.Marshal(out)
}

func (f *usageFile) UnmarshalJSON(raw []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	f.Providers = map[string]providerUsage{}
	for name, v := range fields {
		switch name {
		case "month":
			if err := json.Unmarshal(v, &f.Month); err != nil {
				return err
			}
		case "day":
			if err := json.Unmarshal(v, &f.Day); err != nil {
				return err
			}
		default:
			var u providerUsage
			if err := json.Unmarshal(v, &u); err != nil {
				return err
			}
			f.Providers[name] = u
		}
	}
	return nil
}

// UsageTracker persists per-provider consumption to a JSON file so quota
// accounting survives restarts. Monthly counters reset when the calendar
// month changes, daily counters when the day changes.
type UsageTracker struct {
	mu   sync.Mutex
	path string
	log  *logrus.Logger
	now  func() time.Time
	data usageFile
}

func NewUsageTracker(path string, log *logrus.Logger) *UsageTracker {
	t := &UsageTracker{path: path, log: log, now: time.Now}
	t.load()
	return t
}

func (t *UsageTracker) load() {
	t.data = usageFile{Providers: map[string]providerUsage{}}
	raw, err := os.ReadFile(t.path)
	if err != nil {
		return
	}
	if err := json.Unmarshal(raw, &t.data); err != nil {
		t.log.WithError(err).WithField("path", t.path).Warn("usage file unreadable, starting fresh")
		t.data = usageFile{Providers: map[string]providerUsage{}}
	}
	if t.data.Providers == nil {
		t.data.Providers = map[string]providerUsage{}
	}
}

// rollover resets stale counters in place. Callers hold the mutex.
func (t *UsageTracker) rollover() {
	now := t.now()
	month := now.Format("2006-01")
	day := now.Format("2006-01-02")
	if t.data.Month != month {
		t.data.Month = month
		for name, u := range t.data.Providers {
			u.Chars = 0
			u.Requests = 0
			t.data.Providers[name] = u
		}
	}
	if t.data.Day != day {
		t.data.Day = day
		for name, u := range t.data.Providers {
			u.CharsToday = 0
			t.data.Providers[name] = u
		}
	}
}

// Record charges chars against a provider and persists the file.
func (t *UsageTracker) Record(provider string, chars int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()
	u := t.data.Providers[provider]
	u.Chars += int64(chars)
	u.CharsToday += int64(chars)
	u.Requests++
	t.data.Providers[provider] = u
	t.persist()
}

func (t *UsageTracker) persist() {
	raw, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return
	}
	if dir := filepath.Dir(t.path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	if err := os.WriteFile(t.path, raw, 0o644); err != nil {
		t.log.WithError(err).WithField("path", t.path).Warn("could not persist usage file")
	}
}

// MonthChars returns the characters consumed this month.
func (t *UsageTracker) MonthChars(provider string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()
	return t.data.Providers[provider].Chars
}

// DayChars returns the characters consumed today.
func (t *UsageTracker) DayChars(provider string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()
	return t.data.Providers[provider].CharsToday
}

func (t *UsageTracker) Requests(provider string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()
	return t.data.Providers[provider].Requests
}
