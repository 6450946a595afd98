// Package jobs runs long translation batches off the interactive path,
// with progress callbacks and cooperative cancellation.
package jobs

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Resolver answers from local memory, including pattern generalization.
type Resolver interface {
	BatchTranslate(texts []string) (map[string]string, map[string]bool)
	Learn(original, translated string) bool
}

// RemoteService reaches the external providers for whatever the local
// memory could not resolve.
type RemoteService interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, string, error)
}

// Origin tags where a result in the progress stream came from.
const (
	OriginMemory   = "memory"
	OriginProvider = "provider"
)

type Progress struct {
	Done    int
	Total   int
	Current string
	Origin  string
}

// Worker drives one batch. A Worker is single-use: create one per run.
type Worker struct {
	log      *logrus.Logger
	resolver Resolver
	remote   RemoteService
	canceled atomic.Bool
}

func NewWorker(resolver Resolver, remote RemoteService, log *logrus.Logger) *Worker {
	return &Worker{log: log, resolver: resolver, remote: remote}
}

// Cancel requests a stop. The run finishes the in-flight item and returns
// what it has so far.
func (w *Worker) Cancel() { w.canceled.Store(true) }

func (w *Worker) Canceled() bool { return w.canceled.Load() }

// Run resolves texts memory-first, then walks the provider chain for the
// remainder one text at a time so progress stays granular. Provider
// successes are learned back into the memory. onProgress may be nil.
func (w *Worker) Run(ctx context.Context, texts []string, sourceLang, targetLang string, onProgress func(Progress)) map[string]string {
	seen := make(map[string]struct{}, len(texts))
	pending := make([]string, 0, len(texts))
	for _, text := range texts {
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		pending = append(pending, text)
	}

	total := len(pending)
	results := make(map[string]string, total)
	done := 0
	report := func(text, origin string) {
		done++
		if onProgress != nil {
			onProgress(Progress{Done: done, Total: total, Current: text, Origin: origin})
		}
	}

	local, _ := w.resolver.BatchTranslate(pending)
	remaining := pending[:0]
	for _, text := range pending {
		if translated, ok := local[text]; ok {
			results[text] = translated
			report(text, OriginMemory)
			continue
		}
		remaining = append(remaining, text)
	}

	for _, text := range remaining {
		if w.canceled.Load() {
			w.log.WithFields(logrus.Fields{"done": done, "total": total}).Info("batch canceled")
			return results
		}
		select {
		case <-ctx.Done():
			return results
		default:
		}
		translated, provider, err := w.remote.Translate(ctx, text, sourceLang, targetLang)
		if err != nil {
			w.log.WithError(err).WithField("text", text).Warn("no provider could translate")
			report(text, "")
			continue
		}
		results[text] = translated
		w.resolver.Learn(text, translated)
		w.log.WithFields(logrus.Fields{"provider": provider, "len": len(translated)}).Debug("translated remotely")
		report(text, OriginProvider)
	}
	return results
}
