package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
)

type fakeResolver struct {
	answers map[string]string
	learned map[string]string
}

func (f *fakeResolver) BatchTranslate(texts []string) (map[string]string, map[string]bool) {
	out := map[string]string{}
	derived := map[string]bool{}
	for _, text := range texts {
		if translated, ok := f.answers[text]; ok {
			out[text] = translated
			derived[text] = false
		}
	}
	return out, derived
}

func (f *fakeResolver) Learn(original, translated string) bool {
	if f.learned == nil {
		f.learned = map[string]string{}
	}
	f.learned[original] = translated
	return true
}

type fakeRemote struct {
	answers map[string]string
	calls   int
	onCall  func(calls int)
}

func (f *fakeRemote) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, string, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall(f.calls)
	}
	if translated, ok := f.answers[text]; ok {
		return translated, "fake", nil
	}
	return "", "", errors.New("no answer")
}

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestRunMemoryFirstThenRemote(t *testing.T) {
	resolver := &fakeResolver{answers: map[string]string{"Sword": "Espada"}}
	remote := &fakeRemote{answers: map[string]string{"Shield": "Escudo"}}
	w := NewWorker(resolver, remote, quietLog())

	var progress []Progress
	results := w.Run(context.Background(), []string{"Sword", "Shield"}, "en", "pt", func(p Progress) {
		progress = append(progress, p)
	})

	if results["Sword"] != "Espada" || results["Shield"] != "Escudo" {
		t.Fatalf("results = %v", results)
	}
	if remote.calls != 1 {
		t.Fatalf("remote called %d times; memory hits must not reach it", remote.calls)
	}
	if len(progress) != 2 {
		t.Fatalf("progress events = %d; want one per text", len(progress))
	}
	if progress[0].Origin != OriginMemory || progress[1].Origin != OriginProvider {
		t.Fatalf("origins = %q, %q", progress[0].Origin, progress[1].Origin)
	}
	if progress[1].Done != 2 || progress[1].Total != 2 {
		t.Fatalf("final progress = %+v", progress[1])
	}
}

func TestRunLearnsRemoteResults(t *testing.T) {
	resolver := &fakeResolver{}
	remote := &fakeRemote{answers: map[string]string{"Shield": "Escudo"}}
	w := NewWorker(resolver, remote, quietLog())

	w.Run(context.Background(), []string{"Shield"}, "en", "pt", nil)
	if resolver.learned["Shield"] != "Escudo" {
		t.Fatal("remote result not learned into memory")
	}
}

func TestRunDeduplicates(t *testing.T) {
	resolver := &fakeResolver{}
	remote := &fakeRemote{answers: map[string]string{"Shield": "Escudo"}}
	w := NewWorker(resolver, remote, quietLog())

	results := w.Run(context.Background(), []string{"Shield", "Shield", "Shield"}, "en", "pt", nil)
	if remote.calls != 1 {
		t.Fatalf("remote called %d times for one distinct text", remote.calls)
	}
	if len(results) != 1 {
		t.Fatalf("results = %v", results)
	}
}

func TestRunContinuesPastFailures(t *testing.T) {
	resolver := &fakeResolver{}
	remote := &fakeRemote{answers: map[string]string{"b": "B"}}
	w := NewWorker(resolver, remote, quietLog())

	results := w.Run(context.Background(), []string{"a", "b"}, "en", "pt", nil)
	if _, ok := results["a"]; ok {
		t.Fatal("failed text must stay absent")
	}
	if results["b"] != "B" {
		t.Fatalf("results = %v", results)
	}
}

func TestRunCancelStopsBetweenItems(t *testing.T) {
	resolver := &fakeResolver{}
	remote := &fakeRemote{answers: map[string]string{"a": "A", "b": "B", "c": "C"}}
	w := NewWorker(resolver, remote, quietLog())
	remote.onCall = func(calls int) {
		if calls == 1 {
			w.Cancel()
		}
	}

	results := w.Run(context.Background(), []string{"a", "b", "c"}, "en", "pt", nil)
	if remote.calls != 1 {
		t.Fatalf("remote called %d times after cancel; want 1", remote.calls)
	}
	if len(results) != 1 {
		t.Fatalf("results = %v; want only the in-flight item", results)
	}
	if !w.Canceled() {
		t.Fatal("worker must report canceled")
	}
}

func TestRunContextCancellation(t *testing.T) {
	resolver := &fakeResolver{}
	remote := &fakeRemote{answers: map[string]string{"a": "A", "b": "B"}}
	w := NewWorker(resolver, remote, quietLog())
	ctx, cancel := context.WithCancel(context.Background())
	remote.onCall = func(calls int) { cancel() }

	results := w.Run(ctx, []string{"a", "b"}, "en", "pt", nil)
	if remote.calls != 1 {
		t.Fatalf("remote called %d times after ctx cancel", remote.calls)
	}
	if len(results) != 1 {
		t.Fatalf("results = %v", results)
	}
}
