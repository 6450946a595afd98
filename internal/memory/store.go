// Package memory implements the persistent translation memory: an
// upsert-based store of (original, translated) pairs with usage metadata,
// backed by a single SQLite file.
package memory

import (
	"context"
	"database/sql"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Kyo-70/game-translator/internal/adapters/db/sqlite"
	"github.com/Kyo-70/game-translator/internal/domain"
)

const (
	defaultSourceLang = "en"
	defaultTargetLang = "pt"
	defaultCategory   = "general"
)

// ListFilter narrows List results; re-exported so callers do not need the
// storage package.
type ListFilter = sqlite.ListFilter

// Store is the translation memory. Every operation is serialized by one
// mutex; multiple goroutines may share a Store instance safely. Public
// methods lock once and delegate to unlocked helpers, which keeps helper
// composition deadlock-free without a re-entrant lock.
//
// Per the error-handling contract, operations on a disconnected store and
// storage failures degrade to false/empty results; they are logged, never
// panicked.
type Store struct {
	mu   sync.Mutex
	log  *logrus.Logger
	db   *sql.DB
	repo *sqlite.MemoryRepo
	path string
}

func NewStore(log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.New()
	}
	return &Store{log: log}
}

// Connect opens (or creates) the backing file, applying schema and pragmas.
// A previously open connection is closed first; a store holds at most one.
func (s *Store) Connect(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
	db, err := sqlite.Init(path)
	if err != nil {
		s.log.WithError(err).WithField("path", path).Error("translation memory connect failed")
		return false
	}
	s.db = db
	s.repo = sqlite.NewMemoryRepo(db)
	s.path = path
	return true
}

func (s *Store) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db != nil
}

// Path returns the backing file of the open connection, or "".
func (s *Store) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Add inserts or updates the pair keyed by the original text. Zero-value
// options default to en/pt/general/empty notes.
func (s *Store) Add(original, translated string, opts domain.AddOptions) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return false
	}
	if err := s.repo.Upsert(context.Background(), original, translated, fillDefaults(opts)); err != nil {
		s.log.WithError(err).Error("translation upsert failed")
		return false
	}
	return true
}

// AddBatch upserts every pair inside one transaction and returns
// (succeeded, failed). Duplicate keys are updates, not failures; only
// engine-level write errors count against the failure total.
func (s *Store) AddBatch(pairs []domain.TranslationPair, opts domain.AddOptions) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addBatchLocked(pairs, opts)
}

func (s *Store) addBatchLocked(pairs []domain.TranslationPair, opts domain.AddOptions) (int, int) {
	if s.db == nil || len(pairs) == 0 {
		return 0, 0
	}
	inserted, errs, err := s.repo.UpsertBatch(context.Background(), pairs, fillDefaults(opts))
	if err != nil {
		s.log.WithError(err).Error("translation batch upsert failed")
	}
	return inserted, errs
}

// Lookup resolves an exact original text. A hit increments the usage
// counter; usage frequency ranks hot entries for triage.
func (s *Store) Lookup(original string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return "", false
	}
	translated, ok, err := s.repo.Lookup(context.Background(), original)
	if err != nil {
		s.log.WithError(err).Error("translation lookup failed")
		return "", false
	}
	return translated, ok
}

// LookupBatch resolves many originals in chunked queries. The result holds
// only the found keys; usage counters are not bumped on this path.
func (s *Store) LookupBatch(originals []string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil || len(originals) == 0 {
		return map[string]string{}
	}
	out, err := s.repo.LookupBatch(context.Background(), originals)
	if err != nil {
		s.log.WithError(err).Error("translation batch lookup failed")
		return map[string]string{}
	}
	return out
}

// List returns records ordered by usage_count desc, updated_at desc,
// optionally filtered by category and case-insensitive substring search.
func (s *Store) List(f sqlite.ListFilter) []*domain.TranslationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(f)
}

func (s *Store) listLocked(f sqlite.ListFilter) []*domain.TranslationRecord {
	if s.db == nil {
		return nil
	}
	out, err := s.repo.List(context.Background(), f)
	if err != nil {
		s.log.WithError(err).Error("translation list failed")
		return nil
	}
	return out
}

// Search is List with only a search term.
func (s *Store) Search(term string) []*domain.TranslationRecord {
	return s.List(sqlite.ListFilter{Search: term})
}

func (s *Store) GetByID(id int64) *domain.TranslationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	rec, err := s.repo.GetByID(context.Background(), id)
	if err != nil {
		s.log.WithError(err).Error("translation get failed")
		return nil
	}
	return rec
}

// UpdateFields patches selected fields of a record; nil leaves a field
// unchanged. Returns false when nothing was given or the id is unknown.
func (s *Store) UpdateFields(id int64, translated, category, notes *string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return false
	}
	ok, err := s.repo.UpdateFields(context.Background(), id, translated, category, notes)
	if err != nil {
		s.log.WithError(err).Error("translation update failed")
		return false
	}
	return ok
}

func (s *Store) DeleteOne(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return false
	}
	ok, err := s.repo.DeleteByID(context.Background(), id)
	if err != nil {
		s.log.WithError(err).Error("translation delete failed")
		return false
	}
	return ok
}

// DeleteMany removes records by id and returns the number deleted.
func (s *Store) DeleteMany(ids []int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0
	}
	n, err := s.repo.DeleteByIDs(context.Background(), ids)
	if err != nil {
		s.log.WithError(err).Error("translation bulk delete failed")
		return 0
	}
	return n
}

func (s *Store) ClearAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return false
	}
	if err := s.repo.DeleteAll(context.Background()); err != nil {
		s.log.WithError(err).Error("translation clear failed")
		return false
	}
	return true
}

func (s *Store) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	out, err := s.repo.Categories(context.Background())
	if err != nil {
		s.log.WithError(err).Error("category list failed")
		return nil
	}
	return out
}

// Stats reports row count, summed usage and distinct category count.
func (s *Store) Stats() sqlite.MemoryStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return sqlite.MemoryStats{}
	}
	st, err := s.repo.Stats(context.Background())
	if err != nil {
		s.log.WithError(err).Error("memory stats failed")
		return sqlite.MemoryStats{}
	}
	return st
}

// Compact runs VACUUM; recommended after large deletes.
func (s *Store) Compact() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return false
	}
	if err := s.repo.Vacuum(context.Background()); err != nil {
		s.log.WithError(err).Error("vacuum failed")
		return false
	}
	return true
}

// Close is idempotent and safe from cleanup paths.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Store) closeLocked() {
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
		s.repo = nil
		s.path = ""
	}
}

func fillDefaults(opts domain.AddOptions) domain.AddOptions {
	if opts.SourceLang == "" {
		opts.SourceLang = defaultSourceLang
	}
	if opts.TargetLang == "" {
		opts.TargetLang = defaultTargetLang
	}
	if opts.Category == "" {
		opts.Category = defaultCategory
	}
	return opts
}
