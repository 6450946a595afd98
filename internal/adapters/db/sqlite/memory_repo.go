package sqlite

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Kyo-70/game-translator/internal/domain"
)

// lookupChunkSize keeps IN(...) lists under the engine's bound-parameter
// ceiling.
const lookupChunkSize = 500

// MemoryRepo holds the raw queries of the translation memory. It performs
// no locking; the owning store serializes access.
type MemoryRepo struct {
	DB *sql.DB
	SQ sq.StatementBuilderType
}

func NewMemoryRepo(db *sql.DB) *MemoryRepo {
	return &MemoryRepo{DB: db, SQ: sq.StatementBuilder}
}

// Upsert inserts a record or, on original_text conflict, updates the
// translated text and metadata, bumps updated_at and increments usage_count.
func (r *MemoryRepo) Upsert(ctx context.Context, original, translated string, opts domain.AddOptions) error {
	q := r.SQ.Insert("translations").
		Columns("original_text", "translated_text", "source_language", "target_language", "category", "notes").
		Values(original, translated, opts.SourceLang, opts.TargetLang, opts.Category, opts.Notes).
		Suffix(`ON CONFLICT(original_text) DO UPDATE SET
            translated_text = excluded.translated_text,
            updated_at = CURRENT_TIMESTAMP,
            usage_count = usage_count + 1,
            category = excluded.category,
            notes = excluded.notes`)
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

// UpsertBatch applies upsert semantics for every pair inside one
// transaction. A failing pair counts as an error without aborting the rest;
// duplicate keys resolve through the upsert and count as successes.
func (r *MemoryRepo) UpsertBatch(ctx context.Context, pairs []domain.TranslationPair, opts domain.AddOptions) (int, int, error) {
	q := r.SQ.Insert("translations").
		Columns("original_text", "translated_text", "source_language", "target_language", "category").
		Values("", "", "", "", "").
		Suffix(`ON CONFLICT(original_text) DO UPDATE SET
            translated_text = excluded.translated_text,
            updated_at = CURRENT_TIMESTAMP,
            usage_count = usage_count + 1`)
	sqlStr, _, _ := q.ToSql()
	inserted, errs := 0, 0
	err := WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, sqlStr)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range pairs {
			if _, err := stmt.ExecContext(ctx, p.Original, p.Translated, opts.SourceLang, opts.TargetLang, opts.Category); err != nil {
				errs++
				continue
			}
			inserted++
		}
		return nil
	})
	return inserted, errs, err
}

// Lookup returns the translation for an exact original text and bumps its
// usage counter on the hit.
func (r *MemoryRepo) Lookup(ctx context.Context, original string) (string, bool, error) {
	q := r.SQ.Select("translated_text").From("translations").
		Where(sq.Eq{"original_text": original}).Limit(1)
	sqlStr, args, _ := q.ToSql()
	var translated string
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&translated); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	uq := r.SQ.Update("translations").
		Set("usage_count", sq.Expr("usage_count + 1")).
		Where(sq.Eq{"original_text": original})
	sqlStr, args, _ = uq.ToSql()
	if _, err := r.DB.ExecContext(ctx, sqlStr, args...); err != nil {
		return "", false, err
	}
	return translated, true, nil
}

// LookupBatch resolves many originals at once, chunked to respect parameter
// limits. Only found keys appear in the result; usage counters are not
// touched.
func (r *MemoryRepo) LookupBatch(ctx context.Context, originals []string) (map[string]string, error) {
	out := make(map[string]string, len(originals))
	for i := 0; i < len(originals); i += lookupChunkSize {
		end := i + lookupChunkSize
		if end > len(originals) {
			end = len(originals)
		}
		q := r.SQ.Select("original_text", "translated_text").From("translations").
			Where(sq.Eq{"original_text": originals[i:end]})
		sqlStr, args, _ := q.ToSql()
		rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var o, t string
			if err := rows.Scan(&o, &t); err != nil {
				rows.Close()
				return nil, err
			}
			out[o] = t
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return out, nil
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

// List returns records ordered by usage_count desc, then updated_at desc.
// Search matches a case-insensitive substring of either side of the pair.
func (r *MemoryRepo) List(ctx context.Context, f ListFilter) ([]*domain.TranslationRecord, error) {
	q := r.SQ.Select("id", "original_text", "translated_text", "source_language",
		"target_language", "category", "notes", "created_at", "updated_at", "usage_count").
		From("translations").
		OrderBy("usage_count DESC", "updated_at DESC")
	if f.Category != "" {
		q = q.Where(sq.Eq{"category": f.Category})
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where(sq.Or{
			sq.Like{"original_text": like},
			sq.Like{"translated_text": like},
		})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit)).Offset(uint64(f.Offset))
	}
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.TranslationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetByID returns a single record or nil when absent.
func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (*domain.TranslationRecord, error) {
	q := r.SQ.Select("id", "original_text", "translated_text", "source_language",
		"target_language", "category", "notes", "created_at", "updated_at", "usage_count").
		From("translations").Where(sq.Eq{"id": id}).Limit(1)
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRecord(rows)
}

// UpdateFields patches translated text, category and/or notes of a record by
// id; nil means "leave unchanged". updated_at is always bumped.
func (r *MemoryRepo) UpdateFields(ctx context.Context, id int64, translated, category, notes *string) (bool, error) {
	if translated == nil && category == nil && notes == nil {
		return false, nil
	}
	q := r.SQ.Update("translations").Where(sq.Eq{"id": id}).
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP"))
	if translated != nil {
		q = q.Set("translated_text", *translated)
	}
	if category != nil {
		q = q.Set("category", *category)
	}
	if notes != nil {
		q = q.Set("notes", *notes)
	}
	sqlStr, args, _ := q.ToSql()
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *MemoryRepo) DeleteByID(ctx context.Context, id int64) (bool, error) {
	sqlStr, args, _ := r.SQ.Delete("translations").Where(sq.Eq{"id": id}).ToSql()
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *MemoryRepo) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	sqlStr, args, _ := r.SQ.Delete("translations").Where(sq.Eq{"id": ids}).ToSql()
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *MemoryRepo) DeleteAll(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM translations`)
	return err
}

func (r *MemoryRepo) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT category FROM translations ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MemoryStats aggregates the memory counters.
type MemoryStats struct {
	TotalTranslations int64 `json:"total_translations"`
	TotalUsage        int64 `json:"total_usage"`
	Categories        int64 `json:"categories"`
}

func (r *MemoryRepo) Stats(ctx context.Context) (MemoryStats, error) {
	var s MemoryStats
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM translations`).Scan(&s.TotalTranslations); err != nil {
		return s, err
	}
	var usage sql.NullInt64
	if err := r.DB.QueryRowContext(ctx, `SELECT SUM(usage_count) FROM translations`).Scan(&usage); err != nil {
		return s, err
	}
	s.TotalUsage = usage.Int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(DISTINCT category) FROM translations`).Scan(&s.Categories); err != nil {
		return s, err
	}
	return s, nil
}

// Vacuum reclaims space after large deletes.
func (r *MemoryRepo) Vacuum(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `VACUUM`)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.TranslationRecord, error) {
	var rec domain.TranslationRecord
	var created, updated string
	if err := row.Scan(&rec.ID, &rec.OriginalText, &rec.TranslatedText,
		&rec.SourceLanguage, &rec.TargetLanguage, &rec.Category, &rec.Notes,
		&created, &updated, &rec.UsageCount); err != nil {
		return nil, err
	}
	rec.CreatedAt = parseTimestamp(created)
	rec.UpdatedAt = parseTimestamp(updated)
	return &rec, nil
}

// parseTimestamp accepts both SQLite CURRENT_TIMESTAMP and RFC3339 forms.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
