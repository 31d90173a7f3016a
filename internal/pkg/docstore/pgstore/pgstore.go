// Package pgstore implements docstore.Store on PostgreSQL. Every collection
// lives in the shared "documents" table (see migrations/001_create_documents.sql)
// with the document body in a JSONB column.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/rosterhub/internal/pkg/dberrors"
	"github.com/yigit/rosterhub/internal/pkg/docstore"
	"github.com/yigit/rosterhub/internal/pkg/logger"
)

const table = "documents"

// Store runs document operations through a pgx pool.
type Store struct {
	db    *pgxpool.Pool
	sb    squirrel.StatementBuilderType
	guard *docstore.Guard
}

var _ docstore.Store = (*Store)(nil)

// New wraps a connected pool. The pool is closed by Store.Close.
func New(db *pgxpool.Pool, timeout time.Duration) *Store {
	return &Store{
		db:    db,
		sb:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		guard: docstore.NewGuard(timeout),
	}
}

func (s *Store) begin(ctx context.Context, name string) (context.Context, context.CancelFunc, error) {
	if s.db == nil {
		return ctx, func() {}, docstore.ErrUnavailable
	}
	if err := docstore.ValidateCollection(name); err != nil {
		return ctx, func() {}, err
	}
	return s.guard.Begin(ctx)
}

func (s *Store) Insert(ctx context.Context, name string, doc docstore.Document) (string, error) {
	ctx, cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return "", err
	}
	return s.insert(ctx, s.db, name, doc)
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *Store) insert(ctx context.Context, q queryer, name string, doc docstore.Document) (string, error) {
	body, err := json.Marshal(doc.WithoutID())
	if err != nil {
		return "", fmt.Errorf("pgstore: encode body: %w", err)
	}

	sql, args, err := s.sb.Insert(table).
		Columns("collection", "body").
		Values(name, body).
		Suffix("RETURNING id::text").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("pgstore: build insert: %w", err)
	}

	var id string
	if err := q.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return "", classify(err)
	}
	return id, nil
}

func (s *Store) FindOne(ctx context.Context, name string, filter docstore.Filter) (docstore.Document, error) {
	docs, err := s.FindMany(ctx, name, filter, docstore.FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, docstore.ErrNotFound
	}
	return docs[0], nil
}

func (s *Store) FindMany(ctx context.Context, name string, filter docstore.Filter, opts docstore.FindOptions) ([]docstore.Document, error) {
	ctx, cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return nil, err
	}
	where, err := buildWhere(name, filter)
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	query := s.sb.Select("id::text", "body").From(table).Where(where)
	for _, sf := range opts.Sort {
		dir := "ASC"
		if sf.Descending {
			dir = "DESC"
		}
		query = query.OrderBy(fieldExpr(sf.Field) + " " + dir)
	}
	if opts.Skip > 0 {
		query = query.Offset(uint64(opts.Skip))
	}
	if opts.Limit > 0 {
		query = query.Limit(uint64(opts.Limit))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("pgstore: build select: %w", err)
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	docs := []docstore.Document{}
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, classify(err)
		}
		doc := docstore.Document{}
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("pgstore: decode body of %s: %w", id, err)
		}
		doc[docstore.IDField] = id
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return docs, nil
}

func (s *Store) Count(ctx context.Context, name string, filter docstore.Filter) (int64, error) {
	ctx, cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return 0, err
	}
	where, err := buildWhere(name, filter)
	if err != nil {
		return 0, err
	}

	sql, args, err := s.sb.Select("COUNT(*)").From(table).Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("pgstore: build count: %w", err)
	}

	var n int64
	if err := s.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func (s *Store) UpdateFields(ctx context.Context, name, id string, fields docstore.Document) error {
	ctx, cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return err
	}
	if err := s.ValidateID(id); err != nil {
		return err
	}
	return s.updateFields(ctx, s.db, name, id, fields)
}

func (s *Store) updateFields(ctx context.Context, q queryer, name, id string, fields docstore.Document) error {
	patch, err := json.Marshal(fields.WithoutID())
	if err != nil {
		return fmt.Errorf("pgstore: encode patch: %w", err)
	}

	sql, args, err := s.sb.Update(table).
		Set("body", squirrel.Expr("body || ?::jsonb", patch)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"collection": name, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("pgstore: build update: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteByID(ctx context.Context, name, id string) error {
	ctx, cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return err
	}
	if err := s.ValidateID(id); err != nil {
		return err
	}

	sql, args, err := s.sb.Delete(table).
		Where(squirrel.Eq{"collection": name, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("pgstore: build delete: %w", err)
	}

	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteMany(ctx context.Context, name string, filter docstore.Filter) (int64, error) {
	ctx, cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return 0, err
	}
	where, err := buildWhere(name, filter)
	if err != nil {
		return 0, err
	}

	sql, args, err := s.sb.Delete(table).Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("pgstore: build delete: %w", err)
	}

	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, classify(err)
	}
	return tag.RowsAffected(), nil
}

// Upsert locks the first matching row, if any, inside one transaction. Two
// concurrent first inserts are settled by the unique index: the loser gets
// docstore.ErrDuplicateKey.
func (s *Store) Upsert(ctx context.Context, name string, filter docstore.Filter, doc docstore.Document) (string, bool, error) {
	ctx, cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return "", false, err
	}
	where, err := buildWhere(name, filter)
	if err != nil {
		return "", false, err
	}

	var (
		id      string
		created bool
	)
	err = s.withTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := s.sb.Select("id::text").From(table).Where(where).
			Limit(1).Suffix("FOR UPDATE").ToSql()
		if err != nil {
			return fmt.Errorf("pgstore: build upsert lookup: %w", err)
		}

		err = tx.QueryRow(ctx, sql, args...).Scan(&id)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			created = true
			id, err = s.insert(ctx, tx, name, doc)
			return err
		case err != nil:
			return classify(err)
		default:
			return s.updateFields(ctx, tx, name, id, doc)
		}
	})
	if err != nil {
		return "", false, err
	}
	return id, created, nil
}

func (s *Store) withTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return classify(err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.Error().Err(rbErr).Msg("Failed to rollback document transaction")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// EnsureUniqueIndex creates a partial expression index scoped to one
// collection. Names were validated against the field pattern, so inlining
// them into DDL is safe.
func (s *Store) EnsureUniqueIndex(ctx context.Context, name, field string) error {
	ctx, cancel, err := s.begin(ctx, name)
	defer cancel()
	if err != nil {
		return err
	}
	if err := docstore.ValidateField(field); err != nil {
		return err
	}

	index := pgx.Identifier{fmt.Sprintf("%s_%s_%s_uniq", table, strings.ToLower(name), strings.ToLower(field))}.Sanitize()
	ddl := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s ((body->>'%s')) WHERE collection = '%s'",
		index, table, field, name,
	)
	if _, err := s.db.Exec(ctx, ddl); err != nil {
		return classify(err)
	}
	return nil
}

func (s *Store) ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", docstore.ErrInvalidID, id)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return docstore.ErrUnavailable
	}
	ctx, cancel, err := s.guard.Begin(ctx)
	defer cancel()
	if err != nil {
		return err
	}
	if err := s.db.Ping(ctx); err != nil {
		return classify(err)
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	if s.guard.Close() && s.db != nil {
		s.db.Close()
	}
	return nil
}

func fieldExpr(field string) string {
	if field == docstore.IDField {
		return "id"
	}
	return "body->>'" + field + "'"
}

func buildWhere(name string, filter docstore.Filter) (squirrel.And, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	where := squirrel.And{squirrel.Eq{"collection": name}}
	for _, cond := range filter {
		if cond.Field == docstore.IDField {
			ids := []string{}
			switch v := cond.Value.(type) {
			case []string:
				ids = v
			default:
				ids = append(ids, fmt.Sprint(v))
			}
			for _, id := range ids {
				if _, err := uuid.Parse(id); err != nil {
					return nil, fmt.Errorf("%w: %q", docstore.ErrInvalidID, id)
				}
			}
			where = append(where, squirrel.Eq{"id": ids})
			continue
		}

		expr := fieldExpr(cond.Field)
		switch cond.Op {
		case docstore.OpEq:
			if str, ok := cond.Value.(string); ok {
				where = append(where, squirrel.Expr(expr+" = ?", str))
				continue
			}
			raw, err := json.Marshal(cond.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", docstore.ErrInvalidFilter, err)
			}
			where = append(where, squirrel.Expr("body->'"+cond.Field+"' = ?::jsonb", raw))
		case docstore.OpIn:
			where = append(where, squirrel.Expr(expr+" = ANY(?)", cond.Value.([]string)))
		case docstore.OpContainsFold:
			where = append(where, squirrel.Expr(expr+" ILIKE ?", "%"+escapeLike(cond.Value.(string))+"%"))
		}
	}
	return where, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err):
		return fmt.Errorf("%w: %v", docstore.ErrTimeout, err)
	case dberrors.IsConnectionError(err):
		return fmt.Errorf("%w: %v", docstore.ErrUnavailable, err)
	case dberrors.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", docstore.ErrDuplicateKey, err)
	case dberrors.IsInvalidTextRepresentation(err):
		return fmt.Errorf("%w: %v", docstore.ErrInvalidID, err)
	default:
		return fmt.Errorf("pgstore: %w", err)
	}
}
