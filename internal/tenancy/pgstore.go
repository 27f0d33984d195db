package tenancy

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearvat/clearvat/internal/shared"
)

const (
	pgCodeNotNullViolation    = "23502"
	pgCodeForeignKeyViolation = "23503"
	pgCodeUniqueViolation     = "23505"
)

var identPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// PGStore executes generic operations against PostgreSQL. Identifiers are
// validated against a strict pattern; values always travel as bind
// parameters.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PostgreSQL-backed store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func validIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("tenancy: invalid identifier %q", name)
	}
	return nil
}

// sortedKeys gives deterministic column order for generated SQL.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func buildWhere(filter map[string]any, args *[]any) (string, error) {
	if len(filter) == 0 {
		return "", nil
	}
	var b strings.Builder
	b.WriteString(" WHERE ")
	for i, col := range sortedKeys(filter) {
		if err := validIdent(col); err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteString(" AND ")
		}
		*args = append(*args, filter[col])
		fmt.Fprintf(&b, "%s = $%d", col, len(*args))
	}
	return b.String(), nil
}

func translatePGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeNotNullViolation:
			if pgErr.ColumnName == OrgColumn {
				return fmt.Errorf("%w: %s", shared.ErrMissingOrgID, pgErr.TableName)
			}
			return fmt.Errorf("%w: column %s", shared.ErrConflict, pgErr.ColumnName)
		case pgCodeUniqueViolation, pgCodeForeignKeyViolation:
			return fmt.Errorf("%w: %s", shared.ErrConflict, pgErr.ConstraintName)
		}
	}
	return err
}

func scanRows(rows pgx.Rows) ([]Row, error) {
	defer rows.Close()
	fields := rows.FieldDescriptions()
	var out []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(Row, len(fields))
		for i, fd := range fields {
			row[string(fd.Name)] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PGStore) FindOne(ctx context.Context, op Op) (Row, error) {
	op.Limit = 1
	result, err := s.FindMany(ctx, op)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, shared.ErrNotFound
	}
	return result[0], nil
}

func (s *PGStore) FindMany(ctx context.Context, op Op) ([]Row, error) {
	if err := validIdent(op.Entity); err != nil {
		return nil, err
	}
	var args []any
	where, err := buildWhere(op.Filter, &args)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * FROM %s%s", op.Entity, where)
	if op.OrderBy != "" {
		col, dir, ok := strings.Cut(op.OrderBy, " ")
		if err := validIdent(col); err != nil {
			return nil, err
		}
		if ok && dir != "ASC" && dir != "DESC" {
			return nil, fmt.Errorf("tenancy: invalid sort direction %q", dir)
		}
		fmt.Fprintf(&b, " ORDER BY %s", op.OrderBy)
	}
	if op.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", op.Limit)
	}
	if op.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", op.Offset)
	}
	rows, err := s.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

func (s *PGStore) Count(ctx context.Context, op Op) (int64, error) {
	if err := validIdent(op.Entity); err != nil {
		return 0, err
	}
	var args []any
	where, err := buildWhere(op.Filter, &args)
	if err != nil {
		return 0, err
	}
	var total int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", op.Entity, where)
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *PGStore) Create(ctx context.Context, op Op) (Row, error) {
	if err := validIdent(op.Entity); err != nil {
		return nil, err
	}
	if len(op.Data) == 0 {
		return nil, fmt.Errorf("tenancy: create requires data")
	}
	cols := sortedKeys(op.Data)
	args := make([]any, 0, len(cols))
	placeholders := make([]string, 0, len(cols))
	for _, col := range cols {
		if err := validIdent(col); err != nil {
			return nil, err
		}
		args = append(args, op.Data[col])
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		op.Entity, strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translatePGError(err)
	}
	result, err := scanRows(rows)
	if err != nil {
		return nil, translatePGError(err)
	}
	if len(result) == 0 {
		return nil, shared.ErrNotFound
	}
	return result[0], nil
}

func (s *PGStore) Update(ctx context.Context, op Op) (int64, error) {
	if err := validIdent(op.Entity); err != nil {
		return 0, err
	}
	if len(op.Data) == 0 {
		return 0, fmt.Errorf("tenancy: update requires data")
	}
	var args []any
	sets := make([]string, 0, len(op.Data))
	for _, col := range sortedKeys(op.Data) {
		if err := validIdent(col); err != nil {
			return 0, err
		}
		args = append(args, op.Data[col])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	where, err := buildWhere(op.Filter, &args)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf("UPDATE %s SET %s%s", op.Entity, strings.Join(sets, ", "), where)
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, translatePGError(err)
	}
	return tag.RowsAffected(), nil
}

func (s *PGStore) Delete(ctx context.Context, op Op) (int64, error) {
	if err := validIdent(op.Entity); err != nil {
		return 0, err
	}
	var args []any
	where, err := buildWhere(op.Filter, &args)
	if err != nil {
		return 0, err
	}
	if where == "" {
		return 0, fmt.Errorf("tenancy: delete requires a filter")
	}
	query := fmt.Sprintf("DELETE FROM %s%s", op.Entity, where)
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, translatePGError(err)
	}
	return tag.RowsAffected(), nil
}

var _ Store = (*PGStore)(nil)
