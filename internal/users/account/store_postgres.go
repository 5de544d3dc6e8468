// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account (Postgres) implements the storage layer for user records.

# Schema Table Mapping
  - users.account: Every user record, one row per user.

Aggregations are pushed down to SQL. The age expression and the bracket CASE
are generated from the same definitions the in-memory engine uses, so both
stores produce identical reports.
*/
package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/userdir/internal/platform/apperr"
	"github.com/taibuivan/userdir/internal/platform/database/schema"
	"github.com/taibuivan/userdir/internal/platform/dberr"
	"github.com/taibuivan/userdir/pkg/uuidv7"
)

// # Repository Implementation

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Postgres implementation for user records.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var (
	table = schema.UserAccount

	selectColumns = strings.Join(table.Columns(), ", ")

	// ageColumn is [Age] for the dateofbirth column against the $1 reference date.
	ageColumn = fmt.Sprintf(ageSQL, table.DateOfBirth)
)

/*
Create inserts a brand new user row.

Description: Assigns a UUIDv7 identifier and lets the database stamp
createdat/updatedat.

Returns:
  - error: Conflict on duplicate email, or storage failures
*/
func (repository *PostgresRepository) Create(context context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s, %s`,
		table.Table, table.ID, table.Username, table.Email, table.Password,
		table.DateOfBirth, table.City, table.Occupation,
		table.CreatedAt, table.UpdatedAt,
	)

	user.ID = uuidv7.New()
	err := repository.pool.QueryRow(context, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.DateOfBirth, user.City, user.Occupation,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	return dberr.Wrap(err, "create_user")
}

/*
CreateMany bulk-loads users with the COPY protocol.

Description: COPY is atomic, so a single duplicate email rejects the batch.
*/
func (repository *PostgresRepository) CreateMany(context context.Context, users []*User) error {
	if len(users) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(users))
	for _, user := range users {
		user.ID = uuidv7.New()
		user.CreatedAt, user.UpdatedAt = now, now
		rows = append(rows, []any{
			user.ID, user.Username, user.Email, user.PasswordHash,
			user.DateOfBirth, user.City, user.Occupation, user.CreatedAt, user.UpdatedAt,
		})
	}

	_, err := repository.pool.CopyFrom(context,
		pgx.Identifier{"users", "account"},
		[]string{
			table.ID, table.Username, table.Email, table.Password,
			table.DateOfBirth, table.City, table.Occupation, table.CreatedAt, table.UpdatedAt,
		},
		pgx.CopyFromRows(rows),
	)
	return dberr.Wrap(err, "create_many_users")
}

// FindByID retrieves a user record by its UUID.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, selectColumns, table.Table, table.ID)

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.WrapEntity(err, entityName, "find_user")
	}
	return user, nil
}

/*
Update applies a partial update.

Description: Nil patch fields bind as NULL and COALESCE keeps the stored
value, so one statement serves every combination of fields.

Returns:
  - *User: The row as stored after the update
  - error: apperr.NotFound, Conflict on duplicate email, or storage failures
*/
func (repository *PostgresRepository) Update(context context.Context, id string, patch Patch) (*User, error) {
	query := fmt.Sprintf(`
		UPDATE %[1]s SET
			%[2]s = COALESCE($2, %[2]s),
			%[3]s = COALESCE($3, %[3]s),
			%[4]s = COALESCE($4, %[4]s),
			%[5]s = COALESCE($5, %[5]s),
			%[6]s = COALESCE($6, %[6]s),
			%[7]s = COALESCE($7, %[7]s),
			%[8]s = NOW()
		WHERE %[9]s = $1
		RETURNING %[10]s`,
		table.Table,
		table.Username, table.Email, table.Password, table.DateOfBirth, table.City, table.Occupation,
		table.UpdatedAt, table.ID, selectColumns,
	)

	user, err := scanUser(repository.pool.QueryRow(context, query, id,
		patch.Username, patch.Email, patch.PasswordHash, patch.DateOfBirth, patch.City, patch.Occupation,
	))
	if err != nil {
		return nil, dberr.WrapEntity(err, entityName, "update_user")
	}
	return user, nil
}

// Delete physically removes a user row.
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.ID)

	command, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_user")
	}

	if command.RowsAffected() == 0 {
		return apperr.NotFound(entityName)
	}
	return nil
}

/*
Paginate returns one page of users and the total number of matches.

Description: Ties on the sort column are broken by id so identical queries
return identical pages.
*/
func (repository *PostgresRepository) Paginate(context context.Context, query Query) ([]*User, int, error) {
	where, args := whereClause(query.Criteria)

	sortColumn, ok := table.SortColumn(query.SortBy)
	if !ok {
		sortColumn, _ = table.SortColumn(DefaultSortField)
	}
	direction := "ASC"
	if query.Order == SortDesc {
		direction = "DESC"
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s%s`, table.Table, where)
	if err := repository.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_users")
	}

	listQuery := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s %s, %s ASC LIMIT $%d OFFSET $%d`,
		selectColumns, table.Table, where, sortColumn, direction, table.ID, len(args)+1, len(args)+2,
	)
	args = append(args, query.Page.Limit, query.Page.Offset())

	users, err := repository.queryUsers(context, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Find returns every user matching criteria.
func (repository *PostgresRepository) Find(context context.Context, criteria Criteria) ([]*User, error) {
	where, args := whereClause(criteria)
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s ASC`, selectColumns, table.Table, where, table.ID)
	return repository.queryUsers(context, query, args...)
}

// # Aggregations

// AgeDistribution counts users per bracket in SQL.
func (repository *PostgresRepository) AgeDistribution(context context.Context, asOf time.Time) ([]AgeBracketCount, error) {
	query := fmt.Sprintf(`
		SELECT bracket, count(*)
		FROM (SELECT %s AS bracket FROM %s) AS bucketed
		GROUP BY bracket`,
		bracketCaseSQL(ageColumn), table.Table,
	)

	rows, err := repository.pool.Query(context, query, asOf)
	if err != nil {
		return nil, dberr.Wrap(err, "age_distribution")
	}

	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (AgeBracketCount, error) {
		var count AgeBracketCount
		err := row.Scan(&count.AgeBracket, &count.TotalCount)
		return count, err
	})
	if err != nil {
		return nil, dberr.Wrap(err, "age_distribution_scan")
	}

	SortBrackets(counts)
	return counts, nil
}

// CityStats groups by city in SQL.
func (repository *PostgresRepository) CityStats(context context.Context, asOf time.Time, limit int) ([]CityStat, error) {
	query := groupQuery(table.City, table.Occupation)

	rows, err := repository.pool.Query(context, query, asOf, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "city_stats")
	}

	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (CityStat, error) {
		var stat CityStat
		err := row.Scan(&stat.City, &stat.UserCount, &stat.OccupationDiversity, &stat.AverageAge)
		return stat, err
	})
	return stats, dberr.Wrap(err, "city_stats_scan")
}

// OccupationStats groups by occupation in SQL.
func (repository *PostgresRepository) OccupationStats(context context.Context, asOf time.Time, limit int) ([]OccupationStat, error) {
	query := groupQuery(table.Occupation, table.City)

	rows, err := repository.pool.Query(context, query, asOf, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "occupation_stats")
	}

	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (OccupationStat, error) {
		var stat OccupationStat
		err := row.Scan(&stat.Occupation, &stat.Count, &stat.CityDiversity, &stat.AverageAge)
		return stat, err
	})
	return stats, dberr.Wrap(err, "occupation_stats_scan")
}

// groupQuery builds the group → project → sort → limit statement shared by
// the city and occupation rollups. $1 is the reference date, $2 the limit.
func groupQuery(primary, secondary string) string {
	return fmt.Sprintf(`
		SELECT %[1]s, count(*) AS total, count(DISTINCT %[2]s), ROUND(AVG(age)::numeric, 2)::float8
		FROM (SELECT %[1]s, %[2]s, %[3]s AS age FROM %[4]s) AS aged
		GROUP BY %[1]s
		ORDER BY total DESC, %[1]s COLLATE "C" ASC
		LIMIT $2`,
		primary, secondary, ageColumn, table.Table,
	)
}

// # Helpers

func (repository *PostgresRepository) queryUsers(context context.Context, query string, args ...any) ([]*User, error) {
	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "query_users")
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, dberr.Wrap(err, "scan_users")
	}
	return users, nil
}

// scanUser reads the columns of [schema.UserAccountTable.Columns] in order.
func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.DateOfBirth,
		&user.City,
		&user.Occupation,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// whereClause renders criteria as a WHERE clause with positional arguments.
func whereClause(criteria Criteria) (string, []any) {
	var conditions []string
	var args []any

	if criteria.UsernameContains != "" {
		args = append(args, "%"+escapeLike(criteria.UsernameContains)+"%")
		conditions = append(conditions, fmt.Sprintf(`%s ILIKE $%d`, table.Username, len(args)))
	}
	if criteria.Occupation != "" {
		args = append(args, criteria.Occupation)
		conditions = append(conditions, fmt.Sprintf(`%s = $%d`, table.Occupation, len(args)))
	}
	if criteria.City != "" {
		args = append(args, criteria.City)
		conditions = append(conditions, fmt.Sprintf(`%s = $%d`, table.City, len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// escapeLike makes user input literal inside an ILIKE pattern.
func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
