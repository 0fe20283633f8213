// internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/lib/pq"

	"grant-engine/internal/models"
)

const publishedStatus = "publish"

const grantColumns = `id, title, category_slugs, prefecture_slugs, amount_min, amount_max,
		       deadline, target_industry, target_employee_min, target_employee_max,
		       is_individual_target, is_featured`

// PostgresCatalog reads grants from the grants table.
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

func (c *PostgresCatalog) Find(ctx context.Context, filter Filter) ([]models.GrantRecord, error) {
	where, args := buildWhere(filter)

	rows, err := c.db.QueryContext(ctx, `
		SELECT `+grantColumns+`
		FROM grants
		WHERE `+where+`
		ORDER BY id`, args...)
	if err != nil {
		return nil, queryError(ctx, "find grants", err)
	}
	defer rows.Close()

	grants := []models.GrantRecord{}
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(ctx, "iterate grants", err)
	}
	return grants, nil
}

func (c *PostgresCatalog) CountMatching(ctx context.Context, filter Filter) (int, error) {
	where, args := buildWhere(filter)

	var count int
	err := c.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM grants
		WHERE `+where, args...).Scan(&count)
	if err != nil {
		return 0, queryError(ctx, "count grants", err)
	}
	return count, nil
}

func buildWhere(f Filter) (string, []interface{}) {
	conds := []string{"status = $1"}
	args := []interface{}{publishedStatus}

	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.CategorySlug != "" {
		conds = append(conds, next(f.CategorySlug)+" = ANY(category_slugs)")
	}
	if f.PrefectureSlug != "" {
		conds = append(conds, "prefecture_slugs && "+next(pq.Array([]string{f.PrefectureSlug, models.NationwidePrefecture})))
	}
	if f.AmountRange != nil {
		conds = append(conds, "amount_min <= "+next(f.AmountRange.Max))
		conds = append(conds, "amount_max >= "+next(f.AmountRange.Min))
	}
	if f.Industry != "" {
		conds = append(conds, "COALESCE(target_industry, '') IN ('', "+next(f.Industry)+")")
	}

	return strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGrant(row rowScanner) (models.GrantRecord, error) {
	var (
		g              models.GrantRecord
		deadline       sql.NullTime
		industry       sql.NullString
		empMin, empMax sql.NullInt64
	)

	err := row.Scan(
		&g.ID, &g.Title,
		pq.Array(&g.CategorySlugs), pq.Array(&g.PrefectureSlugs),
		&g.AmountMin, &g.AmountMax,
		&deadline, &industry, &empMin, &empMax,
		&g.IsIndividualTarget, &g.IsFeatured,
	)
	if err != nil {
		return models.GrantRecord{}, err
	}

	if deadline.Valid {
		d := deadline.Time
		g.Deadline = &d
	}
	g.TargetIndustry = industry.String
	if empMin.Valid || empMax.Valid {
		r := models.EmployeeRange{Min: int(empMin.Int64), Max: int(empMax.Int64)}
		if !empMax.Valid {
			r.Max = math.MaxInt32
		}
		g.TargetEmployeeRange = &r
	}
	return g, nil
}

// queryError keeps context expiry visible to errors.Is and marks everything
// else as an unavailable catalog.
func queryError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
