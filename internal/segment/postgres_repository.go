package segment

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
//
// Schema:
//
//	CREATE TABLE segment_details (
//	    id                   BIGINT PRIMARY KEY,
//	    name                 TEXT NOT NULL,
//	    activity             TEXT NOT NULL,
//	    distance_m           DOUBLE PRECISION NOT NULL,
//	    average_grade        DOUBLE PRECISION NOT NULL,
//	    maximum_grade        DOUBLE PRECISION NOT NULL,
//	    climb_category       INT NOT NULL,
//	    elevation_diff_m     DOUBLE PRECISION NOT NULL,
//	    elevation_high_m     DOUBLE PRECISION,
//	    elevation_low_m      DOUBLE PRECISION,
//	    total_elevation_gain DOUBLE PRECISION,
//	    start_lat            DOUBLE PRECISION NOT NULL,
//	    start_lon            DOUBLE PRECISION NOT NULL,
//	    end_lat              DOUBLE PRECISION NOT NULL,
//	    end_lon              DOUBLE PRECISION NOT NULL,
//	    encoded_polyline     TEXT NOT NULL,
//	    kom_time             TEXT NOT NULL DEFAULT '',
//	    qom_time             TEXT NOT NULL DEFAULT '',
//	    effort_count         INT NOT NULL DEFAULT 0,
//	    athlete_count        INT NOT NULL DEFAULT 0,
//	    created_at           TIMESTAMPTZ NOT NULL,
//	    updated_at           TIMESTAMPTZ NOT NULL,
//	    fetched_at           TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX idx_segment_details_fetched_at ON segment_details (fetched_at);
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL segment repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const detailColumns = `
	id, name, activity, distance_m, average_grade, maximum_grade,
	climb_category, elevation_diff_m, elevation_high_m, elevation_low_m,
	total_elevation_gain, start_lat, start_lon, end_lat, end_lon,
	encoded_polyline, kom_time, qom_time, effort_count, athlete_count,
	created_at, updated_at, fetched_at
`

// GetDetail retrieves a cached detail by segment id.
func (r *PostgresRepository) GetDetail(ctx context.Context, id int64) (*Detail, error) {
	query := `SELECT ` + detailColumns + ` FROM segment_details WHERE id = $1`

	var d Detail
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.Name,
		&d.Activity,
		&d.DistanceMeters,
		&d.AverageGrade,
		&d.MaximumGrade,
		&d.ClimbCategory,
		&d.ElevationDifference,
		&d.ElevationHigh,
		&d.ElevationLow,
		&d.TotalElevationGain,
		&d.Start.Lat,
		&d.Start.Lon,
		&d.End.Lat,
		&d.End.Lon,
		&d.EncodedPolyline,
		&d.KomTime,
		&d.QomTime,
		&d.EffortCount,
		&d.AthleteCount,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.FetchedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &d, nil
}

// UpsertDetail inserts or replaces a cached detail.
func (r *PostgresRepository) UpsertDetail(ctx context.Context, d *Detail) error {
	query := `
		INSERT INTO segment_details (` + detailColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			activity = EXCLUDED.activity,
			distance_m = EXCLUDED.distance_m,
			average_grade = EXCLUDED.average_grade,
			maximum_grade = EXCLUDED.maximum_grade,
			climb_category = EXCLUDED.climb_category,
			elevation_diff_m = EXCLUDED.elevation_diff_m,
			elevation_high_m = EXCLUDED.elevation_high_m,
			elevation_low_m = EXCLUDED.elevation_low_m,
			total_elevation_gain = EXCLUDED.total_elevation_gain,
			start_lat = EXCLUDED.start_lat,
			start_lon = EXCLUDED.start_lon,
			end_lat = EXCLUDED.end_lat,
			end_lon = EXCLUDED.end_lon,
			encoded_polyline = EXCLUDED.encoded_polyline,
			kom_time = EXCLUDED.kom_time,
			qom_time = EXCLUDED.qom_time,
			effort_count = EXCLUDED.effort_count,
			athlete_count = EXCLUDED.athlete_count,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			fetched_at = EXCLUDED.fetched_at
	`

	_, err := r.pool.Exec(ctx, query,
		d.ID,
		d.Name,
		d.Activity,
		d.DistanceMeters,
		d.AverageGrade,
		d.MaximumGrade,
		d.ClimbCategory,
		d.ElevationDifference,
		d.ElevationHigh,
		d.ElevationLow,
		d.TotalElevationGain,
		d.Start.Lat,
		d.Start.Lon,
		d.End.Lat,
		d.End.Lon,
		d.EncodedPolyline,
		d.KomTime,
		d.QomTime,
		d.EffortCount,
		d.AthleteCount,
		d.CreatedAt,
		d.UpdatedAt,
		d.FetchedAt,
	)
	return err
}

// ListStaleIDs returns ids fetched before the cutoff, oldest first.
func (r *PostgresRepository) ListStaleIDs(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id FROM segment_details
		WHERE fetched_at < $1
		ORDER BY fetched_at ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteDetail removes a cached detail.
func (r *PostgresRepository) DeleteDetail(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM segment_details WHERE id = $1`, id)
	return err
}
