package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"travelagent/internal/model"
	"travelagent/internal/utils"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresRepository handles catalog and audit log storage
type PostgresRepository struct {
	db *sqlx.DB
	qb goqu.DialectWrapper
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPostgresRepositoryFromDB(db), nil
}

// NewPostgresRepositoryFromDB wraps an existing connection
func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
		qb: goqu.Dialect("postgres"),
	}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Ping verifies the connection
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// contains builds a substring pattern that treats value literally
func contains(value string) string {
	return "%" + utils.EscapeLike(strings.TrimSpace(value)) + "%"
}

// FindPlaces returns every place matching the filter, with its activities
// joined into one comma-separated string. An empty filter returns the whole
// catalog. Rows come back in id order.
func (r *PostgresRepository) FindPlaces(ctx context.Context, filter model.PlaceFilter) ([]model.PlaceRow, error) {
	ds := r.qb.From(goqu.T("places").As("p")).
		LeftJoin(goqu.T("countries").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("p.country_id")))).
		LeftJoin(goqu.T("place_activities").As("pa"), goqu.On(goqu.I("pa.place_id").Eq(goqu.I("p.id")))).
		LeftJoin(goqu.T("activities").As("a"), goqu.On(goqu.I("a.id").Eq(goqu.I("pa.activity_id")))).
		Select(
			goqu.I("p.id"),
			goqu.I("p.name"),
			goqu.I("p.region"),
			goqu.I("c.name").As("country"),
			goqu.I("p.category"),
			goqu.I("p.latitude"),
			goqu.I("p.longitude"),
			goqu.L("COALESCE(string_agg(DISTINCT a.name, ','), '')").As("activities"),
			goqu.I("p.embedding"),
		).
		GroupBy(goqu.I("p.id"), goqu.I("c.name")).
		Order(goqu.I("p.id").Asc()).
		Prepared(true)

	var conds []exp.Expression
	if filter.PlaceName != nil {
		conds = append(conds, goqu.I("p.name").ILike(contains(*filter.PlaceName)))
	}
	if filter.Region != nil {
		conds = append(conds, goqu.I("p.region").ILike(contains(*filter.Region)))
	}
	if filter.Country != nil {
		conds = append(conds, goqu.I("c.name").ILike(contains(*filter.Country)))
	}
	if filter.Category != nil {
		conds = append(conds, goqu.I("p.category").ILike(contains(*filter.Category)))
	}
	if len(conds) > 0 {
		ds = ds.Where(conds...)
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build place query: %w", err)
	}

	rows := make([]model.PlaceRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch places: %w", err)
	}
	return rows, nil
}

// FindPlaceCoordinates returns the location of the first catalog place whose
// name matches and that has coordinates. It returns nil when there is none.
func (r *PostgresRepository) FindPlaceCoordinates(ctx context.Context, name string) (*model.GeoLocation, error) {
	query, args, err := r.qb.From(goqu.T("places").As("p")).
		LeftJoin(goqu.T("countries").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("p.country_id")))).
		Select(
			goqu.I("c.name").As("country"),
			goqu.I("p.region"),
			goqu.I("p.latitude"),
			goqu.I("p.longitude"),
		).
		Where(
			goqu.I("p.name").ILike(contains(name)),
			goqu.I("p.latitude").IsNotNull(),
			goqu.I("p.longitude").IsNotNull(),
		).
		Order(goqu.I("p.id").Asc()).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build coordinates query: %w", err)
	}

	var loc struct {
		Country   *string  `db:"country"`
		Region    *string  `db:"region"`
		Latitude  *float64 `db:"latitude"`
		Longitude *float64 `db:"longitude"`
	}
	if err := r.db.GetContext(ctx, &loc, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get place coordinates: %w", err)
	}
	return &model.GeoLocation{
		Country:   loc.Country,
		Region:    loc.Region,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	}, nil
}

var accommodationColumns = []interface{}{
	"id", "name", "type", "region", "latitude", "longitude",
	"price_range", "price_min", "price_max", "currency", "rating",
	"amenities", "description", "contact_info",
}

// SearchAccommodations returns accommodations matching the filter, best rated
// first and cheapest first among equals
func (r *PostgresRepository) SearchAccommodations(ctx context.Context, filter model.AccommodationFilter) ([]model.Accommodation, error) {
	ds := r.qb.From("accommodations").Select(accommodationColumns...)

	if filter.Location != nil {
		ds = ds.Where(goqu.Or(
			goqu.I("region").ILike(contains(*filter.Location)),
			goqu.I("name").ILike(contains(*filter.Location)),
		))
	}
	if filter.Type != nil {
		ds = ds.Where(goqu.I("type").ILike(strings.TrimSpace(*filter.Type)))
	}
	if filter.PriceRange != nil {
		ds = ds.Where(goqu.I("price_range").ILike(strings.TrimSpace(*filter.PriceRange)))
	}
	if filter.MinRating != nil {
		ds = ds.Where(goqu.I("rating").Gte(*filter.MinRating))
	}
	for _, term := range filter.Amenities {
		patterns := utils.AmenityPatterns(term)
		if len(patterns) == 0 {
			continue
		}
		ors := make([]exp.Expression, 0, len(patterns))
		for _, p := range patterns {
			ors = append(ors, goqu.L("amenities::text").ILike(p))
		}
		ds = ds.Where(goqu.Or(ors...))
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	query, args, err := ds.
		Order(goqu.I("rating").Desc().NullsLast(), goqu.I("price_min").Asc().NullsLast(), goqu.I("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build accommodation query: %w", err)
	}

	out := make([]model.Accommodation, 0)
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search accommodations: %w", err)
	}
	return out, nil
}

// AccommodationsWithCoordinates returns every accommodation that has a
// location, optionally narrowed by type and price tier
func (r *PostgresRepository) AccommodationsWithCoordinates(ctx context.Context, accType, priceRange *string) ([]model.Accommodation, error) {
	ds := r.qb.From("accommodations").
		Select(accommodationColumns...).
		Where(goqu.I("latitude").IsNotNull(), goqu.I("longitude").IsNotNull())
	if accType != nil {
		ds = ds.Where(goqu.I("type").ILike(strings.TrimSpace(*accType)))
	}
	if priceRange != nil {
		ds = ds.Where(goqu.I("price_range").ILike(strings.TrimSpace(*priceRange)))
	}

	query, args, err := ds.Order(goqu.I("id").Asc()).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build accommodation query: %w", err)
	}

	out := make([]model.Accommodation, 0)
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list accommodations: %w", err)
	}
	return out, nil
}

// FindAccommodationsByName returns the accommodations whose names match any
// of the given names, in the order the names were given
func (r *PostgresRepository) FindAccommodationsByName(ctx context.Context, names []string) ([]model.Accommodation, error) {
	out := make([]model.Accommodation, 0, len(names))
	seen := make(map[int64]bool)
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		query, args, err := r.qb.From("accommodations").
			Select(accommodationColumns...).
			Where(goqu.I("name").ILike(contains(name))).
			Order(goqu.I("rating").Desc().NullsLast(), goqu.I("id").Asc()).
			Limit(1).
			Prepared(true).
			ToSQL()
		if err != nil {
			return nil, fmt.Errorf("failed to build accommodation query: %w", err)
		}

		var acc model.Accommodation
		if err := r.db.GetContext(ctx, &acc, query, args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("failed to get accommodation %q: %w", name, err)
		}
		if !seen[acc.ID] {
			seen[acc.ID] = true
			out = append(out, acc)
		}
	}
	return out, nil
}

// CountryAliases maps every known alias, lowercased, to its canonical
// country name
func (r *PostgresRepository) CountryAliases(ctx context.Context) (map[string]string, error) {
	query, args, err := r.qb.From(goqu.T("country_aliases").As("ca")).
		Join(goqu.T("countries").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("ca.country_id")))).
		Select(goqu.I("ca.alias"), goqu.I("c.name")).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build alias query: %w", err)
	}

	var rows []struct {
		Alias string `db:"alias"`
		Name  string `db:"name"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load country aliases: %w", err)
	}

	aliases := make(map[string]string, len(rows)*2)
	for _, row := range rows {
		aliases[strings.ToLower(strings.TrimSpace(row.Alias))] = row.Name
		aliases[strings.ToLower(row.Name)] = row.Name
	}
	return aliases, nil
}

// CountryIDByName resolves a country name, returning nil when it is unknown
func (r *PostgresRepository) CountryIDByName(ctx context.Context, name string) (*int64, error) {
	query, args, err := r.qb.From("countries").
		Select("id").
		Where(goqu.I("name").ILike(strings.TrimSpace(name))).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build country query: %w", err)
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get country: %w", err)
	}
	return &id, nil
}

// InsertPlace writes a place and links its activities, creating activities
// that do not exist yet
func (r *PostgresRepository) InsertPlace(ctx context.Context, place model.NewPlace) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := r.qb.Insert("places").
		Rows(goqu.Record{
			"name":       place.Name,
			"category":   place.Category,
			"country_id": place.CountryID,
			"region":     place.Region,
			"latitude":   place.Latitude,
			"longitude":  place.Longitude,
			"raw_text":   place.RawText,
			"embedding":  place.Embedding,
		}).
		Returning("id").
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert query: %w", err)
	}

	var placeID int64
	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&placeID); err != nil {
		return 0, fmt.Errorf("failed to insert place: %w", err)
	}

	for _, activity := range place.Activities {
		name := strings.ToLower(strings.TrimSpace(activity))
		if name == "" {
			continue
		}

		query, args, err := r.qb.Insert("activities").
			Rows(goqu.Record{"name": name}).
			OnConflict(goqu.DoUpdate("name", goqu.Record{"name": goqu.L("EXCLUDED.name")})).
			Returning("id").
			Prepared(true).
			ToSQL()
		if err != nil {
			return 0, fmt.Errorf("failed to build activity query: %w", err)
		}
		var activityID int64
		if err := tx.QueryRowxContext(ctx, query, args...).Scan(&activityID); err != nil {
			return 0, fmt.Errorf("failed to upsert activity %q: %w", name, err)
		}

		query, args, err = r.qb.Insert("place_activities").
			Rows(goqu.Record{"place_id": placeID, "activity_id": activityID}).
			OnConflict(goqu.DoNothing()).
			Prepared(true).
			ToSQL()
		if err != nil {
			return 0, fmt.Errorf("failed to build link query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("failed to link activity %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return placeID, nil
}

// DeletePlaceByName removes every place with exactly this name (ignoring
// case) and returns how many were removed
func (r *PostgresRepository) DeletePlaceByName(ctx context.Context, name string) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	ids := r.qb.From("places").Select("id").Where(goqu.I("name").ILike(strings.TrimSpace(name)))

	query, args, err := r.qb.Delete("place_activities").
		Where(goqu.I("place_id").In(ids)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("failed to unlink activities: %w", err)
	}

	query, args, err = r.qb.Delete("places").
		Where(goqu.I("name").ILike(strings.TrimSpace(name))).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete query: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete place: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted places: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}

// ClearPlaces removes every place and activity link
func (r *PostgresRepository) ClearPlaces(ctx context.Context) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	query, _, err := r.qb.Delete("place_activities").ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return 0, fmt.Errorf("failed to clear activity links: %w", err)
	}

	query, _, err = r.qb.Delete("places").ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete query: %w", err)
	}
	res, err := tx.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to clear places: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared places: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}

// LogQuery records an answered query
func (r *PostgresRepository) LogQuery(ctx context.Context, entry model.QueryLog) error {
	query, args, err := r.qb.Insert("query_logs").
		Rows(goqu.Record{
			"id":               entry.ID,
			"query":            entry.Query,
			"mode":             entry.Mode,
			"intent":           entry.Intent,
			"success":          entry.Success,
			"response_time_ms": entry.ResponseTimeMs,
			"created_at":       entry.CreatedAt,
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build log query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to log query: %w", err)
	}
	return nil
}
