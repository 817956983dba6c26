// README: Fleet store backed by PostgreSQL rows and a Redis GEO index.
package fleet

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"freightgo/internal/types"
)

const driverGeoKey = "fleet:drivers"

// PostgresStore keeps availability and capacities in Postgres; driver
// positions are mirrored into a Redis GEO set so radius queries stay cheap.
// Only online drivers are members of the GEO set.
type PostgresStore struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewPostgresStore(db *pgxpool.Pool, redis *redis.Client) *PostgresStore {
	return &PostgresStore{db: db, redis: redis}
}

func (s *PostgresStore) GetVehicle(ctx context.Context, id types.ID) (*Vehicle, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, owner_id, registration, class, weight_cap_t, volume_cap_m3,
		       lat, lng, available, version
		FROM vehicles WHERE id = $1`, string(id))
	var v Vehicle
	err := row.Scan(&v.ID, &v.OwnerID, &v.Registration, &v.Class, &v.WeightCapT,
		&v.VolumeCapM3, &v.Position.Lat, &v.Position.Lng, &v.Available, &v.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *PostgresStore) GetDriver(ctx context.Context, id types.ID) (*DriverState, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, vehicle_id, lat, lng, available, online, version
		FROM driver_states WHERE id = $1`, string(id))
	var d DriverState
	err := row.Scan(&d.ID, &d.VehicleID, &d.Position.Lat, &d.Position.Lng,
		&d.Available, &d.Online, &d.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDriverNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *PostgresStore) SaveVehicle(ctx context.Context, v *Vehicle) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO vehicles (id, owner_id, registration, class, weight_cap_t,
		                      volume_cap_m3, lat, lng, available, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
		    owner_id = EXCLUDED.owner_id,
		    registration = EXCLUDED.registration,
		    class = EXCLUDED.class,
		    weight_cap_t = EXCLUDED.weight_cap_t,
		    volume_cap_m3 = EXCLUDED.volume_cap_m3,
		    lat = EXCLUDED.lat,
		    lng = EXCLUDED.lng,
		    available = EXCLUDED.available`,
		string(v.ID), string(v.OwnerID), v.Registration, string(v.Class), v.WeightCapT,
		v.VolumeCapM3, v.Position.Lat, v.Position.Lng, v.Available, v.Version)
	return err
}

func (s *PostgresStore) SaveDriver(ctx context.Context, d *DriverState) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO driver_states (id, vehicle_id, lat, lng, available, online, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
		    vehicle_id = EXCLUDED.vehicle_id,
		    lat = EXCLUDED.lat,
		    lng = EXCLUDED.lng,
		    available = EXCLUDED.available,
		    online = EXCLUDED.online`,
		string(d.ID), string(d.VehicleID), d.Position.Lat, d.Position.Lng,
		d.Available, d.Online, d.Version)
	if err != nil {
		return err
	}
	if d.Online {
		return s.geoAdd(ctx, d.ID, d.Position)
	}
	return s.redis.ZRem(ctx, driverGeoKey, string(d.ID)).Err()
}

// Reserve flips both availability flags inside one transaction; a conditional
// UPDATE failing means a concurrent reservation won, and the transaction rolls
// back so no half-reserved pair is left behind.
func (s *PostgresStore) Reserve(ctx context.Context, driverID, vehicleID types.ID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE driver_states SET available = FALSE, version = version + 1
		WHERE id = $1 AND available = TRUE`, string(driverID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDriverUnavailable
	}

	tag, err = tx.Exec(ctx, `
		UPDATE vehicles SET available = FALSE, version = version + 1
		WHERE id = $1 AND available = TRUE`, string(vehicleID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVehicleUnavailable
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) Release(ctx context.Context, driverID, vehicleID types.ID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE driver_states SET available = TRUE, version = version + 1
		WHERE id = $1 AND available = FALSE`, string(driverID)); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE vehicles SET available = TRUE, version = version + 1
		WHERE id = $1 AND available = FALSE`, string(vehicleID)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) SetPosition(ctx context.Context, driverID types.ID, pos types.Point) error {
	row := s.db.QueryRow(ctx, `
		UPDATE driver_states SET lat = $1, lng = $2 WHERE id = $3
		RETURNING online`, pos.Lat, pos.Lng, string(driverID))
	var online bool
	if err := row.Scan(&online); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDriverNotFound
		}
		return err
	}
	if _, err := s.db.Exec(ctx, `
		UPDATE vehicles SET lat = $1, lng = $2
		WHERE id = (SELECT vehicle_id FROM driver_states WHERE id = $3)`,
		pos.Lat, pos.Lng, string(driverID)); err != nil {
		return err
	}
	// An offline driver is not a member of the GEO set; their position still
	// lands in the row and enters the index when they come back online.
	if !online {
		return nil
	}
	return s.geoAdd(ctx, driverID, pos)
}

func (s *PostgresStore) SetOnline(ctx context.Context, driverID types.ID, online bool) error {
	row := s.db.QueryRow(ctx, `
		UPDATE driver_states SET online = $1 WHERE id = $2
		RETURNING lat, lng`, online, string(driverID))
	var pos types.Point
	if err := row.Scan(&pos.Lat, &pos.Lng); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDriverNotFound
		}
		return err
	}
	if online {
		return s.geoAdd(ctx, driverID, pos)
	}
	return s.redis.ZRem(ctx, driverGeoKey, string(driverID)).Err()
}

func (s *PostgresStore) NearbyDriverIDs(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	results, err := s.redis.GeoSearch(ctx, driverGeoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}

func (s *PostgresStore) geoAdd(ctx context.Context, driverID types.ID, pos types.Point) error {
	return s.redis.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
		Name:      string(driverID),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	}).Err()
}
