package vault

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite" // pure Go sqlite driver

	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/encryption"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type keyRecordRow struct {
	bun.BaseModel `bun:"table:key_records"`

	Path       string    `bun:"path,pk"`
	OwnerID    string    `bun:"owner_id,notnull"`
	Backend    string    `bun:"backend,notnull"`
	Ciphertext []byte    `bun:"ciphertext,notnull"`
	Nonce      []byte    `bun:"nonce"`
	Tag        []byte    `bun:"tag"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

// SQLStore persists records in a key_records table through bun.
type SQLStore struct {
	db *bun.DB
}

var _ RecordStore = (*SQLStore)(nil)

// OpenSQLStore opens dsn with driver ("sqlite" or "postgres") and ensures the schema.
func OpenSQLStore(ctx context.Context, driver string, dsn string) (*SQLStore, error) {
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database", driver)
	}

	// Each connection to an in-memory sqlite database sees its own schema.
	if driver == DriverSQLite && (dsn == ":memory:" || strings.Contains(dsn, "mode=memory")) {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	db, err := createBunDB(sqlDB, driver)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	store, err := NewSQLStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func createBunDB(sqlDB *sql.DB, driver string) (*bun.DB, error) {
	switch driver {
	case DriverSQLite:
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	case DriverPostgres:
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		return nil, errors.Errorf("unsupported store driver %q", driver)
	}
}

// NewSQLStore wraps db and creates the key_records table if it is missing.
func NewSQLStore(ctx context.Context, db *bun.DB) (*SQLStore, error) {
	if _, err := db.NewCreateTable().Model((*keyRecordRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to create key_records table")
	}

	return &SQLStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return errors.Wrap(s.db.PingContext(ctx), "failed to ping store")
}

func (s *SQLStore) Put(ctx context.Context, rec *KeyRecord) error {
	row := &keyRecordRow{
		Path:       rec.Path,
		OwnerID:    rec.OwnerID,
		Backend:    string(rec.Backend),
		Ciphertext: rec.Ciphertext,
		Nonce:      rec.Nonce,
		Tag:        rec.Tag,
		CreatedAt:  rec.CreatedAt.UTC(),
	}

	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return errors.Wrap(err, "failed to insert key record")
	}

	return nil
}

func (s *SQLStore) Get(ctx context.Context, path string) (*KeyRecord, error) {
	row := new(keyRecordRow)
	err := s.db.NewSelect().Model(row).Where("path = ?", path).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.KindNotFound, "key path %s", path)
		}
		return nil, errors.Wrap(err, "failed to load key record")
	}

	return &KeyRecord{
		Path:       row.Path,
		OwnerID:    row.OwnerID,
		Backend:    encryption.Kind(row.Backend),
		Ciphertext: row.Ciphertext,
		Nonce:      row.Nonce,
		Tag:        row.Tag,
		CreatedAt:  row.CreatedAt,
	}, nil
}

func (s *SQLStore) Delete(ctx context.Context, path string) error {
	res, err := s.db.NewDelete().Model((*keyRecordRow)(nil)).Where("path = ?", path).Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to delete key record")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return errs.New(errs.KindNotFound, "key path %s", path)
	}

	return nil
}

// isDuplicate matches unique violations across drivers: postgres 23505 and sqlite's
// "UNIQUE constraint failed".
func isDuplicate(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate") || strings.Contains(msg, "23505")
}
