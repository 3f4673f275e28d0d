package dataset

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/sdg/internal/monitoring"
	"github.com/banshee-data/sdg/internal/projection"
	"github.com/banshee-data/sdg/internal/sweep"
	"github.com/banshee-data/sdg/internal/timeutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a run or snapshot does not exist.
var ErrNotFound = errors.New("dataset: not found")

// Run statuses.
const (
	StatusRunning   = "running"
	StatusComplete  = "complete"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// Store indexes runs, snapshots and boxes in SQLite.
type Store struct {
	db    *sql.DB
	path  string
	clock timeutil.Clock
}

// OpenStore opens (or creates) the database at path and migrates it to the
// latest schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps per-connection pragmas and :memory: databases
	// consistent
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, path: path, clock: timeutil.RealClock{}}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// SetClock replaces the clock used for run and snapshot timestamps.
func (s *Store) SetClock(c timeutil.Clock) { s.clock = c }

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// MigrateUp runs all pending migrations. It is a no-op when the schema is
// current.
func (s *Store) MigrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// Closing m would close the shared *sql.DB.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the applied schema version and dirty flag.
func (s *Store) MigrateVersion() (version uint, dirty bool, err error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	return m, nil
}

// migrateLogger routes golang-migrate output to the diag stream.
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Diagf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool { return false }

// RunInfo describes a run when it starts.
type RunInfo struct {
	SweepName  string
	TargetPath string
	Engine     string
	BBoxSpace  string
	Width      int
	Height     int
	RandomSeed int64
}

// Run is a stored run.
type Run struct {
	ID         string
	Info       RunInfo
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// BeginRun records a new run and returns its id.
func (s *Store) BeginRun(ctx context.Context, info RunInfo) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sdg_runs (run_id, sweep_name, target_path, engine, bbox_space, width, height, random_seed, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, info.SweepName, info.TargetPath, info.Engine, info.BBoxSpace,
		info.Width, info.Height, info.RandomSeed, StatusRunning, s.clock.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// FinishRun marks a run with its final status.
func (s *Store) FinishRun(ctx context.Context, runID, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sdg_runs SET status = ?, finished_at = ? WHERE run_id = ?`,
		status, s.clock.Now().Unix(), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// RecordSnapshot stores one snapshot and its boxes atomically.
func (s *Store) RecordSnapshot(ctx context.Context, runID string, seq int, snap sweep.Snapshot, ann projection.Annotation) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sdg_snapshots (snapshot_id, run_id, seq, file_name, yaw, roll, camera_height, light_energy, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, runID, seq, ann.FileName, snap.Yaw, snap.Roll, snap.CameraHeight, snap.LightEnergy, s.clock.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot %s: %w", snap.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sdg_annotations (snapshot_id, ordinal, category, top_x, top_y, width, height)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare annotation insert: %w", err)
	}
	defer stmt.Close()
	for i, box := range ann.Objects.BBox {
		if _, err = stmt.ExecContext(ctx, snap.ID, i, ann.Objects.Categories[i], box.TopX, box.TopY, box.Width, box.Height); err != nil {
			return fmt.Errorf("failed to insert annotation %d of %s: %w", i, snap.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot %s: %w", snap.ID, err)
	}
	return nil
}

// Run returns a stored run.
func (s *Store) Run(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, sweep_name, target_path, engine, bbox_space, width, height, random_seed, status, started_at, finished_at
		FROM sdg_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return r, err
}

// Runs lists runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, sweep_name, target_path, engine, bbox_space, width, height, random_seed, status, started_at, finished_at
		FROM sdg_runs ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r        Run
		started  int64
		finished sql.NullInt64
	)
	err := sc.Scan(&r.ID, &r.Info.SweepName, &r.Info.TargetPath, &r.Info.Engine, &r.Info.BBoxSpace,
		&r.Info.Width, &r.Info.Height, &r.Info.RandomSeed, &r.Status, &started, &finished)
	if err != nil {
		return Run{}, err
	}
	r.StartedAt = time.Unix(started, 0)
	if finished.Valid {
		t := time.Unix(finished.Int64, 0)
		r.FinishedAt = &t
	}
	return r, nil
}

// SnapshotSummary is a stored snapshot with its visible object count.
type SnapshotSummary struct {
	Seq      int
	FileName string
	Snapshot sweep.Snapshot
	Visible  int
}

// SnapshotSummaries lists a run's snapshots in sweep order.
func (s *Store) SnapshotSummaries(ctx context.Context, runID string) ([]SnapshotSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.seq, s.file_name, s.snapshot_id, s.yaw, s.roll, s.camera_height, s.light_energy,
		       (SELECT COUNT(*) FROM sdg_annotations a WHERE a.snapshot_id = s.snapshot_id)
		FROM sdg_snapshots s WHERE s.run_id = ? ORDER BY s.seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotSummary
	for rows.Next() {
		var ss SnapshotSummary
		if err := rows.Scan(&ss.Seq, &ss.FileName, &ss.Snapshot.ID, &ss.Snapshot.Yaw, &ss.Snapshot.Roll,
			&ss.Snapshot.CameraHeight, &ss.Snapshot.LightEnergy, &ss.Visible); err != nil {
			return nil, err
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

// Annotation rebuilds the stored annotation for a snapshot.
func (s *Store) Annotation(ctx context.Context, snapshotID string) (projection.Annotation, error) {
	var a projection.Annotation
	err := s.db.QueryRowContext(ctx,
		`SELECT file_name FROM sdg_snapshots WHERE snapshot_id = ?`, snapshotID).Scan(&a.FileName)
	if errors.Is(err, sql.ErrNoRows) {
		return a, fmt.Errorf("snapshot %s: %w", snapshotID, ErrNotFound)
	}
	if err != nil {
		return a, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, top_x, top_y, width, height FROM sdg_annotations
		WHERE snapshot_id = ? ORDER BY ordinal`, snapshotID)
	if err != nil {
		return a, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	a.Objects.BBox = []projection.BoundingBox{}
	a.Objects.Categories = []int{}
	for rows.Next() {
		var (
			cat int
			b   projection.BoundingBox
		)
		if err := rows.Scan(&cat, &b.TopX, &b.TopY, &b.Width, &b.Height); err != nil {
			return a, err
		}
		a.Objects.BBox = append(a.Objects.BBox, b)
		a.Objects.Categories = append(a.Objects.Categories, cat)
	}
	return a, rows.Err()
}

// CategoryCounts returns, per category, the number of snapshots of the run
// in which it was annotated.
func (s *Store) CategoryCounts(ctx context.Context, runID string) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.category, COUNT(*) FROM sdg_annotations a
		JOIN sdg_snapshots s ON s.snapshot_id = a.snapshot_id
		WHERE s.run_id = ? GROUP BY a.category`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var cat, n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		out[cat] = n
	}
	return out, rows.Err()
}
