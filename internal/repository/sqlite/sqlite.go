package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"sewernet/internal/codec"
	"sewernet/internal/repository"
)

var _ repository.Repository = (*Repository)(nil)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps :memory: databases and pragmas alive
	db.SetMaxOpenConns(1)

	pragmas := []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"}
	if dbPath != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS networks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		version TEXT,
		saved_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS profiles (
		network_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		shape TEXT NOT NULL,
		width REAL NOT NULL,
		height REAL NOT NULL,
		PRIMARY KEY (network_id, name),
		FOREIGN KEY (network_id) REFERENCES networks(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS manholes (
		id TEXT PRIMARY KEY,
		network_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		FOREIGN KEY (network_id) REFERENCES networks(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS compartments (
		id TEXT PRIMARY KEY,
		manhole_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		x REAL,
		y REAL,
		surface_level REAL NOT NULL DEFAULT 0,
		bottom_level REAL NOT NULL DEFAULT 0,
		floodable_area REAL NOT NULL DEFAULT 0,
		length REAL NOT NULL DEFAULT 0,
		width REAL NOT NULL DEFAULT 0,
		shape TEXT,
		storage TEXT,
		outlet INTEGER NOT NULL DEFAULT 0,
		surface_water_level REAL NOT NULL DEFAULT 0,
		FOREIGN KEY (manhole_id) REFERENCES manholes(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		network_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		FOREIGN KEY (network_id) REFERENCES networks(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS connections (
		id TEXT PRIMARY KEY,
		network_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		kind TEXT,
		source_compartment TEXT,
		target_compartment TEXT,
		source_node TEXT,
		target_node TEXT,
		level_source REAL NOT NULL DEFAULT 0,
		level_target REAL NOT NULL DEFAULT 0,
		water_type TEXT,
		profile TEXT,
		structure JSON,
		FOREIGN KEY (network_id) REFERENCES networks(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_manholes_network ON manholes(network_id, position);
	CREATE INDEX IF NOT EXISTS idx_compartments_manhole ON compartments(manhole_id, position);
	CREATE INDEX IF NOT EXISTS idx_nodes_network ON nodes(network_id, position);
	CREATE INDEX IF NOT EXISTS idx_connections_network ON connections(network_id, position);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveNetwork stores a snapshot, replacing the one saved under the same name
func (r *Repository) SaveNetwork(ctx context.Context, doc *codec.Document) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM networks WHERE name = ?`, doc.Name); err != nil {
		return fmt.Errorf("failed to clear network %s: %w", doc.Name, err)
	}

	networkID := newID()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO networks (id, name, version, saved_at) VALUES (?, ?, ?, ?)
	`, networkID, doc.Name, stringToNull(doc.Version), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to insert network %s: %w", doc.Name, err)
	}

	for i, p := range doc.Profiles {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO profiles (network_id, position, name, shape, width, height) VALUES (?, ?, ?, ?, ?, ?)
		`, networkID, i, p.Name, p.Shape, p.Width, p.Height); err != nil {
			return fmt.Errorf("failed to insert profile %s: %w", p.Name, err)
		}
	}

	compStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO compartments (`+compartmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare compartment statement: %w", err)
	}
	defer compStmt.Close()

	for i, m := range doc.Manholes {
		manholeID := newID()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO manholes (id, network_id, position, name) VALUES (?, ?, ?, ?)
		`, manholeID, networkID, i, m.Name); err != nil {
			return fmt.Errorf("failed to insert manhole %s: %w", m.Name, err)
		}
		for j, c := range m.Compartments {
			if _, err := compStmt.ExecContext(ctx, compartmentInsertArgs(manholeID, j, c)...); err != nil {
				return fmt.Errorf("failed to insert compartment %s: %w", c.Name, err)
			}
		}
	}

	for i, n := range doc.Nodes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO nodes (id, network_id, position, name, x, y) VALUES (?, ?, ?, ?, ?, ?)
		`, newID(), networkID, i, n.Name, n.X, n.Y); err != nil {
			return fmt.Errorf("failed to insert node %s: %w", n.Name, err)
		}
	}

	connStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO connections (`+connectionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare connection statement: %w", err)
	}
	defer connStmt.Close()

	for i, c := range doc.Connections {
		args, err := connectionInsertArgs(networkID, i, c)
		if err != nil {
			return fmt.Errorf("connection %s: %w", c.Name, err)
		}
		if _, err := connStmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert connection %s: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadNetwork reads the snapshot stored under name
func (r *Repository) LoadNetwork(ctx context.Context, name string) (*codec.Document, error) {
	var (
		networkID string
		version   sql.NullString
		doc       codec.Document
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, name, version FROM networks WHERE name = ?`, name).
		Scan(&networkID, &doc.Name, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query network: %w", err)
	}
	doc.Version = nullToString(version)

	if doc.Profiles, err = r.loadProfiles(ctx, networkID); err != nil {
		return nil, err
	}
	if doc.Manholes, err = r.loadManholes(ctx, networkID); err != nil {
		return nil, err
	}
	if doc.Nodes, err = r.loadNodes(ctx, networkID); err != nil {
		return nil, err
	}
	if doc.Connections, err = r.loadConnections(ctx, networkID); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *Repository) loadProfiles(ctx context.Context, networkID string) ([]codec.ProfileDoc, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, shape, width, height FROM profiles WHERE network_id = ? ORDER BY position
	`, networkID)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var out []codec.ProfileDoc
	for rows.Next() {
		var p codec.ProfileDoc
		if err := rows.Scan(&p.Name, &p.Shape, &p.Width, &p.Height); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return out, nil
}

func (r *Repository) loadManholes(ctx context.Context, networkID string) ([]codec.ManholeDoc, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name FROM manholes WHERE network_id = ? ORDER BY position
	`, networkID)
	if err != nil {
		return nil, fmt.Errorf("failed to query manholes: %w", err)
	}

	var (
		out   []codec.ManholeDoc
		index = make(map[string]int)
	)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan manhole: %w", err)
		}
		index[id] = len(out)
		out = append(out, codec.ManholeDoc{Name: name})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating manholes: %w", err)
	}

	compRows, err := r.db.QueryContext(ctx, `
		SELECT `+compartmentColumns+`
		FROM compartments
		WHERE manhole_id IN (SELECT id FROM manholes WHERE network_id = ?)
		ORDER BY manhole_id, position
	`, networkID)
	if err != nil {
		return nil, fmt.Errorf("failed to query compartments: %w", err)
	}
	defer compRows.Close()

	for compRows.Next() {
		var row compartmentRow
		if err := compRows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan compartment: %w", err)
		}
		i, ok := index[row.ManholeID]
		if !ok {
			continue
		}
		out[i].Compartments = append(out[i].Compartments, row.toDoc())
	}
	if err := compRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating compartments: %w", err)
	}
	return out, nil
}

func (r *Repository) loadNodes(ctx context.Context, networkID string) ([]codec.NodeDoc, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, x, y FROM nodes WHERE network_id = ? ORDER BY position
	`, networkID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var out []codec.NodeDoc
	for rows.Next() {
		var n codec.NodeDoc
		if err := rows.Scan(&n.Name, &n.X, &n.Y); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}
	return out, nil
}

func (r *Repository) loadConnections(ctx context.Context, networkID string) ([]codec.ConnectionDoc, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+connectionColumns+` FROM connections WHERE network_id = ? ORDER BY position
	`, networkID)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}
	defer rows.Close()

	var out []codec.ConnectionDoc
	for rows.Next() {
		var row connectionRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		c, err := row.toDoc()
		if err != nil {
			return nil, fmt.Errorf("connection %s: %w", row.Name, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}
	return out, nil
}

// ListNetworks returns a summary of every stored network, sorted by name
func (r *Repository) ListNetworks(ctx context.Context) ([]repository.NetworkSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT n.name, n.version, n.saved_at,
			(SELECT COUNT(*) FROM manholes m WHERE m.network_id = n.id),
			(SELECT COUNT(*) FROM connections c WHERE c.network_id = n.id)
		FROM networks n
		ORDER BY n.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query networks: %w", err)
	}
	defer rows.Close()

	var out []repository.NetworkSummary
	for rows.Next() {
		var (
			s       repository.NetworkSummary
			version sql.NullString
			savedAt string
		)
		if err := rows.Scan(&s.Name, &version, &savedAt, &s.Manholes, &s.Connections); err != nil {
			return nil, fmt.Errorf("failed to scan network: %w", err)
		}
		s.Version = nullToString(version)
		if s.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
			return nil, fmt.Errorf("invalid saved_at for %s: %w", s.Name, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating networks: %w", err)
	}
	return out, nil
}

// DeleteNetwork removes a stored network and everything it owns
func (r *Repository) DeleteNetwork(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM networks WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete network: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", name, repository.ErrNotFound)
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
