package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"vibrato/pkg/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Store wraps a *sql.DB providing higher-level helper methods for the
// library's persistent state. It is safe for concurrent use because the
// underlying *sql.DB is concurrency-safe.
type Store struct {
	conn   *sql.DB
	logger *logrus.Logger

	// Prepared statements for the hot paths
	upsertTrackStmt    *sql.Stmt
	upsertPlaylistStmt *sql.Stmt
}

// NewStore opens (or creates) a SQLite database at the provided path and
// ensures all required tables exist. It also applies lightweight
// performance-oriented pragmas (WAL, cache sizing). Caller should
// Close() it when finished.
func NewStore(dbPath string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.New()
	}

	conn, err := sql.Open("sqlite3", dbPath+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works better with fewer connections
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(15 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=2000;",
		"PRAGMA temp_store=memory;",
		"PRAGMA foreign_keys=ON;",
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	s := &Store{
		conn:   conn,
		logger: logger,
	}

	if err := s.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := s.prepareStatements(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	logger.WithField("db_path", dbPath).Debug("Store initialized")
	return s, nil
}

// createTables creates tables if they do not already exist. This is
// idempotent and safe to call multiple times.
func (s *Store) createTables() error {
	tracksTable := `
	CREATE TABLE IF NOT EXISTS tracks (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT NOT NULL,
		track_number INTEGER DEFAULT 0,
		duration INTEGER DEFAULT 0,
		file_path TEXT NOT NULL UNIQUE,
		file_size INTEGER NOT NULL
	);`

	playlistsTable := `
	CREATE TABLE IF NOT EXISTS playlists (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		track_ids TEXT NOT NULL DEFAULT '[]'
	);`

	indices := []string{
		"CREATE INDEX IF NOT EXISTS idx_tracks_artist_album ON tracks(artist, album, track_number);",
		"CREATE INDEX IF NOT EXISTS idx_tracks_file_path ON tracks(file_path);",
	}

	for _, table := range []string{tracksTable, playlistsTable} {
		if _, err := s.conn.Exec(table); err != nil {
			return err
		}
	}

	for _, index := range indices {
		if _, err := s.conn.Exec(index); err != nil {
			return err
		}
	}

	return nil
}

// prepareStatements prepares commonly used SQL statements
func (s *Store) prepareStatements() error {
	var err error

	s.upsertTrackStmt, err = s.conn.Prepare(`
		INSERT INTO tracks (id, title, artist, album, track_number, duration, file_path, file_size)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			artist=excluded.artist,
			album=excluded.album,
			track_number=excluded.track_number,
			duration=excluded.duration,
			file_path=excluded.file_path,
			file_size=excluded.file_size`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert track statement: %w", err)
	}

	s.upsertPlaylistStmt, err = s.conn.Prepare(`
		INSERT INTO playlists (id, name, description, created_at, track_ids)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			description=excluded.description,
			track_ids=excluded.track_ids`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert playlist statement: %w", err)
	}

	return nil
}

// EachTrack iterates all persisted tracks ordered by ID. A row that
// fails to scan is reported through onErr and iteration continues, so
// one corrupt row does not lose the rest of the library.
func (s *Store) EachTrack(fn func(models.Track), onErr func(error)) error {
	rows, err := s.conn.Query(`
		SELECT id, title, artist, album, track_number, duration, file_path, file_size
		FROM tracks
		ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var track models.Track
		if err := rows.Scan(&track.ID, &track.Title, &track.Artist, &track.Album,
			&track.TrackNumber, &track.Duration, &track.FilePath, &track.FileSize); err != nil {
			if onErr != nil {
				onErr(err)
			}
			continue
		}
		fn(track)
	}
	return rows.Err()
}

// CountTracks returns the number of persisted tracks.
func (s *Store) CountTracks() (int, error) {
	var count int
	err := s.conn.QueryRow("SELECT COUNT(*) FROM tracks").Scan(&count)
	return count, err
}

// EachPlaylist iterates all persisted playlists ordered by ID. Rows with
// malformed track ID lists are reported through onErr and skipped.
func (s *Store) EachPlaylist(fn func(models.Playlist), onErr func(error)) error {
	rows, err := s.conn.Query(`
		SELECT id, name, description, created_at, track_ids
		FROM playlists
		ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var playlist models.Playlist
		var description sql.NullString
		var trackIDs string
		if err := rows.Scan(&playlist.ID, &playlist.Name, &description,
			&playlist.CreatedAt, &trackIDs); err != nil {
			if onErr != nil {
				onErr(err)
			}
			continue
		}
		if description.Valid {
			playlist.Description = description.String
		}
		if err := json.Unmarshal([]byte(trackIDs), &playlist.TrackIDs); err != nil {
			if onErr != nil {
				onErr(fmt.Errorf("playlist %d has malformed track list: %w", playlist.ID, err))
			}
			continue
		}
		fn(playlist)
	}
	return rows.Err()
}

// CountPlaylists returns the number of persisted playlists.
func (s *Store) CountPlaylists() (int, error) {
	var count int
	err := s.conn.QueryRow("SELECT COUNT(*) FROM playlists").Scan(&count)
	return count, err
}

// SaveTracks persists the full track snapshot in a single transaction,
// removing rows for tracks no longer in the library.
func (s *Store) SaveTracks(tracks []models.Track) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM tracks"); err != nil {
		return err
	}

	stmt := tx.Stmt(s.upsertTrackStmt)
	for _, track := range tracks {
		if _, err := stmt.Exec(track.ID, track.Title, track.Artist, track.Album,
			track.TrackNumber, track.Duration, track.FilePath, track.FileSize); err != nil {
			return fmt.Errorf("failed to save track %d: %w", track.ID, err)
		}
	}

	return tx.Commit()
}

// SavePlaylists persists the full playlist snapshot in a single
// transaction, removing rows for playlists no longer in the library.
func (s *Store) SavePlaylists(playlists []models.Playlist) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM playlists"); err != nil {
		return err
	}

	stmt := tx.Stmt(s.upsertPlaylistStmt)
	for _, playlist := range playlists {
		trackIDs, err := json.Marshal(playlist.TrackIDs)
		if err != nil {
			return fmt.Errorf("failed to encode track list for playlist %d: %w", playlist.ID, err)
		}
		createdAt := playlist.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := stmt.Exec(playlist.ID, playlist.Name, playlist.Description,
			createdAt, string(trackIDs)); err != nil {
			return fmt.Errorf("failed to save playlist %d: %w", playlist.ID, err)
		}
	}

	return tx.Commit()
}

// Close closes the underlying database connection and prepared statements.
func (s *Store) Close() error {
	for _, stmt := range []*sql.Stmt{s.upsertTrackStmt, s.upsertPlaylistStmt} {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				s.logger.WithError(err).Error("Failed to close prepared statement")
			}
		}
	}

	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
