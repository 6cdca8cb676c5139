// Package msgstore reads the macOS Messages database (chat.db) as an
// append-only message log. The database is owned and written by Messages;
// this package opens it read-only and never holds a lock across polls.
package msgstore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/zhoulinyu/imbot/internal/domain"
	"github.com/zhoulinyu/imbot/internal/logging"
)

// Store is a read-only cursor reader over chat.db.
type Store struct {
	path string
	db   *sql.DB
	log  *logging.Logger
}

// New creates a store for the database at path. Open must be called
// before any query.
func New(path string, log *logging.Logger) *Store {
	return &Store{path: path, log: log.Sub("msgstore")}
}

// Open opens the database read-only and verifies the message table is
// reachable. On any failure the store stays closed.
func (s *Store) Open() error {
	db, err := sql.Open("sqlite", "file:"+s.path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("opening message store: %w", err)
	}

	// sql.Open is lazy; probe the schema so permission problems (missing
	// Full Disk Access) surface here instead of mid-poll.
	var probe int64
	if err := db.QueryRow("SELECT COALESCE(MAX(ROWID), 0) FROM message").Scan(&probe); err != nil {
		db.Close()
		return fmt.Errorf("message store unreadable at %s: %w", s.path, err)
	}

	s.db = db
	s.log.Info().Str("path", s.path).Int64("maxId", probe).Msg("message store opened")
	return nil
}

// Close closes the database connection. Safe to call when not open.
func (s *Store) Close() {
	if s.db == nil {
		return
	}
	s.log.Info().Msg("closing message store")
	s.db.Close()
	s.db = nil
}

// MaxID returns the highest message row id, or 0 if the store is empty,
// unreadable, or not open.
func (s *Store) MaxID() int64 {
	if s.db == nil {
		return 0
	}
	var id int64
	if err := s.db.QueryRow("SELECT COALESCE(MAX(ROWID), 0) FROM message").Scan(&id); err != nil {
		s.log.Warn().Err(err).Msg("max id query failed")
		return 0
	}
	return id
}

// Latest returns the most recent message, or ok=false if the store is
// empty or the query fails. Messages without a resolvable handle (group
// system rows) come back with an empty sender.
func (s *Store) Latest() (domain.StoredMessage, bool) {
	if s.db == nil {
		return domain.StoredMessage{}, false
	}

	const q = `
		SELECT message.ROWID, COALESCE(message.text, ''), COALESCE(handle.id, ''), message.is_from_me
		FROM message
		LEFT JOIN handle ON message.handle_id = handle.ROWID
		ORDER BY message.date DESC, message.ROWID DESC
		LIMIT 1`

	var msg domain.StoredMessage
	var fromMe int
	err := s.db.QueryRow(q).Scan(&msg.ID, &msg.Text, &msg.Sender, &fromMe)
	if err != nil {
		if err != sql.ErrNoRows {
			s.log.Warn().Err(err).Msg("latest message query failed")
		}
		return domain.StoredMessage{}, false
	}
	msg.FromSelf = fromMe != 0
	return msg, true
}

// RecentFor returns up to limit most-recent messages exchanged with the
// given sender, oldest first. Empty and whitespace-only texts are
// excluded; rows sent by the bot keep FromSelf=true so history can be
// mapped to assistant turns.
func (s *Store) RecentFor(sender string, limit int) []domain.HistoryEntry {
	if s.db == nil || limit <= 0 {
		return nil
	}

	const q = `
		SELECT COALESCE(message.text, ''), message.is_from_me
		FROM message
		JOIN handle ON message.handle_id = handle.ROWID
		WHERE handle.id = ? AND message.text IS NOT NULL
		ORDER BY message.date DESC, message.ROWID DESC
		LIMIT ?`

	// Over-fetch to compensate for whitespace-only rows filtered below.
	rows, err := s.db.Query(q, sender, limit*2)
	if err != nil {
		s.log.Warn().Err(err).Str("sender", sender).Msg("history query failed")
		return nil
	}
	defer rows.Close()

	var newestFirst []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		var fromMe int
		if err := rows.Scan(&entry.Text, &fromMe); err != nil {
			continue
		}
		if strings.TrimSpace(entry.Text) == "" {
			continue
		}
		entry.FromSelf = fromMe != 0
		newestFirst = append(newestFirst, entry)
		if len(newestFirst) == limit {
			break
		}
	}

	// Reverse into chronological order.
	for i, j := 0, len(newestFirst)-1; i < j; i, j = i+1, j-1 {
		newestFirst[i], newestFirst[j] = newestFirst[j], newestFirst[i]
	}
	return newestFirst
}
