package msgstore

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhoulinyu/imbot/internal/logging"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

// newChatDB creates a minimal chat.db lookalike and returns its path plus
// a writer handle for seeding rows (simulating the external writer).
func newChatDB(t *testing.T) (string, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE handle (id TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE message (
			text       TEXT,
			handle_id  INTEGER,
			is_from_me INTEGER NOT NULL DEFAULT 0,
			date       INTEGER NOT NULL
		)`)
	require.NoError(t, err)
	return path, db
}

func addHandle(t *testing.T, db *sql.DB, id string) int64 {
	t.Helper()
	res, err := db.Exec("INSERT INTO handle (id) VALUES (?)", id)
	require.NoError(t, err)
	rowID, err := res.LastInsertId()
	require.NoError(t, err)
	return rowID
}

func addMessage(t *testing.T, db *sql.DB, text string, handleRowID int64, fromMe bool, date int64) int64 {
	t.Helper()
	fm := 0
	if fromMe {
		fm = 1
	}
	res, err := db.Exec(
		"INSERT INTO message (text, handle_id, is_from_me, date) VALUES (?, ?, ?, ?)",
		text, handleRowID, fm, date,
	)
	require.NoError(t, err)
	rowID, err := res.LastInsertId()
	require.NoError(t, err)
	return rowID
}

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s := New(path, silentLog())
	require.NoError(t, s.Open())
	t.Cleanup(s.Close)
	return s
}

func TestOpenFailsOnMissingDatabase(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing", "chat.db"), silentLog())
	assert.Error(t, s.Open())
}

func TestMaxIDEmptyStore(t *testing.T) {
	path, _ := newChatDB(t)
	s := openStore(t, path)
	assert.Equal(t, int64(0), s.MaxID())
}

func TestMaxIDNotOpen(t *testing.T) {
	s := New("whatever", silentLog())
	assert.Equal(t, int64(0), s.MaxID())
}

func TestMaxIDTracksAppends(t *testing.T) {
	path, db := newChatDB(t)
	h := addHandle(t, db, "+8613800000000")
	s := openStore(t, path)

	addMessage(t, db, "hi", h, false, 100)
	assert.Equal(t, int64(1), s.MaxID())

	// External writer appends while we hold our read connection.
	addMessage(t, db, "again", h, false, 200)
	assert.Equal(t, int64(2), s.MaxID())
}

func TestLatest(t *testing.T) {
	path, db := newChatDB(t)
	h := addHandle(t, db, "alice@icloud.com")
	addMessage(t, db, "first", h, false, 100)
	want := addMessage(t, db, ".在吗", h, false, 200)

	s := openStore(t, path)
	msg, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, want, msg.ID)
	assert.Equal(t, ".在吗", msg.Text)
	assert.Equal(t, "alice@icloud.com", msg.Sender)
	assert.False(t, msg.FromSelf)
}

func TestLatestEmptyStore(t *testing.T) {
	path, _ := newChatDB(t)
	s := openStore(t, path)
	_, ok := s.Latest()
	assert.False(t, ok)
}

func TestLatestFromSelf(t *testing.T) {
	path, db := newChatDB(t)
	h := addHandle(t, db, "bob@icloud.com")
	addMessage(t, db, "outbound", h, true, 100)

	s := openStore(t, path)
	msg, ok := s.Latest()
	require.True(t, ok)
	assert.True(t, msg.FromSelf)
}

func TestRecentForChronologicalAndBounded(t *testing.T) {
	path, db := newChatDB(t)
	h := addHandle(t, db, "alice@icloud.com")
	for i := 1; i <= 15; i++ {
		addMessage(t, db, fmt.Sprintf("msg %d", i), h, i%2 == 0, int64(i*100))
	}

	s := openStore(t, path)
	history := s.RecentFor("alice@icloud.com", 10)
	require.Len(t, history, 10)

	// The 10 most recent of 15, oldest first.
	assert.Equal(t, "msg 6", history[0].Text)
	assert.Equal(t, "msg 15", history[9].Text)
	assert.True(t, history[0].FromSelf)  // msg 6 is even
	assert.False(t, history[9].FromSelf) // msg 15 is odd
}

func TestRecentForExcludesWhitespace(t *testing.T) {
	path, db := newChatDB(t)
	h := addHandle(t, db, "alice@icloud.com")
	addMessage(t, db, "real", h, false, 100)
	addMessage(t, db, "   ", h, false, 200)
	addMessage(t, db, "\n\t", h, false, 300)
	addMessage(t, db, "also real", h, false, 400)

	s := openStore(t, path)
	history := s.RecentFor("alice@icloud.com", 10)
	require.Len(t, history, 2)
	assert.Equal(t, "real", history[0].Text)
	assert.Equal(t, "also real", history[1].Text)
}

func TestRecentForFiltersBySender(t *testing.T) {
	path, db := newChatDB(t)
	alice := addHandle(t, db, "alice@icloud.com")
	bob := addHandle(t, db, "bob@icloud.com")
	addMessage(t, db, "from alice", alice, false, 100)
	addMessage(t, db, "from bob", bob, false, 200)

	s := openStore(t, path)
	history := s.RecentFor("alice@icloud.com", 10)
	require.Len(t, history, 1)
	assert.Equal(t, "from alice", history[0].Text)
}

func TestRecentForZeroLimit(t *testing.T) {
	path, db := newChatDB(t)
	h := addHandle(t, db, "alice@icloud.com")
	addMessage(t, db, "hi", h, false, 100)

	s := openStore(t, path)
	assert.Nil(t, s.RecentFor("alice@icloud.com", 0))
}
