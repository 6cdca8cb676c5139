// Package domain holds the core types shared across imbot packages.
package domain

// StoredMessage is one row of the external message log. The store is
// append-only and externally owned; ids are strictly increasing.
type StoredMessage struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Sender   string `json:"sender"`
	FromSelf bool   `json:"fromSelf"`
}

// HistoryEntry is one bounded-history item used to build conversation
// context. FromSelf marks messages the bot itself sent.
type HistoryEntry struct {
	Text     string `json:"text"`
	FromSelf bool   `json:"fromSelf"`
}
