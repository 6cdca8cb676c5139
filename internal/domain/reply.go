package domain

// Reply is the structured payload every successful model call must yield.
// EmojiKeyword feeds the optional sticker follow-up; empty means none.
type Reply struct {
	Text         string `json:"reply"`
	EmojiKeyword string `json:"emoji_keyword"`
}
