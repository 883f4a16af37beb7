package entry

// JournalEntry is the single entry a user keeps for a calendar date.
type JournalEntry struct {
	ID      string    `json:"id,omitempty"`
	UserID  string    `json:"user_id,omitempty"`
	Date    Date      `json:"journal_date"`
	Content string    `json:"content"`
	SavedAt Timestamp `json:"saved_at"`
}
