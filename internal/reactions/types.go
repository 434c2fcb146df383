package reactions

// Reaction is an immutable snapshot of one emoji reaction on a
// message. A later fetch replaces the whole slice for that message;
// reaction data is never diffed incrementally.
type Reaction struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Users []string `json:"users,omitempty"`
}

// Message is one search result row. A nil Reactions slice means the
// reactions have not been fetched yet; an empty non-nil slice means
// they were fetched and there are none. The loader relies on that
// distinction to avoid refetching forever.
type Message struct {
	ChannelID string     `json:"channel_id"`
	Timestamp string     `json:"timestamp"`
	UserID    string     `json:"user_id,omitempty"`
	Username  string     `json:"username,omitempty"`
	Text      string     `json:"text"`
	Permalink string     `json:"permalink,omitempty"`
	Reactions []Reaction `json:"reactions"`
}

// Request identifies one reaction fetch and the list slot its result
// lands in. Index is assigned once per loader invocation, so no two
// in-flight fetches ever target the same message.
type Request struct {
	ChannelID string
	Timestamp string
	Index     int
}

// LoadingState is the aggregate progress of one loader invocation,
// published to the UI after every batch. A new invocation resets it.
type LoadingState struct {
	IsLoading   bool `json:"is_loading"`
	LoadedCount int  `json:"loaded_count"`
	TotalCount  int  `json:"total_count"`
	ErrorCount  int  `json:"error_count"`
}
