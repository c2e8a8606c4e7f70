package index

import "github.com/aryannaik/transcript-search/internal/loose"

// Chunk is a timestamped slice of an episode transcript.
type Chunk struct {
	ID        loose.String `json:"id"`
	Text      string       `json:"text"`
	Episode   string       `json:"episode"`
	Title     string       `json:"title"`
	Timestamp float64      `json:"timestamp"`
	URL       string       `json:"url"`
	Position  int          `json:"position"`
}

// Hit is a chunk matched by a query, with the engine's relevance score.
type Hit struct {
	Chunk
	Score float64 `json:"score"`
}
