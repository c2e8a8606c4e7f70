package episodes

import "github.com/aryannaik/transcript-search/internal/loose"

// Episode is the metadata for one podcast episode, keyed by its canonical id.
type Episode struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Raw is one entry of the episode metadata source before normalization.
type Raw struct {
	ID    loose.String `json:"id"`
	URL   loose.String `json:"url"`
	Title loose.String `json:"title"`
}
