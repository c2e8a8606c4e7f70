package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/regexp"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Fuzziness is the fraction of a query token's length that may differ from an
// indexed token for the two to match.
const Fuzziness = 0.2

const (
	textField     = "text"
	analyzerName  = "transcript"
	tokenizerName = "transcript_words"

	// wordPattern keeps runs of letters and digits, so "patreon.com" and
	// "don't" each split in two.
	wordPattern = `[\p{L}\p{N}]+`

	// bleve rejects edit distances above 2.
	maxEditDistance = 2
)

// Store is an in-memory full-text index over transcript chunks. It is built
// once and safe for concurrent queries afterwards.
type Store struct {
	index    bleve.Index
	analyzer analysis.Analyzer
	chunks   map[string]Chunk
	order    map[string]int
}

// Build indexes the text of every chunk. Chunk ids must be unique.
func Build(chunks []Chunk) (*Store, error) {
	m, err := buildMapping()
	if err != nil {
		return nil, fmt.Errorf("build index mapping: %w", err)
	}

	idx, err := bleve.NewMemOnly(m)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	analyzer := m.AnalyzerNamed(analyzerName)
	if analyzer == nil {
		idx.Close()
		return nil, fmt.Errorf("analyzer %q not registered", analyzerName)
	}

	s := &Store{
		index:    idx,
		analyzer: analyzer,
		chunks:   make(map[string]Chunk, len(chunks)),
		order:    make(map[string]int, len(chunks)),
	}

	batch := idx.NewBatch()
	for i, c := range chunks {
		id := string(c.ID)
		if _, dup := s.chunks[id]; dup {
			idx.Close()
			return nil, fmt.Errorf("duplicate chunk id %q", id)
		}
		s.chunks[id] = c
		s.order[id] = i

		if err := batch.Index(id, map[string]interface{}{textField: c.Text}); err != nil {
			idx.Close()
			return nil, fmt.Errorf("index chunk %q: %w", id, err)
		}
	}

	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return nil, fmt.Errorf("commit index batch: %w", err)
	}

	return s, nil
}

// buildMapping indexes only the text field, split on every rune that is not a
// letter or digit and lowercased. No stop words, no stemming.
func buildMapping() (mapping.IndexMapping, error) {
	im := bleve.NewIndexMapping()
	err := im.AddCustomTokenizer(tokenizerName, map[string]interface{}{
		"type":   regexp.Name,
		"regexp": wordPattern,
	})
	if err != nil {
		return nil, err
	}
	err = im.AddCustomAnalyzer(analyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     tokenizerName,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, err
	}
	im.DefaultAnalyzer = analyzerName

	text := bleve.NewTextFieldMapping()
	text.Analyzer = analyzerName
	text.Store = false
	text.IncludeInAll = false

	doc := bleve.NewDocumentStaticMapping()
	doc.AddFieldMappingsAt(textField, text)
	im.DefaultMapping = doc

	return im, nil
}

// Len returns the number of indexed chunks.
func (s *Store) Len() int {
	return len(s.chunks)
}

// Close releases the underlying index.
func (s *Store) Close() error {
	return s.index.Close()
}

// Query returns every chunk matching at least one token of q, best first.
// Each token tolerates an edit distance of fuzziness times its length.
func (s *Store) Query(ctx context.Context, q string, fuzziness float64) ([]Hit, error) {
	terms := s.Tokenize(q)
	if len(terms) == 0 || len(s.chunks) == 0 {
		return nil, nil
	}

	disjuncts := make([]query.Query, 0, len(terms))
	for _, term := range terms {
		disjuncts = append(disjuncts, termQuery(term, fuzziness))
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(disjuncts...), len(s.chunks), 0, false)
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, m := range res.Hits {
		c, ok := s.chunks[m.ID]
		if !ok {
			continue
		}
		hits = append(hits, Hit{Chunk: c, Score: m.Score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return s.order[string(hits[i].ID)] < s.order[string(hits[j].ID)]
	})

	return hits, nil
}

func termQuery(term string, fuzziness float64) query.Query {
	distance := EditDistance(term, fuzziness)
	if distance == 0 {
		tq := bleve.NewTermQuery(term)
		tq.SetField(textField)
		return tq
	}

	fq := bleve.NewFuzzyQuery(term)
	fq.SetFuzziness(distance)
	fq.SetField(textField)
	return fq
}

// EditDistance is the number of edits a term of this length may absorb.
// Terms of 13 or more runes would earn 3 or more, but bleve caps fuzzy
// matching at 2, so long terms get less slack than the fraction implies.
func EditDistance(term string, fuzziness float64) int {
	d := int(math.Round(float64(utf8.RuneCountInString(term)) * fuzziness))
	if d > maxEditDistance {
		d = maxEditDistance
	}
	if d < 0 {
		d = 0
	}
	return d
}

// Tokenize splits q into terms with the analyzer used for indexed text.
func (s *Store) Tokenize(q string) []string {
	tokens := s.analyzer.Analyze([]byte(q))
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len(tok.Term) > 0 {
			terms = append(terms, string(tok.Term))
		}
	}
	return terms
}
