package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

const (
	// ChunkerVersion is the version identifier for the chunker implementation.
	// Update this when chunking logic changes significantly.
	ChunkerVersion = "chars-v1"
	// TokensPerRune is an approximation for token counting (4 chars per token).
	TokensPerRune = 4.0
)

// Skip reasons reported in IngestStats.ChunksSkippedReasons.
const (
	SkipEmbeddingError = "embedding_error"
	SkipUpsertError    = "upsert_error"
)

// IngestStats contains statistics about one ingestion run.
type IngestStats struct {
	// Source is the statute path.
	Source string `json:"source"`
	// TextLength is the statute length in runes.
	TextLength int `json:"text_length"`
	// ChunksAttempted is the total number of chunks that were attempted to be embedded.
	ChunksAttempted int `json:"chunks_attempted"`
	// ChunksEmbedded is the number of chunks successfully embedded and stored.
	ChunksEmbedded int `json:"chunks_embedded"`
	// ChunksSkipped is the number of chunks skipped after a failed batch.
	ChunksSkipped int `json:"chunks_skipped"`
	// ChunksSkippedReasons is a breakdown of why chunks were skipped.
	ChunksSkippedReasons map[string]int `json:"chunks_skipped_reasons,omitempty"`
	// StalePointsDeleted counts points of a previous, longer run that were removed.
	StalePointsDeleted int `json:"stale_points_deleted"`
	// ArticlesCovered is the number of distinct article headings found across chunks.
	ArticlesCovered int `json:"articles_covered"`
	// ChunkLengthStats are rune counts per chunk.
	ChunkLengthStats DistributionStats `json:"chunk_length_stats"`
	// ChunkTokenStats are estimated token counts per chunk.
	ChunkTokenStats DistributionStats `json:"chunk_token_stats"`
	// ChunkerVersion is the version of the chunker used.
	ChunkerVersion string `json:"chunker_version"`
	// IndexVersion is a hash identifying the index build (chunker + embedding model + params).
	IndexVersion string `json:"index_version"`
}

// DistributionStats summarizes a set of counts.
type DistributionStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

func (s *IngestStats) skip(reason string, n int) {
	if s.ChunksSkippedReasons == nil {
		s.ChunksSkippedReasons = make(map[string]int)
	}
	s.ChunksSkipped += n
	s.ChunksSkippedReasons[reason] += n
}

// chunkStats fills the distribution and coverage fields from chunks.
func chunkStats(stats *IngestStats, chunks []Chunk) {
	lengths := make([]int, 0, len(chunks))
	tokens := make([]int, 0, len(chunks))
	articles := make(map[string]bool)
	for _, c := range chunks {
		n := utf8.RuneCountInString(c.Text)
		lengths = append(lengths, n)
		tokens = append(tokens, max(1, int(math.Round(float64(n)/TokensPerRune))))
		for _, k := range c.Articles {
			articles[k] = true
		}
	}
	stats.ChunkLengthStats = computeDistribution(lengths)
	stats.ChunkTokenStats = computeDistribution(tokens)
	stats.ArticlesCovered = len(articles)
}

// IndexVersion hashes what determines the content of the vector collection.
func IndexVersion(embeddingModel string, size, overlap int) string {
	input := fmt.Sprintf("%s|%s|size=%d|overlap=%d", ChunkerVersion, embeddingModel, size, overlap)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16] // 16 hex chars = 64 bits
}

// computeDistribution computes min, max, mean, and p95 from counts.
func computeDistribution(counts []int) DistributionStats {
	if len(counts) == 0 {
		return DistributionStats{}
	}

	sorted := make([]int, len(counts))
	copy(sorted, counts)
	sort.Ints(sorted)

	sum := 0
	for _, c := range counts {
		sum += c
	}
	mean := float64(sum) / float64(len(counts))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	p95Index = max(0, min(p95Index, len(sorted)-1))

	return DistributionStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}
