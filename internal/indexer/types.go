package indexer

// Chunk is one character window of the statute text.
type Chunk struct {
	Index int    // Chunk index within the statute (starts at 0)
	Text  string // Trimmed chunk text
	// Articles are the keys of the article headings the chunk carries, in order.
	Articles []string
}
