package county

// Metadata is the retrieval-facing summary attached to each chunk. It is
// what the answer surface reports as a source, so it stays small and flat.
type Metadata struct {
	County        string   `json:"county"`
	State         string   `json:"state"`
	HighRisk      bool     `json:"is_high_risk"`
	CompositeRisk *float64 `json:"composite_risk,omitempty"`
	Cluster       *int     `json:"cluster,omitempty"`
}

// Chunk is one retrievable unit of text. Its id is the chunk's position in
// the build order, which is also its row in the vector index; the two stores
// are only meaningful together.
type Chunk struct {
	id   int
	text string
	meta Metadata
}

// NewChunk creates a Chunk.
func NewChunk(id int, text string, meta Metadata) Chunk {
	return Chunk{id: id, text: text, meta: meta}
}

// ID returns the chunk's position in the build order.
func (c Chunk) ID() int { return c.id }

// Text returns the chunk text.
func (c Chunk) Text() string { return c.text }

// Metadata returns the chunk's source metadata.
func (c Chunk) Metadata() Metadata { return c.meta }

// BuildChunks renders every record's profile and assigns ids by position.
// One record yields exactly one chunk, in input order.
func BuildChunks(records []Record) []Chunk {
	chunks := make([]Chunk, 0, len(records))
	for i, r := range records {
		meta := Metadata{
			County:   r.County,
			State:    r.State,
			HighRisk: r.HighRisk(),
		}
		if r.Risk != nil {
			score := r.Risk.Score()
			cluster := r.Risk.Cluster()
			meta.CompositeRisk = &score
			meta.Cluster = &cluster
		}
		chunks = append(chunks, NewChunk(i, r.Profile(), meta))
	}
	return chunks
}
