package model

import "strconv"

// Chunk is the unit written to an event's vector index.
type Chunk struct {
	ChunkID   string    `json:"chunk_id"`
	SourceID  string    `json:"source_id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"-"`
}

type ChunkMatch struct {
	SourceID string  `json:"source_id"`
	Text     string  `json:"text"`
	Score    float32 `json:"score"`
}

func ChunkID(sourceID string, index int) string {
	return sourceID + "_" + strconv.Itoa(index)
}
