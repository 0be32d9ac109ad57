package model

// EmbeddingCache is one persisted embedding. ModelName, TaskType and
// ContentHash together identify the row; a model change never reuses
// vectors from another model.
type EmbeddingCache struct {
	ModelName   string
	TaskType    string
	ContentHash string
	Embedding   []float32
	Ctime       int64
}
