package embedcache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

type cacheKey struct {
	model       string
	taskType    string
	contentHash string
}

func newCacheKey(modelName, taskType, text string) cacheKey {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	hash := sha256.Sum256([]byte(text))
	return cacheKey{
		model:       modelName,
		taskType:    taskType,
		contentHash: hex.EncodeToString(hash[:]),
	}
}

func (k cacheKey) String() string {
	return "embed:" + k.model + ":" + k.taskType + ":" + k.contentHash
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
