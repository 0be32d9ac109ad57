package service

import (
	"context"
	"errors"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/eventkb/internal/model"
	appErr "github.com/xxxsen/eventkb/internal/pkg/errors"
)

const (
	DefaultTopK = 3
	maxTopK     = 50
)

type QueryService struct {
	retriever   *Retriever
	classifier  IntentClassifier
	llm         *LLMCaller
	defaultTopK int
	maxTopK     int
}

func NewQueryService(retriever *Retriever, classifier IntentClassifier, llm *LLMCaller, defaultTopK, maxK int) *QueryService {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	if maxK <= 0 {
		maxK = maxTopK
	}
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	return &QueryService{
		retriever:   retriever,
		classifier:  classifier,
		llm:         llm,
		defaultTopK: defaultTopK,
		maxTopK:     maxK,
	}
}

// Handle answers one query. A missing knowledge base is reported as
// ErrKnowledgeBaseNotFound; every other failure is hidden behind ErrInternal.
func (s *QueryService) Handle(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error) {
	if req == nil || strings.TrimSpace(req.EventID) == "" || strings.TrimSpace(req.QueryText) == "" || req.TopK < 0 {
		return nil, appErr.ErrInvalid
	}
	// A selection that names no usable source id is rejected rather than
	// widened to every source of the event.
	selected := selectedSources(req.SelectedSourceIDs)
	if len(req.SelectedSourceIDs) > 0 && len(selected) == 0 {
		return nil, appErr.ErrInvalid
	}
	topK := req.TopK
	if topK == 0 {
		topK = s.defaultTopK
	}
	if topK > s.maxTopK {
		topK = s.maxTopK
	}
	useRAG := true
	if req.UseRAG != nil {
		useRAG = *req.UseRAG
	}
	logger := logutil.GetLogger(ctx).With(zap.String("event_id", req.EventID), zap.Bool("use_rag", useRAG))

	matches := []model.ChunkMatch{}
	isCreative := false
	if useRAG {
		found, err := s.retriever.Retrieve(ctx, req.EventID, req.QueryText, topK, selected)
		if err != nil {
			if errors.Is(err, appErr.ErrKnowledgeBaseNotFound) {
				logger.Info("knowledge base not found")
				return nil, err
			}
			logger.Error("retrieve context failed", zap.Error(err))
			return nil, appErr.ErrInternal
		}
		matches = found
		if len(matches) > 0 {
			isCreative = s.classifier.IsCreative(ctx, req.QueryText)
		}
	}
	prompt := AssemblePrompt(PromptInput{
		UseRAG: useRAG,
		Role: RoleContext{
			Country:   req.Country,
			Committee: req.Committee,
			Agenda:    req.Agenda,
		},
		Context:    matches,
		IsCreative: isCreative,
		Query:      req.QueryText,
	})
	answer := s.llm.Generate(ctx, prompt)
	logger.Info("query answered", zap.Int("context_chunks", len(matches)), zap.Bool("creative", isCreative))

	retrieved := make([]model.ContextChunk, 0, len(matches))
	for _, m := range matches {
		retrieved = append(retrieved, model.ContextChunk{SourceID: m.SourceID, Text: m.Text})
	}
	return &model.QueryResponse{
		Success:          true,
		FinalAnswer:      answer,
		RetrievedContext: retrieved,
	}, nil
}

func selectedSources(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
