package service

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/eventkb/internal/ai"
)

const (
	IntentModeKeyword = "keyword"
	IntentModeModel   = "model"
)

var creativeVerbs = map[string]struct{}{
	"write":    {},
	"draft":    {},
	"generate": {},
	"create":   {},
	"compose":  {},
	"speech":   {},
}

const creativePhrase = "give me ideas"

// IntentClassifier decides whether a query asks for new material rather
// than for facts.
type IntentClassifier interface {
	IsCreative(ctx context.Context, query string) bool
}

// NewIntentClassifier picks the classifier for mode. timeout bounds each
// model call; zero means no bound.
func NewIntentClassifier(mode string, gen ai.IGenerator, timeout time.Duration) IntentClassifier {
	if mode == IntentModeModel && gen != nil {
		return &ModelClassifier{gen: gen, timeout: timeout}
	}
	return KeywordClassifier{}
}

type KeywordClassifier struct{}

func (KeywordClassifier) IsCreative(ctx context.Context, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if strings.HasPrefix(q, creativePhrase) {
		return true
	}
	fields := strings.Fields(q)
	if len(fields) == 0 {
		return false
	}
	first := strings.TrimRightFunc(fields[0], unicode.IsPunct)
	_, ok := creativeVerbs[first]
	return ok
}

type ModelClassifier struct {
	gen     ai.IGenerator
	timeout time.Duration
}

const intentPrompt = "Classify the request below. Answer \"creative\" if it asks you to write, draft or compose new material such as a speech or a position paper. Answer \"factual\" if it asks for information. Reply with exactly one word.\n\nREQUEST:\n"

func (m *ModelClassifier) IsCreative(ctx context.Context, query string) bool {
	callCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	answer, err := m.gen.Generate(callCtx, intentPrompt+query)
	if err == nil {
		switch parseIntentLabel(answer) {
		case "creative":
			return true
		case "factual":
			return false
		}
	}
	logutil.GetLogger(ctx).Debug("intent model answer unusable, using keywords", zap.String("answer", answer), zap.Error(err))
	return KeywordClassifier{}.IsCreative(ctx, query)
}

func parseIntentLabel(answer string) string {
	fields := strings.Fields(strings.ToLower(answer))
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimFunc(fields[0], func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
