package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/neurosnap/sentences/english"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	DefaultGroupSize = 5
	DefaultMinWords  = 20
)

// Splitter breaks text into sentences.
type Splitter interface {
	Split(text string) ([]string, error)
}

type punktSplitter struct {
	tokenize func(string) []string
}

// NewPunktSplitter loads the English Punkt model.
func NewPunktSplitter() (Splitter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load punkt model: %w", err)
	}
	return &punktSplitter{tokenize: func(text string) []string {
		items := tokenizer.Tokenize(text)
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, item.Text)
		}
		return out
	}}, nil
}

func (p *punktSplitter) Split(text string) ([]string, error) {
	return p.tokenize(text), nil
}

type failureKind int

const (
	failureNone failureKind = iota
	failureUnavailable
	failureError
	failureEmpty
)

func (k failureKind) String() string {
	switch k {
	case failureUnavailable:
		return "unavailable"
	case failureError:
		return "error"
	case failureEmpty:
		return "empty"
	default:
		return "none"
	}
}

type tokenizeResult struct {
	sentences []string
	failure   failureKind
	err       error
}

type Chunker struct {
	groupSize int
	minWords  int
	splitter  Splitter
}

// New builds a chunker. A nil splitter means sentence detection is unavailable
// and every non-trivial text goes through the paragraph fallback.
func New(groupSize, minWords int, splitter Splitter) *Chunker {
	if groupSize <= 0 {
		groupSize = DefaultGroupSize
	}
	if minWords <= 0 {
		minWords = DefaultMinWords
	}
	return &Chunker{groupSize: groupSize, minWords: minWords, splitter: splitter}
}

func (c *Chunker) GroupSize() int {
	return c.groupSize
}

// Chunk splits text into ordered chunk texts. It never returns an empty
// result for input containing any non-space character.
func (c *Chunker) Chunk(ctx context.Context, text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	logger := logutil.GetLogger(ctx)
	if len(strings.Fields(text)) < c.minWords {
		return []string{text}
	}
	res := c.tokenize(text)
	if res.failure != failureNone {
		logger.Warn("sentence tokenization failed, falling back to paragraph split",
			zap.String("reason", res.failure.String()),
			zap.Error(res.err),
		)
		return splitParagraphs(text)
	}
	chunks := make([]string, 0, (len(res.sentences)+c.groupSize-1)/c.groupSize)
	for i := 0; i < len(res.sentences); i += c.groupSize {
		end := i + c.groupSize
		if end > len(res.sentences) {
			end = len(res.sentences)
		}
		chunks = append(chunks, strings.Join(res.sentences[i:end], " "))
	}
	logger.Debug("text chunked",
		zap.Int("sentences", len(res.sentences)),
		zap.Int("chunks", len(chunks)),
	)
	return chunks
}

func (c *Chunker) tokenize(text string) (res tokenizeResult) {
	if c.splitter == nil {
		return tokenizeResult{failure: failureUnavailable}
	}
	defer func() {
		if r := recover(); r != nil {
			res = tokenizeResult{failure: failureError, err: fmt.Errorf("splitter panic: %v", r)}
		}
	}()
	raw, err := c.splitter.Split(text)
	if err != nil {
		return tokenizeResult{failure: failureError, err: err}
	}
	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return tokenizeResult{failure: failureEmpty}
	}
	return tokenizeResult{sentences: sentences}
}

func splitParagraphs(text string) []string {
	parts := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	chunks := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunks = append(chunks, part)
	}
	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}
