package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/eventkb/internal/ai"
	appErr "github.com/xxxsen/eventkb/internal/pkg/errors"
)

const LLMFallbackAnswer = "There was an error communicating with the AI model. Please try again."

// LLMResult carries either the model answer or the reason it is missing.
type LLMResult struct {
	Text string
	Err  error
}

// Answer returns the model text, or the fixed fallback when the call failed.
func (r LLMResult) Answer() string {
	if r.Err != nil {
		return LLMFallbackAnswer
	}
	return r.Text
}

type LLMCaller struct {
	gen     ai.IGenerator
	timeout time.Duration
}

func NewLLMCaller(gen ai.IGenerator, timeout time.Duration) *LLMCaller {
	return &LLMCaller{gen: gen, timeout: timeout}
}

func (c *LLMCaller) Call(ctx context.Context, prompt string) LLMResult {
	if c.gen == nil {
		return LLMResult{Err: fmt.Errorf("%w: %w", appErr.ErrLLMCall, ai.ErrUnavailable)}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	text, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		return LLMResult{Err: fmt.Errorf("%w: %w", appErr.ErrLLMCall, err)}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return LLMResult{Err: fmt.Errorf("%w: empty answer", appErr.ErrLLMCall)}
	}
	return LLMResult{Text: text}
}

// Generate never fails. Errors are logged and replaced by LLMFallbackAnswer.
func (c *LLMCaller) Generate(ctx context.Context, prompt string) string {
	res := c.Call(ctx, prompt)
	if res.Err != nil {
		logutil.GetLogger(ctx).Error("llm call failed", zap.Int("prompt_len", len(prompt)), zap.Error(res.Err))
	}
	return res.Answer()
}
