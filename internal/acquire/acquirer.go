package acquire

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/eventkb/internal/model"
	appErr "github.com/xxxsen/eventkb/internal/pkg/errors"
)

const (
	DefaultTimeout      = 15 * time.Second
	DefaultMaxBodyBytes = 4 << 20
	defaultUserAgent    = "Mozilla/5.0 (compatible; eventkb/1.0)"
)

type Acquirer struct {
	client       *http.Client
	maxBodyBytes int64
	userAgent    string
}

func New(timeout time.Duration, maxBodyBytes int64, userAgent string) *Acquirer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	return &Acquirer{
		client:       &http.Client{Timeout: timeout},
		maxBodyBytes: maxBodyBytes,
		userAgent:    userAgent,
	}
}

// Acquire resolves the plain text of a source from its declared type.
func (a *Acquirer) Acquire(ctx context.Context, typ model.SourceType, content string) (string, error) {
	switch typ {
	case model.SourceTypeURL:
		return a.fetch(ctx, strings.TrimSpace(content))
	case model.SourceTypeText:
		if strings.TrimSpace(content) == "" {
			return "", appErr.ErrEmptyContent
		}
		return content, nil
	default:
		return "", fmt.Errorf("%w: %q", appErr.ErrUnsupportedSourceType, typ)
	}
}

func (a *Acquirer) fetch(ctx context.Context, url string) (string, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("url", url))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", appErr.ErrAcquisition, err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain,text/markdown;q=0.9,*/*;q=0.8")
	resp, err := a.client.Do(req)
	if err != nil {
		logger.Warn("fetch url failed", zap.Error(err))
		return "", fmt.Errorf("%w: fetch %s: %v", appErr.ErrAcquisition, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: fetch %s: unexpected status %s", appErr.ErrAcquisition, url, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", appErr.ErrAcquisition, err)
	}

	var text string
	switch contentKind(resp.Header.Get("Content-Type"), url) {
	case kindPlain:
		text = strings.TrimSpace(string(body))
	case kindMarkdown:
		text = markdownText(body)
	default:
		text, err = htmlText(body)
		if err != nil {
			return "", fmt.Errorf("%w: parse html: %v", appErr.ErrAcquisition, err)
		}
	}
	if text == "" {
		return "", fmt.Errorf("%w: no text extracted from %s", appErr.ErrAcquisition, url)
	}
	logger.Info("url content acquired", zap.Int("bytes", len(body)), zap.Int("chars", len(text)))
	return text, nil
}

type kind int

const (
	kindHTML kind = iota
	kindPlain
	kindMarkdown
)

func contentKind(contentType, url string) kind {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}
	switch {
	case mediaType == "text/markdown" || mediaType == "text/x-markdown":
		return kindMarkdown
	case mediaType == "text/plain" && strings.HasSuffix(strings.ToLower(url), ".md"):
		return kindMarkdown
	case mediaType == "text/plain":
		return kindPlain
	default:
		return kindHTML
	}
}
