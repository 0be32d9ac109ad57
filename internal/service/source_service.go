package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/eventkb/internal/model"
	appErr "github.com/xxxsen/eventkb/internal/pkg/errors"
	"github.com/xxxsen/eventkb/internal/pkg/timeutil"
)

type CreateSourceInput struct {
	Title   string
	Type    string
	Content string
}

type SourceService struct {
	sources SourceStore
}

func NewSourceService(sources SourceStore) *SourceService {
	return &SourceService{sources: sources}
}

// Create registers a new pending source. The ingestion loop picks it up on
// its next pass.
func (s *SourceService) Create(ctx context.Context, eventID string, input CreateSourceInput) (*model.Source, error) {
	eventID = strings.TrimSpace(eventID)
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if eventID == "" || title == "" || content == "" {
		return nil, appErr.ErrInvalid
	}
	typ := model.SourceType(strings.ToLower(strings.TrimSpace(input.Type)))
	if typ == "" {
		typ = model.SourceTypeText
	}
	switch typ {
	case model.SourceTypeText:
		content = input.Content
	case model.SourceTypeURL:
		u, err := url.Parse(content)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, appErr.ErrInvalid
		}
	default:
		return nil, appErr.ErrInvalid
	}
	now := timeutil.NowUnix()
	src := &model.Source{
		ID:      newID(),
		EventID: eventID,
		Title:   title,
		Type:    typ,
		Content: content,
		Status:  model.SourceStatusPending,
		Ctime:   now,
		Mtime:   now,
	}
	if err := s.sources.Create(ctx, src); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("source created",
		zap.String("source_id", src.ID),
		zap.String("event_id", eventID),
		zap.String("type", string(typ)),
	)
	return src, nil
}

func (s *SourceService) List(ctx context.Context, eventID string) ([]model.Source, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, appErr.ErrInvalid
	}
	return s.sources.ListByEvent(ctx, eventID)
}

func (s *SourceService) Get(ctx context.Context, id string) (*model.Source, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErr.ErrInvalid
	}
	return s.sources.GetByID(ctx, id)
}
