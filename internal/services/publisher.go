package services

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/google/uuid"

	"github.com/yungbote/hairsim-backend/internal/pkg/logger"
	"github.com/yungbote/hairsim-backend/internal/simerr"
)

const resultKeyPrefix = "user_simulation_dic"

// ArtifactStore is the slice of the bucket client the publisher needs.
type ArtifactStore interface {
	UploadFile(ctx context.Context, key string, file io.Reader) error
	GetPublicURL(key string) string
}

// Publisher turns a finished simulation image into a durable, publicly
// addressable artifact.
type Publisher interface {
	// PublishResult encodes and uploads one result image and returns its
	// public locator. Keys are random per publication; nothing is ever
	// overwritten, so a re-run yields new locators and orphans the old ones.
	PublishResult(ctx context.Context, requestID int64, img image.Image) (string, error)
}

type publisher struct {
	log     *logger.Logger
	store   ArtifactStore
	quality int
}

func NewPublisher(log *logger.Logger, store ArtifactStore) Publisher {
	return &publisher{
		log:     log.With("service", "Publisher"),
		store:   store,
		quality: 90,
	}
}

func (p *publisher) PublishResult(ctx context.Context, requestID int64, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.quality}); err != nil {
		return "", &simerr.PublishError{Err: fmt.Errorf("encode jpeg: %w", err)}
	}

	u := uuid.New()
	key := fmt.Sprintf("%s/%d/%s.jpg", resultKeyPrefix, requestID, hex.EncodeToString(u[:]))

	if err := p.store.UploadFile(ctx, key, &buf); err != nil {
		return "", &simerr.PublishError{Err: err}
	}

	url := p.store.GetPublicURL(key)
	p.log.Debug("Result published", "key", key, "url", url)
	return url, nil
}
