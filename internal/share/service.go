package share

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/rizwanabrish101/shayari/internal/compositor"
	"github.com/rizwanabrish101/shayari/internal/domain"
	"github.com/rizwanabrish101/shayari/internal/errors"
	"github.com/rizwanabrish101/shayari/internal/id"
	"github.com/rizwanabrish101/shayari/internal/media/backgrounds"
	"github.com/rizwanabrish101/shayari/internal/media/images"
	"github.com/rizwanabrish101/shayari/internal/sse"
	"github.com/rizwanabrish101/shayari/internal/store"
	"github.com/rizwanabrish101/shayari/internal/validation"
)

// ContentSource resolves verse ids to text and poet.
type ContentSource interface {
	GetVerse(ctx context.Context, id string) (*domain.VerseWithPoet, error)
}

// Renderer draws and encodes images. *compositor.Compositor implements it.
type Renderer interface {
	Compose(req compositor.Request) (*image.RGBA, error)
	Encode(img image.Image) ([]byte, error)
}

// CreateRequest describes an image to compose. Either VerseID or Text is
// required; a verse id fills in text and attribution from the catalog,
// though an explicit Attribution still wins. At most one background source
// among ImageURL, ImageBase64 and Custom may be set; none uses Preset.
type CreateRequest struct {
	VerseID     string      `json:"verse_id,omitempty" validate:"required_without=Text"`
	Text        string      `json:"text,omitempty" validate:"max=2000"`
	Attribution string      `json:"attribution,omitempty" validate:"max=200"`
	Preset      string      `json:"preset,omitempty"`
	ImageURL    string      `json:"image_url,omitempty" validate:"omitempty,url"`
	ImageBase64 string      `json:"image_base64,omitempty"`
	Custom      image.Image `json:"-"`
}

// Service composes and publishes share images.
type Service struct {
	store     *store.Store
	content   ContentSource
	renderer  Renderer
	publisher Publisher
	fetcher   *backgrounds.Fetcher
	emitter   store.EventEmitter
	logger    *slog.Logger
	validator *validation.Validator
	now       func() time.Time
}

// NewService creates a share service.
func NewService(
	st *store.Store,
	content ContentSource,
	renderer Renderer,
	publisher Publisher,
	fetcher *backgrounds.Fetcher,
	emitter store.EventEmitter,
	logger *slog.Logger,
) *Service {
	if emitter == nil {
		emitter = store.NewNoopEmitter()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if fetcher == nil {
		fetcher = backgrounds.NewFetcher(nil, logger)
	}
	return &Service{
		store:     st,
		content:   content,
		renderer:  renderer,
		publisher: publisher,
		fetcher:   fetcher,
		emitter:   emitter,
		logger:    logger,
		validator: validation.New(),
		now:       time.Now,
	}
}

// Resolve turns req into a compositor request, loading the verse and the
// custom background as needed.
func (s *Service) Resolve(ctx context.Context, req CreateRequest) (compositor.Request, error) {
	if err := s.validator.Validate(req); err != nil {
		return compositor.Request{}, err
	}

	out := compositor.Request{
		Text:        req.Text,
		Attribution: req.Attribution,
		Preset:      req.Preset,
		Custom:      req.Custom,
	}

	if req.VerseID != "" {
		v, err := s.content.GetVerse(ctx, req.VerseID)
		if err != nil {
			return compositor.Request{}, err
		}
		if out.Text == "" {
			out.Text = v.Text
		}
		if out.Attribution == "" && v.Poet != nil {
			out.Attribution = v.Poet.UrduName
		}
	}

	sources := 0
	for _, set := range []bool{req.ImageURL != "", req.ImageBase64 != "", req.Custom != nil} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return compositor.Request{}, errors.Validation("only one of image_url and image_base64 may be set")
	}

	var err error
	switch {
	case req.ImageURL != "":
		out.Custom, err = s.fetcher.Fetch(ctx, req.ImageURL)
	case req.ImageBase64 != "":
		out.Custom, err = backgrounds.DecodeBase64(req.ImageBase64)
	}
	if err != nil {
		return compositor.Request{}, errors.Wrap(err, errors.CodeValidation, "load background image")
	}

	return out, nil
}

// Render resolves and renders req without publishing it.
func (s *Service) Render(ctx context.Context, req CreateRequest) ([]byte, error) {
	creq, err := s.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	img, err := s.renderer.Compose(creq)
	if err != nil {
		return nil, err
	}
	return s.renderer.Encode(img)
}

// Create renders req, publishes the PNG and records the share.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Share, error) {
	creq, err := s.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	img, err := s.renderer.Compose(creq)
	if err != nil {
		return nil, err
	}
	data, err := s.renderer.Encode(img)
	if err != nil {
		return nil, err
	}

	// The placeholder is cosmetic; a failure leaves it empty.
	hash, err := images.ComputeBlurHash(img)
	if err != nil {
		s.logger.Warn("blurhash failed", "error", err)
	}

	shareID, err := id.Generate(id.PrefixShare)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate share id")
	}

	pub, err := s.publisher.Publish(ctx, shareID, data)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "publish image")
	}

	sh := &domain.Share{
		ID:         shareID,
		VerseID:    req.VerseID,
		Backend:    s.publisher.Backend(),
		StorageKey: pub.Key,
		URL:        pub.URL,
		BlurHash:   hash,
		Size:       int64(len(data)),
		CreatedAt:  s.now().UTC(),
	}
	if creq.Custom == nil {
		sh.Preset = creq.Preset
		if sh.Preset == "" {
			sh.Preset = compositor.DefaultPreset
		}
	}

	if err := s.store.Shares.Create(ctx, sh.ID, sh); err != nil {
		if delErr := s.publisher.Delete(ctx, pub.Key); delErr != nil {
			s.logger.Warn("failed to remove orphaned image", "key", pub.Key, "error", delErr)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "save share")
	}

	s.emitter.Emit(sse.NewShareCreatedEvent(sh))
	s.logger.Info("share created", "id", sh.ID, "verse_id", sh.VerseID, "backend", sh.Backend, "size", sh.Size)

	return sh, nil
}

// Get returns share metadata with a current URL.
func (s *Service) Get(ctx context.Context, shareID string) (*domain.Share, error) {
	if !id.Valid(id.PrefixShare, shareID) {
		return nil, errors.NotFoundf("share %q not found", shareID)
	}
	sh, err := s.store.Shares.Get(ctx, shareID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.NotFoundf("share %q not found", shareID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "get share %q", shareID)
	}

	url, err := s.publisher.URL(ctx, sh)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "share url")
	}
	sh.URL = url
	return sh, nil
}

// Open returns the PNG bytes of a share.
func (s *Service) Open(ctx context.Context, shareID string) ([]byte, error) {
	sh, err := s.Get(ctx, shareID)
	if err != nil {
		return nil, err
	}
	data, err := s.publisher.Open(ctx, sh.StorageKey)
	if errors.Is(err, ErrObjectNotFound) {
		return nil, errors.NotFoundf("image for share %q not found", shareID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "open image")
	}
	return data, nil
}

// Delete removes a share and its image. Deleting an unknown share is not an
// error.
func (s *Service) Delete(ctx context.Context, shareID string) error {
	if !id.Valid(id.PrefixShare, shareID) {
		return nil
	}
	sh, err := s.store.Shares.Get(ctx, shareID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "get share %q", shareID)
	}

	if err := s.publisher.Delete(ctx, sh.StorageKey); err != nil {
		return errors.Wrap(err, errors.CodeUnavailable, "delete image")
	}
	if err := s.store.Shares.Delete(ctx, shareID); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "delete share")
	}
	return nil
}

// ListForVerse returns the shares made from a verse.
func (s *Service) ListForVerse(ctx context.Context, verseID string) ([]*domain.Share, error) {
	shares, err := store.Collect(s.store.Shares.ListByIndex(ctx, "verse", verseID))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list shares")
	}
	return shares, nil
}
