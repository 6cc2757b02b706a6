package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/rizwanabrish101/shayari/internal/compositor"
	"github.com/rizwanabrish101/shayari/internal/config"
	"github.com/rizwanabrish101/shayari/internal/logger"
	"github.com/rizwanabrish101/shayari/internal/media/images"
	"github.com/rizwanabrish101/shayari/internal/search"
	"github.com/rizwanabrish101/shayari/internal/share"
)

// CompositorHandle wraps the image compositor.
type CompositorHandle struct {
	*compositor.Compositor
}

// ProvideCompositor loads the compositor fonts.
func ProvideCompositor(i do.Injector) (*CompositorHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	c, err := compositor.New(compositor.Options{
		BoldFontPath:    cfg.Compositor.BoldFontPath,
		RegularFontPath: cfg.Compositor.RegularFontPath,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Compositor initialized",
		"bold_font", fontName(cfg.Compositor.BoldFontPath),
		"regular_font", fontName(cfg.Compositor.RegularFontPath),
	)

	return &CompositorHandle{Compositor: c}, nil
}

func fontName(path string) string {
	if path == "" {
		return "dejavu-sans"
	}
	return path
}

// ProvidePublisher provides the share image publisher for the configured backend.
func ProvidePublisher(i do.Injector) (share.Publisher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	dir := do.MustInvoke[*DataDirHandle](i)

	if cfg.Share.Backend == config.ShareS3 {
		p, err := share.NewS3Publisher(context.Background(), share.S3Options{
			Region:     cfg.Share.S3Region,
			Endpoint:   cfg.Share.S3Endpoint,
			Bucket:     cfg.Share.S3Bucket,
			AccessKey:  cfg.Share.S3AccessKey,
			SecretKey:  cfg.Share.S3SecretKey,
			PresignTTL: cfg.Share.PresignTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 publisher: %w", err)
		}
		log.Info("Share publisher initialized", "backend", "s3", "bucket", cfg.Share.S3Bucket)
		return p, nil
	}

	storage, err := images.NewStorage(dir.Base)
	if err != nil {
		return nil, fmt.Errorf("share storage: %w", err)
	}
	log.Info("Share publisher initialized", "backend", "local", "prefix", cfg.Share.PublicPrefix)
	return share.NewLocalPublisher(storage, cfg.Share.PublicPrefix), nil
}

// SearchIndexHandle closes the Bleve index on shutdown.
type SearchIndexHandle struct {
	*search.SearchIndex
}

func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex opens the index under the data directory. Its contents
// are kept in step with the catalog by the catalog service.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	dir := do.MustInvoke[*DataDirHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: dir.Search,
		Logger:   log.Component("search"),
	})
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}

	docs, _ := index.DocumentCount()
	rev, _ := index.Revision()
	log.Info("Search index opened", "documents", docs, "revision", rev)
	return &SearchIndexHandle{SearchIndex: index}, nil
}
