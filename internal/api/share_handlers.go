package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rizwanabrish101/shayari/internal/domain"
	"github.com/rizwanabrish101/shayari/internal/media/images"
)

func (s *Server) registerShareRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createShare",
		Method:        http.MethodPost,
		Path:          "/api/v1/shares",
		Summary:       "Create share",
		Description:   "Composes an image and publishes it for sharing",
		Tags:          []string{"Shares"},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  maxComposeBody,
		Middlewares:   huma.Middlewares{s.rateLimit},
	}, s.handleCreateShare)

	huma.Register(s.api, huma.Operation{
		OperationID: "getShare",
		Method:      http.MethodGet,
		Path:        "/api/v1/shares/{id}",
		Summary:     "Get share",
		Description: "Returns share metadata with a current image URL",
		Tags:        []string{"Shares"},
	}, s.handleGetShare)

	huma.Register(s.api, huma.Operation{
		OperationID: "getShareImage",
		Method:      http.MethodGet,
		Path:        "/api/v1/shares/{id}/image",
		Summary:     "Get share image",
		Description: "Serves the PNG for locally published shares and redirects to the bucket URL otherwise",
		Tags:        []string{"Shares"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "PNG image",
				Content:     map[string]*huma.MediaType{"image/png": {}},
			},
			"304": {Description: "Image unchanged"},
			"307": {Description: "Redirect to the published object"},
		},
	}, s.handleGetShareImage)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteShare",
		Method:        http.MethodDelete,
		Path:          "/api/v1/shares/{id}",
		Summary:       "Delete share",
		Description:   "Deletes a share and its image",
		Tags:          []string{"Shares"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteShare)

	huma.Register(s.api, huma.Operation{
		OperationID: "listVerseShares",
		Method:      http.MethodGet,
		Path:        "/api/v1/verses/{id}/shares",
		Summary:     "List verse shares",
		Description: "Returns the shares composed from a verse",
		Tags:        []string{"Shares"},
	}, s.handleListVerseShares)
}

// === DTOs ===

// ShareOutput wraps share metadata for Huma.
type ShareOutput struct {
	Body *domain.Share
}

// SharesOutput wraps a share list for Huma.
type SharesOutput struct {
	Body []*domain.Share
}

// ShareImageOutput is either PNG bytes or a redirect.
type ShareImageOutput struct {
	Status       int
	Location     string `header:"Location"`
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	ETag         string `header:"ETag"`
	Body         []byte
}

// ShareImageInput accepts a conditional request for a share image.
type ShareImageInput struct {
	ID          string `path:"id" doc:"Share ID"`
	IfNoneMatch string `header:"If-None-Match"`
}

// === Handlers ===

func (s *Server) handleCreateShare(ctx context.Context, input *ComposeInput) (*ShareOutput, error) {
	sh, err := s.services.Share.Create(ctx, input.Body.toShare())
	if err != nil {
		return nil, err
	}
	return &ShareOutput{Body: sh}, nil
}

func (s *Server) handleGetShare(ctx context.Context, input *IDInput) (*ShareOutput, error) {
	sh, err := s.services.Share.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ShareOutput{Body: sh}, nil
}

func (s *Server) handleGetShareImage(ctx context.Context, input *ShareImageInput) (*ShareImageOutput, error) {
	sh, err := s.services.Share.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if sh.Backend != "local" {
		return &ShareImageOutput{
			Status:       http.StatusTemporaryRedirect,
			Location:     sh.URL,
			CacheControl: "no-store",
		}, nil
	}

	data, err := s.services.Share.Open(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	out := &ShareImageOutput{
		Status:       http.StatusOK,
		ContentType:  "image/png",
		CacheControl: "public, max-age=86400",
		ETag:         images.ETag(data),
	}
	if input.IfNoneMatch == out.ETag {
		out.Status = http.StatusNotModified
		return out, nil
	}
	out.Body = data
	return out, nil
}

func (s *Server) handleDeleteShare(ctx context.Context, input *IDInput) (*struct{}, error) {
	if err := s.services.Share.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleListVerseShares(ctx context.Context, input *IDInput) (*SharesOutput, error) {
	shares, err := s.services.Share.ListForVerse(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &SharesOutput{Body: nonNil(shares)}, nil
}
