package api

import (
	"context"
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rizwanabrish101/shayari/internal/color"
	"github.com/rizwanabrish101/shayari/internal/compositor"
	"github.com/rizwanabrish101/shayari/internal/media/backgrounds"
	"github.com/rizwanabrish101/shayari/internal/share"
)

// maxComposeBody leaves room for a base64 background of backgrounds.MaxSize.
const maxComposeBody = backgrounds.MaxSize*4/3 + 64*1024

func (s *Server) registerComposeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPresets",
		Method:      http.MethodGet,
		Path:        "/api/v1/presets",
		Summary:     "List background presets",
		Description: "Returns the built-in gradient backgrounds",
		Tags:        []string{"Compose"},
	}, s.handleListPresets)

	huma.Register(s.api, huma.Operation{
		OperationID:  "composeImage",
		Method:       http.MethodPost,
		Path:         "/api/v1/compose",
		Summary:      "Compose image",
		Description:  "Renders a verse onto a background and returns the PNG without storing it",
		Tags:         []string{"Compose"},
		MaxBodyBytes: maxComposeBody,
		Middlewares:  huma.Middlewares{s.rateLimit},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "PNG image",
				Content:     map[string]*huma.MediaType{"image/png": {}},
			},
		},
	}, s.handleCompose)
}

// === DTOs ===

// PresetResponse describes a background preset.
type PresetResponse struct {
	Name   string   `json:"name" doc:"Preset identifier"`
	Label  string   `json:"label" doc:"Urdu display label"`
	Kind   string   `json:"kind" doc:"linear or radial"`
	Colors []string `json:"colors" doc:"Gradient stops as #rrggbb"`
}

// PresetsOutput wraps the preset list for Huma.
type PresetsOutput struct {
	Body []PresetResponse
}

// ComposeRequest is the request body for composing an image.
type ComposeRequest struct {
	VerseID     string `json:"verse_id,omitempty" doc:"Catalog verse; fills text and attribution"`
	Text        string `json:"text,omitempty" maxLength:"2000" doc:"Newline-delimited lines, used when verse_id is empty"`
	Attribution string `json:"attribution,omitempty" maxLength:"200" doc:"Poet line; overrides the verse's poet"`
	Preset      string `json:"preset,omitempty" doc:"Background preset name"`
	ImageURL    string `json:"image_url,omitempty" doc:"Custom background to download"`
	ImageBase64 string `json:"image_base64,omitempty" doc:"Custom background, base64 or data URL"`
}

func (r ComposeRequest) toShare() share.CreateRequest {
	return share.CreateRequest{
		VerseID:     r.VerseID,
		Text:        r.Text,
		Attribution: r.Attribution,
		Preset:      r.Preset,
		ImageURL:    r.ImageURL,
		ImageBase64: r.ImageBase64,
	}
}

// ComposeInput wraps the compose request for Huma.
type ComposeInput struct {
	Body ComposeRequest
}

// ImageOutput streams PNG bytes.
type ImageOutput struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

// === Handlers ===

func (s *Server) handleListPresets(_ context.Context, _ *struct{}) (*PresetsOutput, error) {
	presets := compositor.Presets()
	out := make([]PresetResponse, len(presets))
	for i, p := range presets {
		colors := make([]string, len(p.Stops))
		for j, c := range p.Stops {
			colors[j] = color.Hex(c)
		}
		out[i] = PresetResponse{Name: p.Name, Label: p.Label, Kind: string(p.Kind), Colors: colors}
	}
	return &PresetsOutput{Body: out}, nil
}

func (s *Server) handleCompose(ctx context.Context, input *ComposeInput) (*ImageOutput, error) {
	data, err := s.services.Share.Render(ctx, input.Body.toShare())
	if err != nil {
		return nil, err
	}
	return &ImageOutput{
		ContentType:  "image/png",
		CacheControl: "no-store",
		Body:         data,
	}, nil
}

// rateLimit throttles expensive image operations per client IP.
func (s *Server) rateLimit(ctx huma.Context, next func(huma.Context)) {
	if s.composeLimiter == nil {
		next(ctx)
		return
	}

	key := clientIP(ctx.RemoteAddr())
	if !s.composeLimiter.Allow(key) {
		s.logger.Warn("Rate limit exceeded",
			"ip", key,
			"path", ctx.URL().Path,
		)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	next(ctx)
}

// clientIP strips the port from a remote address. chi's RealIP middleware
// has already applied X-Forwarded-For and X-Real-IP.
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
