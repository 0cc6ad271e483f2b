package export

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/andy/wattsun/internal/domain"
	"github.com/andy/wattsun/internal/render"
	"github.com/rs/zerolog"
)

// MIMEType is the content type handed to the sharer
const MIMEType = "application/pdf"

// UnavailableNotice is shown when the runtime cannot produce files
const UnavailableNotice = "PDF export is not available in this environment. Set export.native_enabled in the config to use this feature."

// ErrExportUnavailable means export was skipped by the capability check.
// It carries a user-facing notice, not a failure.
var ErrExportUnavailable = errors.New(UnavailableNotice)

// Converter turns a document into a file and returns its path
type Converter interface {
	Convert(ctx context.Context, doc *render.Document, fileName string) (string, error)
}

// Sharer hands a produced file to the user
type Sharer interface {
	Share(ctx context.Context, path, mimeType, title string) error
}

// ConsoleSharer reports the exported file on a writer
type ConsoleSharer struct {
	w io.Writer
}

// NewConsoleSharer creates a sharer that prints to w
func NewConsoleSharer(w io.Writer) *ConsoleSharer {
	return &ConsoleSharer{w: w}
}

func (s *ConsoleSharer) Share(ctx context.Context, path, mimeType, title string) error {
	_, err := fmt.Fprintf(s.w, "%s\n  %s (%s)\n", title, path, mimeType)
	return err
}

// Service renders a saved invoice and runs it through the converter and sharer
type Service struct {
	converter Converter
	sharer    Sharer
	options   render.Options
	native    bool
	logger    zerolog.Logger
}

// NewService creates the export service. When native is false every export
// short-circuits with ErrExportUnavailable.
func NewService(converter Converter, sharer Sharer, options render.Options, native bool, logger zerolog.Logger) *Service {
	return &Service{
		converter: converter,
		sharer:    sharer,
		options:   options,
		native:    native,
		logger:    logger.With().Str("component", "export").Logger(),
	}
}

// WithSharer returns a copy of the service that hands files to sharer
func (s *Service) WithSharer(sharer Sharer) *Service {
	out := *s
	out.sharer = sharer
	return &out
}

// Available reports whether the runtime can export files
func (s *Service) Available() bool {
	return s.native
}

// Export produces the PDF for inv and shares it. On a share failure the path
// of the already written file is still returned.
func (s *Service) Export(ctx context.Context, inv *domain.Invoice) (string, error) {
	if !s.native {
		s.logger.Info().Str("id", inv.ID).Msg("export skipped, native export disabled")
		return "", ErrExportUnavailable
	}

	doc := render.Render(inv, s.options)
	path, err := s.converter.Convert(ctx, doc, doc.FileName)
	if err != nil {
		s.logger.Error().Err(err).Str("id", inv.ID).Msg("pdf conversion failed")
		return "", fmt.Errorf("failed to convert invoice: %w", err)
	}

	if err := s.sharer.Share(ctx, path, MIMEType, render.ShareTitle(inv)); err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("share failed")
		return path, fmt.Errorf("failed to share invoice: %w", err)
	}

	s.logger.Info().Str("id", inv.ID).Str("path", path).Msg("invoice exported")
	return path, nil
}
