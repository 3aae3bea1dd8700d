package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pagesetter/pkg/cache"
	"github.com/matzehuels/pagesetter/pkg/compose"
	"github.com/matzehuels/pagesetter/pkg/render"
	"github.com/matzehuels/pagesetter/pkg/render/sink"
)

// Serialize writes out in every format concurrently. JSON output embeds
// the composition warnings.
func Serialize(ctx context.Context, out render.Rendered, warnings []compose.Warning, formats []string, labels bool) (map[string][]byte, error) {
	if err := ValidateFormats(formats); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	artifacts := make(map[string][]byte, len(formats))

	g, ctx := errgroup.WithContext(ctx)
	for _, format := range formats {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := serializeOne(out, warnings, format, labels)
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func serializeOne(out render.Rendered, warnings []compose.Warning, format string, labels bool) ([]byte, error) {
	switch format {
	case sink.FormatJSON:
		return sink.RenderJSON(out, sink.WithIndent(), sink.WithJSONWarnings(warnings))
	case sink.FormatSVG:
		var opts []sink.SVGOption
		if labels {
			opts = append(opts, sink.WithLabels())
		}
		return sink.RenderSVG(out, opts...), nil
	case sink.FormatPDF:
		var opts []sink.PDFOption
		if labels {
			opts = append(opts, sink.WithPDFLabels())
		}
		if out.Template.Name != "" {
			opts = append(opts, sink.WithPDFTitle(out.Template.Name))
		}
		return sink.RenderPDF(out, opts...)
	default:
		return sink.Render(format, out)
	}
}

func (o *Options) renderKeyOpts(format string) cache.RenderKeyOpts {
	return cache.RenderKeyOpts{Format: format, Labels: o.Labels}
}
