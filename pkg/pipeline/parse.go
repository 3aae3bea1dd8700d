package pipeline

import (
	"bytes"

	"github.com/matzehuels/pagesetter/pkg/cache"
	"github.com/matzehuels/pagesetter/pkg/document"
	"github.com/matzehuels/pagesetter/pkg/extract"
)

// Load decodes opts.Input according to opts.Source and applies the
// template overrides.
func Load(opts Options) (document.Document, error) {
	tpl, err := opts.PageTemplate()
	if err != nil {
		return document.Document{}, err
	}

	switch opts.Source {
	case SourceCanvasJSON:
		c, err := extract.ReadJSONCanvas(bytes.NewReader(opts.Input))
		if err != nil {
			return document.Document{}, err
		}
		return extract.Extract(c, extract.Options{Zoom: opts.Zoom, Template: tpl})

	case SourceCanvasHTML:
		c, err := extract.ReadHTMLCanvas(bytes.NewReader(opts.Input))
		if err != nil {
			return document.Document{}, err
		}
		return extract.Extract(c, extract.Options{Zoom: opts.Zoom, Template: tpl})

	default:
		doc, err := document.Unmarshal(opts.Input)
		if err != nil || tpl == nil {
			return doc, err
		}
		doc.Template = *tpl
		if err := doc.Validate(); err != nil {
			return document.Document{}, err
		}
		return doc, nil
	}
}

func (o *Options) extractKeyOpts() cache.ExtractKeyOpts {
	k := cache.ExtractKeyOpts{Zoom: o.Zoom, Template: o.Preset}
	if o.Template != nil {
		if h, err := cache.HashJSON(o.Template); err == nil {
			k.Template = h
		}
	}
	return k
}
