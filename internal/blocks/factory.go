package blocks

import (
	"fmt"

	"sitebuilder/internal/blocktree"
	"sitebuilder/internal/domain"
)

// Factory creates blocks with a fresh identity and the default payload of their type.
type Factory struct {
	registry *Registry
	newID    blocktree.IDFunc
}

// NewFactory creates a Factory. A nil newID uses random UUIDs.
func NewFactory(registry *Registry, newID blocktree.IDFunc) *Factory {
	if registry == nil {
		registry = NewRegistry()
	}
	if newID == nil {
		newID = blocktree.NewID
	}
	return &Factory{registry: registry, newID: newID}
}

// NewID hands out an identity from the factory's generator.
func (f *Factory) NewID() string {
	return f.newID()
}

// New creates a block of type t.
func (f *Factory) New(t domain.BlockType) (domain.Block, error) {
	if _, ok := f.registry.Lookup(t); !ok {
		return domain.Block{}, fmt.Errorf("create %q: %w", t, domain.ErrUnknownBlockType)
	}
	b := domain.Block{
		ID:      f.newID(),
		Type:    t,
		Width:   domain.WidthAuto,
		Visible: true,
		Props:   defaultProps(t),
	}
	if b.IsContainer() {
		b.Children = []domain.Block{}
	}
	return b, nil
}

// defaultProps is the one place that knows every variant's payload.
func defaultProps(t domain.BlockType) domain.Props {
	switch t {
	case domain.BlockTypeHeading:
		return domain.Props{"text": "New heading", "level": 2, "align": "left"}
	case domain.BlockTypeText:
		return domain.Props{"text": "Write your text here.", "align": "left"}
	case domain.BlockTypeImage:
		return domain.Props{"src": "", "alt": "", "caption": ""}
	case domain.BlockTypeButton:
		return domain.Props{"label": "Click me", "href": "#", "variant": "primary"}
	case domain.BlockTypeSpacer:
		return domain.Props{"height": 40}
	case domain.BlockTypeDivider:
		return domain.Props{"style": "solid", "thickness": 1}
	case domain.BlockTypeRow:
		return domain.Props{"gap": 16, "align": "stretch"}
	case domain.BlockTypeHeader:
		return domain.Props{
			"title": "My website",
			"links": []any{
				map[string]any{"label": "Home", "href": "#"},
				map[string]any{"label": "About", "href": "#about"},
				map[string]any{"label": "Contact", "href": "#contact"},
			},
		}
	case domain.BlockTypeFooter:
		return domain.Props{"text": "© My website", "links": []any{}}
	case domain.BlockTypeHero:
		return domain.Props{
			"title":           "Welcome to my website",
			"subtitle":        "Tell visitors what this page is about.",
			"buttonLabel":     "Read more",
			"buttonHref":      "#",
			"backgroundImage": "",
		}
	case domain.BlockTypeFeatures:
		return domain.Props{
			"title": "What I offer",
			"items": []any{
				map[string]any{"icon": "star", "title": "Feature one", "description": "Describe the first feature."},
				map[string]any{"icon": "heart", "title": "Feature two", "description": "Describe the second feature."},
				map[string]any{"icon": "bolt", "title": "Feature three", "description": "Describe the third feature."},
			},
		}
	case domain.BlockTypeTestimonial:
		return domain.Props{"quote": "This is a great website!", "author": "Jane Doe", "role": "Visitor", "avatar": ""}
	case domain.BlockTypeCTA:
		return domain.Props{"title": "Ready to start?", "text": "Get in touch today.", "buttonLabel": "Contact", "buttonHref": "#contact"}
	case domain.BlockTypeGallery:
		return domain.Props{"images": []any{}, "columns": 3}
	case domain.BlockTypeCard:
		return domain.Props{"title": "Card title", "text": "Card text.", "image": "", "href": ""}
	case domain.BlockTypeVideo:
		return domain.Props{"url": "", "caption": ""}
	case domain.BlockTypeList:
		return domain.Props{"items": []any{"First item", "Second item", "Third item"}, "ordered": false}
	case domain.BlockTypeQuote:
		return domain.Props{"text": "A famous quote.", "author": ""}
	case domain.BlockTypeSocials:
		return domain.Props{
			"links": []any{
				map[string]any{"platform": "instagram", "href": ""},
				map[string]any{"platform": "youtube", "href": ""},
			},
		}
	case domain.BlockTypeStats:
		return domain.Props{
			"items": []any{
				map[string]any{"value": "100+", "label": "Visitors"},
				map[string]any{"value": "12", "label": "Projects"},
				map[string]any{"value": "5", "label": "Years"},
			},
		}
	case domain.BlockTypeAccordion:
		return domain.Props{
			"items": []any{
				map[string]any{"title": "Question one", "content": "Answer one."},
				map[string]any{"title": "Question two", "content": "Answer two."},
			},
		}
	case domain.BlockTypePricing:
		return domain.Props{
			"plans": []any{
				map[string]any{"name": "Basic", "price": "€0", "period": "month", "features": []any{"One page"}, "highlighted": false},
				map[string]any{"name": "Pro", "price": "€9", "period": "month", "features": []any{"Ten pages", "Support"}, "highlighted": true},
			},
		}
	default:
		return domain.Props{}
	}
}
