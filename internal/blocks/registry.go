package blocks

import (
	"fmt"
	"sync"

	"sitebuilder/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Block Type Registry: the palette
// ─────────────────────────────────────────────────────────────

// Category groups palette entries.
type Category string

const (
	CategoryBasic    Category = "basic"
	CategoryLayout   Category = "layout"
	CategorySections Category = "sections"
	CategoryMedia    Category = "media"
	CategoryContent  Category = "content"
)

// TypeInfo describes one palette entry.
type TypeInfo struct {
	Type      domain.BlockType `json:"type"`
	Label     string           `json:"label"`
	Category  Category         `json:"category"`
	Container bool             `json:"container"`
}

// Registry holds the palette in display order.
type Registry struct {
	mu    sync.RWMutex
	types map[domain.BlockType]TypeInfo
	order []domain.BlockType
}

// NewRegistry creates a registry preloaded with the built-in block types.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[domain.BlockType]TypeInfo)}
	for _, info := range builtinTypes {
		r.Register(info)
	}
	return r
}

// Register adds a palette entry. Panics on duplicate registration and on a
// container flag for any type other than row, the only nesting point.
func (r *Registry) Register(info TypeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[info.Type]; exists {
		panic(fmt.Sprintf("block registry: duplicate registration for block type %q", info.Type))
	}
	if info.Container != (domain.Block{Type: info.Type}).IsContainer() {
		panic(fmt.Sprintf("block registry: block type %q cannot be registered with container=%t", info.Type, info.Container))
	}
	r.types[info.Type] = info
	r.order = append(r.order, info.Type)
}

// Lookup returns the palette entry for t.
func (r *Registry) Lookup(t domain.BlockType) (TypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.types[t]
	return info, ok
}

// Types lists all palette entries in display order.
func (r *Registry) Types() []TypeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TypeInfo, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.types[t])
	}
	return out
}

// ByCategory lists the palette entries of one category in display order.
func (r *Registry) ByCategory(c Category) []TypeInfo {
	var out []TypeInfo
	for _, info := range r.Types() {
		if info.Category == c {
			out = append(out, info)
		}
	}
	return out
}

var builtinTypes = []TypeInfo{
	{Type: domain.BlockTypeHeading, Label: "Heading", Category: CategoryBasic},
	{Type: domain.BlockTypeText, Label: "Text", Category: CategoryBasic},
	{Type: domain.BlockTypeImage, Label: "Image", Category: CategoryBasic},
	{Type: domain.BlockTypeButton, Label: "Button", Category: CategoryBasic},
	{Type: domain.BlockTypeSpacer, Label: "Spacer", Category: CategoryLayout},
	{Type: domain.BlockTypeDivider, Label: "Divider", Category: CategoryLayout},
	{Type: domain.BlockTypeRow, Label: "Row", Category: CategoryLayout, Container: true},
	{Type: domain.BlockTypeHeader, Label: "Header", Category: CategorySections},
	{Type: domain.BlockTypeFooter, Label: "Footer", Category: CategorySections},
	{Type: domain.BlockTypeHero, Label: "Hero", Category: CategorySections},
	{Type: domain.BlockTypeFeatures, Label: "Features", Category: CategorySections},
	{Type: domain.BlockTypeCTA, Label: "Call to action", Category: CategorySections},
	{Type: domain.BlockTypeTestimonial, Label: "Testimonial", Category: CategoryContent},
	{Type: domain.BlockTypeCard, Label: "Card", Category: CategoryContent},
	{Type: domain.BlockTypeList, Label: "List", Category: CategoryContent},
	{Type: domain.BlockTypeQuote, Label: "Quote", Category: CategoryContent},
	{Type: domain.BlockTypeStats, Label: "Stats", Category: CategoryContent},
	{Type: domain.BlockTypeAccordion, Label: "Accordion", Category: CategoryContent},
	{Type: domain.BlockTypePricing, Label: "Pricing", Category: CategoryContent},
	{Type: domain.BlockTypeGallery, Label: "Gallery", Category: CategoryMedia},
	{Type: domain.BlockTypeVideo, Label: "Video", Category: CategoryMedia},
	{Type: domain.BlockTypeSocials, Label: "Social links", Category: CategoryMedia},
}
