package domain

import (
	"encoding/json"
	"errors"
)

// ErrUnknownBlockType is returned by the block factory for a type outside the palette.
var ErrUnknownBlockType = errors.New("unknown block type")

type BlockType string

const (
	BlockTypeHeading     BlockType = "heading"
	BlockTypeText        BlockType = "text"
	BlockTypeImage       BlockType = "image"
	BlockTypeButton      BlockType = "button"
	BlockTypeSpacer      BlockType = "spacer"
	BlockTypeDivider     BlockType = "divider"
	BlockTypeRow         BlockType = "row"
	BlockTypeHeader      BlockType = "header"
	BlockTypeFooter      BlockType = "footer"
	BlockTypeHero        BlockType = "hero"
	BlockTypeFeatures    BlockType = "features"
	BlockTypeTestimonial BlockType = "testimonial"
	BlockTypeCTA         BlockType = "cta"
	BlockTypeGallery     BlockType = "gallery"
	BlockTypeCard        BlockType = "card"
	BlockTypeVideo       BlockType = "video"
	BlockTypeList        BlockType = "list"
	BlockTypeQuote       BlockType = "quote"
	BlockTypeSocials     BlockType = "socials"
	BlockTypeStats       BlockType = "stats"
	BlockTypeAccordion   BlockType = "accordion"
	BlockTypePricing     BlockType = "pricing"
)

// Width is the flex share of a block inside a row. Outside a row it is ignored.
type Width string

const (
	WidthAuto         Width = "auto"
	WidthQuarter      Width = "1/4"
	WidthThird        Width = "1/3"
	WidthHalf         Width = "1/2"
	WidthTwoThirds    Width = "2/3"
	WidthThreeQuarter Width = "3/4"
	WidthFull         Width = "full"
)

// Valid reports whether w is one of the known widths.
func (w Width) Valid() bool {
	switch w {
	case WidthAuto, WidthQuarter, WidthThird, WidthHalf, WidthTwoThirds, WidthThreeQuarter, WidthFull:
		return true
	}
	return false
}

// Props is the variant-specific payload of a block (text, image source, list items...).
// Values are limited to JSON-compatible shapes so they can be copied structurally.
type Props map[string]any

// Block is a single content unit of the page tree.
// Only row blocks carry Children; for every other type Children is nil.
type Block struct {
	ID       string    `json:"id"`
	Type     BlockType `json:"type"`
	Width    Width     `json:"width"`
	Visible  bool      `json:"visible"`
	Props    Props     `json:"props"`
	Children []Block   `json:"children,omitempty"`
}

// IsContainer reports whether the block can hold children.
func (b Block) IsContainer() bool {
	return b.Type == BlockTypeRow
}

// UnmarshalJSON applies the defaults older records may be missing
// (visible=true, width=auto).
func (b *Block) UnmarshalJSON(data []byte) error {
	type plain Block
	p := plain{Visible: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Width == "" {
		p.Width = WidthAuto
	}
	*b = Block(p)
	return nil
}

// BlockPatch is a field-level edit shallow-merged into a block.
// Nil fields are left untouched; Props keys overwrite existing keys one by one.
type BlockPatch struct {
	Width   *Width `json:"width,omitempty"`
	Visible *bool  `json:"visible,omitempty"`
	Props   Props  `json:"props,omitempty"`
}

// Empty reports whether the patch would change nothing.
func (p BlockPatch) Empty() bool {
	return p.Width == nil && p.Visible == nil && len(p.Props) == 0
}
