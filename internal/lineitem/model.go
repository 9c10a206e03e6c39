package lineitem

import (
	"bytes"
	"encoding/json"

	"github.com/noah-isme/toko-lineitem/internal/catalog"
	"github.com/noah-isme/toko-lineitem/internal/pricing"
)

// Content is one priced entry of a line item.
type Content struct {
	UnitPrice pricing.Money    `json:"unit_price"`
	Variant   *catalog.Variant `json:"variant"`
	Product   *catalog.Product `json:"product"`
	Quantity  int              `json:"quantity"`
}

// VariantID returns the id of the referenced variant, or "" when unset.
func (c Content) VariantID() string {
	if c.Variant == nil {
		return ""
	}
	return c.Variant.ID
}

// Contents holds either a single Content or an ordered list of them. The shape
// survives JSON round trips: a single content is an object, a list is an array.
type Contents struct {
	items []Content
	list  bool
}

// Single wraps one content record.
func Single(c Content) Contents {
	return Contents{items: []Content{c}}
}

// List wraps an ordered sequence of content records.
func List(items ...Content) Contents {
	return Contents{items: append([]Content{}, items...), list: true}
}

// IsList reports whether the contents were given as a sequence.
func (c Contents) IsList() bool { return c.list }

// Len returns the number of content records.
func (c Contents) Len() int { return len(c.items) }

// Items returns the content records in order.
func (c Contents) Items() []Content { return c.items }

// First returns the first content record, which for single contents is the only one.
func (c Contents) First() (Content, bool) {
	if len(c.items) == 0 {
		return Content{}, false
	}
	return c.items[0], true
}

// MarshalJSON implements json.Marshaler.
func (c Contents) MarshalJSON() ([]byte, error) {
	if c.list {
		return json.Marshal(c.items)
	}
	if len(c.items) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(c.items[0])
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Contents) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*c = Contents{}
		return nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var items []Content
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*c = List(items...)
		return nil
	default:
		var one Content
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return err
		}
		*c = Single(one)
		return nil
	}
}

// LineItem is a priced, quantified cart or order entry.
type LineItem struct {
	Title       string         `json:"title"`
	IsGiftcard  *bool          `json:"is_giftcard,omitempty"`
	Description *string        `json:"description,omitempty"`
	Thumbnail   *string        `json:"thumbnail,omitempty"`
	Content     Contents       `json:"content"`
	Quantity    int            `json:"quantity"`
	Metadata    map[string]any `json:"metadata"`
}
