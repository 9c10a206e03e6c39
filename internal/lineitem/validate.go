package lineitem

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/toko-lineitem/internal/catalog"
	"github.com/noah-isme/toko-lineitem/internal/common"
	"github.com/noah-isme/toko-lineitem/internal/pricing"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Draft is a candidate line item as received from a caller. Pointer fields keep
// "absent" distinguishable from zero so defaults can be applied.
type Draft struct {
	Title       *string        `json:"title" validate:"required,min=1"`
	IsGiftcard  *bool          `json:"is_giftcard"`
	Description *string        `json:"description"`
	Thumbnail   *string        `json:"thumbnail"`
	Content     *DraftContents `json:"content" validate:"required"`
	Quantity    *int           `json:"quantity" validate:"omitempty,gte=1"`
	Metadata    map[string]any `json:"metadata"`
}

// DraftContent is a candidate content record.
type DraftContent struct {
	UnitPrice *pricing.Money   `json:"unit_price" validate:"required"`
	Variant   *catalog.Variant `json:"variant" validate:"required"`
	Product   *catalog.Product `json:"product" validate:"required"`
	Quantity  *int             `json:"quantity" validate:"omitempty,gte=1"`
}

// DraftContents is a candidate content object or content array.
type DraftContents struct {
	Items []DraftContent `json:"items" validate:"min=1,dive"`
	List  bool           `json:"-"`
}

// UnmarshalJSON accepts either a content object or an array of them.
func (d *DraftContents) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []DraftContent
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*d = DraftContents{Items: items, List: true}
		return nil
	}
	var one DraftContent
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return err
	}
	*d = DraftContents{Items: []DraftContent{one}}
	return nil
}

// Validate checks d against the line item schema and returns the normalized
// line item: quantities default to 1 and metadata to an empty map. On failure the
// error is a data-validation error citing the first violation.
func Validate(d Draft) (LineItem, error) {
	if err := validate.Struct(d); err != nil {
		return LineItem{}, firstViolation(err, d.Content != nil && d.Content.List)
	}

	item := LineItem{
		Title:       *d.Title,
		IsGiftcard:  d.IsGiftcard,
		Description: d.Description,
		Thumbnail:   d.Thumbnail,
		Quantity:    1,
		Metadata:    d.Metadata,
	}
	if d.Quantity != nil {
		item.Quantity = *d.Quantity
	}
	if item.Metadata == nil {
		item.Metadata = map[string]any{}
	}

	contents := make([]Content, 0, len(d.Content.Items))
	for _, dc := range d.Content.Items {
		c := Content{
			UnitPrice: *dc.UnitPrice,
			Variant:   dc.Variant,
			Product:   dc.Product,
			Quantity:  1,
		}
		if dc.Quantity != nil {
			c.Quantity = *dc.Quantity
		}
		contents = append(contents, c)
	}
	if d.Content.List {
		item.Content = List(contents...)
	} else {
		item.Content = Single(contents[0])
	}
	return item, nil
}

func firstViolation(err error, listContent bool) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate line item: %w", err)
	}
	fe := verrs[0]
	return common.InvalidData(messageFor(fe, fieldPath(fe.Namespace(), listContent)))
}

// fieldPath turns a validator namespace like "Draft.content.items[0].unit_price" into
// the JSON path the caller sent: "content[0].unit_price", or "content.unit_price" when
// the content was a single object.
func fieldPath(namespace string, listContent bool) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	const itemsPrefix = "content.items"
	if rest, ok := strings.CutPrefix(path, itemsPrefix); ok {
		if !listContent && strings.HasPrefix(rest, "[") {
			if end := strings.Index(rest, "]"); end >= 0 {
				rest = rest[end+1:]
			}
		}
		return "content" + rest
	}
	return path
}

func messageFor(fe validator.FieldError, path string) string {
	quoted := fmt.Sprintf("%q", path)
	switch fe.Tag() {
	case "required":
		return quoted + " is required"
	case "min":
		switch fe.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("%s must contain at least %s items", quoted, fe.Param())
		case reflect.String:
			if fe.Param() == "1" {
				return quoted + " is not allowed to be empty"
			}
			return fmt.Sprintf("%s length must be at least %s characters long", quoted, fe.Param())
		default:
			return fmt.Sprintf("%s must be greater than or equal to %s", quoted, fe.Param())
		}
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", quoted, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", quoted, fe.Param())
	case "uuid":
		return quoted + " must be a valid GUID"
	default:
		return fmt.Sprintf("%s failed on the '%s' rule", quoted, fe.Tag())
	}
}
