package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

// Shape tells how a raw payload carried its items.
type Shape int

const (
	ShapeArray Shape = iota
	ShapeWrapped
	ShapeSingle
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeWrapped:
		return "wrapped"
	case ShapeSingle:
		return "single"
	}
	return "unknown"
}

// wrapperKeys are the object keys that hold an item list.
var wrapperKeys = []string{"cards", "questions", "problems"}

// Payload is a raw input resolved into its canonical item list.
type Payload struct {
	Shape   Shape
	Wrapper string
	Items   []Item
}

// Item is one content item of a payload.
type Item struct {
	Index int
	Path  string
	Raw   json.RawMessage
	Value any
}

// Object returns the item as a JSON object.
func (it Item) Object() (map[string]any, bool) {
	m, ok := it.Value.(map[string]any)
	return m, ok
}

// Normalize resolves raw JSON into a Payload. Malformed JSON and scalar top
// level values cannot be normalized and return domain.ErrInvalidInput.
func Normalize(raw []byte) (Payload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Payload{}, fmt.Errorf("%w: empty body", domain.ErrInvalidInput)
	}

	switch raw[0] {
	case '[':
		items, err := splitArray(raw)
		if err != nil {
			return Payload{}, err
		}
		return Payload{Shape: ShapeArray, Items: items}, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return Payload{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		for _, key := range wrapperKeys {
			inner, ok := obj[key]
			if !ok {
				continue
			}
			inner = bytes.TrimSpace(inner)
			if len(inner) == 0 || inner[0] != '[' {
				continue
			}
			items, err := splitArray(inner)
			if err != nil {
				return Payload{}, err
			}
			return Payload{Shape: ShapeWrapped, Wrapper: key, Items: items}, nil
		}
		item, err := decodeItem(0, raw)
		if err != nil {
			return Payload{}, err
		}
		return Payload{Shape: ShapeSingle, Items: []Item{item}}, nil
	}

	if !json.Valid(raw) {
		return Payload{}, fmt.Errorf("%w: malformed JSON", domain.ErrInvalidInput)
	}
	return Payload{}, fmt.Errorf("%w: top-level value must be an array or object", domain.ErrInvalidInput)
}

// Canonical returns the item list as a JSON array, preserving each item's
// original bytes.
func (p Payload) Canonical() json.RawMessage {
	var b bytes.Buffer
	b.WriteByte('[')
	for i, it := range p.Items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(it.Raw)
	}
	b.WriteByte(']')
	return b.Bytes()
}

func splitArray(raw []byte) ([]Item, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	items := make([]Item, 0, len(elems))
	for i, e := range elems {
		it, err := decodeItem(i, e)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func decodeItem(i int, raw []byte) (Item, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Item{}, fmt.Errorf("%w: item %d: %v", domain.ErrInvalidInput, i, err)
	}
	return Item{Index: i, Raw: json.RawMessage(raw), Value: v}, nil
}

// itemPrefix is the location root used for items of a content type.
func itemPrefix(ct domain.ContentType) string {
	switch ct {
	case domain.ContentTypeFlashcard:
		return "cards"
	case domain.ContentTypeDecoder:
		return "problems"
	default:
		return "questions"
	}
}

// walkStrings calls fn for every string in v with its JSON path. Object
// keys are visited in sorted order.
func walkStrings(v any, path string, fn func(path, s string)) {
	switch t := v.(type) {
	case string:
		fn(path, t)
	case []any:
		for i, e := range t {
			walkStrings(e, path+"["+strconv.Itoa(i)+"]", fn)
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkStrings(t[k], path+"."+k, fn)
		}
	}
}

// collectText joins every string under v, lowercased.
func collectText(v any) string {
	var b strings.Builder
	walkStrings(v, "", func(_, s string) {
		b.WriteString(s)
		b.WriteByte(' ')
	})
	return strings.ToLower(b.String())
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

// truthy mirrors loose JSON truthiness: null, false, "", 0 and absent are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	}
	return true
}

func asArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func containsAny(text string, keywords ...string) bool {
	text = strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
