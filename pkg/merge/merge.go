package merge

// identifierKeys are probed in order when deciding whether two arrays
// merge element-wise instead of being replaced wholesale.
var identifierKeys = []string{"id", "name"}

// Merge folds an overlay onto a base and returns a new tree sharing no
// nodes with either input.
//
// The rules, applied recursively:
//
//   - object onto object: keys present on both sides merge recursively,
//     keys only in the base are kept, keys only in the overlay are
//     appended. A null overlay value deletes the key while the rest of
//     the base object is retained.
//   - array onto array, when both sides are non-empty and every element
//     of both carries the same identifier key ("id", then "name"):
//     elements pair up by identifier. Paired elements merge recursively
//     and keep the base position, overlay-only elements append in
//     overlay order.
//   - anything else: the overlay replaces the base.
func Merge(base, overlay *Value) *Value {
	if overlay == nil {
		return base.Clone()
	}
	if base == nil {
		return overlay.Clone()
	}
	if base.Type() == TypeObject && overlay.Type() == TypeObject {
		return mergeObjects(base, overlay)
	}
	if base.Type() == TypeArray && overlay.Type() == TypeArray {
		if key, ok := arrayIdentifierKey(base, overlay); ok {
			return mergeKeyedArrays(base, overlay, key)
		}
	}
	return overlay.Clone()
}

// MergeAll folds a chain of trees from lowest to highest precedence.
// Nil entries are skipped; an empty chain yields null.
func MergeAll(chain ...*Value) *Value {
	var merged *Value
	for _, overlay := range chain {
		if overlay == nil {
			continue
		}
		if merged == nil {
			merged = overlay.Clone()
			continue
		}
		merged = Merge(merged, overlay)
	}
	if merged == nil {
		return Null()
	}
	return merged
}

func mergeObjects(base, overlay *Value) *Value {
	fields := make([]Field, 0, len(base.fields)+len(overlay.fields))
	for _, field := range base.fields {
		over, ok := overlay.Get(field.Key)
		if !ok {
			fields = append(fields, Field{Key: field.Key, Value: field.Value.Clone()})
			continue
		}
		if over.IsNull() {
			// deletion: the key is dropped, its siblings survive
			continue
		}
		fields = append(fields, Field{Key: field.Key, Value: Merge(field.Value, over)})
	}
	for _, field := range overlay.fields {
		if _, ok := base.Get(field.Key); ok {
			continue
		}
		if field.Value.IsNull() {
			// deleting an absent key is a no-op
			continue
		}
		fields = append(fields, Field{Key: field.Key, Value: field.Value.Clone()})
	}
	return Object(fields...)
}

// arrayIdentifierKey decides whether two arrays merge by identifier and
// which key identifies their elements.
func arrayIdentifierKey(base, overlay *Value) (string, bool) {
	if base.Len() == 0 || overlay.Len() == 0 {
		return "", false
	}
	for _, key := range identifierKeys {
		if everyElementKeyed(base, key) && everyElementKeyed(overlay, key) {
			return key, true
		}
	}
	return "", false
}

func everyElementKeyed(array *Value, key string) bool {
	for _, item := range array.Items() {
		if item.Type() != TypeObject {
			return false
		}
		if _, ok := item.Get(key); !ok {
			return false
		}
	}
	return true
}

func mergeKeyedArrays(base, overlay *Value, key string) *Value {
	overlayItems := overlay.Items()
	paired := make([]bool, len(overlayItems))

	findOverlay := func(id *Value) (*Value, int) {
		for i, candidate := range overlayItems {
			candidateID, _ := candidate.Get(key)
			if candidateID.Equal(id) {
				return candidate, i
			}
		}
		return nil, -1
	}

	items := make([]*Value, 0, base.Len()+len(overlayItems))
	for _, item := range base.Items() {
		id, _ := item.Get(key)
		over, i := findOverlay(id)
		if over == nil {
			items = append(items, item.Clone())
			continue
		}
		paired[i] = true
		items = append(items, Merge(item, over))
	}
	for i, item := range overlayItems {
		if paired[i] {
			continue
		}
		items = append(items, item.Clone())
	}
	return Array(items...)
}
