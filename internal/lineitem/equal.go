package lineitem

// IsEqual reports whether two line items carry the same content: the same variant
// and quantity for every entry, in order. Items whose contents differ in shape
// (one list, one single) are never equal.
func IsEqual(line, match LineItem) bool {
	if line.Content.IsList() != match.Content.IsList() {
		return false
	}
	if line.Content.IsList() {
		if line.Content.Len() != match.Content.Len() {
			return false
		}
		other := match.Content.Items()
		for i, c := range line.Content.Items() {
			if !sameContent(c, other[i]) {
				return false
			}
		}
		return true
	}

	a, okA := line.Content.First()
	b, okB := match.Content.First()
	if okA != okB {
		return false
	}
	return sameContent(a, b)
}

func sameContent(a, b Content) bool {
	if (a.Variant == nil) != (b.Variant == nil) {
		return false
	}
	return a.VariantID() == b.VariantID() && a.Quantity == b.Quantity
}
