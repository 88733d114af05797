package types

// Valid reports whether a saved item read from untrusted storage has the
// minimum shape to be kept. Malformed entries are discarded on read rather
// than trusted.
func (i SavedItem) Valid() bool {
	return i.ItemID != "" && !i.SavedAt.IsZero()
}
