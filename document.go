package psychics

// Document is a nested string-keyed tree holding an esper's persisted state.
//
// A saved esper looks like:
//
//	psychic:
//	  name: pyrokinesis
//	  mana: 42.5
//	  ticks: 1200
//	  enabled: true
//	  abilities:
//	    fireball:
//	      cooldown-ticks: 30
//
// Readers are lenient: a missing key or a value of the wrong type reads as the
// zero value, so older documents keep loading.
type Document map[string]any

// Section returns the nested document at key, or nil.
func (d Document) Section(key string) Document {
	switch v := d[key].(type) {
	case Document:
		return v
	case map[string]any:
		return Document(v)
	}
	return nil
}

// CreateSection replaces the value at key with an empty nested document.
func (d Document) CreateSection(key string) Document {
	s := Document{}
	d[key] = s
	return s
}

// Set stores a leaf value.
func (d Document) Set(key string, v any) {
	d[key] = v
}

// Has reports whether key is present.
func (d Document) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Float reads a numeric leaf.
func (d Document) Float(key string) float64 {
	switch v := d[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case uint64:
		return float64(v)
	}
	return 0
}

// Int reads an integral leaf. Fractional numbers are truncated.
func (d Document) Int(key string) int64 {
	switch v := d[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	}
	return 0
}

// Bool reads a boolean leaf.
func (d Document) Bool(key string) bool {
	v, _ := d[key].(bool)
	return v
}

// String reads a string leaf.
func (d Document) String(key string) string {
	v, _ := d[key].(string)
	return v
}
