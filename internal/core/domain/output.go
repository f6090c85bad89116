package domain

// OutputMapping holds the text printed for each boolean value.
type OutputMapping struct {
	True  string
	False string
}

// DefaultOutputMapping prints the literal boolean.
func DefaultOutputMapping() OutputMapping {
	return OutputMapping{True: "true", False: "false"}
}

// Text returns the mapped text for v.
func (m OutputMapping) Text(v bool) string {
	if v {
		return m.True
	}
	return m.False
}

// Tooltip returns the fixed tooltip token for v.
func Tooltip(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}
