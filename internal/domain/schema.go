package domain

// PropertyType defines the inferred data type of a schema column.
type PropertyType string

const (
	TypeBoolean  PropertyType = "boolean"
	TypeInteger  PropertyType = "integer"
	TypeNumber   PropertyType = "number"
	TypeDatetime PropertyType = "datetime"
	TypeString   PropertyType = "string"
	// TypeUnknown marks a column with no sampled values to infer from.
	TypeUnknown PropertyType = "unknown"
)

// Property describes a single column of a schema.
type Property struct {
	Name string       `json:"name"`
	Type PropertyType `json:"type"`
}

// Schema describes one group of files that share an identical header.
// Settings is an opaque token encoding the member file list; clients
// echo it back verbatim on publish.
type Schema struct {
	Name       string     `json:"name"`
	Settings   string     `json:"settings"`
	Properties []Property `json:"properties"`
}

// PropertyNames returns an ordered list of column names.
func (s *Schema) PropertyNames() []string {
	names := make([]string, len(s.Properties))
	for i, p := range s.Properties {
		names[i] = p.Name
	}
	return names
}
