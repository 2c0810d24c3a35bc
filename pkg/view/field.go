package view

type FieldType string

const (
	FieldText   FieldType = "text"
	FieldNumber FieldType = "number"
)

// Field is a labeled input. Name identifies the draft attribute it edits.
type Field struct {
	Name  string    `json:"name"`
	Label string    `json:"label"`
	Type  FieldType `json:"type"`
	Value string    `json:"value"`
}

// NewField builds a field, defaulting to a text input.
func NewField(name string, label string, fieldType FieldType, value string) Field {
	if fieldType == "" {
		fieldType = FieldText
	}
	return Field{Name: name, Label: label, Type: fieldType, Value: value}
}
