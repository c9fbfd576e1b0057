package meta

// Annotation carries admin display metadata on ent schemas, fields and
// edges. On a schema it names the app the model belongs to and the field
// used as the record's string form; on a field or edge it overrides the
// label and help text.
type Annotation struct {
	App         string `json:"app,omitempty"`
	VerboseName string `json:"verbose_name,omitempty"`
	Display     string `json:"display,omitempty"`
	HelpText    string `json:"help_text,omitempty"`
}

// Name implements the schema.Annotation interface.
func (Annotation) Name() string { return "Admin" }
