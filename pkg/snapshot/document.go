package snapshot

// Document is the structural metadata of a set of compiled units, as
// produced by the extraction step after a build.
type Document struct {
	Units []UnitDoc `json:"units"`
}

// UnitDoc describes one class, interface or annotation type
type UnitDoc struct {
	Name        string          `json:"name"`
	Flags       []string        `json:"flags,omitempty"`
	Super       string          `json:"super,omitempty"`
	Interfaces  []string        `json:"interfaces,omitempty"`
	Signature   string          `json:"signature,omitempty"`
	Retention   string          `json:"retention,omitempty"`
	Targets     []string        `json:"targets,omitempty"`
	Annotations []AnnotationDoc `json:"annotations,omitempty"`
	Remote      bool            `json:"remote,omitempty"`
	Fields      []FieldDoc      `json:"fields,omitempty"`
	Methods     []MethodDoc     `json:"methods,omitempty"`
	Uses        []UseDoc        `json:"uses,omitempty"`
}

// AnnotationDoc is a meta annotation with rendered element values
type AnnotationDoc struct {
	Type   string            `json:"type"`
	Values map[string]string `json:"values,omitempty"`
}

// FieldDoc describes a field
type FieldDoc struct {
	Name       string   `json:"name"`
	Descriptor string   `json:"descriptor"`
	Flags      []string `json:"flags,omitempty"`
	Signature  string   `json:"signature,omitempty"`
	Constant   string   `json:"constant,omitempty"`
}

// MethodDoc describes a method or constructor ("<init>")
type MethodDoc struct {
	Name       string   `json:"name"`
	Descriptor string   `json:"descriptor"`
	Flags      []string `json:"flags,omitempty"`
	Signature  string   `json:"signature,omitempty"`
	Throws     []string `json:"throws,omitempty"`
	Default    string   `json:"default,omitempty"`
}

// UseDoc lists the members of another unit referenced by the enclosing
// unit's compiled code. Methods are written as name+descriptor, e.g.
// "run(I)V" or "<init>()V".
type UseDoc struct {
	Unit    string   `json:"unit"`
	Fields  []string `json:"fields,omitempty"`
	Methods []string `json:"methods,omitempty"`
}
