package server

// ToolAnnotations provides metadata hints about tool behavior.
// Clients use them to decide how freely a tool may be invoked.
type ToolAnnotations struct {
	Title string `json:"title,omitempty"`

	// ReadOnlyHint: the tool does not modify its environment.
	ReadOnlyHint *bool `json:"readOnlyHint,omitempty"`

	// DestructiveHint is only meaningful when ReadOnlyHint is false.
	DestructiveHint *bool `json:"destructiveHint,omitempty"`

	// IdempotentHint: repeated calls with the same arguments have no
	// additional effect.
	IdempotentHint *bool `json:"idempotentHint,omitempty"`

	// OpenWorldHint: the tool talks to systems outside the host, such as
	// a public web API.
	OpenWorldHint *bool `json:"openWorldHint,omitempty"`
}

// Bool returns a pointer to a bool value for use in annotations.
func Bool(v bool) *bool {
	return &v
}

func (b *ToolBuilder) annotate(fn func(a *ToolAnnotations)) *ToolBuilder {
	if b.err != nil {
		return b
	}
	if b.tool.annotations == nil {
		b.tool.annotations = &ToolAnnotations{}
	}
	fn(b.tool.annotations)
	return b
}

// ReadOnly marks the tool as free of side effects.
func (b *ToolBuilder) ReadOnly() *ToolBuilder {
	return b.annotate(func(a *ToolAnnotations) {
		a.ReadOnlyHint = Bool(true)
		a.DestructiveHint = Bool(false)
	})
}

// Idempotent marks the tool as safe to repeat.
func (b *ToolBuilder) Idempotent() *ToolBuilder {
	return b.annotate(func(a *ToolAnnotations) { a.IdempotentHint = Bool(true) })
}

// OpenWorld marks the tool as accessing external systems.
func (b *ToolBuilder) OpenWorld() *ToolBuilder {
	return b.annotate(func(a *ToolAnnotations) { a.OpenWorldHint = Bool(true) })
}

// Title sets a human-readable title for the tool.
func (b *ToolBuilder) Title(title string) *ToolBuilder {
	return b.annotate(func(a *ToolAnnotations) { a.Title = title })
}
