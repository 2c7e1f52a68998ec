package server

// ContentTypeText is the content type of text segments.
const ContentTypeText = "text"

// TextContent is one text segment of a tool result.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the outcome of a tools/call request: an ordered sequence of
// text segments, flagged as an error when the call did not succeed.
type ToolResult struct {
	Content []TextContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// NewTextResult builds a successful result with one segment per text,
// preserving order.
func NewTextResult(texts ...string) *ToolResult {
	content := make([]TextContent, 0, len(texts))
	for _, text := range texts {
		content = append(content, TextContent{Type: ContentTypeText, Text: text})
	}
	return &ToolResult{Content: content}
}

// NewErrorResult builds an error result carrying a single message segment.
func NewErrorResult(msg string) *ToolResult {
	return &ToolResult{
		Content: []TextContent{{Type: ContentTypeText, Text: msg}},
		IsError: true,
	}
}

// Texts returns the text of every segment in order.
func (r *ToolResult) Texts() []string {
	texts := make([]string, len(r.Content))
	for i, c := range r.Content {
		texts[i] = c.Text
	}
	return texts
}
