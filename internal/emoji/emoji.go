// Package emoji resolves short emoji names to something renderable: a
// Unicode character from the built-in Slack table, or an image URL for
// workspace-uploaded custom emoji.
package emoji

// Rendering discriminates the two ways a resolved emoji can be displayed.
type Rendering int

const (
	// RenderUnicode means Value holds a Unicode emoji sequence.
	RenderUnicode Rendering = iota
	// RenderImageURL means Value holds the URL of an uploaded emoji image.
	RenderImageURL
)

// Emoji is a resolved, renderable emoji value.
type Emoji struct {
	Rendering Rendering
	Value     string
}

// Unicode constructs a Unicode-rendered emoji value.
func Unicode(s string) Emoji {
	return Emoji{Rendering: RenderUnicode, Value: s}
}

// ImageURL constructs an image-rendered emoji value.
func ImageURL(u string) Emoji {
	return Emoji{Rendering: RenderImageURL, Value: u}
}
