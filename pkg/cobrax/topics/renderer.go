package topics

// Renderer turns a topic body into terminal text. ext is the topic file's
// extension (".md", ".txt"), so a renderer can leave formats it does not
// understand alone.
type Renderer interface {
	Render(content string, ext string) string
}

// PlainRenderer prints topics exactly as embedded. It is used when no
// renderer is configured, which keeps `stowup help <topic>` readable when
// piped.
type PlainRenderer struct{}

// Render returns content unchanged
func (r *PlainRenderer) Render(content string, _ string) string {
	return content
}
