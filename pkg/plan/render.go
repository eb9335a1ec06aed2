package plan

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/stowup/pkg/errors"
	"github.com/charmbracelet/glamour"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatMarkdown = "markdown"
	FormatYAML     = "yaml"
	FormatJSON     = "json"
)

// Formats lists the accepted output formats
var Formats = []string{FormatMarkdown, FormatYAML, FormatJSON}

// RenderOptions controls Render
type RenderOptions struct {
	Format string
	// Styled renders markdown through glamour; otherwise it is printed raw
	Styled bool
	// Width wraps styled markdown; 0 uses glamour's default
	Width int
}

// Render writes doc to w in the requested format
func Render(w io.Writer, doc *Document, opts RenderOptions) error {
	switch opts.Format {
	case FormatMarkdown, "":
		md := Markdown(doc)
		if opts.Styled {
			styled, err := renderGlamour(md, opts.Width)
			if err == nil {
				md = styled
			}
		}
		_, err := io.WriteString(w, md)
		return err

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, errors.ErrInternal, "failed to encode plan as YAML")
		}
		return enc.Close()

	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, errors.ErrInternal, "failed to encode plan as JSON")
		}
		return nil

	default:
		return errors.Newf(errors.ErrInvalidInput, "unknown plan format %q (want one of %s)",
			opts.Format, strings.Join(Formats, ", "))
	}
}

// Markdown renders doc as a markdown document
func Markdown(doc *Document) string {
	var b strings.Builder

	b.WriteString("# stowup plan\n\n")
	fmt.Fprintf(&b, "- **Variant:** %s\n", doc.Variant)
	fmt.Fprintf(&b, "- **Repository:** `%s`\n", doc.Root)
	fmt.Fprintf(&b, "- **Home:** `%s`\n", doc.Home)
	fmt.Fprintf(&b, "- **Link mode:** %s\n", doc.LinkMode)
	if doc.DryRun {
		b.WriteString("- **Dry run:** yes\n")
	}
	b.WriteString("\n")

	b.WriteString("## Packages\n\n")
	if len(doc.Packages) == 0 {
		b.WriteString("_No packages found._\n")
	}
	for _, name := range doc.Packages {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	for _, name := range doc.SystemPackages {
		fmt.Fprintf(&b, "- %s (system)\n", name)
	}
	b.WriteString("\n")

	b.WriteString("## Steps\n")
	for i, step := range doc.Steps {
		fmt.Fprintf(&b, "\n### %d. %s\n\n%s\n\n", i+1, step.Name, step.Description)
		if len(step.Actions) == 0 {
			b.WriteString("_Nothing to do._\n")
			continue
		}
		b.WriteString("```sh\n")
		for _, action := range step.Actions {
			b.WriteString(action)
			b.WriteString("\n")
		}
		b.WriteString("```\n")
	}

	return b.String()
}

func renderGlamour(md string, width int) (string, error) {
	options := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		options = append(options, glamour.WithWordWrap(width))
	}
	renderer, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return "", err
	}
	return renderer.Render(md)
}
