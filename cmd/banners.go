package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Category labels the banner an error is printed under.
type Category string

const (
	CategorySchema                Category = "SCHEMA ERROR"
	CategoryMissingMetadata       Category = "MISSING METADATA"
	CategoryModuleNotFound        Category = "MODULE NOT FOUND"
	CategoryMissingCDNCredentials Category = "MISSING CDN CREDENTIALS"
	CategoryOutputDirExists       Category = "OUTPUT DIR EXISTS"
	CategoryConfig                Category = "CONFIG ERROR"
	CategoryUnexpected            Category = "UNEXPECTED ERROR"
)

// RemediationHint follows every error banner.
const RemediationHint = "Please correct the above issue and re-run lmbench."

// Categories returns every banner category.
func Categories() []Category {
	return []Category{
		CategorySchema,
		CategoryMissingMetadata,
		CategoryModuleNotFound,
		CategoryMissingCDNCredentials,
		CategoryOutputDirExists,
		CategoryConfig,
		CategoryUnexpected,
	}
}

type bannerWriter struct {
	out   io.Writer
	label lipgloss.Style
	rule  lipgloss.Style
}

func newBannerWriter(out io.Writer) *bannerWriter {
	return newBannerWriterWithRenderer(out, lipgloss.NewRenderer(out))
}

// newPlainBannerWriter renders without any escape sequences.
func newPlainBannerWriter(out io.Writer) *bannerWriter {
	r := lipgloss.NewRenderer(out)
	r.SetColorProfile(termenv.Ascii)
	return newBannerWriterWithRenderer(out, r)
}

func newBannerWriterWithRenderer(out io.Writer, r *lipgloss.Renderer) *bannerWriter {
	return &bannerWriter{
		out: out,
		label: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("1")).
			Padding(0, 1),
		rule: r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// Print writes a delimited banner for category, the body lines, and the
// remediation hint.
func (b *bannerWriter) Print(category Category, lines ...string) {
	rule := b.rule.Render("----------------------------------------")
	fmt.Fprintln(b.out)
	fmt.Fprintln(b.out, rule)
	fmt.Fprintln(b.out, b.label.Render(string(category)))
	fmt.Fprintln(b.out, rule)
	for _, line := range lines {
		fmt.Fprintln(b.out, line)
	}
	fmt.Fprintln(b.out)
	fmt.Fprintln(b.out, RemediationHint)
}

// errorChain returns one line per wrapped layer of err, outermost first.
func errorChain(err error) []string {
	var lines []string
	for depth := 0; err != nil; depth++ {
		prefix := ""
		if depth > 0 {
			prefix = fmt.Sprintf("%*scaused by: ", 2*(depth-1), "")
		}
		lines = append(lines, prefix+err.Error())
		err = errors.Unwrap(err)
	}
	return lines
}
