package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/debemdeboas/the-thread/internal/model"
	"github.com/debemdeboas/the-thread/internal/repository/editor"
)

var (
	styleGray    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleGreen   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleBold    = lipgloss.NewStyle().Bold(true)
	styleCyan    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleCard    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

func renderPost(p model.Post, reposts, likes int) string {
	var b strings.Builder

	header := styleCyan.Render("@"+string(p.Owner)) + " " + styleGray.Render(p.CreatedDate.Local().Format(time.DateTime))
	if p.ParentID != "" {
		header += " " + styleGray.Render(fmt.Sprintf("%s → %s", p.PostType, p.ParentID))
	}
	b.WriteString(header + "\n")

	if p.Content != "" {
		b.WriteString(p.Content + "\n")
	}
	for _, m := range p.Medias {
		b.WriteString(styleGray.Render("  ▸ "+m) + "\n")
	}

	b.WriteString(styleGray.Render(fmt.Sprintf("id %s · %d replies · %d reposts · %d likes", p.ID, p.ReplyCount, reposts, likes)))
	return styleCard.Render(b.String())
}

func renderDraft(d *editor.Draft) string {
	kind := string(d.PostType)
	if d.IsEdit() {
		kind = "edit of " + string(d.PostID)
	} else if d.ParentID != "" {
		kind += " → " + string(d.ParentID)
	}

	content := d.Content
	if content == "" {
		content = styleGray.Render("(no text)")
	}

	return fmt.Sprintf("%s %s %s\n%s\n%s",
		styleBold.Render(string(d.ID)),
		styleGray.Render(kind),
		styleGray.Render(d.UpdatedAt.Local().Format(time.DateTime)),
		content,
		styleGray.Render(fmt.Sprintf("%d media", len(d.Medias))),
	)
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleGreen.Render("✓ "+fmt.Sprintf(format, args...)))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleWarning.Render("! "+fmt.Sprintf(format, args...)))
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, styleError.Render("✗ "+err.Error()))
}
