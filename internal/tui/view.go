package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/avenn/resonance/internal/echo"
)

func (m *model) View() string {
	switch m.stage {
	case stageInput:
		return m.viewInput()
	case stageResult, stageSynthesizing:
		return m.viewResult()
	case stageArtifact:
		return m.viewArtifact()
	default:
		return ""
	}
}

func (m *model) viewInput() string {
	parts := []string{
		m.heroView(),
		sectionHeaderStyle.Render("What is on your mind?"),
		m.feelingInput.View(),
	}
	if m.curating {
		parts = append(parts, fmt.Sprintf("%s %s", m.spinner.View(), helperStyle.Render(m.infoMessage)))
	} else {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	if m.result != nil && !m.curating {
		parts = append(parts, helperStyle.Render("Esc returns to your last echoes."))
	}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	parts = append(parts, m.jobStatusView())
	return joinNonEmpty(parts)
}

func (m *model) viewResult() string {
	if m.result == nil {
		return m.viewInput()
	}
	parts := []string{m.heroView(), m.thematicHeader(), m.echoesView(), m.insightView()}
	if query := echo.SearchURL(m.result); query != "" {
		parts = append(parts, helperStyle.Render("Go deeper: ")+linkStyle.Render(query))
	}
	if m.stage == stageSynthesizing || m.curating {
		parts = append(parts, fmt.Sprintf("%s %s", m.spinner.View(), helperStyle.Render(m.infoMessage)))
	} else {
		if m.errorMessage != "" {
			parts = append(parts, errorStyle.Render(m.errorMessage))
		}
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	parts = append(parts, m.jobStatusView())
	return joinNonEmpty(parts)
}

func (m *model) viewArtifact() string {
	if m.result == nil {
		return m.viewInput()
	}
	parts := []string{
		m.heroView(),
		m.thematicHeader(),
		sectionHeaderStyle.Render("Artifact"),
		helperStyle.Render("A synthesized artwork now carries these echoes:"),
		linkStyle.Render(m.artifactURL),
		m.insightView(),
	}
	if m.exporting {
		parts = append(parts, fmt.Sprintf("%s %s", m.spinner.View(), helperStyle.Render(m.infoMessage)))
	} else {
		if m.errorMessage != "" {
			parts = append(parts, errorStyle.Render(m.errorMessage))
		}
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	parts = append(parts, m.jobStatusView())
	return joinNonEmpty(parts)
}

// jobStatusView is a one-line meter over the most recent background job.
func (m *model) jobStatusView() string {
	if m.lastJob.ID == "" {
		return ""
	}
	label := fmt.Sprintf("%s · %s", m.lastJob.Kind, m.lastJob.Status)
	if m.lastJob.Status != jobStatusRunning {
		label = fmt.Sprintf("%s · %s", label, m.lastJob.Duration.Round(time.Millisecond))
	}
	return statusBarStyle.Render(label)
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("RESONANCE"),
		taglineStyle.Render(heroTagline),
	)
}

// thematicHeader renders the single-word key in the color the curation chose
// for it.
func (m *model) thematicHeader() string {
	keyStyle := lipgloss.NewStyle().Bold(true)
	if m.result.ColorHex != "" {
		keyStyle = keyStyle.Foreground(lipgloss.Color(m.result.ColorHex))
	}
	return keyStyle.Render(strings.ToUpper(m.result.ThematicKey))
}

func (m *model) echoesView() string {
	var b strings.Builder
	for i, item := range m.result.Echoes {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(echoTitleStyle.Render(item.Title))
		meta := strings.TrimSpace(strings.Join(nonEmpty(item.Creator, item.Year, item.Type), " · "))
		if meta != "" {
			b.WriteRune('\n')
			b.WriteString(echoMetaStyle.Render(meta))
		}
		if item.Content != "" {
			b.WriteRune('\n')
			b.WriteString(echoBodyStyle.Render(wordwrap.String(item.Content, m.wrapWidth())))
		}
	}
	return b.String()
}

func (m *model) insightView() string {
	if m.result.CommunityInsight == "" {
		return ""
	}
	return insightStyle.Render(wordwrap.String(m.result.CommunityInsight, m.wrapWidth()))
}

func (m *model) wrapWidth() int {
	width := m.contentWidth
	if width < minContentWidth {
		width = minContentWidth
	}
	return width
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func nonEmpty(values ...string) []string {
	filtered := make([]string, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		filtered = append(filtered, value)
	}
	return filtered
}
