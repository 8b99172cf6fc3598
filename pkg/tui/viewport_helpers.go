package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/muesli/reflow/wordwrap"
)

// shouldGotoBottom - пользователь смотрит на конец лога.
// Если он прокрутил вверх, новые строки не сбивают позицию.
func shouldGotoBottom(vp viewport.Model) bool {
	return vp.YOffset+vp.Height >= vp.TotalLineCount()
}

// setViewportLines переносит строки по ширине viewport и обновляет контент
// с умной прокруткой.
func setViewportLines(vp *viewport.Model, lines []string) {
	wasAtBottom := shouldGotoBottom(*vp)
	vp.SetContent(wrapLines(lines, vp.Width))
	if wasAtBottom {
		vp.GotoBottom()
	}
}

func wrapLines(lines []string, width int) string {
	content := strings.Join(lines, "\n")
	if width <= 0 {
		return content
	}
	return wordwrap.String(content, width)
}
