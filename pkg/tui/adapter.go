package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ZhuLinsen/MiniAgent/pkg/events"
)

// EventMsg конвертирует events.Event в Bubble Tea сообщение.
type EventMsg events.Event

// subscriptionClosedMsg - канал событий закрыт.
type subscriptionClosedMsg struct{}

// WaitForEvent возвращает Cmd, который ждёт следующего события агента.
//
// Вызывается в Init и после обработки каждого EventMsg:
//
//	case EventMsg:
//	    // ... обработка события
//	    return m, tui.WaitForEvent(sub)
func WaitForEvent(sub events.Subscriber) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-sub.Events()
		if !ok {
			return subscriptionClosedMsg{}
		}
		return EventMsg(event)
	}
}
