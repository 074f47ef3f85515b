package gui

import (
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const maxLogLines = 500

// LogTab shows a bounded scrollback of system events.
type LogTab struct {
	controller *Controller

	mu    sync.Mutex
	lines []string

	list *widget.List
}

// NewLogTab creates a new log tab
func NewLogTab(ctrl *Controller) *LogTab {
	return &LogTab{controller: ctrl}
}

// Build constructs the event log UI
func (l *LogTab) Build() fyne.CanvasObject {
	header := widget.NewLabelWithStyle("Event Log", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	l.list = widget.NewList(
		func() int {
			l.mu.Lock()
			defer l.mu.Unlock()
			return len(l.lines)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			l.mu.Lock()
			defer l.mu.Unlock()
			if i < len(l.lines) {
				obj.(*widget.Label).SetText(l.lines[i])
			}
		},
	)

	clearBtn := widget.NewButton("Clear", func() {
		l.mu.Lock()
		l.lines = nil
		l.mu.Unlock()
		fyne.Do(func() { l.list.Refresh() })
	})

	return container.NewBorder(
		container.NewVBox(header, clearBtn),
		nil, nil, nil,
		l.list,
	)
}

// AddLog appends a line to the scrollback, trimming the oldest entries
// past the cap.
func (l *LogTab) AddLog(message string) {
	line := fmt.Sprintf("%s  %s", time.Now().Format("15:04:05"), message)

	l.mu.Lock()
	l.lines = append(l.lines, line)
	if len(l.lines) > maxLogLines {
		l.lines = l.lines[len(l.lines)-maxLogLines:]
	}
	l.mu.Unlock()

	fyne.Do(func() {
		if l.list != nil {
			l.list.Refresh()
			l.list.ScrollToBottom()
		}
	})
}
