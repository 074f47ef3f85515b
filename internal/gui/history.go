package gui

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const historyPageSize = 50

// HistoryTab lists recent runs from the history database.
type HistoryTab struct {
	controller *Controller

	mu   sync.Mutex
	rows []string

	list *widget.List
}

// NewHistoryTab creates a new history tab
func NewHistoryTab(ctrl *Controller) *HistoryTab {
	return &HistoryTab{controller: ctrl}
}

// Build constructs the run history UI
func (h *HistoryTab) Build() fyne.CanvasObject {
	header := widget.NewLabelWithStyle("Run History", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	h.list = widget.NewList(
		func() int {
			h.mu.Lock()
			defer h.mu.Unlock()
			return len(h.rows)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			h.mu.Lock()
			defer h.mu.Unlock()
			if i < len(h.rows) {
				obj.(*widget.Label).SetText(h.rows[i])
			}
		},
	)

	refreshBtn := widget.NewButton("Refresh", func() { h.Refresh() })

	h.Refresh()

	return container.NewBorder(
		container.NewVBox(header, refreshBtn),
		nil, nil, nil,
		h.list,
	)
}

// Refresh reloads recent runs from the database
func (h *HistoryTab) Refresh() {
	db := h.controller.DB()
	if db == nil {
		h.setRows([]string{"History recording is disabled"})
		return
	}

	go func() {
		runs, err := db.ListRecentRuns(historyPageSize)
		if err != nil {
			h.setRows([]string{fmt.Sprintf("Failed to load runs: %v", err)})
			return
		}

		rows := make([]string, 0, len(runs))
		for _, run := range runs {
			row := fmt.Sprintf("%s  %s on %s  [%s]", run.StartedAt.Format("2006-01-02 15:04:05"), run.Behavior, run.Device, run.Status)
			if run.Error.Valid {
				row += "  " + run.Error.String
			}
			rows = append(rows, row)
		}
		if len(rows) == 0 {
			rows = []string{"No runs recorded yet"}
		}
		h.setRows(rows)
	}()
}

func (h *HistoryTab) setRows(rows []string) {
	h.mu.Lock()
	h.rows = rows
	h.mu.Unlock()

	fyne.Do(func() {
		if h.list != nil {
			h.list.Refresh()
		}
	})
}
