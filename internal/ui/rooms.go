package ui

import (
	"strconv"

	"github.com/dkeye/Attend/internal/domain"
	"github.com/jedib0t/go-pretty/v6/table"
)

func RoomsTable(rooms []domain.RoomInfo) string {
	if len(rooms) == 0 {
		return MutedStyle.Render("No active rooms")
	}
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Room", "Host", "Peers"})
	for _, r := range rooms {
		host := "no"
		if r.HasHost {
			host = "yes"
		}
		t.AppendRow(table.Row{r.ID, host, strconv.Itoa(r.PeerCount)})
	}
	return t.Render()
}
