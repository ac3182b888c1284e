package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dkeye/Attend/internal/domain"
	"github.com/dkeye/Attend/internal/ui"
	"github.com/spf13/cobra"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List active rooms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		rooms, err := fetchRooms(ctx, http.DefaultClient, flagServer)
		if err != nil {
			return err
		}
		fmt.Println(ui.RoomsTable(rooms))
		return nil
	},
}

func fetchRooms(ctx context.Context, hc *http.Client, base string) ([]domain.RoomInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(base, "/")+"/api/rooms", nil)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rooms: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rooms: unexpected status %s", resp.Status)
	}
	var body struct {
		Rooms []domain.RoomInfo `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return body.Rooms, nil
}
