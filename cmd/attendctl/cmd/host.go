package cmd

import (
	"errors"

	"github.com/dkeye/Attend/internal/client"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/spf13/cobra"
)

var flagHostName string

var hostCmd = &cobra.Command{
	Use:   "host [room]",
	Short: "Open a room as its host",
	Long: `Join a room as the host. Without a room argument the server picks a code.

Examples:
  attendctl host bio-101 --name "Ms. Frizzle"
  attendctl host`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var room string
		if len(args) == 1 {
			room = args[0]
		}
		return runHost(domain.RoomID(room))
	},
}

func init() {
	hostCmd.Flags().StringVarP(&flagHostName, "name", "n", "host", "display name")
}

func runHost(room domain.RoomID) error {
	name, err := domain.NewDisplayName(flagHostName)
	if err != nil {
		return err
	}
	rc, media, err := connect(string(name), string(domain.RoleHost))
	if err != nil {
		return err
	}
	defer rc.Close()

	sess := client.NewHostSession(rc.ctx, rc.conn, media, printEvent)
	if err := sess.Join(room, name); err != nil {
		return err
	}
	if err := sess.Run(rc.conn.Incoming()); err != nil && !errors.Is(err, rc.ctx.Err()) {
		return err
	}
	return nil
}
