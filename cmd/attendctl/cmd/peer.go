package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/dkeye/Attend/internal/attention"
	"github.com/dkeye/Attend/internal/client"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagPeerName   string
	flagDetections string
)

var peerCmd = &cobra.Command{
	Use:   "peer <room>",
	Short: "Join a room as a student",
	Long: `Join a room as a student and answer the host's connection setup.

Face detections are read as JSON lines ({"width":..,"height":..,"faces":[..]})
from --detections (default stdin); every line is classified and inattentive
verdicts are reported to the host, at most once per sampling interval.

Examples:
  face-detector | attendctl peer bio-101 --name alice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		room, err := domain.NewRoomID(args[0])
		if err != nil {
			return err
		}
		return runPeer(room)
	},
}

func init() {
	peerCmd.Flags().StringVarP(&flagPeerName, "name", "n", "", "display name")
	peerCmd.Flags().StringVar(&flagDetections, "detections", "-", "detections file, - for stdin")
}

func runPeer(room domain.RoomID) error {
	name, err := domain.NewDisplayName(flagPeerName)
	if err != nil {
		return err
	}
	rc, media, err := connect(string(name), string(domain.RolePeer))
	if err != nil {
		return err
	}
	defer rc.Close()

	sess := client.NewPeerSession(rc.ctx, rc.conn, media, printEvent)
	if err := sess.Join(room, name); err != nil {
		return err
	}

	src := io.Reader(os.Stdin)
	if flagDetections != "-" {
		f, err := os.Open(flagDetections)
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}
	go feedDetections(src, sess)

	if err := sess.Run(rc.conn.Incoming()); err != nil && !errors.Is(err, rc.ctx.Err()) {
		return err
	}
	return nil
}

func feedDetections(r io.Reader, sess *client.PeerSession) {
	classifier := attention.NewClassifier()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var d attention.Detection
		if err := json.Unmarshal(sc.Bytes(), &d); err != nil {
			log.Warn().Err(err).Str("module", "attendctl").Msg("bad detection line")
			continue
		}
		v, reason := classifier.Classify(&d)
		log.Debug().Str("module", "attendctl").Str("verdict", v.String()).Str("reason", string(reason)).Msg("sample")
		sess.Report(v)
	}
}
