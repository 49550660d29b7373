package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-hearth/internal/log"
	"github.com/teslashibe/go-hearth/pkg/worker"
)

var (
	connectRoomURL string
	connectRoom    string
	connectToken   string
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Join one room and run a session in the foreground",
	Example: `  hearth connect --room-url ws://localhost:7880/rooms --room living-room
  HEARTH_ROOM_URL=ws://localhost:7880/rooms hearth connect --room den`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if connectRoomURL != "" {
			cfg.RoomURL = connectRoomURL
		}
		if connectToken != "" {
			cfg.RoomToken = connectToken
		}
		logEnvironment(cfg)

		srv, err := newWorker(cfg)
		if err != nil {
			return err
		}
		defer srv.Shutdown(cmd.Context())

		info, err := srv.Run(ctx, worker.DispatchRequest{
			RoomURL: cfg.RoomURL,
			Room:    connectRoom,
			Token:   cfg.RoomToken,
		})
		if err != nil {
			return err
		}
		log.Component("cli").Info("session finished", "job_id", info.ID, "state", info.State)
		return nil
	},
}

func init() {
	connectCmd.Flags().StringVar(&connectRoomURL, "room-url", "", "room server URL (defaults to HEARTH_ROOM_URL)")
	connectCmd.Flags().StringVar(&connectRoom, "room", "", "room name to join")
	connectCmd.Flags().StringVar(&connectToken, "token", "", "room access token (defaults to HEARTH_ROOM_TOKEN)")
	_ = connectCmd.MarkFlagRequired("room")
}
