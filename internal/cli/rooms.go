package cli

import (
	"fmt"

	"flashbattle-quiz-service/internal/app"
	"flashbattle-quiz-service/internal/config"
	"flashbattle-quiz-service/internal/logger"
	"github.com/spf13/cobra"
)

// noopBroadcaster is used by operator commands that run outside the server.
type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastRoom(string, string, any) {}
func (noopBroadcaster) BroadcastAll(string, any)          {}

// NewRoomsCmd groups operator commands for inspecting and purging rooms.
func NewRoomsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List or delete rooms in the configured store",
	}
	cmd.AddCommand(newRoomsListCmd(configPath), newRoomsDeleteCmd(configPath))
	return cmd
}

func openRoomService(cmd *cobra.Command, configPath string) (*app.RoomService, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)
	repos, err := openRepositories(cmd.Context(), cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return app.NewRoomService(repos.rooms, repos.banks, noopBroadcaster{}, log), repos.Close, nil
}

func newRoomsListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			rooms, closeFn, err := openRoomService(cmd, *configPath)
			if err != nil {
				return err
			}
			defer closeFn()

			ids, err := rooms.ListRooms(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "no rooms")
				return nil
			}
			for i, id := range ids {
				fmt.Fprintf(out, "%d. %s\n", i+1, id)
			}
			return nil
		},
	}
}

func newRoomsDeleteCmd(configPath *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <roomId>",
		Short: "Delete a room together with all of its banks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := args[0]
			if !yes {
				return fmt.Errorf("refusing to delete room:%s:* and bank:%s:* without --yes", roomID, roomID)
			}
			rooms, closeFn, err := openRoomService(cmd, *configPath)
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := rooms.PurgeRoom(cmd.Context(), roomID)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to delete")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d entries\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
