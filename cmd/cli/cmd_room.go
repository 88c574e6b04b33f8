package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/api"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
)

var roomProject string

var roomCmd = &cobra.Command{
	Use:   "room",
	Short: "Manage rooms",
	Long:  `Create and list the rooms whose moisture history is recorded.`,
}

var roomCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a new room",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoomCreate,
}

var roomListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all rooms",
	Long:  `Display all rooms with the number of stored measurement sessions.`,
	Args:  cobra.NoArgs,
	RunE:  runRoomList,
}

func init() {
	roomCreateCmd.Flags().StringVarP(&roomProject, "project", "p", "", "project title the room belongs to")

	rootCmd.AddCommand(roomCmd)
	roomCmd.AddCommand(roomCreateCmd)
	roomCmd.AddCommand(roomListCmd)
}

func runRoomCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var room models.Room
	if client := apiClient(); client != nil {
		created, err := client.CreateRoom(ctx, api.CreateRoomRequest{ProjectTitle: roomProject, Name: args[0]})
		if err != nil {
			return fmt.Errorf("failed to create room: %w", err)
		}
		room = *created
	} else {
		store, closeStore, err := appFrom(cmd).openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		room, err = store.CreateRoom(ctx, models.Room{ProjectTitle: roomProject, Name: args[0]})
		if err != nil {
			return fmt.Errorf("failed to create room: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Room created successfully!\n")
	fmt.Fprintf(out, "ID: %s\n", room.ID)
	fmt.Fprintf(out, "Name: %s\n", room.Name)
	if room.ProjectTitle != "" {
		fmt.Fprintf(out, "Project: %s\n", room.ProjectTitle)
	}
	return nil
}

func runRoomList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var rooms []models.RoomListItem
	if client := apiClient(); client != nil {
		var err error
		if rooms, err = client.ListRooms(ctx); err != nil {
			return fmt.Errorf("failed to fetch rooms: %w", err)
		}
	} else {
		store, closeStore, err := appFrom(cmd).openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		if rooms, err = store.ListRooms(ctx); err != nil {
			return fmt.Errorf("failed to fetch rooms: %w", err)
		}
	}

	printRooms(cmd, rooms)
	return nil
}

func printRooms(cmd *cobra.Command, rooms []models.RoomListItem) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "\n"+strings.Repeat("=", 80))
	fmt.Fprintln(out, "Rooms")
	fmt.Fprintln(out, strings.Repeat("=", 80))

	for i, room := range rooms {
		fmt.Fprintf(out, "\n[%d] %s\n", i+1, room.Name)
		fmt.Fprintf(out, "    ID: %s\n", room.ID)
		if room.ProjectTitle != "" {
			fmt.Fprintf(out, "    Project: %s\n", room.ProjectTitle)
		}
		fmt.Fprintf(out, "    Sessions: %d\n", room.TotalSessions)
		if room.LastSession != nil {
			fmt.Fprintf(out, "    Last Session: %s\n", room.LastSession.Format("2006-01-02 15:04:05"))
		}
	}

	if len(rooms) == 0 {
		fmt.Fprintln(out, "No rooms registered yet.")
	}

	fmt.Fprintln(out, "\n"+strings.Repeat("=", 80)+"\n")
}
