package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"karolbroda.com/lyrsync/internal/event"
	"karolbroda.com/lyrsync/internal/mpris"
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "mpris player utilities",
	Long:  `discover and inspect mpris-compatible music players on the session bus.`,
}

var playerListCmd = &cobra.Command{
	Use:   "list",
	Short: "list available mpris players",
	RunE: func(cmd *cobra.Command, args []string) error {
		players, err := discoverPlayers()
		if err != nil {
			return err
		}

		if len(players) == 0 {
			fmt.Println("no mpris players found")
			fmt.Println("\ncheck if your music player is running and supports mpris")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "IDENTITY\tSTATUS\tTRACK\tBUS NAME")
		for _, p := range players {
			title := "-"
			if p.Track != nil && p.Track.Title != "" {
				title = p.Track.Title
				if p.Track.Artist != "" {
					title = p.Track.Artist + " - " + title
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Identity, p.Status, title, p.BusName)
		}
		w.Flush()

		return nil
	},
}

var playerCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "show the player that would be followed",
	Long:  `shows the player the viewer would pick right now: the first playing one, else the first paused one, else any.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		players, err := discoverPlayers()
		if err != nil {
			return err
		}
		if len(players) == 0 {
			return fmt.Errorf("no mpris players found")
		}

		chosen := players[0]
		for _, want := range []event.PlaybackStatus{event.StatusPlaying, event.StatusPaused} {
			found := false
			for _, p := range players {
				if p.Status == want {
					chosen, found = p, true
					break
				}
			}
			if found {
				break
			}
		}

		fmt.Printf("identity: %s\n", chosen.Identity)
		fmt.Printf("bus name: %s\n", chosen.BusName)
		fmt.Printf("status:   %s\n", chosen.Status)
		if chosen.Track != nil {
			fmt.Printf("track:    %s\n", chosen.Track.Title)
			fmt.Printf("artist:   %s\n", chosen.Track.Artist)
			if chosen.Track.Album != "" {
				fmt.Printf("album:    %s\n", chosen.Track.Album)
			}
		}
		if chosen.Status == event.StatusPlaying {
			fmt.Printf("position: %s\n", formatDuration(chosen.PositionMs))
		}

		return nil
	},
}

func discoverPlayers() ([]mpris.Player, error) {
	bus, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer bus.Close()

	discovery, err := mpris.NewBusDiscovery(bus)
	if err != nil {
		return nil, err
	}
	return discovery.Players()
}

func formatDuration(ms int64) string {
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func init() {
	playerCmd.AddCommand(playerListCmd)
	playerCmd.AddCommand(playerCurrentCmd)
	rootCmd.AddCommand(playerCmd)
}
