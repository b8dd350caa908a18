package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wanderlog/internal/models"
	"wanderlog/internal/trips"
)

func newTripCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trip",
		Short: "Manage trips",
	}
	cmd.AddCommand(
		newTripCreateCmd(rt),
		newTripListCmd(rt),
		newTripShowCmd(rt),
		newTripAddCmd(rt),
		newTripRemoveCmd(rt),
		newTripUpdateCmd(rt),
		newTripDeleteCmd(rt),
		newTripLatestCmd(rt),
		newTripPhotosCmd(rt),
	)
	return cmd
}

func newTripCreateCmd(rt *runtime) *cobra.Command {
	var in trips.NewTrip

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load()
			if err != nil {
				return err
			}
			in.Name = args[0]
			t, err := a.Catalog.CreateTrip(in)
			if err != nil {
				return err
			}
			return printJSON(cmd, t)
		},
	}
	cmd.Flags().StringVar(&in.Description, "description", "", "Trip description")
	cmd.Flags().StringVar(&in.PhotosURL, "photos-url", "", "Link to a shared photo album")
	return cmd
}

func newTripListCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trips",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load()
			if err != nil {
				return err
			}
			return printJSON(cmd, a.Catalog.ListTrips())
		},
	}
}

type memberView struct {
	Key     string        `json:"place_id"`
	Missing bool          `json:"missing,omitempty"`
	Place   *models.Place `json:"place,omitempty"`
}

func newTripShowCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "members <trip-id>",
		Short: "Show the places of a trip in trip order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load()
			if err != nil {
				return err
			}
			members, err := a.Catalog.TripMembers(args[0])
			if err != nil {
				return err
			}
			out := make([]memberView, 0, len(members))
			for _, m := range members {
				v := memberView{Key: m.Key, Missing: m.Missing}
				if !m.Missing {
					p := m.Place
					v.Place = &p
				}
				out = append(out, v)
			}
			return printJSON(cmd, out)
		},
	}
}

func newTripAddCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "add <trip-id> <key>...",
		Short: "Add places to a trip",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load()
			if err != nil {
				return err
			}
			t, added, err := a.Catalog.AddPlacesToTrip(args[0], args[1:])
			if err != nil {
				return err
			}
			return printJSON(cmd, struct {
				Added int         `json:"added"`
				Trip  models.Trip `json:"trip"`
			}{added, t})
		},
	}
}

func newTripRemoveCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <trip-id> <key>",
		Short: "Remove a place from a trip",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load()
			if err != nil {
				return err
			}
			t, err := a.Catalog.RemovePlaceFromTrip(args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, t)
		},
	}
}

func newTripUpdateCmd(rt *runtime) *cobra.Command {
	var name, description, photosURL string

	cmd := &cobra.Command{
		Use:   "update <trip-id>",
		Short: "Change the name, description or album link of a trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var u trips.TripUpdate
			if cmd.Flags().Changed("name") {
				u.Name = &name
			}
			if cmd.Flags().Changed("description") {
				u.Description = &description
			}
			if cmd.Flags().Changed("photos-url") {
				u.PhotosURL = &photosURL
			}

			a, err := rt.load()
			if err != nil {
				return err
			}
			t, err := a.Catalog.UpdateTrip(args[0], u)
			if err != nil {
				return err
			}
			return printJSON(cmd, t)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&photosURL, "photos-url", "", "New album link")
	return cmd
}

func newTripDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trip-id>",
		Short: "Delete a trip; its places are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load()
			if err != nil {
				return err
			}
			t, err := a.Catalog.DeleteTrip(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, t)
		},
	}
}

func newTripLatestCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "latest <trip-id>",
		Short: "Print the latest visit date among the places of a trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load()
			if err != nil {
				return err
			}
			latest, ok, err := a.Catalog.TripLatestActivity(args[0])
			if err != nil {
				return err
			}
			out := map[string]any{"latest_activity": nil}
			if ok {
				out["latest_activity"] = latest.Format("2006-01-02")
			}
			return printJSON(cmd, out)
		},
	}
}

func newTripPhotosCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Manage the photos attached to a trip",
	}

	set := &cobra.Command{
		Use:   "set <trip-id> <url>...",
		Short: "Replace the photos of a trip",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load()
			if err != nil {
				return err
			}
			photos := make([]models.Photo, 0, len(args)-1)
			for _, u := range args[1:] {
				photos = append(photos, models.Photo{BaseURL: u})
			}
			t, err := a.Catalog.SetTripPhotos(args[0], photos)
			if err != nil {
				return err
			}
			return printJSON(cmd, t)
		},
	}

	remove := &cobra.Command{
		Use:   "remove <trip-id> <index>",
		Short: "Remove one photo by position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid photo index %q", args[1])
			}
			a, err := rt.load()
			if err != nil {
				return err
			}
			t, err := a.Catalog.RemoveTripPhoto(args[0], index)
			if err != nil {
				return err
			}
			return printJSON(cmd, t)
		},
	}

	cmd.AddCommand(set, remove)
	return cmd
}
