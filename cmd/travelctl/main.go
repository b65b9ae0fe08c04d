package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"travelagent/internal/app"
	"travelagent/internal/config"
	"travelagent/internal/logging"
	"travelagent/internal/model"
	"travelagent/internal/service"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("travelctl failed")
	}
}

// session builds the services on first use so that argument errors are
// reported without touching the database
type session struct {
	services *app.App
}

func (s *session) open(c *cli.Context) (*app.App, error) {
	if s.services != nil {
		return s.services, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Logging.Level = c.String("log-level")
	logging.Init("travelctl", cfg.Server.Environment, cfg.Logging)

	services, err := app.New(c.Context, cfg)
	if err != nil {
		return nil, err
	}
	s.services = services
	return services, nil
}

func (s *session) close(*cli.Context) error {
	if s.services != nil {
		s.services.Close()
		s.services = nil
	}
	return nil
}

func modeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "mode",
		Aliases: []string{"m"},
		Usage:   "Force a generation mode (see travelctl modes)",
	}
}

func deploymentFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "deployment",
		Aliases: []string{"d"},
		Usage:   "Chat model deployment to answer with",
	}
}

func newApp() *cli.App {
	s := &session{}

	return &cli.App{
		Name:  "travelctl",
		Usage: "Ask the travel agent and manage its place catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		After: s.close,
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "Answer a single travel question",
				ArgsUsage: "QUESTION",
				Flags: []cli.Flag{
					modeFlag(),
					deploymentFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the full response as JSON",
					},
				},
				Action: s.askCommand,
			},
			{
				Name:   "repl",
				Usage:  "Start an interactive session",
				Flags:  []cli.Flag{modeFlag(), deploymentFlag()},
				Action: s.replCommand,
			},
			{
				Name:   "modes",
				Usage:  "List the generation modes",
				Action: modesCommand,
			},
			{
				Name:  "place",
				Usage: "Manage the place catalog",
				Subcommands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Add a place, geocoding and embedding it",
						ArgsUsage: "NAME",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "category", Usage: "Place category"},
							&cli.StringFlag{Name: "country", Usage: "Country name"},
							&cli.StringFlag{Name: "region", Usage: "Region or city"},
							&cli.Float64Flag{Name: "lat", Usage: "Latitude"},
							&cli.Float64Flag{Name: "lon", Usage: "Longitude"},
							&cli.StringSliceFlag{Name: "activity", Aliases: []string{"a"}, Usage: "Activity offered (repeatable)"},
							&cli.StringFlag{Name: "text", Usage: "Description used for the embedding"},
						},
						Action: s.placeAddCommand,
					},
					{
						Name:      "delete",
						Usage:     "Delete places by name",
						ArgsUsage: "NAME",
						Action:    s.placeDeleteCommand,
					},
					{
						Name:  "clear",
						Usage: "Delete every place",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm deletion"},
						},
						Action: s.placeClearCommand,
					},
				},
			},
			{
				Name:      "nearby",
				Usage:     "Find accommodations near a place",
				ArgsUsage: "PLACE",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: "radius", Aliases: []string{"r"}, Usage: "Search radius in km (0 uses the configured default)"},
					&cli.StringFlag{Name: "type", Usage: "Accommodation type, e.g. hotel or hostel"},
					&cli.StringFlag{Name: "price-range", Usage: "Price range, e.g. budget or luxury"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum results (0 uses the configured default)"},
				},
				Action: s.nearbyCommand,
			},
		},
	}
}

func (s *session) askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}
	if err := validateMode(c.String("mode")); err != nil {
		return err
	}

	services, err := s.open(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, err := services.Queries.Query(ctx, &model.QueryRequest{
		Query:      question,
		Mode:       c.String("mode"),
		Deployment: c.String("deployment"),
	})
	if err != nil {
		return err
	}

	out := c.App.Writer
	if c.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResponse(out, resp)
	return nil
}

func (s *session) replCommand(c *cli.Context) error {
	if err := validateMode(c.String("mode")); err != nil {
		return err
	}

	services, err := s.open(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runREPL(ctx, os.Stdin, c.App.Writer, services.Queries, c.String("mode"), c.String("deployment"))
}

func modesCommand(c *cli.Context) error {
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tDESCRIPTION")
	for _, info := range service.ListModes() {
		fmt.Fprintf(w, "%s\t%s\n", info.Mode, info.Description)
	}
	return w.Flush()
}

func (s *session) placeAddCommand(c *cli.Context) error {
	name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if name == "" {
		return fmt.Errorf("a place name is required")
	}

	in := model.PlaceInput{
		Name:       name,
		Category:   optionalString(c, "category"),
		Country:    optionalString(c, "country"),
		Region:     optionalString(c, "region"),
		Activities: c.StringSlice("activity"),
		RawText:    optionalString(c, "text"),
	}
	if c.IsSet("lat") && c.IsSet("lon") {
		lat, lon := c.Float64("lat"), c.Float64("lon")
		in.Latitude, in.Longitude = &lat, &lon
	} else if c.IsSet("lat") || c.IsSet("lon") {
		return fmt.Errorf("--lat and --lon must be given together")
	}

	services, err := s.open(c)
	if err != nil {
		return err
	}

	id, err := services.Places.Add(c.Context, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Added %q (id %d)\n", name, id)
	return nil
}

func (s *session) placeDeleteCommand(c *cli.Context) error {
	name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if name == "" {
		return fmt.Errorf("a place name is required")
	}

	services, err := s.open(c)
	if err != nil {
		return err
	}

	n, err := services.Places.Delete(c.Context, name)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no place named %q", name)
	}
	fmt.Fprintf(c.App.Writer, "Deleted %d place(s)\n", n)
	return nil
}

func (s *session) placeClearCommand(c *cli.Context) error {
	if !c.Bool("yes") {
		return fmt.Errorf("refusing to delete every place without --yes")
	}

	services, err := s.open(c)
	if err != nil {
		return err
	}

	n, err := services.Places.Clear(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Deleted %d place(s)\n", n)
	return nil
}

func (s *session) nearbyCommand(c *cli.Context) error {
	place := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if place == "" {
		return fmt.Errorf("a place is required")
	}
	if c.Float64("radius") < 0 {
		return fmt.Errorf("radius must not be negative")
	}

	services, err := s.open(c)
	if err != nil {
		return err
	}

	resp, err := services.Accommodations.Nearby(c.Context, place, c.Float64("radius"),
		optionalString(c, "type"), optionalString(c, "price-range"), c.Int("limit"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, resp.Message)
	return nil
}

func validateMode(mode string) error {
	if strings.TrimSpace(mode) == "" {
		return nil
	}
	if _, ok := model.ParseMode(mode); !ok {
		return fmt.Errorf("%w: %q", service.ErrUnknownMode, mode)
	}
	return nil
}

func optionalString(c *cli.Context, name string) *string {
	v := strings.TrimSpace(c.String(name))
	if v == "" {
		return nil
	}
	return &v
}
