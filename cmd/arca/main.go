package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/olimpo-dev/arca-go/api"
	"github.com/olimpo-dev/arca-go/authn"
	"github.com/olimpo-dev/arca-go/catalog"
	"github.com/olimpo-dev/arca-go/directory"
	"github.com/olimpo-dev/arca-go/internal/config"
	"github.com/olimpo-dev/arca-go/session"
	"github.com/olimpo-dev/arca-go/session/filestore"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type app struct {
	auth      *authn.Service
	catalog   *catalog.Repository
	directory *directory.Repository
	sessions  *session.Manager
	log       zerolog.Logger
}

func run(args []string) error {
	_ = godotenv.Load()
	cfg := config.New()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	ctx := context.Background()

	sessions, err := session.NewManager(ctx, filestore.New(cfg.DataDir), session.WithLogger(log))
	if err != nil {
		return err
	}

	client, err := api.New(cfg.BaseURL, sessions, api.WithLogger(log), api.WithTimeout(cfg.HTTPTimeout))
	if err != nil {
		return err
	}

	catalogRepo := catalog.New(client, cfg.DataDir, catalog.WithLogger(log))
	directoryRepo := directory.New(client, directory.WithLogger(log))

	auth, err := authn.New(client, sessions, authn.WithLogger(log), authn.WithCaches(catalogRepo))
	if err != nil {
		return err
	}

	a := &app{
		auth:      auth,
		catalog:   catalogRepo,
		directory: directoryRepo,
		sessions:  sessions,
		log:       log,
	}

	if len(args) == 0 {
		usage()
		return errors.New("missing command")
	}

	expired, cancelExpired := sessions.Expired()
	defer cancelExpired()

	cmdErr := a.dispatch(ctx, args[0], args[1:])

	// The expiry broadcast is the CLI's stand-in for the app's navigate-to-
	// login reaction.
	select {
	case <-expired:
		if args[0] != "logout" {
			log.Warn().Msg("session expired, run `arca login` to sign in again")
		}
	default:
	}
	return cmdErr
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.auth.Logout(ctx)
	case "whoami":
		if !a.auth.LoggedIn() {
			return errors.New("not logged in")
		}
		return printJSON(a.auth.CurrentUser())
	case "products":
		return list(ctx, a.catalog.Products)
	case "product-batches":
		return list(ctx, a.catalog.ProductBatches)
	case "supplies":
		return list(ctx, a.catalog.Supplies)
	case "supply-batches":
		return list(ctx, a.catalog.SupplyBatches)
	case "workshops":
		return list(ctx, a.directory.Workshops)
	case "beneficiaries":
		return list(ctx, a.directory.Beneficiaries)
	case "collaborators":
		return list(ctx, a.directory.Collaborators)
	case "refresh-cache":
		return a.catalog.Invalidate()
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("login", flag.ContinueOnError)
	username := flags.String("u", "", "username")
	password := flags.String("p", "", "password")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return errors.New("login requires -u and -p")
	}

	user, err := a.auth.Login(ctx, *username, *password)
	if err != nil {
		if api.IsUnauthorized(err) {
			return errors.New("invalid username or password")
		}
		if api.IsNetwork(err) {
			return errors.New("could not reach the server, check your connection")
		}
		return err
	}

	figure.NewFigure("Arca", "cybermedium", true).Print()
	fmt.Printf("\nwelcome %s (%s)\n", user.Username, user.Role)
	return nil
}

func list[T any](ctx context.Context, fetch func(context.Context) ([]T, error)) error {
	items, err := fetch(ctx)
	if err != nil {
		return err
	}
	return printJSON(items)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: arca <command>

commands:
  login -u <user> -p <password>
  logout
  whoami
  products | product-batches | supplies | supply-batches
  workshops | beneficiaries | collaborators
  refresh-cache`)
}
