package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
)

// maxAvatarBytes matches the server's default upload limit.
const maxAvatarBytes = 5 << 20

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	email       string
	Mode        Mode
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	as := services.NewAuthService(apiClient, db, maxAvatarBytes)

	return &App{config: c, authService: as, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

// requestContext bounds a single server call by the configured timeout.
func (a *App) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config == nil || a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// checkServer pings the server and updates the connectivity mode.
func (a *App) checkServer(ctx context.Context) {
	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	if err := a.authService.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// restoreSession picks up a session cached by an earlier run.
func (a *App) restoreSession(ctx context.Context) {
	email, err := a.authService.RestoreSession(ctx)
	if err != nil {
		if !errors.Is(err, services.ErrNotLoggedIn) {
			log.Printf("session cache error: %v", err)
		}
		return
	}
	a.email = email
}

func (a *App) Run(ctx context.Context) {
	defer a.authService.Close(ctx)

	log.Println("Welcome to gophauth CLI (type 'help' for commands)")

	a.checkServer(ctx)
	a.restoreSession(ctx)

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) isLoggedIn() bool {
	return a.email != ""
}

func (a *App) getStatus() string {
	s := ""
	if a.email != "" {
		s = a.email + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = "(" + s + ")"
	}
	return s
}

// noteFailure prints a readable message for err and drops local login
// state when the server no longer accepts the session.
func (a *App) noteFailure(err error) {
	switch {
	case errors.Is(err, client.ErrUnavailable):
		a.setMode(ModeOffline)
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, services.ErrNotLoggedIn):
		a.email = ""
	}
	printlnFn(a.out, describeError(err))
}

func (a *App) println(args ...any) {
	printlnFn(a.out, args...)
}

// elapsed is used by commands that report how long an upload took.
func elapsed(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
