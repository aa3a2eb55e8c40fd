package cli

import (
	"bufio"
	"context"
	"os"

	_ "modernc.org/sqlite"

	"github.com/YaniYesh22/snot/internal/client/auth"
	"github.com/YaniYesh22/snot/internal/client/config"
	"github.com/YaniYesh22/snot/internal/client/coordinator"
	"github.com/YaniYesh22/snot/internal/client/notebooks"
	"github.com/YaniYesh22/snot/internal/client/session"
	"github.com/YaniYesh22/snot/internal/client/storage"
	"github.com/YaniYesh22/snot/internal/logging"
)

// notebookSet is the slice of the coordinator the commands need.
type notebookSet interface {
	Load(ctx context.Context) error
	Refresh(ctx context.Context) error
	View() ([]notebooks.NotebookRecord, bool)
	Get(id string) (*notebooks.NotebookRecord, bool)
	SetFilter(query string)
	Filter() string
	Create(ctx context.Context, title, content string, tags []string) (*notebooks.NotebookRecord, error)
	Update(ctx context.Context, id string, patch notebooks.Patch) (*notebooks.NotebookRecord, error)
	Delete(ctx context.Context, id string) error
	DragReorder(ctx context.Context, draggedID, dropTargetID string) error
	FailedOps() map[string]error
	Close()
}

// lifecycle is the slice of the session manager the commands need.
type lifecycle interface {
	Evaluate(ctx context.Context, route string) session.Decision
	MarkJustLoggedIn(ctx context.Context) error
}

type App struct {
	config    *config.Config
	gateway   auth.Gateway
	lifecycle lifecycle
	notes     notebookSet
	log       logging.Logger
	reader    *bufio.Reader
	userName  string
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	durable := storage.NewSQLite(db)
	sessions := storage.NewMemory()

	identity := auth.NewIdentityCache(durable)
	gateway, err := auth.NewCognitoGateway(ctx, cfg.AWSRegion, cfg.CognitoClientID, identity, log)
	if err != nil {
		return nil, err
	}

	remote := notebooks.NewAPIClient(cfg.APIBaseURL, cfg.RequestTimeout, idTokenSource(gateway))
	repo := notebooks.NewRepository(remote, notebooks.NewMirror(durable), ownerSource(gateway), log)

	return &App{
		config:    cfg,
		gateway:   gateway,
		lifecycle: session.NewManager(gateway, identity, sessions, log),
		notes:     coordinator.New(repo, log, cfg.ReconcileDelay),
		log:       log,
		reader:    bufio.NewReader(os.Stdin),
	}, nil
}

// idTokenSource authenticates API requests with the id token of the current
// session. No session means no Authorization header.
func idTokenSource(gw auth.Gateway) notebooks.TokenSource {
	return func(ctx context.Context) (string, error) {
		s, err := gw.CurrentSession(ctx)
		if err != nil {
			return "", err
		}
		if !s.IsAuthenticated() {
			return "", nil
		}
		return s.Tokens.IDToken, nil
	}
}

// ownerSource scopes every repository call to the signed-in user.
func ownerSource(gw auth.Gateway) notebooks.OwnerSource {
	return func(ctx context.Context) (string, error) {
		s, err := gw.CurrentSession(ctx)
		if err != nil {
			return "", err
		}
		if !s.IsAuthenticated() {
			return "", auth.ErrNotAuthenticated
		}
		return s.Identity.Email, nil
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.notes.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

// enterRoute runs the lifecycle check a route entry triggers. A false
// return means the command must not run: the session was reset or absent
// and the user was told to log in.
func (a *App) enterRoute(ctx context.Context, route string) bool {
	d := a.lifecycle.Evaluate(ctx, route)
	if d.State == session.StateAuthorized {
		return true
	}
	a.userName = ""
	printlnFn("Session expired or reset, please 'login' first")
	return false
}
