// Package session keeps the client's authenticated state and its local
// mirror of the backend's sites, keywords, tasks and results.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/crawldash/internal/model"
)

// ErrNoSession is returned by operations that need a token when none is held.
var ErrNoSession = errors.New("no active session")

// API is the backend surface the controller drives.
type API interface {
	Login(ctx context.Context, creds model.Credentials) (string, error)
	Register(ctx context.Context, creds model.Credentials) error

	ListSites(ctx context.Context, token string) ([]model.Site, error)
	ListKeywords(ctx context.Context, token string) ([]model.Keyword, error)
	ListTasks(ctx context.Context, token string) ([]model.Task, error)
	ListResults(ctx context.Context, token string) ([]model.Result, error)

	CreateSite(ctx context.Context, token string, s model.NewSite) error
	CreateKeyword(ctx context.Context, token string, k model.NewKeyword) error
	CreateTask(ctx context.Context, token string, t model.NewTask) error
}

// Deps holds the controller's collaborators. Notifier, Bus and Logger are
// optional.
type Deps struct {
	API      API
	Store    TokenStore
	Notifier Notifier
	Bus      *Bus
	Logger   *slog.Logger
}

// Controller owns the session token and the four mirrored collections.
// Every fetch replaces its collection wholesale; concurrent fetches of the
// same collection resolve as last response wins.
type Controller struct {
	api    API
	store  TokenStore
	notify Notifier
	bus    *Bus
	logger *slog.Logger

	mu    sync.RWMutex
	token string

	sites    mirror[model.Site]
	keywords mirror[model.Keyword]
	tasks    mirror[model.Task]
	results  mirror[model.Result]
}

// New creates a Controller, restoring a previously persisted token if there
// is one. A restored token does not fetch anything by itself; a Syncer
// started afterwards picks it up.
func New(deps Deps) (*Controller, error) {
	if deps.API == nil {
		return nil, errors.New("session: API is required")
	}
	if deps.Store == nil {
		return nil, errors.New("session: token store is required")
	}
	c := &Controller{
		api:    deps.API,
		store:  deps.Store,
		notify: deps.Notifier,
		bus:    deps.Bus,
		logger: deps.Logger,
	}
	if c.notify == nil {
		c.notify = LogNotifier{Logger: deps.Logger}
	}
	if c.bus == nil {
		c.bus = NewBus()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	token, ok, err := c.store.Get(TokenKey)
	if err != nil {
		return nil, fmt.Errorf("restoring session token: %w", err)
	}
	if ok && token != "" {
		c.token = token
		c.logger.Debug("restored persisted session")
	}
	return c, nil
}

// Events returns the bus session events are published on.
func (c *Controller) Events() *Bus { return c.bus }

// Token returns the current token, or "" when logged out.
func (c *Controller) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Authenticated reports whether a token is held.
func (c *Controller) Authenticated() bool {
	return c.Token() != ""
}

func (c *Controller) requireToken() (string, error) {
	token := c.Token()
	if token == "" {
		return "", ErrNoSession
	}
	return token, nil
}

// Authenticate logs in and, on success, stores and persists the token. On
// any failure the previous session state is left as it was. Fetching the
// collections is left to whoever listens for SessionEstablished.
func (c *Controller) Authenticate(ctx context.Context, creds model.Credentials) (string, error) {
	if err := creds.Validate(); err != nil {
		c.notify.Error(err.Error())
		return "", err
	}
	token, err := c.api.Login(ctx, creds)
	if err != nil {
		c.notify.Error(MsgLoginFailed)
		return "", fmt.Errorf("authenticating: %w", err)
	}
	if err := c.store.Set(TokenKey, token); err != nil {
		c.notify.Error(MsgLoginFailed)
		return "", fmt.Errorf("persisting session token: %w", err)
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	c.notify.Success(MsgLoginSucceeded)
	c.bus.Publish(Event{Kind: SessionEstablished})
	return token, nil
}

// Register creates an account. The session is never touched; the user still
// has to authenticate.
func (c *Controller) Register(ctx context.Context, creds model.Credentials) error {
	if err := creds.Validate(); err != nil {
		c.notify.Error(err.Error())
		return err
	}
	if err := c.api.Register(ctx, creds); err != nil {
		c.notify.Error(MsgRegisterFailed)
		return fmt.Errorf("registering: %w", err)
	}
	c.notify.Success(MsgRegistered)
	return nil
}

// Logout forgets the token in memory and in the token store. The backend is
// not contacted and the collections keep their last contents.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()

	err := c.store.Delete(TokenKey)
	c.notify.Info(MsgLoggedOut)
	c.bus.Publish(Event{Kind: SessionEnded})
	if err != nil {
		return fmt.Errorf("clearing persisted session token: %w", err)
	}
	return nil
}

// RefreshReport records the outcome of each fetch in a RefreshAll.
type RefreshReport struct {
	Errors map[Collection]error
}

// Failed lists the collections whose fetch failed, in refresh order.
func (r RefreshReport) Failed() []Collection {
	var out []Collection
	for _, c := range Collections {
		if r.Errors[c] != nil {
			out = append(out, c)
		}
	}
	return out
}

// Err joins the per-collection errors, or returns nil if every fetch
// succeeded.
func (r RefreshReport) Err() error {
	var errs []error
	for _, c := range r.Failed() {
		errs = append(errs, r.Errors[c])
	}
	return errors.Join(errs...)
}

// RefreshAll fetches all four collections concurrently. Each fetch is
// independent: a failure is reported and leaves only its own collection
// untouched.
func (c *Controller) RefreshAll(ctx context.Context) (RefreshReport, error) {
	token, err := c.requireToken()
	if err != nil {
		return RefreshReport{}, err
	}

	report := RefreshReport{Errors: make(map[Collection]error, len(Collections))}
	var mu sync.Mutex
	// A plain Group, not WithContext: one failed fetch must not cancel the
	// others.
	var g errgroup.Group
	for _, coll := range Collections {
		g.Go(func() error {
			err := c.refresh(ctx, coll, token)
			mu.Lock()
			report.Errors[coll] = err
			mu.Unlock()
			return err
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Debug("refresh incomplete", "failed", report.Failed(), "first_error", err)
	}

	c.bus.Publish(Event{Kind: RefreshCompleted, Err: report.Err()})
	return report, nil
}

func (c *Controller) refresh(ctx context.Context, coll Collection, token string) error {
	switch coll {
	case Sites:
		return refreshInto(ctx, c, coll, &c.sites, c.api.ListSites, token)
	case Keywords:
		return refreshInto(ctx, c, coll, &c.keywords, c.api.ListKeywords, token)
	case Tasks:
		return refreshInto(ctx, c, coll, &c.tasks, c.api.ListTasks, token)
	case Results:
		return refreshInto(ctx, c, coll, &c.results, c.api.ListResults, token)
	default:
		return fmt.Errorf("unknown collection %q", coll)
	}
}

func refreshInto[T cloner[T]](ctx context.Context, c *Controller, coll Collection, dst *mirror[T],
	fetch func(context.Context, string) ([]T, error), token string) error {
	items, err := fetch(ctx, token)
	if err != nil {
		c.notify.Error(fetchFailedMsg(coll))
		c.bus.Publish(Event{Kind: CollectionRefreshed, Collection: coll, Err: err})
		return fmt.Errorf("fetching %s: %w", coll, err)
	}
	dst.replace(items)
	c.bus.Publish(Event{Kind: CollectionRefreshed, Collection: coll})
	return nil
}

// Refresh fetches a single collection.
func (c *Controller) Refresh(ctx context.Context, coll Collection) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}
	return c.refresh(ctx, coll, token)
}

func (c *Controller) RefreshSites(ctx context.Context) error    { return c.Refresh(ctx, Sites) }
func (c *Controller) RefreshKeywords(ctx context.Context) error { return c.Refresh(ctx, Keywords) }
func (c *Controller) RefreshTasks(ctx context.Context) error    { return c.Refresh(ctx, Tasks) }
func (c *Controller) RefreshResults(ctx context.Context) error  { return c.Refresh(ctx, Results) }

// create runs the shared create flow: validate, submit, then refetch only the
// owning collection. A refetch failure is reported on its own and does not
// turn a successful create into an error.
func (c *Controller) create(ctx context.Context, coll Collection, validate func() error, submit func(token string) error) error {
	if err := validate(); err != nil {
		c.notify.Error(err.Error())
		return err
	}
	token, err := c.requireToken()
	if err != nil {
		c.notify.Error(addFailedMsg(coll))
		return err
	}
	if err := submit(token); err != nil {
		c.notify.Error(addFailedMsg(coll))
		return fmt.Errorf("adding %s: %w", coll.Singular(), err)
	}
	c.notify.Success(addedMsg(coll))

	if err := c.refresh(ctx, coll, token); err != nil {
		c.logger.Debug("refetch after create failed", "collection", string(coll), "error", err)
	}
	return nil
}

// CreateSite validates and submits a new site.
func (c *Controller) CreateSite(ctx context.Context, s model.NewSite) error {
	return c.create(ctx, Sites, s.Validate, func(token string) error {
		return c.api.CreateSite(ctx, token, s)
	})
}

// CreateKeyword validates and submits a new keyword.
func (c *Controller) CreateKeyword(ctx context.Context, k model.NewKeyword) error {
	return c.create(ctx, Keywords, k.Validate, func(token string) error {
		return c.api.CreateKeyword(ctx, token, k)
	})
}

// CreateTask validates and submits a new task. Duplicate site or keyword ids
// are collapsed before sending.
func (c *Controller) CreateTask(ctx context.Context, t model.NewTask) error {
	return c.create(ctx, Tasks, t.Validate, func(token string) error {
		return c.api.CreateTask(ctx, token, t.Normalized())
	})
}

// Sites returns a copy of the mirrored sites.
func (c *Controller) Sites() []model.Site { return c.sites.snapshot() }

func (c *Controller) Keywords() []model.Keyword { return c.keywords.snapshot() }

func (c *Controller) Tasks() []model.Task { return c.tasks.snapshot() }

func (c *Controller) Results() []model.Result { return c.results.snapshot() }

// FetchedAt returns when coll was last replaced, or the zero time if it
// never was.
func (c *Controller) FetchedAt(coll Collection) time.Time {
	switch coll {
	case Sites:
		return c.sites.lastFetched()
	case Keywords:
		return c.keywords.lastFetched()
	case Tasks:
		return c.tasks.lastFetched()
	case Results:
		return c.results.lastFetched()
	}
	return time.Time{}
}

// Counts returns the current size of every collection.
func (c *Controller) Counts() map[Collection]int {
	return map[Collection]int{
		Sites:    c.sites.count(),
		Keywords: c.keywords.count(),
		Tasks:    c.tasks.count(),
		Results:  c.results.count(),
	}
}
