package tally

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// RemoteAPI is the operation surface of the remote backend. RemoteStore is
// the production implementation; tests substitute stubs to exercise the
// fallback path.
type RemoteAPI interface {
	ListHabits(ctx context.Context) ([]Habit, error)
	GetHabit(ctx context.Context, id string) (*Habit, error)
	CreateHabit(ctx context.Context, draft HabitDraft) (*Habit, error)
	UpdateHabit(ctx context.Context, id string, patch HabitPatch) (*Habit, error)
	DeleteHabit(ctx context.Context, id string) error
	ApplyCompletion(ctx context.Context, id string, completed bool) (*Habit, error)
	ListProgress(ctx context.Context) ([]ProgressRecord, error)
	UpsertProgress(ctx context.Context, habitID, date string, completed bool, note string) (*ProgressRecord, error)
	ProgressInRange(ctx context.Context, habitID, start, end string) (map[string]ProgressRecord, error)
	DayProgress(ctx context.Context, date string) ([]DayProgress, error)
	MonthData(ctx context.Context, year, month int) (*MonthData, error)
	Close(ctx context.Context) error
}

var _ RemoteAPI = (*RemoteStore)(nil)

// Client is the unified facade every caller goes through. Each operation
// consults the backend selector, dispatches to the chosen store, and on a
// remote outage retries once against the local store. The fallback is
// silent to the caller: the contract never distinguishes which backend
// served the data.
type Client struct {
	local   *LocalStore
	remote  RemoteAPI
	session SessionProvider
	config  Config
	log     zerolog.Logger
}

// New creates a tally client. When remote credentials are configured the
// remote backend is connected eagerly; an unreachable remote is logged and
// the client proceeds in local-only mode, since every operation can be
// served locally.
func New(ctx context.Context, cfg Config, session SessionProvider) (*Client, error) {
	cfg = cfg.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	local, err := NewLocalStore(cfg.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "tally").Logger()
	if !cfg.Debug {
		logger = logger.Level(zerolog.WarnLevel)
	}

	c := &Client{
		local:   local,
		session: session,
		config:  cfg,
		log:     logger,
	}

	if cfg.HasRemoteCredentials() {
		remote, err := NewRemoteStore(ctx, cfg, session)
		if err != nil {
			c.log.Warn().Err(err).Msg("remote backend unreachable, operating local-only")
		} else {
			c.remote = remote
		}
	}

	return c, nil
}

// WithRemote overrides the remote backend. Used by tests and by callers
// that manage the remote connection themselves.
func (c *Client) WithRemote(remote RemoteAPI) *Client {
	c.remote = remote
	return c
}

// Local exposes the local store for data-management operations
// (export/import/clear) that are local by definition.
func (c *Client) Local() *LocalStore {
	return c.local
}

// Close closes both backends.
func (c *Client) Close() error {
	if c.remote != nil {
		if err := c.remote.Close(context.Background()); err != nil {
			c.log.Warn().Err(err).Msg("close remote backend")
		}
	}
	return c.local.Close()
}

// served pairs an operation result with the backend that produced it. The
// provenance stays inside the package: it keeps the fallback mechanism
// testable without leaking data-freshness hints to callers.
type served[T any] struct {
	data T
	from Backend
}

// dispatch routes one logical operation. Remote is attempted only when the
// selector picks it; a *RemoteError (including a configured-but-unreachable
// remote) falls back to the local store. ErrNotFound, ErrNotAuthenticated
// and validation errors propagate without fallback.
func dispatch[T any](ctx context.Context, c *Client, op string, remote func(context.Context) (T, error), local func() (T, error)) (served[T], error) {
	backend := SelectBackend(c.session.IsAuthenticated(), c.config.HasRemoteCredentials())

	if backend == BackendRemote {
		data, err := tryRemote(ctx, c, op, remote)
		if err == nil {
			return served[T]{data: data, from: BackendRemote}, nil
		}
		if !IsRemoteError(err) {
			var zero T
			return served[T]{data: zero}, err
		}
		c.log.Warn().Err(err).Str("op", op).Msg("remote backend failed, falling back to local store")
	}

	data, err := local()
	if err != nil {
		var zero T
		return served[T]{data: zero}, err
	}
	return served[T]{data: data, from: BackendLocal}, nil
}

func tryRemote[T any](ctx context.Context, c *Client, op string, fn func(context.Context) (T, error)) (T, error) {
	if c.remote == nil {
		var zero T
		return zero, &RemoteError{Op: op, Err: ErrOffline}
	}
	return fn(ctx)
}

// ListHabits returns all habits for the current identity.
func (c *Client) ListHabits(ctx context.Context) ([]Habit, error) {
	res, err := dispatch(ctx, c, "list habits",
		func(ctx context.Context) ([]Habit, error) { return c.remote.ListHabits(ctx) },
		c.local.ListHabits,
	)
	return res.data, err
}

// GetHabit returns one habit by id.
func (c *Client) GetHabit(ctx context.Context, id string) (*Habit, error) {
	res, err := dispatch(ctx, c, "get habit",
		func(ctx context.Context) (*Habit, error) { return c.remote.GetHabit(ctx, id) },
		func() (*Habit, error) { return c.local.GetHabit(id) },
	)
	return res.data, err
}

// CreateHabit creates a new habit with zeroed counters.
func (c *Client) CreateHabit(ctx context.Context, draft HabitDraft) (*Habit, error) {
	res, err := dispatch(ctx, c, "create habit",
		func(ctx context.Context) (*Habit, error) { return c.remote.CreateHabit(ctx, draft) },
		func() (*Habit, error) { return c.local.CreateHabit(draft) },
	)
	return res.data, err
}

// UpdateHabit merges a patch into an existing habit.
func (c *Client) UpdateHabit(ctx context.Context, id string, patch HabitPatch) (*Habit, error) {
	res, err := dispatch(ctx, c, "update habit",
		func(ctx context.Context) (*Habit, error) { return c.remote.UpdateHabit(ctx, id, patch) },
		func() (*Habit, error) { return c.local.UpdateHabit(id, patch) },
	)
	return res.data, err
}

// DeleteHabit removes a habit and all of its progress records.
func (c *Client) DeleteHabit(ctx context.Context, id string) error {
	_, err := dispatch(ctx, c, "delete habit",
		func(ctx context.Context) (struct{}, error) { return struct{}{}, c.remote.DeleteHabit(ctx, id) },
		func() (struct{}, error) { return struct{}{}, c.local.DeleteHabit(id) },
	)
	return err
}

// UpsertProgress records one habit's completion state for one date and
// recomputes that habit's derived counters.
func (c *Client) UpsertProgress(ctx context.Context, habitID, date string, completed bool, note string) (*ProgressRecord, error) {
	res, err := dispatch(ctx, c, "upsert progress",
		func(ctx context.Context) (*ProgressRecord, error) {
			return c.remote.UpsertProgress(ctx, habitID, date, completed, note)
		},
		func() (*ProgressRecord, error) {
			return c.local.UpsertProgress(habitID, date, completed, note)
		},
	)
	return res.data, err
}

// ProgressInRange returns one habit's records within [start, end], keyed by
// completion date.
func (c *Client) ProgressInRange(ctx context.Context, habitID, start, end string) (map[string]ProgressRecord, error) {
	res, err := dispatch(ctx, c, "progress range",
		func(ctx context.Context) (map[string]ProgressRecord, error) {
			return c.remote.ProgressInRange(ctx, habitID, start, end)
		},
		func() (map[string]ProgressRecord, error) {
			return c.local.ProgressInRange(habitID, start, end)
		},
	)
	return res.data, err
}

// DayProgress joins every habit with its completion state for one date.
func (c *Client) DayProgress(ctx context.Context, date string) ([]DayProgress, error) {
	res, err := dispatch(ctx, c, "day progress",
		func(ctx context.Context) ([]DayProgress, error) { return c.remote.DayProgress(ctx, date) },
		func() ([]DayProgress, error) { return c.local.DayProgress(date) },
	)
	return res.data, err
}

// MonthData builds the calendar grid for one month. month is 1-based.
func (c *Client) MonthData(ctx context.Context, year, month int) (*MonthData, error) {
	res, err := dispatch(ctx, c, "month data",
		func(ctx context.Context) (*MonthData, error) { return c.remote.MonthData(ctx, year, month) },
		func() (*MonthData, error) { return c.local.MonthData(year, month) },
	)
	return res.data, err
}

// SyncToRemote replays every locally-created habit and its progress history
// into the remote store. Returns the number of habits synced.
func (c *Client) SyncToRemote(ctx context.Context) (*SyncStats, error) {
	if c.remote == nil {
		return nil, ErrOffline
	}
	return NewReconciler(c.local, c.remote, c.log).Run(ctx)
}

// Watch consumes session lifecycle events and runs the reconciler once per
// sign-in transition. It returns when the event channel closes or ctx is
// done. The reconciler always creates fresh remote habits, so repeated
// sign-in/sign-out cycles will duplicate remote data; callers own that
// tradeoff.
func (c *Client) Watch(ctx context.Context, events <-chan SessionEvent) {
	signedIn := false
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case EventSignedIn:
				if signedIn {
					continue
				}
				signedIn = true
				stats, err := c.SyncToRemote(ctx)
				if err != nil {
					c.log.Error().Err(err).Msg("sign-in sync failed")
					continue
				}
				c.log.Info().
					Int("synced", stats.SyncedHabits).
					Int("total", stats.TotalHabits).
					Msg("sign-in sync complete")
			case EventSignedOut:
				signedIn = false
			}
		}
	}
}
