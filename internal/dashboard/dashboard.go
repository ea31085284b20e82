// Package dashboard lists a user's saved playlists.
//
// The list is fed by a [store.Store] subscription and nothing else: delete and archive calls
// never touch the local lists, they wait for the next snapshot to reflect the write.
package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
	"github.com/desertthunder/maestro/internal/store"
	"github.com/desertthunder/maestro/internal/wizard"
)

const loadFailed = "Failed to load your mixtapes."

// Dashboard partitions the session's playlists into active and archived entries.
type Dashboard struct {
	store   *store.Store
	session models.Session
	notices *wizard.Notices
	logger  *log.Logger

	mu            sync.Mutex
	active        []*models.Playlist
	archived      []*models.Playlist
	loaded        bool
	err           error
	pendingDelete string
	unsubscribe   func()
}

// New returns a closed dashboard. A nil notices creates a private queue and a nil logger
// writes to stderr.
func New(s *store.Store, session models.Session, notices *wizard.Notices, logger *log.Logger) *Dashboard {
	if notices == nil {
		notices = wizard.NewNotices(0, 0)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Dashboard{
		store:   s,
		session: session,
		notices: notices,
		logger:  logger.With("component", "dashboard"),
	}
}

// Notices returns the queue failures are reported to.
func (d *Dashboard) Notices() *wizard.Notices { return d.notices }

// Open subscribes to the session's collection. The first snapshot is applied before Open
// returns. onChange, when set, runs after every snapshot; it must not call [Dashboard.Close].
//
// Opening an open dashboard replaces the subscription.
func (d *Dashboard) Open(ctx context.Context, onChange func()) error {
	if err := d.session.Require(); err != nil {
		return err
	}
	d.Close()

	unsubscribe, err := d.store.Subscribe(ctx, d.session, func(snap store.Snapshot) {
		d.apply(snap)
		if onChange != nil {
			onChange()
		}
	})
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.unsubscribe = unsubscribe
	d.mu.Unlock()
	return nil
}

// Close ends the subscription. No onChange call starts after Close returns.
func (d *Dashboard) Close() {
	d.mu.Lock()
	unsubscribe := d.unsubscribe
	d.unsubscribe = nil
	d.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (d *Dashboard) apply(snap store.Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.loaded = true
	if snap.Err != nil {
		d.err = snap.Err
		d.logger.Warn("loading playlists failed", "user", d.session.UserID, "error", snap.Err)
		d.notices.Error(loadFailed)
		return
	}

	d.err = nil
	d.active, d.archived = Partition(snap.Playlists)

	if d.pendingDelete != "" && d.find(d.pendingDelete) == nil {
		d.pendingDelete = ""
	}
}

// Partition splits playlists into active and archived entries, keeping their order.
func Partition(playlists []*models.Playlist) (active, archived []*models.Playlist) {
	active = []*models.Playlist{}
	archived = []*models.Playlist{}
	for _, p := range playlists {
		if p.IsArchived() {
			archived = append(archived, p)
		} else {
			active = append(active, p)
		}
	}
	return active, archived
}

// Loaded reports whether a snapshot has arrived.
func (d *Dashboard) Loaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded
}

// Err returns the error of the last snapshot, if it failed.
func (d *Dashboard) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Active returns the unarchived playlists, most recently updated first.
func (d *Dashboard) Active() []*models.Playlist {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*models.Playlist(nil), d.active...)
}

// Archived returns the archived playlists, most recently updated first.
func (d *Dashboard) Archived() []*models.Playlist {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*models.Playlist(nil), d.archived...)
}

// Lookup returns the listed playlist with id.
func (d *Dashboard) Lookup(id string) (*models.Playlist, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p := d.find(id); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
}

func (d *Dashboard) find(id string) *models.Playlist {
	for _, list := range [][]*models.Playlist{d.active, d.archived} {
		for _, p := range list {
			if p.ID() == id {
				return p
			}
		}
	}
	return nil
}

// RequestDelete marks id for deletion. Nothing is deleted until [Dashboard.ConfirmDelete].
func (d *Dashboard) RequestDelete(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.find(id) == nil {
		return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}
	d.pendingDelete = id
	return nil
}

// PendingDelete returns the playlist awaiting confirmation.
func (d *Dashboard) PendingDelete() (*models.Playlist, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pendingDelete == "" {
		return nil, false
	}
	p := d.find(d.pendingDelete)
	return p, p != nil
}

// CancelDelete forgets the pending deletion.
func (d *Dashboard) CancelDelete() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pendingDelete = ""
}

// ConfirmDelete deletes the pending playlist. The pending mark is cleared whether or not the
// delete succeeds.
func (d *Dashboard) ConfirmDelete(ctx context.Context) error {
	d.mu.Lock()
	id := d.pendingDelete
	d.pendingDelete = ""
	d.mu.Unlock()

	if id == "" {
		return fmt.Errorf("%w: no playlist is waiting for deletion", shared.ErrInvalidArgument)
	}

	if err := d.store.Delete(ctx, d.session, id); err != nil {
		d.logger.Warn("deleting playlist failed", "id", id, "error", err)
		d.notices.Error("Failed to delete mixtape.")
		return err
	}
	d.logger.Info("playlist deleted", "id", id)
	return nil
}

// ToggleArchive flips the archive flag of id. The store refreshes updatedAt, so the entry
// moves to the top of its new list once the subscription delivers it.
func (d *Dashboard) ToggleArchive(ctx context.Context, id string) error {
	p, err := d.Lookup(id)
	if err != nil {
		return err
	}

	archive := !p.IsArchived()
	if _, err := d.store.SetArchived(ctx, d.session, id, archive); err != nil {
		verb := "archive"
		if !archive {
			verb = "unarchive"
		}
		d.logger.Warn("toggling archive failed", "id", id, "archive", archive, "error", err)
		d.notices.Error(fmt.Sprintf("Failed to %s mixtape.", verb))
		return err
	}
	return nil
}

// Edit returns the playlist to open in the wizard's update mode.
func (d *Dashboard) Edit(id string) (*models.Playlist, error) {
	return d.open(id, "edit")
}

// Remix returns the playlist to open in the wizard's remix mode.
func (d *Dashboard) Remix(id string) (*models.Playlist, error) {
	return d.open(id, "remix")
}

func (d *Dashboard) open(id, action string) (*models.Playlist, error) {
	p, err := d.Lookup(id)
	if err != nil {
		return nil, err
	}
	if p.IsArchived() {
		err := fmt.Errorf("%w: Unarchive first to %s.", shared.ErrArchived, action)
		d.notices.Error(shared.Describe(err))
		return nil, err
	}
	return p, nil
}
