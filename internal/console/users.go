package console

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/matheus3301/chatadmin/internal/console/edit"
	"github.com/matheus3301/chatadmin/internal/console/filter"
	"github.com/matheus3301/chatadmin/internal/console/listsync"
	"github.com/matheus3301/chatadmin/internal/docstore"
	"github.com/matheus3301/chatadmin/internal/entity"
)

// DefaultPageSize is the number of users per page.
const DefaultPageSize = 10

// UserRow is one line of the users table. No counts from 1 across pages.
type UserRow struct {
	No   int
	User entity.User
}

// UsersScreen is the users table: filter, pages and inline status edit.
type UsersScreen struct {
	store    docstore.Store
	logger   *zap.Logger
	pageSize int

	list  *listsync.List[entity.User]
	edits *edit.Tracker[entity.Status]

	mu     sync.Mutex
	filter filter.UserFilter
	page   int
}

// NewUsersScreen creates the screen. exclusive limits editing to one row.
func NewUsersScreen(store docstore.Store, logger *zap.Logger, pageSize int, exclusive bool) *UsersScreen {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &UsersScreen{
		store:    store,
		logger:   logger,
		pageSize: pageSize,
		list:     listsync.New(func(u entity.User) string { return u.ID }),
		edits:    edit.NewTracker[entity.Status](exclusive),
	}
}

// Activate fetches users ordered by display name.
func (s *UsersScreen) Activate(ctx context.Context) error {
	err := s.list.Load(ctx, func(ctx context.Context) ([]entity.User, error) {
		docs, err := s.store.List(ctx, entity.UsersCollection, docstore.Query{OrderBy: "displayName"})
		if err != nil {
			return nil, err
		}
		users := make([]entity.User, 0, len(docs))
		for _, d := range docs {
			users = append(users, entity.UserFromDoc(d))
		}
		return users, nil
	})
	if errors.Is(err, listsync.ErrStale) {
		return nil
	}
	if err != nil {
		return remoteFailure(s.logger, "list", entity.UsersCollection, "", err)
	}
	s.clampPage()
	return nil
}

// Deactivate forgets the list and any edits; calls in flight are dropped.
func (s *UsersScreen) Deactivate() {
	s.list.Invalidate()
	s.edits.Reset()
}

// All returns every loaded user.
func (s *UsersScreen) All() []entity.User {
	return s.list.Items()
}

// Filter returns the active filter.
func (s *UsersScreen) Filter() filter.UserFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilter narrows the displayed users and goes back to the first page.
func (s *UsersScreen) SetFilter(f filter.UserFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	s.page = 0
}

// ClearFilter shows every loaded user again without fetching.
func (s *UsersScreen) ClearFilter() {
	s.SetFilter(filter.UserFilter{})
}

// Visible returns the users passing the filter, across all pages.
func (s *UsersScreen) Visible() []entity.User {
	f := s.Filter()
	return f.Apply(s.list.Items())
}

// Pages returns the page count, at least 1.
func (s *UsersScreen) Pages() int {
	return pagesFor(len(s.Visible()), s.pageSize)
}

// PageIndex returns the zero-based current page.
func (s *UsersScreen) PageIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Page returns the rows of the current page.
func (s *UsersScreen) Page() []UserRow {
	visible := s.Visible()
	s.mu.Lock()
	page := min(s.page, pagesFor(len(visible), s.pageSize)-1)
	s.mu.Unlock()

	start := page * s.pageSize
	end := min(start+s.pageSize, len(visible))
	rows := make([]UserRow, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, UserRow{No: i + 1, User: visible[i]})
	}
	return rows
}

// NextPage advances one page and reports whether it moved.
func (s *UsersScreen) NextPage() bool {
	pages := s.Pages()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page+1 >= pages {
		return false
	}
	s.page++
	return true
}

// PrevPage goes back one page and reports whether it moved.
func (s *UsersScreen) PrevPage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == 0 {
		return false
	}
	s.page--
	return true
}

func (s *UsersScreen) clampPage() {
	pages := s.Pages()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = min(s.page, pages-1)
}

func pagesFor(n, size int) int {
	if n == 0 {
		return 1
	}
	return (n + size - 1) / size
}

// EditState returns the edit state of a row.
func (s *UsersScreen) EditState(id string) edit.State {
	return s.edits.State(id)
}

// StagedStatus returns the staged status of a row being edited.
func (s *UsersScreen) StagedStatus(id string) (entity.Status, bool) {
	return s.edits.Staged(id)
}

// BeginEdit starts editing the status of user id, staging its current
// value. Edits dropped by this call are returned. A user not in the list is
// ignored.
func (s *UsersScreen) BeginEdit(id string) []edit.Abandoned[entity.Status] {
	u, ok := s.list.Get(id)
	if !ok {
		return nil
	}
	return s.edits.Begin(id, u.EffectiveStatus())
}

// StageStatus changes the staged status of a row being edited.
func (s *UsersScreen) StageStatus(id string, status entity.Status) bool {
	return s.edits.Stage(id, status)
}

// CancelEdit abandons the edit of id.
func (s *UsersScreen) CancelEdit(id string) {
	s.edits.Cancel(id)
}

// SaveEdit writes the staged status of id and updates the list.
func (s *UsersScreen) SaveEdit(ctx context.Context, id string) error {
	u, ok := s.list.Get(id)
	if !ok {
		s.edits.Cancel(id)
		return nil
	}
	err := s.edits.Commit(ctx, id, validateStatus, func(ctx context.Context, status entity.Status) error {
		_, err := s.list.Replace(ctx, id, func(ctx context.Context) (entity.User, error) {
			if err := s.store.Update(ctx, entity.UsersCollection, id, map[string]any{"status": string(status)}); err != nil {
				return entity.User{}, remoteFailure(s.logger, "update", entity.UsersCollection, id, err)
			}
			u.Status = status
			return u, nil
		})
		return err
	})
	if errors.Is(err, edit.ErrNotEditing) {
		return nil
	}
	return err
}

func validateStatus(status entity.Status) error {
	if _, err := entity.ParseStatus(string(status)); err != nil {
		return &ValidationError{Field: "status", Message: err.Error()}
	}
	return nil
}
