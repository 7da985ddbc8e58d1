package console

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/matheus3301/chatadmin/internal/console/listsync"
	"github.com/matheus3301/chatadmin/internal/docstore"
	"github.com/matheus3301/chatadmin/internal/entity"
)

// Stats are the dashboard totals.
type Stats struct {
	Users       int
	TourLeaders int
	Chats       int
	// Memberships counts member entries over all chats.
	Memberships int
}

// DashboardScreen computes Stats from the users and chats collections.
type DashboardScreen struct {
	store  docstore.Store
	logger *zap.Logger
	stats  *listsync.List[Stats]
}

// NewDashboardScreen creates the screen.
func NewDashboardScreen(store docstore.Store, logger *zap.Logger) *DashboardScreen {
	return &DashboardScreen{
		store:  store,
		logger: logger,
		stats:  listsync.New(func(Stats) string { return "" }),
	}
}

// Activate recomputes the totals.
func (s *DashboardScreen) Activate(ctx context.Context) error {
	err := s.stats.Load(ctx, func(ctx context.Context) ([]Stats, error) {
		st, err := s.compute(ctx)
		if err != nil {
			return nil, err
		}
		return []Stats{st}, nil
	})
	if errors.Is(err, listsync.ErrStale) {
		return nil
	}
	return err
}

func (s *DashboardScreen) compute(ctx context.Context) (Stats, error) {
	var st Stats
	users, err := s.store.List(ctx, entity.UsersCollection, docstore.Query{})
	if err != nil {
		return st, remoteFailure(s.logger, "list", entity.UsersCollection, "", err)
	}
	for _, d := range users {
		st.Users++
		if entity.UserFromDoc(d).EffectiveStatus() == entity.StatusTL {
			st.TourLeaders++
		}
	}
	chats, err := s.store.List(ctx, entity.ChatsCollection, docstore.Query{})
	if err != nil {
		return st, remoteFailure(s.logger, "list", entity.ChatsCollection, "", err)
	}
	for _, d := range chats {
		st.Chats++
		st.Memberships += len(entity.ChatFromDoc(d).Members)
	}
	return st, nil
}

// Deactivate drops the totals.
func (s *DashboardScreen) Deactivate() {
	s.stats.Invalidate()
}

// Stats returns the last computed totals and whether there are any.
func (s *DashboardScreen) Stats() (Stats, bool) {
	items := s.stats.Items()
	if len(items) == 0 {
		return Stats{}, false
	}
	return items[0], true
}
