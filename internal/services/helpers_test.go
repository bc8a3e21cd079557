package services

import (
	"context"
	"testing"
	"time"

	"gatehouse/internal/common"
	"gatehouse/internal/constants"
	"gatehouse/internal/db"
	"gatehouse/internal/db/repositories"
	"gatehouse/internal/providers"
)

type mockRoleResolver struct {
	memberRolesFunc func(ctx context.Context, userID string) ([]string, error)
}

func (m *mockRoleResolver) MemberRoles(ctx context.Context, userID string) ([]string, error) {
	return m.memberRolesFunc(ctx, userID)
}

type mockMessenger struct {
	sendDecisionFunc func(ctx context.Context, userID string, msg providers.DecisionMessage) error
}

func (m *mockMessenger) SendDecision(ctx context.Context, userID string, msg providers.DecisionMessage) error {
	return m.sendDecisionFunc(ctx, userID, msg)
}

type mockMailer struct {
	sendFunc func(ctx context.Context, to, subject, body string) error
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	return m.sendFunc(ctx, to, subject, body)
}

type mockQueue struct {
	items []*common.EffectQueueItem
	err   error
}

func (m *mockQueue) Enqueue(_ context.Context, _ string, item *common.EffectQueueItem) error {
	if m.err != nil {
		return m.err
	}
	m.items = append(m.items, item)
	return nil
}

// testEnv wires every service over a temp-dir JSON store.
type testEnv struct {
	now   time.Time
	repos struct {
		apps      *repositories.ApplicationRepository
		types     *repositories.ApplicationTypeRepository
		bans      *repositories.BanListRepository
		blacklist *repositories.BanListRepository
		activity  *repositories.ActivityLogRepository
		notes     *repositories.NotificationRepository
	}
	activity      *ActivityService
	notifications *NotificationService
	eligibility   *EligibilityService
	applications  *ApplicationService
	review        *ReviewService
	types         *ApplicationTypeService
	bans          *ModerationService
	queue         *mockQueue
}

type envOptions struct {
	roles  providers.RoleResolver
	dm     providers.DirectMessenger
	mailer providers.Mailer
	prio   []string
}

func newTestEnv(t *testing.T, now time.Time, opts envOptions) *testEnv {
	t.Helper()

	store, err := db.NewJSONFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	cols := db.NewCollections(store, true, nil)
	clock := func() time.Time { return now }

	env := &testEnv{now: now, queue: &mockQueue{}}
	env.repos.apps = repositories.NewApplicationRepository(cols, clock)
	env.repos.types = repositories.NewApplicationTypeRepository(cols)
	env.repos.bans = repositories.NewBanListRepository(cols, constants.CollectionBans)
	env.repos.blacklist = repositories.NewBanListRepository(cols, constants.CollectionBlacklist)
	env.repos.activity = repositories.NewActivityLogRepository(cols)
	env.repos.notes = repositories.NewNotificationRepository(cols)

	env.activity = NewActivityService(env.repos.activity, clock)
	env.notifications = NewNotificationService(env.repos.notes, clock)
	env.eligibility = NewEligibilityService(env.repos.apps, env.repos.types, env.repos.bans, env.repos.blacklist, nil, clock)
	effects := NewEffectRunner(env.queue, nil, clock)
	delivery := NewDecisionDelivery(opts.dm, opts.mailer, "Test Server")
	priority := NewPriorityClassifier(opts.roles, opts.prio)

	env.applications = NewApplicationService(env.repos.apps, env.eligibility, priority, env.activity, env.notifications, effects, nil, clock)
	env.review = NewReviewService(env.repos.apps, env.eligibility, env.activity, env.notifications, delivery, effects, nil, clock)
	env.types = NewApplicationTypeService(env.repos.types, env.activity)
	env.bans = NewBanService(env.repos.bans, env.activity, clock)
	return env
}
