package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gatehouse/internal/constants"
	"gatehouse/internal/db"
	"gatehouse/internal/models/entities"
)

func setupCollections(t *testing.T) *db.Collections {
	t.Helper()
	store, err := db.NewJSONFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return db.NewCollections(store, true, nil)
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func seedActive(t *testing.T, repo *ApplicationRepository, ids ...string) {
	t.Helper()
	for i, id := range ids {
		app := &entities.Application{
			ID:        id,
			Discord:   entities.DiscordIdentity{ID: "user-" + id, Username: "user" + id},
			Timestamp: time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
		}
		if err := repo.Append(context.Background(), app); err != nil {
			t.Fatalf("Failed to seed %s: %v", id, err)
		}
	}
}

func TestAppend_FillsDefaults(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewApplicationRepository(setupCollections(t), fixedClock(now))

	app := &entities.Application{Discord: entities.DiscordIdentity{ID: "42"}}
	if err := repo.Append(context.Background(), app); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if app.ID == "" {
		t.Error("Expected id to be assigned")
	}
	if app.Status != constants.StatusPending {
		t.Errorf("Expected pending, got %s", app.Status)
	}
	if app.Priority != constants.PriorityNormal {
		t.Errorf("Expected normal priority, got %s", app.Priority)
	}
	if app.ApplicationType != constants.DefaultApplicationType {
		t.Errorf("Expected whitelist type, got %s", app.ApplicationType)
	}
	if !app.Timestamp.Equal(now) {
		t.Errorf("Expected timestamp %v, got %v", now, app.Timestamp)
	}
}

func TestAppend_SameMillisecondGetsDistinctIDs(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewApplicationRepository(setupCollections(t), fixedClock(now))
	ctx := context.Background()

	first := &entities.Application{}
	second := &entities.Application{}
	if err := repo.Append(ctx, first); err != nil {
		t.Fatalf("First append failed: %v", err)
	}
	if err := repo.Append(ctx, second); err != nil {
		t.Fatalf("Second append failed: %v", err)
	}

	if first.ID == second.ID {
		t.Errorf("Expected distinct ids, both were %s", first.ID)
	}
}

func TestNextApplicationID_SkipsArchivedIDs(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	archived := []entities.Application{{ID: "1700000000000"}, {ID: "1700000000001"}}

	id := nextApplicationID(now, nil, archived)
	if id != "1700000000002" {
		t.Errorf("Expected 1700000000002, got %s", id)
	}
}

func TestMove_RemovesExactlyOneAndKeepsOrder(t *testing.T) {
	repo := NewApplicationRepository(setupCollections(t), nil)
	ctx := context.Background()
	seedActive(t, repo, "1", "2", "3")

	moved, err := repo.Move(ctx, "2", func(a *entities.Application) error {
		a.Status = constants.StatusApproved
		return nil
	})
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if moved.Status != constants.StatusApproved {
		t.Errorf("Expected approved, got %s", moved.Status)
	}

	active, _ := repo.ListActive(ctx)
	archived, _ := repo.ListArchived(ctx)
	if len(active) != 2 || active[0].ID != "1" || active[1].ID != "3" {
		t.Errorf("Expected active [1 3], got %+v", ids(active))
	}
	if len(archived) != 1 || archived[0].ID != "2" {
		t.Errorf("Expected archived [2], got %+v", ids(archived))
	}
}

func TestMove_UnknownIDChangesNothing(t *testing.T) {
	repo := NewApplicationRepository(setupCollections(t), nil)
	ctx := context.Background()
	seedActive(t, repo, "1")

	_, err := repo.Move(ctx, "nope", func(*entities.Application) error { return nil })
	if !errors.Is(err, constants.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	active, _ := repo.ListActive(ctx)
	archived, _ := repo.ListArchived(ctx)
	if len(active) != 1 || len(archived) != 0 {
		t.Errorf("Expected collections unchanged, got %d active / %d archived", len(active), len(archived))
	}
}

func TestFind_LooksInArchive(t *testing.T) {
	repo := NewApplicationRepository(setupCollections(t), nil)
	ctx := context.Background()
	seedActive(t, repo, "1")
	if _, err := repo.Move(ctx, "1", func(*entities.Application) error { return nil }); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	app, loc, err := repo.Find(ctx, "1")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if loc != LocationArchived || app.ID != "1" {
		t.Errorf("Expected 1 in archive, got %s in %s", app.ID, loc)
	}
}

func TestUpdate_WorksOnArchivedRecords(t *testing.T) {
	repo := NewApplicationRepository(setupCollections(t), nil)
	ctx := context.Background()
	seedActive(t, repo, "1")
	_, _ = repo.Move(ctx, "1", func(*entities.Application) error { return nil })

	updated, loc, err := repo.Update(ctx, "1", func(a *entities.Application) error {
		a.Notes = append(a.Notes, entities.Note{ID: "n1", Content: "late note"})
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if loc != LocationArchived || len(updated.Notes) != 1 {
		t.Errorf("Expected note on archived record, got %+v in %s", updated.Notes, loc)
	}
}

func TestBulkArchive_MovesSelectedOnly(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := NewApplicationRepository(setupCollections(t), fixedClock(now))
	ctx := context.Background()
	seedActive(t, repo, "1", "2", "3", "4", "5")

	moved, notFound, err := repo.BulkArchive(ctx, []string{"2", "4", "missing"}, nil)
	if err != nil {
		t.Fatalf("BulkArchive failed: %v", err)
	}
	if len(moved) != 2 {
		t.Errorf("Expected 2 moved, got %d", len(moved))
	}
	if len(notFound) != 1 || notFound[0] != "missing" {
		t.Errorf("Expected [missing] not found, got %v", notFound)
	}

	active, _ := repo.ListActive(ctx)
	if got := ids(active); len(got) != 3 || got[0] != "1" || got[1] != "3" || got[2] != "5" {
		t.Errorf("Expected active [1 3 5], got %v", got)
	}

	archived, _ := repo.ListArchived(ctx)
	if len(archived) != 2 {
		t.Fatalf("Expected 2 archived, got %d", len(archived))
	}
	for _, a := range archived {
		if a.ArchivedAt == nil || !a.ArchivedAt.Equal(now) {
			t.Errorf("Expected archivedAt %v on %s, got %v", now, a.ID, a.ArchivedAt)
		}
	}
}

func TestBulkUpdate_ReportsUnknownIDs(t *testing.T) {
	repo := NewApplicationRepository(setupCollections(t), nil)
	ctx := context.Background()
	seedActive(t, repo, "1", "2")

	updated, notFound, err := repo.BulkUpdate(ctx, []string{"1", "9"}, func(a *entities.Application) {
		a.AssignedTo = "mod"
	})
	if err != nil {
		t.Fatalf("BulkUpdate failed: %v", err)
	}
	if updated != 1 || len(notFound) != 1 {
		t.Errorf("Expected 1 updated and 1 not found, got %d / %v", updated, notFound)
	}

	app, _, _ := repo.Find(ctx, "1")
	if app.AssignedTo != "mod" {
		t.Errorf("Expected assignee mod, got %q", app.AssignedTo)
	}
}

func TestByUser_SplitsCollections(t *testing.T) {
	repo := NewApplicationRepository(setupCollections(t), nil)
	ctx := context.Background()
	seedActive(t, repo, "1", "2")
	_, _ = repo.Move(ctx, "2", func(*entities.Application) error { return nil })

	active, archived, err := repo.ByUser(ctx, "user-2")
	if err != nil {
		t.Fatalf("ByUser failed: %v", err)
	}
	if len(active) != 0 || len(archived) != 1 {
		t.Errorf("Expected 0 active / 1 archived, got %d / %d", len(active), len(archived))
	}
}

func ids(apps []entities.Application) []string {
	out := make([]string, len(apps))
	for i, a := range apps {
		out[i] = a.ID
	}
	return out
}

func TestAppend_KeepsUnknownLegacyKeys(t *testing.T) {
	ctx := context.Background()
	store, err := db.NewJSONFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	legacy := `[{"id":"1","timestamp":"2023-05-01T10:00:00Z",` +
		`"discord":{"id":"11","username":"alpha","global_name":"Alpha"},` +
		`"characterName":"John Doe","age":"21"}]`
	if err := store.Save(ctx, constants.CollectionApplications, []byte(legacy)); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}
	repo := NewApplicationRepository(db.NewCollections(store, true, nil), nil)

	if err := repo.Append(ctx, &entities.Application{Discord: entities.DiscordIdentity{ID: "22"}}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	raw, err := store.Load(ctx, constants.CollectionApplications)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		t.Fatalf("Stored document is not valid JSON: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0]["characterName"] != "John Doe" || records[0]["age"] != "21" {
		t.Errorf("Expected top-level answers to survive, got %v", records[0])
	}
	discord, _ := records[0]["discord"].(map[string]any)
	if discord["global_name"] != "Alpha" || discord["username"] != "alpha" {
		t.Errorf("Expected discord snapshot to survive, got %v", discord)
	}
	if _, ok := records[1]["characterName"]; ok {
		t.Error("Expected new record to carry no legacy keys")
	}

	if _, err := repo.Move(ctx, "1", func(a *entities.Application) error {
		a.Status = constants.StatusDenied
		return nil
	}); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	archived, _ := repo.ListArchived(ctx)
	if len(archived) != 1 || string(archived[0].Extra["characterName"]) != `"John Doe"` {
		t.Errorf("Expected archived record to keep its legacy keys, got %+v", archived)
	}
	if string(archived[0].Discord.Extra["global_name"]) != `"Alpha"` {
		t.Errorf("Expected archived discord snapshot to keep global_name, got %v", archived[0].Discord.Extra)
	}
}

func TestMove_AlreadyArchivedDropsStaleCopy(t *testing.T) {
	repo := NewApplicationRepository(setupCollections(t), nil)
	ctx := context.Background()
	seedActive(t, repo, "7")

	if _, err := repo.Move(ctx, "7", func(a *entities.Application) error {
		a.Status = constants.StatusApproved
		return nil
	}); err != nil {
		t.Fatalf("First move failed: %v", err)
	}
	// An interrupted move leaves the record in both collections.
	seedActive(t, repo, "7")

	_, err := repo.Move(ctx, "7", func(a *entities.Application) error {
		a.Status = constants.StatusDenied
		return nil
	})
	if !errors.Is(err, constants.ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}

	active, _ := repo.ListActive(ctx)
	archived, _ := repo.ListArchived(ctx)
	if len(active) != 0 {
		t.Errorf("Expected stale active copy to be dropped, got %v", ids(active))
	}
	if len(archived) != 1 || archived[0].Status != constants.StatusApproved {
		t.Errorf("Expected one archived copy with the first decision, got %+v", archived)
	}
}

func TestBulkArchive_SkipsAlreadyArchived(t *testing.T) {
	repo := NewApplicationRepository(setupCollections(t), nil)
	ctx := context.Background()
	seedActive(t, repo, "1", "2")
	_, _ = repo.Move(ctx, "1", func(*entities.Application) error { return nil })
	seedActive(t, repo, "1")

	moved, notFound, err := repo.BulkArchive(ctx, []string{"1", "2"}, nil)
	if err != nil {
		t.Fatalf("BulkArchive failed: %v", err)
	}
	if len(moved) != 1 || moved[0].ID != "2" || len(notFound) != 0 {
		t.Errorf("Expected only 2 moved, got %v (notFound %v)", ids(moved), notFound)
	}

	archived, _ := repo.ListArchived(ctx)
	if len(archived) != 2 {
		t.Errorf("Expected 2 archived records without duplicates, got %v", ids(archived))
	}
}

func TestAppendIf_GuardSeesActiveUnderLock(t *testing.T) {
	repo := NewApplicationRepository(setupCollections(t), nil)
	ctx := context.Background()
	seedActive(t, repo, "1")

	errDuplicate := errors.New("duplicate")
	err := repo.AppendIf(ctx, &entities.Application{Discord: entities.DiscordIdentity{ID: "user-1"}},
		func(active []entities.Application) error {
			for _, a := range active {
				if a.Discord.ID == "user-1" {
					return errDuplicate
				}
			}
			return nil
		})
	if !errors.Is(err, errDuplicate) {
		t.Fatalf("Expected guard error, got %v", err)
	}

	active, _ := repo.ListActive(ctx)
	if len(active) != 1 {
		t.Errorf("Expected nothing appended, got %v", ids(active))
	}
}
