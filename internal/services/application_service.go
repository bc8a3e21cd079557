package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gatehouse/internal/constants"
	"gatehouse/internal/db/repositories"
	"gatehouse/internal/logging"
	"gatehouse/internal/metrics"
	"gatehouse/internal/models/dtos"
	"gatehouse/internal/models/entities"

	"github.com/google/uuid"
)

// ApplicationService covers submission and the staff triage operations.
type ApplicationService struct {
	apps          *repositories.ApplicationRepository
	eligibility   *EligibilityService
	priority      *PriorityClassifier
	activity      *ActivityService
	notifications *NotificationService
	effects       *EffectRunner
	metrics       *metrics.MetricsRegistry
	now           func() time.Time
}

func NewApplicationService(
	apps *repositories.ApplicationRepository,
	eligibility *EligibilityService,
	priority *PriorityClassifier,
	activity *ActivityService,
	notifications *NotificationService,
	effects *EffectRunner,
	m *metrics.MetricsRegistry,
	now func() time.Time,
) *ApplicationService {
	if now == nil {
		now = time.Now
	}
	return &ApplicationService{
		apps:          apps,
		eligibility:   eligibility,
		priority:      priority,
		activity:      activity,
		notifications: notifications,
		effects:       effects,
		metrics:       m,
		now:           now,
	}
}

// Submit validates the answers against the type's form, checks eligibility
// and stores a new pending application.
func (s *ApplicationService) Submit(
	ctx context.Context,
	submitter entities.DiscordIdentity,
	req dtos.SubmitApplicationReq,
) (*dtos.SubmitResult, error) {
	if submitter.ID == "" {
		return nil, constants.ErrUnauthorized
	}
	if req.Answers == nil {
		return nil, fmt.Errorf("%w: answers are required", constants.ErrValidation)
	}
	typeID := strings.TrimSpace(req.ApplicationType)
	if typeID == "" {
		typeID = constants.DefaultApplicationType
	}

	appType, known, err := s.eligibility.ResolveType(ctx, typeID)
	if err != nil {
		return nil, err
	}
	answers := req.Answers
	if known {
		if answers, err = ValidateAnswers(appType, req.Answers); err != nil {
			return nil, err
		}
	}

	decision, err := s.eligibility.check(ctx, submitter.ID, appType)
	if err != nil {
		return nil, err
	}
	if !decision.CanReapply {
		return nil, &EligibilityError{Decision: *decision}
	}

	app := &entities.Application{
		Discord:         submitter,
		ApplicationType: typeID,
		Status:          constants.StatusPending,
		Priority:        s.priority.Classify(ctx, submitter.ID),
		Answers:         answers,
		Timestamp:       s.now(),
	}
	if err := s.apps.AppendIf(ctx, app, pendingGuard(submitter.ID, appType)); err != nil {
		return nil, err
	}
	s.metrics.ApplicationSubmitted(typeID, string(app.Priority))

	typeName := appType.Name
	outcomes := s.effects.Run(ctx, []Effect{
		{
			Name: EffectAuditSubmitted,
			Run: func(ctx context.Context) error {
				return s.activity.Log(ctx, ActivityEvent{
					Type:       constants.ActivityApplicationSubmitted,
					UserID:     submitter.ID,
					UserName:   submitter.Username,
					TargetID:   app.ID,
					TargetName: typeName,
				})
			},
		},
		{
			Name: EffectNotifyNew,
			Run: func(ctx context.Context) error {
				return s.notifications.Notify(ctx, constants.NotificationNewApplication,
					"New "+typeName+" application",
					fmt.Sprintf("%s submitted a %s application (%s priority)", submitter.Username, typeName, app.Priority),
					app.ID)
			},
		},
	})

	return &dtos.SubmitResult{Application: app, Effects: outcomes}, nil
}

// ValidateAnswers checks required fields, select options, numbers and
// checkboxes, and drops answers for fields the type does not define.
func ValidateAnswers(t entities.ApplicationType, answers map[string]any) (map[string]any, error) {
	if len(t.Fields) == 0 {
		return answers, nil
	}

	clean := make(map[string]any, len(t.Fields))
	for _, f := range t.Fields {
		v, present := answers[f.ID]
		if !present || isBlank(v) {
			if f.Required {
				return nil, fmt.Errorf("%w: %s is required", constants.ErrValidation, labelOf(f))
			}
			continue
		}

		switch f.Type {
		case constants.FieldNumber:
			if !isNumber(v) {
				return nil, fmt.Errorf("%w: %s must be a number", constants.ErrValidation, labelOf(f))
			}
		case constants.FieldCheckbox:
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be true or false", constants.ErrValidation, labelOf(f))
			}
			if f.Required && !b {
				return nil, fmt.Errorf("%w: %s must be checked", constants.ErrValidation, labelOf(f))
			}
		case constants.FieldSelect:
			str, ok := v.(string)
			if !ok || !contains(f.Options, str) {
				return nil, fmt.Errorf("%w: %s must be one of %s", constants.ErrValidation, labelOf(f), strings.Join(f.Options, ", "))
			}
		default:
			if _, ok := v.(string); !ok {
				return nil, fmt.Errorf("%w: %s must be text", constants.ErrValidation, labelOf(f))
			}
		}
		clean[f.ID] = v
	}
	return clean, nil
}

func labelOf(f entities.FieldDefinition) string {
	if f.Label != "" {
		return f.Label
	}
	return f.ID
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

func isNumber(v any) bool {
	switch x := v.(type) {
	case float64, int, int64:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return err == nil
	}
	return false
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

// Mine returns the caller's applications from both collections.
func (s *ApplicationService) Mine(ctx context.Context, userID string) (*dtos.MyApplicationsResponse, error) {
	active, archived, err := s.apps.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dtos.MyApplicationsResponse{Active: active, Archived: archived}, nil
}

// ListActive returns active applications matching filter, urgent first and
// oldest first within a priority.
func (s *ApplicationService) ListActive(ctx context.Context, filter dtos.ApplicationFilter) ([]entities.Application, error) {
	apps, err := s.apps.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := filterApplications(apps, filter)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].EffectivePriority().Rank(), out[j].EffectivePriority().Rank()
		if pi != pj {
			return pi < pj
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// ListArchived returns decided applications, most recently decided first.
func (s *ApplicationService) ListArchived(ctx context.Context, filter dtos.ApplicationFilter) ([]entities.Application, error) {
	apps, err := s.apps.ListArchived(ctx)
	if err != nil {
		return nil, err
	}
	out := filterApplications(apps, filter)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DecidedAt().After(out[j].DecidedAt())
	})
	return out, nil
}

func filterApplications(apps []entities.Application, f dtos.ApplicationFilter) []entities.Application {
	out := make([]entities.Application, 0, len(apps))
	for _, a := range apps {
		if f.Status != "" && a.EffectiveStatus() != f.Status {
			continue
		}
		if f.Type != "" && a.EffectiveType() != f.Type {
			continue
		}
		if f.AssignedTo != "" && a.AssignedTo != f.AssignedTo {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (s *ApplicationService) Get(ctx context.Context, id string) (*entities.Application, repositories.Location, error) {
	return s.apps.Find(ctx, id)
}

// AddNote appends a staff note. Notes work on active and archived records.
func (s *ApplicationService) AddNote(ctx context.Context, id string, author entities.Reviewer, content string) (*entities.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: note content is required", constants.ErrValidation)
	}

	note := entities.Note{
		ID:         uuid.New().String(),
		AuthorID:   author.ID,
		AuthorName: author.Username,
		Content:    content,
		Timestamp:  s.now(),
	}
	app, _, err := s.apps.Update(ctx, id, func(a *entities.Application) error {
		a.Notes = append(a.Notes, note)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEvent{
		Type:       constants.ActivityNoteAdded,
		UserID:     author.ID,
		UserName:   author.Username,
		TargetID:   id,
		TargetName: app.Discord.Username,
	})
	return &note, nil
}

// SetPriority changes the triage priority of an active application.
func (s *ApplicationService) SetPriority(ctx context.Context, id string, p constants.Priority, actor entities.Reviewer) (*entities.Application, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %s", constants.ErrValidation, constants.MsgInvalidPriority)
	}

	app, err := s.updateActive(ctx, id, func(a *entities.Application) {
		a.Priority = p
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEvent{
		Type:       constants.ActivityPriorityChanged,
		UserID:     actor.ID,
		UserName:   actor.Username,
		TargetID:   id,
		TargetName: app.Discord.Username,
		Details:    "priority set to " + string(p),
	})
	return app, nil
}

// Assign sets or clears (empty assignee) the staff member on an application.
func (s *ApplicationService) Assign(ctx context.Context, id, assignee string, actor entities.Reviewer) (*entities.Application, error) {
	assignee = strings.TrimSpace(assignee)
	app, err := s.updateActive(ctx, id, func(a *entities.Application) {
		a.AssignedTo = assignee
	})
	if err != nil {
		return nil, err
	}

	details := "unassigned"
	if assignee != "" {
		details = "assigned to " + assignee
	}
	s.activity.Record(ctx, ActivityEvent{
		Type:       constants.ActivityAssigned,
		UserID:     actor.ID,
		UserName:   actor.Username,
		TargetID:   id,
		TargetName: app.Discord.Username,
		Details:    details,
	})
	return app, nil
}

// updateActive applies mutate to an active application only; decided
// applications keep their triage fields.
func (s *ApplicationService) updateActive(ctx context.Context, id string, mutate func(*entities.Application)) (*entities.Application, error) {
	app, _, err := s.apps.Update(ctx, id, func(a *entities.Application) error {
		if a.ArchivedAt != nil || a.ReviewedAt != nil {
			return fmt.Errorf("%w: %s", constants.ErrConflict, constants.MsgAlreadyReviewed)
		}
		mutate(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// Bulk applies one action to many active applications in a single write.
func (s *ApplicationService) Bulk(ctx context.Context, req dtos.BulkActionReq, actor entities.Reviewer) (*dtos.BulkResult, error) {
	if len(req.IDs) == 0 {
		return nil, fmt.Errorf("%w: ids are required", constants.ErrValidation)
	}

	result := &dtos.BulkResult{Action: req.Action}
	var err error

	switch req.Action {
	case dtos.BulkAssign:
		assignee := strings.TrimSpace(req.AssignedTo)
		result.Updated, result.NotFound, err = s.apps.BulkUpdate(ctx, req.IDs, func(a *entities.Application) {
			a.AssignedTo = assignee
		})
	case dtos.BulkPriority:
		if !req.Priority.Valid() {
			return nil, fmt.Errorf("%w: %s", constants.ErrValidation, constants.MsgInvalidPriority)
		}
		result.Updated, result.NotFound, err = s.apps.BulkUpdate(ctx, req.IDs, func(a *entities.Application) {
			a.Priority = req.Priority
		})
	case dtos.BulkArchive:
		var moved []entities.Application
		moved, result.NotFound, err = s.apps.BulkArchive(ctx, req.IDs, nil)
		result.Updated = len(moved)
		if err == nil {
			for _, a := range moved {
				if nerr := s.notifications.Notify(ctx, constants.NotificationArchived,
					"Application archived",
					fmt.Sprintf("%s's application was archived by %s", a.Discord.Username, actor.Username),
					a.ID); nerr != nil {
					logging.Warn("Archive notification failed", "application_id", a.ID, "error", nerr.Error())
				}
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown bulk action %q", constants.ErrValidation, req.Action)
	}
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEvent{
		Type:     constants.ActivityBulkAction,
		UserID:   actor.ID,
		UserName: actor.Username,
		Details:  fmt.Sprintf("%s on %d application(s)", req.Action, result.Updated),
	})
	return result, nil
}

// Stats summarizes both collections for the dashboard.
func (s *ApplicationService) Stats(ctx context.Context) (*dtos.ApplicationStats, error) {
	active, err := s.apps.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	archived, err := s.apps.ListArchived(ctx)
	if err != nil {
		return nil, err
	}

	stats := &dtos.ApplicationStats{
		ByType:     map[string]int{},
		ByPriority: map[string]int{},
	}
	for _, a := range active {
		if a.IsPending() {
			stats.Pending++
			stats.ByPriority[string(a.EffectivePriority())]++
			if a.AssignedTo == "" {
				stats.Unassigned++
			}
		}
		stats.ByType[a.EffectiveType()]++
	}
	for _, a := range archived {
		switch a.EffectiveStatus() {
		case constants.StatusApproved:
			stats.Approved++
		case constants.StatusDenied:
			stats.Denied++
		}
		stats.ByType[a.EffectiveType()]++
	}
	return stats, nil
}
