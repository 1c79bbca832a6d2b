package notice

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ipdpulse/backend/core"
	"github.com/ipdpulse/backend/core/group"
)

// fakeRepo sorts query results the way the SQL repository does:
// pinned first, then newest first.
type fakeRepo struct {
	notices map[string]Notice
	nextID  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{notices: make(map[string]Notice)}
}

func (r *fakeRepo) CreateNotice(ctx context.Context, n Notice) (Notice, error) {
	r.nextID++
	n.ID = "ntc-" + string(rune('0'+r.nextID))
	r.notices[n.ID] = n
	return n, nil
}

func (r *fakeRepo) GetNoticeByID(ctx context.Context, id string) (Notice, error) {
	n, ok := r.notices[id]
	if !ok {
		return Notice{}, ErrNotFound
	}
	return n, nil
}

func (r *fakeRepo) QueryNoticesByGroup(ctx context.Context, groupID string) ([]Notice, error) {
	var notices []Notice
	for _, n := range r.notices {
		if !n.GroupID.Valid || n.GroupID.String == groupID {
			notices = append(notices, n)
		}
	}
	sort.Slice(notices, func(i, j int) bool {
		if notices[i].IsPinned != notices[j].IsPinned {
			return notices[i].IsPinned
		}
		return notices[i].CreatedAt.After(notices[j].CreatedAt)
	})
	return notices, nil
}

func (r *fakeRepo) SetNoticePinned(ctx context.Context, id string, pinned bool) (Notice, error) {
	n, ok := r.notices[id]
	if !ok {
		return Notice{}, ErrNotFound
	}
	n.IsPinned = pinned
	r.notices[id] = n
	return n, nil
}

// fakeGroups treats "member-" prefixed user IDs as members of any group.
type fakeGroups struct{}

func (fakeGroups) Belongs(ctx context.Context, groupID, userID string) (bool, error) {
	return strings.HasPrefix(userID, "member-"), nil
}

func setupSvc(t *testing.T) (*Service, *fakeRepo) {
	t.Helper()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	repo := newFakeRepo()
	return NewService(repo, fakeGroups{}, validate), repo
}

func TestPost(t *testing.T) {
	svc, repo := setupSvc(t)
	ctx := context.Background()

	// broadcast, no membership check involved
	n, err := svc.Post(ctx, NewNotice{Title: "Welcome", Content: "Semester kickoff"}, "outsider-admin")
	if err != nil {
		t.Fatalf("Post() broadcast failed: %v", err)
	}
	if n.GroupID.Valid {
		t.Errorf("broadcast notice has group_id %q, want none", n.GroupID.String)
	}

	// group-scoped requires mentorship of that group
	_, err = svc.Post(ctx, NewNotice{
		Title:   "Deadline",
		Content: "Friday",
		GroupID: null.StringFrom("grp-1"),
	}, "outsider-1")
	if errors.Cause(err) != group.ErrNotMember {
		t.Errorf("Post() error = %v, want %v", err, group.ErrNotMember)
	}

	n, err = svc.Post(ctx, NewNotice{
		Title:   "Deadline",
		Content: "Friday",
		GroupID: null.StringFrom("grp-1"),
	}, "member-mentor")
	if err != nil {
		t.Fatalf("Post() group-scoped failed: %v", err)
	}
	if n.CreatedBy != "member-mentor" {
		t.Errorf("created_by = %s, want member-mentor", n.CreatedBy)
	}

	// missing content
	if _, err = svc.Post(ctx, NewNotice{Title: "No body"}, "member-mentor"); err == nil {
		t.Error("Post() expected a validation error on missing content")
	}
	if len(repo.notices) != 2 {
		t.Errorf("repo holds %d notices, want 2", len(repo.notices))
	}
}

func TestPin(t *testing.T) {
	svc, repo := setupSvc(t)
	ctx := context.Background()

	n, err := svc.Post(ctx, NewNotice{Title: "Welcome", Content: "Kickoff"}, "member-mentor")
	if err != nil {
		t.Fatalf("Post() failed: %v", err)
	}

	pinned, err := svc.Pin(ctx, n.ID, true, "member-mentor")
	if err != nil {
		t.Fatalf("Pin() failed: %v", err)
	}
	if !pinned.IsPinned {
		t.Error("Pin(true) did not pin the notice")
	}

	unpinned, err := svc.Pin(ctx, n.ID, false, "member-mentor")
	if err != nil {
		t.Fatalf("Pin() failed: %v", err)
	}
	if unpinned.IsPinned {
		t.Error("Pin(false) did not unpin the notice")
	}

	if _, err = svc.Pin(ctx, "nope", true, "member-mentor"); errors.Cause(err) != ErrNotFound {
		t.Errorf("Pin() error = %v, want %v", err, ErrNotFound)
	}

	// group-scoped notices require mentorship of that group
	scoped, err := svc.Post(ctx, NewNotice{
		Title:   "Deadline",
		Content: "Friday",
		GroupID: null.StringFrom("grp-1"),
	}, "member-mentor")
	if err != nil {
		t.Fatalf("Post() group-scoped failed: %v", err)
	}
	if _, err = svc.Pin(ctx, scoped.ID, true, "outsider-1"); errors.Cause(err) != group.ErrNotMember {
		t.Errorf("Pin() error = %v, want %v", err, group.ErrNotMember)
	}
	if got, _ := repo.GetNoticeByID(ctx, scoped.ID); got.IsPinned {
		t.Error("outsider's pin was persisted")
	}
	if _, err = svc.Pin(ctx, scoped.ID, true, "member-mentor"); err != nil {
		t.Errorf("Pin() by the group's mentor failed: %v", err)
	}
}

func TestListForGroup(t *testing.T) {
	svc, _ := setupSvc(t)
	ctx := context.Background()

	post := func(title string, groupID null.String) Notice {
		n, err := svc.Post(ctx, NewNotice{Title: title, Content: "body", GroupID: groupID}, "member-mentor")
		if err != nil {
			t.Fatalf("Post(%s) failed: %v", title, err)
		}
		return n
	}

	post("broadcast", null.String{})
	scoped := post("scoped", null.StringFrom("grp-1"))
	post("other group", null.StringFrom("grp-2"))

	if _, err := svc.Pin(ctx, scoped.ID, true, "member-mentor"); err != nil {
		t.Fatalf("Pin() failed: %v", err)
	}

	notices, err := svc.ListForGroup(ctx, "grp-1")
	if err != nil {
		t.Fatalf("ListForGroup() failed: %v", err)
	}
	if len(notices) != 2 {
		t.Fatalf("ListForGroup() returned %d notices, want 2", len(notices))
	}
	// the pinned group notice sorts before the broadcast
	if notices[0].Title != "scoped" {
		t.Errorf("notices[0].Title = %q, want %q", notices[0].Title, "scoped")
	}
	if notices[1].Title != "broadcast" {
		t.Errorf("notices[1].Title = %q, want %q", notices[1].Title, "broadcast")
	}
}
