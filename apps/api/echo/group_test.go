package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ipdpulse/backend/core/group"
)

func Test_groupApi_create(t *testing.T) {
	env := setup(t)
	mentor := env.createUser(t, "Dr Sy", "sy@test.test", "mentor", true)
	student := env.createUser(t, "Awa Ndiaye", "awa@test.test", "student", true)

	tests := []httpTest{
		{
			name:     "mentor creates a group",
			body:     marchallObj(t, group.NewGroup{Name: "Smart Irrigation"}),
			token:    getToken(t, env.conf, mentor),
			wantCode: http.StatusCreated,
		},
		{
			name:     "explicit code",
			body:     marchallObj(t, group.NewGroup{Name: "Campus Bot", Code: "P8K2M9"}),
			token:    getToken(t, env.conf, mentor),
			wantCode: http.StatusCreated,
		},
		{
			name:     "duplicate explicit code",
			body:     marchallObj(t, group.NewGroup{Name: "Copy", Code: "P8K2M9"}),
			token:    getToken(t, env.conf, mentor),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": group.ErrCodeExists.Error()}),
		},
		{
			name:     "missing name",
			body:     marchallObj(t, group.NewGroup{}),
			token:    getToken(t, env.conf, mentor),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name:     "students may not create groups",
			body:     marchallObj(t, group.NewGroup{Name: "Rogue"}),
			token:    getToken(t, env.conf, student),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, map[string]string{
				"error":          "permission denied",
				"dashboard_path": "/student/dashboard",
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/groups", tt.token, tt.body)
			env.app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			var grp group.Group
			if err := json.Unmarshal(rec.Body.Bytes(), &grp); err != nil {
				t.Fatalf("unmarshalling response failed: %v", err)
			}
			if len(grp.Code) != group.CodeLen {
				t.Errorf("code = %q, want %d characters", grp.Code, group.CodeLen)
			}
		})
	}
}

func Test_groupApi_join_leave(t *testing.T) {
	env := setup(t)
	mentor := env.createUser(t, "Dr Sy", "sy@test.test", "mentor", true)
	student := env.createUser(t, "Awa Ndiaye", "awa@test.test", "student", true)
	grp := env.createGroup(t, "Smart Irrigation", "P8K2M9", mentor)

	joinBody := func(code string) []byte {
		return marchallObj(t, JoinRequest{Code: code})
	}

	tests := []httpTest{
		{
			name:     "join normalizes the typed code",
			path:     "/v1/groups/join",
			body:     joinBody(" p8k2m9 "),
			token:    getToken(t, env.conf, student),
			wantCode: http.StatusOK,
		},
		{
			name:     "already a member",
			path:     "/v1/groups/join",
			body:     joinBody("P8K2M9"),
			token:    getToken(t, env.conf, student),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: group.ErrAlreadyMember.Error()}),
		},
		{
			name:     "mentors may not join via code",
			path:     "/v1/groups/join",
			body:     joinBody("P8K2M9"),
			token:    getToken(t, env.conf, mentor),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, map[string]string{
				"error":          "permission denied",
				"dashboard_path": "/mentor/dashboard",
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			var joined group.Group
			if err := json.Unmarshal(rec.Body.Bytes(), &joined); err != nil {
				t.Fatalf("unmarshalling response failed: %v", err)
			}
			if joined.ID != grp.ID {
				t.Errorf("joined group %s, want %s", joined.ID, grp.ID)
			}
		})
	}

	// leave, then leave again: both succeed
	for i := 0; i < 2; i++ {
		req, rec := newAuthRequest(http.MethodPost, "/v1/groups/leave", getToken(t, env.conf, student))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("leave #%d: code = %v; body %s", i+1, rec.Code, rec.Body.String())
		}
	}

	// free to join again
	req, rec := newAuthRequest(http.MethodPost, "/v1/groups/join", getToken(t, env.conf, student), joinBody("P8K2M9"))
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("rejoin: code = %v; body %s", rec.Code, rec.Body.String())
	}
}

func Test_groupApi_join_errors(t *testing.T) {
	env := setup(t)
	mentor := env.createUser(t, "Dr Sy", "sy@test.test", "mentor", true)
	student := env.createUser(t, "Awa Ndiaye", "awa@test.test", "student", true)
	env.createGroup(t, "Smart Irrigation", "P8K2M9", mentor)

	tests := []httpTest{
		{
			name:     "unknown code",
			body:     marchallObj(t, JoinRequest{Code: "ZZZZZZ"}),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: group.ErrNotFound.Error()}),
		},
		{
			name:     "short code",
			body:     marchallObj(t, JoinRequest{Code: "P8K"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": "join code must be 6 characters"}),
		},
		{
			name:     "empty code",
			body:     marchallObj(t, JoinRequest{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": "this field is required"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/groups/join", getToken(t, env.conf, student), tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_groupApi_mine(t *testing.T) {
	env := setup(t)
	mentor := env.createUser(t, "Dr Sy", "sy@test.test", "mentor", true)
	idleMentor := env.createUser(t, "Dr Ba", "ba@test.test", "mentor", true)
	student := env.createUser(t, "Awa Ndiaye", "awa@test.test", "student", true)
	loner := env.createUser(t, "Loner", "loner@test.test", "student", true)

	grp := env.createGroup(t, "Smart Irrigation", "P8K2M9", mentor)
	env.joinGroup(t, "P8K2M9", student)

	tests := []httpTest{
		{
			name:     "student sees their group",
			token:    getToken(t, env.conf, student),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, grp),
		},
		{
			name:     "student without a group",
			token:    getToken(t, env.conf, loner),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: group.ErrNoMembership.Error()}),
		},
		{
			name:     "mentor sees their groups",
			token:    getToken(t, env.conf, mentor),
			wantCode: http.StatusOK,
			wantData: marchallList(t, grp),
		},
		{
			name:     "mentor without groups gets an empty list",
			token:    getToken(t, env.conf, idleMentor),
			wantCode: http.StatusOK,
			wantData: []byte("[]"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/groups/mine", tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_groupApi_retrieve(t *testing.T) {
	env := setup(t)
	mentor := env.createUser(t, "Dr Sy", "sy@test.test", "mentor", true)
	student := env.createUser(t, "Awa Ndiaye", "awa@test.test", "student", true)
	outsider := env.createUser(t, "Outsider", "out@test.test", "student", true)
	admin := env.createUser(t, "Admin", "admin@test.test", "admin", true)

	grp := env.createGroup(t, "Smart Irrigation", "P8K2M9", mentor)
	env.joinGroup(t, "P8K2M9", student)

	tests := []struct {
		name     string
		token    string
		wantCode int
	}{
		{name: "member", token: getToken(t, env.conf, student), wantCode: http.StatusOK},
		{name: "mentor", token: getToken(t, env.conf, mentor), wantCode: http.StatusOK},
		{name: "admin bypasses membership", token: getToken(t, env.conf, admin), wantCode: http.StatusOK},
		{name: "outsider", token: getToken(t, env.conf, outsider), wantCode: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/groups/"+grp.ID, tt.token)
			env.app.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}

			var detail GroupDetailResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
				t.Fatalf("unmarshalling response failed: %v", err)
			}
			if detail.ID != grp.ID {
				t.Errorf("group ID = %s, want %s", detail.ID, grp.ID)
			}
			if len(detail.Members) != 1 || detail.Members[0].StudentID != student.ID {
				t.Errorf("members = %+v, want the joined student", detail.Members)
			}
			if len(detail.Mentors) != 1 || detail.Mentors[0].MentorID != mentor.ID {
				t.Errorf("mentors = %+v, want the creating mentor", detail.Mentors)
			}
			if detail.Tasks == nil {
				t.Error("tasks should be an empty list, not null")
			}
		})
	}
}
