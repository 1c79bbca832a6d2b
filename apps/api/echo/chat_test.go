package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ipdpulse/backend/core/chat"
	"github.com/ipdpulse/backend/core/group"
)

func Test_chatApi(t *testing.T) {
	env := setup(t)
	mentor := env.createUser(t, "Dr Sy", "sy@test.test", "mentor", true)
	student := env.createUser(t, "Awa Ndiaye", "awa@test.test", "student", true)
	outsider := env.createUser(t, "Outsider", "out@test.test", "student", true)

	grp := env.createGroup(t, "Smart Irrigation", "P8K2M9", mentor)
	env.joinGroup(t, "P8K2M9", student)
	msgPath := "/v1/groups/" + grp.ID + "/messages"

	post := func(token, content string) *httpTest {
		return &httpTest{
			body:  marchallObj(t, chat.NewMessage{Content: content}),
			token: token,
		}
	}

	// member and mentor post; outsider may not
	for _, tt := range []struct {
		name     string
		test     *httpTest
		wantCode int
	}{
		{name: "student posts", test: post(getToken(t, env.conf, student), "anyone seen the sensor specs?"), wantCode: http.StatusCreated},
		{name: "mentor posts", test: post(getToken(t, env.conf, mentor), "check the shared drive"), wantCode: http.StatusCreated},
		{name: "outsider cannot post", test: post(getToken(t, env.conf, outsider), "hello?"), wantCode: http.StatusForbidden},
		{name: "empty content", test: post(getToken(t, env.conf, student), "   "), wantCode: http.StatusBadRequest},
	} {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, msgPath, tt.test.token, tt.test.body)
			env.app.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}

	// members read the thread oldest-first
	req, rec := newAuthRequest(http.MethodGet, msgPath, getToken(t, env.conf, student))
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var msgs []chat.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("list returned %d messages, want 2", len(msgs))
	}
	if msgs[0].SenderID != student.ID || msgs[1].SenderID != mentor.ID {
		t.Errorf("messages out of order: %+v", msgs)
	}

	// outsiders cannot read
	req, rec = newAuthRequest(http.MethodGet, msgPath, getToken(t, env.conf, outsider))
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: group.ErrNotMember.Error()}),
	}, rec)

	// an empty thread is a list, not null
	other := env.createGroup(t, "Campus Bot", "Q7R4T2", mentor)
	req, rec = newAuthRequest(http.MethodGet, "/v1/groups/"+other.ID+"/messages", getToken(t, env.conf, mentor))
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte("[]")}, rec)
}
