package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/ipdpulse/backend/core"
	"github.com/ipdpulse/backend/core/chat"
	"github.com/ipdpulse/backend/core/group"
	"github.com/ipdpulse/backend/core/notice"
	"github.com/ipdpulse/backend/core/stats"
	"github.com/ipdpulse/backend/core/task"
	"github.com/ipdpulse/backend/core/user"
	emailsvc "github.com/ipdpulse/backend/services/email"
	"github.com/ipdpulse/backend/storage/database/dummydb"
	"github.com/ipdpulse/backend/storage/files"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

// testLogger discards everything.
type testLogger struct{}

func (testLogger) Debug(msg string, args ...interface{}) {}
func (testLogger) Info(msg string, args ...interface{})  {}
func (testLogger) Warn(msg string, args ...interface{})  {}
func (testLogger) Error(msg string, args ...interface{}) {}
func (testLogger) Fatal(msg string, args ...interface{}) {}

type testEnv struct {
	app     Server
	conf    *core.Config
	usrRepo user.Repository
	usrSvc  *user.Service
	grpSvc  *group.Service
	taskSvc *task.Service
	storage *files.MemoryStorage
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	conf := &core.Config{
		TestMode:                  true,
		AppName:                   "IPD Pulse",
		SecretKey:                 "secret",
		FrontendBaseURL:           "http://localhost:3000",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	storage := files.NewMemoryStorage()

	usrSvc := user.NewService(usrRepo, mailSvc, conf, validate)
	grpSvc := group.NewService(dummydb.NewGroupRepository(db), validate)
	taskSvc := task.NewService(dummydb.NewTaskRepository(db), grpSvc, storage, validate)
	chatSvc := chat.NewService(dummydb.NewChatRepository(db), grpSvc, validate)
	noticeSvc := notice.NewService(dummydb.NewNoticeRepository(db), grpSvc, validate)
	statsSvc := stats.NewService(dummydb.NewStatsRepository(db))

	// set up server
	app := NewServer(&Options{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         testLogger{},
		Validate:       validate,
		Translator:     translator,
		SignalShutdown: func() {},
		UserSvc:        usrSvc,
		GroupSvc:       grpSvc,
		TaskSvc:        taskSvc,
		ChatSvc:        chatSvc,
		NoticeSvc:      noticeSvc,
		StatsSvc:       statsSvc,
	})

	return &testEnv{
		app:     app,
		conf:    conf,
		usrRepo: usrRepo,
		usrSvc:  usrSvc,
		grpSvc:  grpSvc,
		taskSvc: taskSvc,
		storage: storage,
	}
}

func (env *testEnv) createUser(t *testing.T, name, email, role string, active bool) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword("Str0ng!Pass"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	created, err := env.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return created
}

func (env *testEnv) createGroup(t *testing.T, name, code string, mentor user.User) group.Group {
	t.Helper()

	grp, err := env.grpSvc.Create(context.Background(), group.NewGroup{Name: name, Code: code}, mentor.ID)
	if err != nil {
		t.Fatalf("grpSvc.Create() failed: %v", err)
	}
	return grp
}

func (env *testEnv) joinGroup(t *testing.T, code string, student user.User) {
	t.Helper()

	if _, err := env.grpSvc.Join(context.Background(), code, student.ID); err != nil {
		t.Fatalf("grpSvc.Join() failed: %v", err)
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	t.Helper()

	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
