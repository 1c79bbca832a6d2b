package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/ipdpulse/backend/core"
	"github.com/ipdpulse/backend/core/chat"
	"github.com/ipdpulse/backend/core/group"
	"github.com/ipdpulse/backend/core/notice"
	"github.com/ipdpulse/backend/core/stats"
	"github.com/ipdpulse/backend/core/task"
	"github.com/ipdpulse/backend/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		SignalShutdown func()

		UserSvc   *user.Service
		GroupSvc  *group.Service
		TaskSvc   *task.Service
		ChatSvc   *chat.Service
		NoticeSvc *notice.Service
		StatsSvc  *stats.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf
	initJWTConfig(conf)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerAuthAPI(v1, jwt, conf, s.opts.UserSvc, s.opts.Validate)
	registerGroupAPI(v1, jwt, s.opts.GroupSvc, s.opts.TaskSvc, s.opts.Validate)
	registerTaskAPI(v1, jwt, s.opts.TaskSvc, s.opts.GroupSvc, s.opts.Validate)
	registerChatAPI(v1, jwt, s.opts.ChatSvc, s.opts.Validate)
	registerNoticeAPI(v1, jwt, s.opts.NoticeSvc, s.opts.GroupSvc, s.opts.Validate)
	registerStatsAPI(v1, jwt, s.opts.StatsSvc)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to IPD Pulse API!")
}
