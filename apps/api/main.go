package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/ipdpulse/backend/apps/api/echo"
	"github.com/ipdpulse/backend/core"
	"github.com/ipdpulse/backend/core/chat"
	"github.com/ipdpulse/backend/core/group"
	"github.com/ipdpulse/backend/core/notice"
	"github.com/ipdpulse/backend/core/stats"
	"github.com/ipdpulse/backend/core/task"
	"github.com/ipdpulse/backend/core/user"
	emailsvc "github.com/ipdpulse/backend/services/email"
	logsvc "github.com/ipdpulse/backend/services/logger"
	"github.com/ipdpulse/backend/storage/database"
	"github.com/ipdpulse/backend/storage/database/sqlxrepos"
	"github.com/ipdpulse/backend/storage/files"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	fileStorage, err := setUpFileStorage(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, conf, validate)
	grpSvc := group.NewService(sqlxrepos.NewGroupRepository(db), validate)
	taskSvc := task.NewService(sqlxrepos.NewTaskRepository(db), grpSvc, fileStorage, validate)
	chatSvc := chat.NewService(sqlxrepos.NewChatRepository(db), grpSvc, validate)
	noticeSvc := notice.NewService(sqlxrepos.NewNoticeRepository(db), grpSvc, validate)
	statsSvc := stats.NewService(sqlxrepos.NewStatsRepository(db))

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:        conf.Server.Address(),
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },
		UserSvc:        usrSvc,
		GroupSvc:       grpSvc,
		TaskSvc:        taskSvc,
		ChatSvc:        chatSvc,
		NoticeSvc:      noticeSvc,
		StatsSvc:       statsSvc,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func setUpFileStorage(conf *core.Config) (core.FileStorage, error) {
	if conf.Storage.Backend == "b2" {
		return files.NewB2Storage(
			context.Background(),
			conf.Storage.B2AccountID,
			conf.Storage.B2AppKey,
			conf.Storage.B2Bucket,
		)
	}
	return files.NewLocalStorage(conf.Storage.LocalDir)
}
