// cmd/client/main.go is a headless game client: it joins a room, logs every
// state change and exits once the result is shown.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/JokerTrickster/board-game-app-sub000/internal/api"
	"github.com/JokerTrickster/board-game-app-sub000/internal/auth"
	"github.com/JokerTrickster/board-game-app-sub000/internal/cache"
	"github.com/JokerTrickster/board-game-app-sub000/internal/config"
	"github.com/JokerTrickster/board-game-app-sub000/internal/connection"
	"github.com/JokerTrickster/board-game-app-sub000/internal/database"
	"github.com/JokerTrickster/board-game-app-sub000/internal/session"
	"github.com/JokerTrickster/board-game-app-sub000/internal/store"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// logView renders to the log.
type logView struct {
	logger logrus.FieldLogger
	last   store.Phase
	done   chan struct{}
	once   sync.Once
}

func (v *logView) Render(snap store.Snapshot) {
	entry := v.logger.WithFields(logrus.Fields{
		"phase": snap.Phase,
		"room":  snap.Session.RoomID,
		"round": snap.Session.Round,
		"timer": snap.TimerValue,
	})
	if snap.Phase != v.last {
		entry.Infof("Phase %s (my turn: %v)", snap.Phase, snap.IsMyTurn)
		v.last = snap.Phase
		return
	}
	entry.Debug("State updated")
}

func (v *logView) PlayEffect(e session.Effect) {
	v.logger.WithFields(logrus.Fields{
		"round": e.Round,
		"user":  e.UserID,
	}).Infof("Effect %s %s", e.Kind, e.Detail)
}

func (v *logView) ShowResult(res *api.Result, err error) {
	if err != nil {
		v.logger.Warnf("Game over, result unavailable: %v", err)
	} else {
		v.logger.Infof("Game over in room %d, winner %d", res.RoomID, res.Winner())
	}
	v.once.Do(func() { close(v.done) })
}

func main() {
	logger := logrus.New()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	log := logger.WithField("game", cfg.Game.Slug())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
	}

	var creds auth.KeyValue = auth.NewEnvStore()
	if cfg.CredentialSource == "redis" {
		creds = auth.NewRedisStore(rdb, cfg.CredentialPrefix)
	}

	conn := connection.New(connection.Options{
		BaseURL:      cfg.WSBaseURL,
		Game:         cfg.Game,
		Credentials:  creds,
		DialTimeout:  cfg.DialTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Logger:       log,
	})
	view := &logView{logger: log, done: make(chan struct{})}
	opts := session.Options{
		Game:            cfg.Game,
		Conn:            conn,
		Backend:         api.NewClient(cfg.APIBaseURL, cfg.ResultTimeout, log),
		View:            view,
		TickUnit:        cfg.TickUnit,
		TransitionUnits: cfg.TransitionUnits,
		ResultTimeout:   cfg.ResultTimeout,
		EntryFee:        cfg.EntryFee,
		AutoStart:       true,
		Logger:          log,
	}
	if rdb != nil {
		opts.Recorder = cache.NewRecorder(rdb, cfg.RecordQueue)
	}
	if cfg.ArchiveResults {
		pool, err := database.ConnectDB(ctx, database.ConnectionString())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		opts.Archive = database.NewArchive(pool)
	}

	ctrl := session.New(opts)
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	go ctrl.Run(runCtx)

	if err := ctrl.Connect(ctx, cfg.Mode, cfg.Password); err != nil {
		log.Fatalf("connect: %v", err)
	}

	select {
	case <-view.done:
	case <-ctx.Done():
		leaveCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := ctrl.Cancel(leaveCtx); err != nil {
			_ = ctrl.Disconnect(leaveCtx)
		}
		cancel()
	}
	log.Info("Client exiting")
}
