package main

import (
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/chat-relay/config"
	"github.com/chat-relay/database"
	"github.com/chat-relay/hub"
	"github.com/chat-relay/journal"
	"github.com/go-xorm/xorm"
)

const shutdownWait = 5 * time.Second

func handleInterrupt(h *hub.Hub, srv *http.Server, sc chan os.Signal) {
	sig := <-sc
	log.Println("received", sig, "shutting down")
	if srv != nil {
		srv.Close()
	}
	h.Close(shutdownWait)
}

// buildUserStore returns the configured backend, plus the xorm engine when the
// backend is a database so the archive can share it.
func buildUserStore(cfg *config.Config) (database.UserStore, *xorm.Engine, error) {
	switch cfg.Store.Backend {
	case config.StoreRedis:
		client, err := database.InitRedis(cfg.Redis.IP, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.Db)
		if err != nil {
			return nil, nil, err
		}
		return database.NewRedisUserStore(client), nil, nil
	case config.StoreMysql, config.StoreSqlite3:
		engine, err := database.InitDb(cfg.Mysql.Driver, cfg.Mysql.Source)
		if err != nil {
			return nil, nil, err
		}
		store, err := database.NewDbUserStore(engine)
		if err != nil {
			return nil, nil, err
		}
		return store, engine, nil
	default:
		return database.NewFileUserStore(cfg.Store.File), nil, nil
	}
}

func openArchive(cfg *config.Config, engine *xorm.Engine) (*journal.Journal, error) {
	if engine == nil {
		var err error
		engine, err = database.InitDb(cfg.Mysql.Driver, cfg.Mysql.Source)
		if err != nil {
			return nil, err
		}
	}
	return journal.Open(&journal.Config{
		File:          cfg.Archive.File,
		FlushInterval: cfg.Archive.FlushInterval,
		Drain:         hub.ArchiveDrain(database.NewDbMessageStore(engine)),
	})
}

func main() {
	configFile := flag.String("c", config.DefaultConfigFile, "config file")
	envFile := flag.String("env", config.DefaultEnvFile, "optional .env file")
	flag.Parse()

	runtime.GOMAXPROCS(runtime.NumCPU())

	// read config
	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		log.Panicln(err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		log.Panicln(err)
	}

	users, engine, err := buildUserStore(cfg)
	if err != nil {
		log.Panicln(err)
	}
	log.Printf("user store: %s", cfg.Store.Backend)

	var archive hub.Archive
	if cfg.Archive.Enabled {
		j, err := openArchive(cfg, engine)
		if err != nil {
			log.Panicln(err)
		}
		defer j.Close()
		archive = j
		log.Printf("chat archive: %s", cfg.Archive.File)
	}

	h, err := hub.NewHub(cfg, users, archive)
	if err != nil {
		log.Panicln(err)
	}

	if cfg.Server.Listen != "" {
		l, err := net.Listen("tcp", cfg.Server.Listen)
		if err != nil {
			log.Panicln(err)
		}
		go func() {
			if err := h.Serve(l); err != nil {
				log.Println("serve:", err)
			}
		}()
	}

	var srv *http.Server
	if cfg.Server.WSListen != "" {
		srv = &http.Server{Addr: cfg.Server.WSListen, Handler: h.Handler()}
		go func() {
			log.Println("listen on", cfg.Server.WSListen, "(websocket)")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Println("ListenAndServe:", err)
			}
		}()
	}

	// listen sys.exit
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, os.Interrupt, syscall.SIGTERM)
	handleInterrupt(h, srv, sc)
}
