// Command echoserver is an example server built on the listen package. It
// accepts connections on a TCP address or a Unix socket, echoes lines back,
// bounds simultaneous connections with a backpressure pair, and survives
// accept errors by pausing instead of dying.
//
// Configuration comes from an optional YAML file plus flag overrides:
//
//	addr: "localhost:8080"
//	unix: ""
//	limit: 10
//	cooldown: 500ms
package main

import (
	"bufio"
	"flag"
	"net"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/tidebreak-io/listen"
)

type config struct {
	addr     string
	unixPath string
	limit    int
	cooldown time.Duration
}

func loadConfig() (config, error) {
	cfg := config{
		addr:     "localhost:8080",
		limit:    10,
		cooldown: 500 * time.Millisecond,
	}

	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "TCP address to listen on")
	unixPath := flag.String("unix", "", "Unix socket path to listen on instead of TCP")
	limit := flag.Int("limit", 0, "max simultaneous connections")
	cooldown := flag.Duration("cooldown", 0, "pause after a non-transient accept error")
	flag.Parse()

	if *configPath != "" {
		b, err := os.ReadFile(*configPath)
		if err != nil {
			return cfg, err
		}
		k := koanf.New(".")
		if err := k.Load(rawbytes.Provider(b), yaml.Parser()); err != nil {
			return cfg, err
		}
		if k.Exists("addr") {
			cfg.addr = k.String("addr")
		}
		if k.Exists("unix") {
			cfg.unixPath = k.String("unix")
		}
		if k.Exists("limit") {
			cfg.limit = k.Int("limit")
		}
		if k.Exists("cooldown") {
			cfg.cooldown = k.Duration("cooldown")
		}
	}

	// Flags beat the file.
	if *addr != "" {
		cfg.addr = *addr
	}
	if *unixPath != "" {
		cfg.unixPath = *unixPath
	}
	if *limit != 0 {
		cfg.limit = *limit
	}
	if *cooldown != 0 {
		cfg.cooldown = *cooldown
	}
	return cfg, nil
}

func main() {
	log := logrus.New()

	cfg, err := loadConfig()
	if err != nil {
		log.WithError(err).Fatal("loading config")
	}

	var lis net.Listener
	if cfg.unixPath != "" {
		os.Remove(cfg.unixPath)
		lis, err = net.Listen("unix", cfg.unixPath)
	} else {
		lis, err = net.Listen("tcp", cfg.addr)
	}
	if err != nil {
		log.WithError(err).Fatal("listening")
	}
	log.WithField("addr", lis.Addr().String()).Info("accepting connections")

	if soft, hard, err := listen.FileLimit(); err == nil {
		log.WithFields(logrus.Fields{"soft": soft, "hard": hard}).
			Debug("open file limits")
	}

	minter, gate := listen.New(cfg.limit)

	// Accept warnings can come in bursts while the condition persists, so
	// log at most one per second.
	warnEvery := rate.Sometimes{Interval: time.Second}
	lis = listen.WrapListener(lis, gate,
		listen.WithCooldown(cfg.cooldown),
		listen.WithWarningLog(func(err error) {
			warnEvery.Do(func() {
				entry := log.WithError(err)
				if hint := listen.Hint(err); !hint.IsEmpty() {
					entry = entry.WithField("hint", hint.Text())
				}
				entry.Warnf("accept error, pausing listener for %s", cfg.cooldown)
			})
		}),
	)

	go func() {
		for range time.Tick(10 * time.Second) {
			log.WithFields(logrus.Fields{
				"active": minter.ActiveTokens(),
				"limit":  minter.Limit(),
			}).Info("connections")
		}
	}()

	for {
		conn, err := lis.Accept()
		if err != nil {
			log.WithError(err).Info("listener closed")
			return
		}
		go serve(log, conn)
	}
}

func serve(log *logrus.Logger, conn net.Conn) {
	defer conn.Close()
	log.WithField("peer", conn.RemoteAddr().String()).Debug("connected")

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		if _, err := conn.Write(append(sc.Bytes(), '\n')); err != nil {
			log.WithError(err).Debug("write error")
			return
		}
	}
}
