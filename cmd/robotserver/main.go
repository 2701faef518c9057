// Command robotserver runs the robot navigation server of spec §5: a
// concurrent TCP listener that authenticates, navigates, and debriefs one
// robot client per connection.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	robot "github.com/sxccxs/robot-server"
	"github.com/sxccxs/robot-server/internal/errd"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := robot.DefaultConfig()
	var (
		plannerFlag  string
		logLevelFlag string
		connsPerSec  float64
		connBurst    int
	)

	cmd := &cobra.Command{
		Use:   "robotserver",
		Short: "Robot navigation server",
		Long:  "robotserver authenticates robot clients, navigates them to the grid origin, and retrieves their secret message.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(logLevelFlag)

			switch plannerFlag {
			case string(robot.PlannerSimple), string(robot.PlannerBFS):
				cfg.Planner = robot.Planner(plannerFlag)
			default:
				return fmt.Errorf("unknown planner %q (want %q or %q)", plannerFlag, robot.PlannerSimple, robot.PlannerBFS)
			}

			limiter := rate.NewLimiter(rate.Limit(connsPerSec), connBurst)
			return serve(cfg, log, limiter)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Host, "host", cfg.Host, "address to listen on")
	flags.Uint16Var(&cfg.Port, "port", cfg.Port, "port to listen on")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-record read timeout")
	flags.DurationVar(&cfg.TimeoutRecharging, "timeout-recharging", cfg.TimeoutRecharging, "timeout for the FULL POWER reply during a recharging pause")
	flags.BoolVar(&cfg.RechargingEnabled, "recharging", cfg.RechargingEnabled, "honor the RECHARGING/FULL POWER pause protocol")
	flags.StringVar(&plannerFlag, "planner", string(cfg.Planner), "navigation planner: simple or bfs")
	flags.StringVar(&logLevelFlag, "log-level", "info", "logrus level: debug, info, warn, error")
	flags.Float64Var(&connsPerSec, "accept-rate", 50, "sustained accepted connections per second")
	flags.IntVar(&connBurst, "accept-burst", 100, "burst of connections accept-rate allows before throttling")

	return cmd
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// serve runs the accept loop of spec §5 until the listener is closed: each
// accepted connection is throttled by limiter (a defensive measure against a
// client opening connections faster than the server can service them, not a
// protocol requirement) and then handed to its own goroutine.
func serve(cfg robot.Config, log *logrus.Logger, limiter *rate.Limiter) (err error) {
	defer errd.Wrap(&err, "serve")

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port)))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	log.WithField("addr", addr).Info("robotserver listening")

	var wg sync.WaitGroup
	var nextID int64

	ctx := context.Background()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				wg.Wait()
				return nil
			}
			log.WithError(err).Warn("accept failed")
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			log.WithError(err).Warn("rate limiter wait failed")
			conn.Close()
			continue
		}

		id := atomic.AddInt64(&nextID, 1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := robot.NewSession(id, conn, cfg, log.WithField("remote", conn.RemoteAddr()))
			sess.Run()
		}()
	}
}
