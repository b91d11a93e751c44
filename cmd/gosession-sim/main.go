// gosession-sim runs several session managers ("tabs") against one
// simulated identity backend and lets simulated time pass.
//
// Tabs share a Redis instance (miniredis unless --redis-addr or REDIS_ADDR
// is set) for the admin flag and the cross-tab channel, and poll a local
// health endpoint. At exit the per-tab state and the summed Prometheus
// metrics are printed.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/clock"
	"github.com/MrEthical07/goSession/healthcheck"
	"github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/MrEthical07/goSession/middleware"
)

type options struct {
	tabs           int
	configPath     string
	redisAddr      string
	duration       time.Duration
	step           time.Duration
	settle         time.Duration
	rateLimitEvery int
	offlineAt      time.Duration
	offlineFor     time.Duration
	signOutAt      time.Duration
	healthAddr     string
	logLevel       string
	metrics        bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := pflag.NewFlagSet("gosession-sim", pflag.ContinueOnError)
	fs.IntVarP(&o.tabs, "tabs", "n", 3, "number of simulated tabs")
	fs.StringVarP(&o.configPath, "config", "c", "", "YAML file overlaid on the default configuration")
	fs.StringVar(&o.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	fs.DurationVar(&o.duration, "duration", 4*time.Hour, "simulated time to run")
	fs.DurationVar(&o.step, "step", 10*time.Second, "simulated time advanced per step")
	fs.DurationVar(&o.settle, "settle", 5*time.Millisecond, "real time allowed for pub/sub delivery after each step")
	fs.IntVar(&o.rateLimitEvery, "rate-limit-every", 0, "reject every Nth backend refresh with a rate limit (0 disables)")
	fs.DurationVar(&o.offlineAt, "offline-at", 0, "simulated time at which every tab goes offline (0 disables)")
	fs.DurationVar(&o.offlineFor, "offline-for", 5*time.Minute, "how long the offline window lasts")
	fs.DurationVar(&o.signOutAt, "sign-out-at", 0, "simulated time at which the last tab signs out (0 disables)")
	fs.StringVar(&o.healthAddr, "health-addr", "127.0.0.1:0", "listen address of the health and metrics endpoint")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	fs.BoolVar(&o.metrics, "metrics", true, "print Prometheus metrics at exit")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if o.tabs <= 0 || o.step <= 0 || o.duration <= 0 {
		return o, errors.New("tabs, step and duration must be > 0")
	}
	return o, nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

func openRedis(addr string, logger *slog.Logger) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		logger.Info("using redis", "addr", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("starting miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	logger.Info("using miniredis", "addr", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

func run(args []string) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	level, err := parseLevel(o.logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return err
	}
	for _, w := range cfg.Lint() {
		logger.Warn("config lint", "code", w.Code, "message", w.Message)
	}

	client, closeRedis, err := openRedis(o.redisAddr, logger)
	if err != nil {
		return err
	}
	defer closeRedis()

	fc := clock.Fake(time.Now().UTC().Truncate(time.Second))
	be := newBackend(fc, cfg.Session.Window, o.rateLimitEvery)

	ln, err := net.Listen("tcp", o.healthAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", o.healthAddr, err)
	}
	defer ln.Close()
	baseURL := "http://" + ln.Addr().String()

	var tabs aggregate
	identities := make([]*tabIdentity, o.tabs)
	for i := range identities {
		identities[i] = be.tab()
		m, err := goSession.New().
			WithConfig(cfg).
			WithClock(fc).
			WithLogger(logger.With("tab", i)).
			WithRedis(client).
			WithIdentityProvider(identities[i]).
			WithHealthChecker(healthcheck.NewChecker(baseURL + healthcheck.DefaultPath)).
			WithNavigator(goSession.NavigatorFunc(func(reason string) {
				logger.Info("tab signed out", "tab", i, "reason", reason)
			})).
			Build()
		if err != nil {
			return fmt.Errorf("building tab %d: %w", i, err)
		}
		defer m.Close()
		tabs = append(tabs, m)
	}

	router := mux.NewRouter()
	healthcheck.Mount(router, be.report)
	router.Handle("/metrics", prometheus.NewPrometheusExporterFromSource(tabs).Handler()).Methods(http.MethodGet)
	router.Handle("/session", middleware.RequireStrict(tabs[0])(http.HandlerFunc(serveSnapshot))).Methods(http.MethodGet)

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server stopped", "error", err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()
	logger.Info("health endpoint", "url", baseURL+healthcheck.DefaultPath)

	ctx := context.Background()
	for i, m := range tabs {
		if err := m.Initialize(ctx); err != nil {
			return fmt.Errorf("initializing tab %d: %w", i, err)
		}
	}

	// Tab 0 signs in; the others learn about it over the channel.
	be.signIn(goSession.Identity{ID: "sim-user", Email: "sim@example.com", CreatedAt: fc.Now().Add(-24 * time.Hour)})
	sess, err := be.GetCurrentSession(ctx)
	if err != nil {
		return err
	}
	identities[0].emit(goSession.LifecycleEvent{Type: goSession.EventSignedIn, Session: sess})
	time.Sleep(o.settle)

	s := simulation{opts: o, clock: fc, tabs: tabs, identities: identities, logger: logger}
	s.run(ctx)

	printSummary(os.Stdout, tabs, be)
	if o.metrics {
		fmt.Println()
		fmt.Print(prometheus.NewPrometheusExporterFromSource(tabs).Render())
	}
	return nil
}

type simulation struct {
	opts       options
	clock      *clock.FakeClock
	tabs       aggregate
	identities []*tabIdentity
	logger     *slog.Logger
}

func (s *simulation) run(ctx context.Context) {
	var elapsed time.Duration
	offline := false
	signedOut := false

	for elapsed < s.opts.duration {
		s.clock.Advance(s.opts.step)
		elapsed += s.opts.step

		if s.opts.offlineAt > 0 && !offline && elapsed >= s.opts.offlineAt && elapsed < s.opts.offlineAt+s.opts.offlineFor {
			s.logger.Info("network down", "elapsed", elapsed)
			s.report(false)
			offline = true
		}
		if offline && elapsed >= s.opts.offlineAt+s.opts.offlineFor {
			s.logger.Info("network up", "elapsed", elapsed)
			s.report(true)
			offline = false
		}
		if s.opts.signOutAt > 0 && !signedOut && elapsed >= s.opts.signOutAt {
			last := len(s.identities) - 1
			s.logger.Info("tab signing out", "tab", last, "elapsed", elapsed)
			_ = s.identities[last].SignOut(ctx)
			signedOut = true
		}

		time.Sleep(s.opts.settle)
	}
}

func (s *simulation) report(online bool) {
	for _, m := range s.tabs {
		m.ReportNetwork(online)
	}
}

func serveSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, _ := middleware.SnapshotFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   snap.Status.String(),
		"user_id":  snap.User.ID,
		"checksum": snap.SessionChecksum,
		"admin":    snap.IsAdmin,
	})
}

func printSummary(w io.Writer, tabs aggregate, be *backend) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TAB\tSTATUS\tSERVER\tCHECKSUM\tNEXT REFRESH\tERROR")
	for i, m := range tabs {
		snap := m.Snapshot()
		next := "-"
		if at, ok := m.NextRefreshAt(); ok {
			next = at.Format(time.TimeOnly)
		}
		sum := snap.SessionChecksum
		if len(sum) > 12 {
			sum = sum[:12]
		}
		if sum == "" {
			sum = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", i, snap.Status, snap.ServerStatus, sum, next, strings.TrimSpace(snap.Error))
	}
	_ = tw.Flush()

	refreshes, limited := be.counts()
	fmt.Fprintf(w, "\nbackend refreshes: %d (rate limited: %d)\n", refreshes, limited)
}
