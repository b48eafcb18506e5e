package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/flowctl/internal/config"
	"github.com/loykin/flowctl/internal/history"
	"github.com/loykin/flowctl/internal/history/factory"
	"github.com/loykin/flowctl/internal/metrics"
	"github.com/loykin/flowctl/internal/server"
	"github.com/loykin/flowctl/internal/service"
)

// command binds the subcommand handlers to the shared global flags.
type command struct {
	flags *GlobalFlags
}

// supervisor loads the configuration and wires logger, history sink and
// metrics. The returned closer flushes the sink.
func (c *command) supervisor() (*service.Supervisor, func(), error) {
	var cfg *config.Config
	var err error
	if c.flags.Home != "" {
		cfg, err = config.LoadFrom(c.flags.Home)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}

	log := cfg.Log.New()

	var sink history.Sink
	if cfg.HistoryDSN != "" {
		sink, err = factory.NewSinkFromDSN(cfg.HistoryDSN, cfg.ServicesDir())
		if err != nil {
			return nil, nil, fmt.Errorf("history sink: %w", err)
		}
	}
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return nil, nil, err
	}

	sup := service.New(cfg, log, sink)
	closer := func() {
		if sink != nil {
			_ = sink.Close()
		}
	}
	return sup, closer, nil
}

// resolveRoles validates identity tokens against the roster. An empty list
// selects the host-singleton services, never the per-host workers.
func resolveRoles(sup *service.Supervisor, args []string) ([]service.Role, error) {
	if len(args) == 0 {
		return sup.Singletons(), nil
	}
	roles := make([]service.Role, 0, len(args))
	for _, name := range args {
		r, err := sup.Lookup(name)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}

// Status prints one up/down line per roster identity.
func (c *command) Status() error {
	sup, closer, err := c.supervisor()
	if err != nil {
		return err
	}
	defer closer()
	return printStatuses(sup)
}

func printStatuses(sup *service.Supervisor) error {
	sts, err := sup.Statuses()
	if err != nil {
		return err
	}
	for _, st := range sts {
		fmt.Println(st.Line())
	}
	return nil
}

// Start starts each requested service in order, reports per-service
// failures as prose, then prints a status report. Any failure makes the
// command exit non-zero.
func (c *command) Start(args []string) error {
	sup, closer, err := c.supervisor()
	if err != nil {
		return err
	}
	defer closer()

	roles, err := resolveRoles(sup, args)
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range roles {
		label := sup.Identity(r).Label()
		pid, err := sup.Start(r)
		if err != nil {
			failed++
			fmt.Printf("start of %s failed: %v\n", label, err)
			continue
		}
		fmt.Printf("%s started (pid=%d)\n", label, pid)
	}
	if err := printStatuses(sup); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d service(s) failed to start", failed)
	}
	return nil
}

// Stop stops each requested service in order. A slow or hung stop delays
// the rest of the batch; that is the documented sequential model.
func (c *command) Stop(args []string) error {
	sup, closer, err := c.supervisor()
	if err != nil {
		return err
	}
	defer closer()

	roles, err := resolveRoles(sup, args)
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range roles {
		label := sup.Identity(r).Label()
		if err := sup.Stop(r); err != nil {
			failed++
			fmt.Printf("stop of %s failed: %v\n", label, err)
			continue
		}
		fmt.Printf("%s stopped\n", label)
	}
	if failed > 0 {
		return fmt.Errorf("%d service(s) failed to stop", failed)
	}
	return nil
}

// Serve runs the HTTP surface until interrupted.
func (c *command) Serve(f *ServeFlags) error {
	sup, closer, err := c.supervisor()
	if err != nil {
		return err
	}
	defer closer()

	addr := f.Listen
	if addr == "" {
		addr = sup.Config().Listen
	}
	srv := server.NewServer(addr, sup)
	fmt.Printf("listening on %s\n", addr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
