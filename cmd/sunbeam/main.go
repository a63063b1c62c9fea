// Telemetry daemon: polls inverter over USB, publishes to MQTT.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
	"github.com/temoto/alive/v2"
	"github.com/temoto/sunbeam/beam"
	"github.com/temoto/sunbeam/config"
	"github.com/temoto/sunbeam/log2"
	"github.com/temoto/sunbeam/poller"
	"github.com/temoto/sunbeam/tele"
	"github.com/temoto/sunbeam/usb"
)

var log = log2.NewStderr(log2.LDebug)

func main() {
	flagConfig := flag.String("config", "sunbeam.hcl", "")
	flag.Parse()

	switch {
	case sdnotify("start"):
		// under systemd, journal adds timestamps
		log.SetFlags(log2.LServiceFlags)
	case isatty.IsTerminal(os.Stderr.Fd()):
		log.SetFlags(log2.LInteractiveFlags)
	default:
		log.SetFlags(log2.LStdFlags)
	}

	cfg := config.MustReadConfig(log, config.NewOsFullReader(), *flagConfig)
	log.Debugf("config=%+v", cfg)
	log.SetLevel(cfg.LogLevel())

	a := alive.NewAlive()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		log.Infof("signal=%v stopping", s)
		a.Stop()
	}()

	ctx := context.Background()
	t := new(tele.Tele)
	if err := t.Init(ctx, log, cfg.Tele); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	defer t.Close()

	tr, err := usb.OpenDevfs(cfg.Device.Path, cfg.Device.Interface)
	if err != nil {
		t.Error(err, false)
		log.Fatal(errors.ErrorStack(err))
	}
	sess, err := beam.Connect(ctx, tr, cfg.BeamOptions(log))
	if err != nil {
		t.Error(err, false)
		log.Fatal(errors.ErrorStack(err))
	}
	defer sess.Close()
	log.Infof("session state=%s", sess.State())

	p := poller.New(log, sess, t, poller.Config{
		Interval:        cfg.PollInterval(),
		History:         cfg.HistoryKind(),
		HistoryInterval: cfg.HistoryInterval(),
		HistorySpan:     cfg.HistorySpan(),
	})
	p.AfterStep = func(error) { sdnotify(daemon.SdNotifyWatchdog) }

	a.Add(1)
	go p.Run(a)
	sdnotify(daemon.SdNotifyReady)
	log.Infof("running")

	a.Wait()
	sdnotify(daemon.SdNotifyStopping)
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
