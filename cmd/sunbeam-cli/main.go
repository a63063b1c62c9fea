package main

import (
	"context"
	"encoding/hex"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/sunbeam/beam"
	"github.com/temoto/sunbeam/config"
	"github.com/temoto/sunbeam/helpers/cli"
	"github.com/temoto/sunbeam/log2"
	"github.com/temoto/sunbeam/smanet"
	"github.com/temoto/sunbeam/usb"
)

const usage = `syntax: commands separated by whitespace
(main)
- connect        reset device, handshake
- sync           send SynOnline keep-alive
- instant        read power, energy today, energy total
- history=day    power samples of last day
- history=month  daily energy of last month
- pXX...         send request from logical hex XX... (no delimiters, no crc), show response
- sN             pause N milliseconds

(meta)
- state          show session state and device id
- stat           show request counters
- log=yes        enable debug logging
- log=no         disable debug logging
- loop=N         repeat N times all commands on this line
`

var log = log2.NewStderr(log2.LDebug)

type action func(ctx context.Context, sess *beam.Session) error

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := cmdline.String("config", "sunbeam.hcl", "")
	devicePath := cmdline.String("device", "", "override device.path, e.g. /dev/bus/usb/001/004")
	serial := cmdline.Int64("serial", 0, "override device.serial")
	_ = cmdline.Parse(os.Args[1:])

	log.SetFlags(log2.LInteractiveFlags)

	cfg := config.MustReadConfig(log, config.NewOsFullReader(), *configPath)
	if *devicePath != "" {
		cfg.Device.Path = *devicePath
	}
	if *serial != 0 {
		cfg.Device.Serial = *serial
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}

	tr, err := usb.OpenDevfs(cfg.Device.Path, cfg.Device.Interface)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	ctx := context.Background()
	sess, err := beam.Connect(ctx, tr, cfg.BeamOptions(log.Clone(log2.LInfo)))
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	defer sess.Close()
	log.Infof("state=%s", sess.State())

	cli.MainLoop("sunbeam-cli", newExecutor(ctx, sess), newCompleter())
}

func newCompleter() func(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "connect", Description: "reset device, handshake"},
		{Text: "sync", Description: "send SynOnline"},
		{Text: "instant", Description: "read instant values"},
		{Text: "history=day", Description: "power samples of last day"},
		{Text: "history=month", Description: "daily energy of last month"},
		{Text: "pXX", Description: "send logical request hex, show response"},
		{Text: "sN", Description: "pause for N ms"},
		{Text: "state", Description: "session state"},
		{Text: "stat", Description: "request counters"},
		{Text: "log=yes", Description: "enable debug logging"},
		{Text: "log=no", Description: "disable debug logging"},
		{Text: "loop=N", Description: "repeat line N times"},
	}

	return func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterFuzzy(suggests, d.GetWordBeforeCursor(), true)
	}
}

func newExecutor(ctx context.Context, sess *beam.Session) func(string) {
	return func(line string) {
		as, loopn, err := parseLine(line)
		if err != nil {
			log.Errorf(errors.ErrorStack(err))
			return
		}
		for i := uint(0); i < loopn; i++ {
			for _, a := range as {
				if err := a(ctx, sess); err != nil {
					log.Errorf(errors.ErrorStack(err))
					return
				}
			}
		}
	}
}

func parseLine(line string) ([]action, uint, error) {
	loopn := uint(0)
	as := make([]action, 0, 8)
	for _, word := range strings.Fields(line) {
		switch {
		case word == "help":
			return []action{doUsage}, 1, nil
		case strings.HasPrefix(word, "loop="):
			if loopn != 0 {
				return nil, 0, errors.Errorf("multiple loop commands, expected at most one")
			}
			i, err := strconv.ParseUint(word[5:], 10, 32)
			if err != nil {
				return nil, 0, errors.Annotatef(err, "word=%s", word)
			}
			loopn = uint(i)
		default:
			a, err := parseCommand(word)
			if err != nil {
				return nil, 0, err
			}
			as = append(as, a)
		}
	}
	if loopn == 0 {
		loopn = 1
	}
	return as, loopn, nil
}

func parseCommand(word string) (action, error) {
	switch {
	case word == "connect":
		return doConnect, nil
	case word == "sync":
		return doSync, nil
	case word == "instant":
		return doInstant, nil
	case word == "state":
		return doState, nil
	case word == "stat":
		return doStat, nil
	case word == "log=yes":
		return doLog(log2.LDebug), nil
	case word == "log=no":
		return doLog(log2.LInfo), nil
	case strings.HasPrefix(word, "history="):
		kind, err := smanet.ParseHistoryKind(word[8:])
		if err != nil {
			return nil, err
		}
		span := 24 * time.Hour
		if kind == smanet.HistoryMonth {
			span = 31 * 24 * time.Hour
		}
		return newHistory(kind, span), nil
	case word[0] == 's':
		i, err := strconv.ParseUint(word[1:], 10, 32)
		if err != nil {
			return nil, errors.Annotatef(err, "word=%s", word)
		}
		d := time.Duration(i) * time.Millisecond
		return func(context.Context, *beam.Session) error { time.Sleep(d); return nil }, nil
	case word[0] == 'p':
		bs, err := hex.DecodeString(word[1:])
		if err != nil {
			return nil, errors.Annotatef(err, "word=%s", word)
		}
		if len(bs) < smanet.HeaderLength-1 {
			return nil, errors.NotValidf("request=%x shorter than header", bs)
		}
		return newRaw(smanet.NewTemplate(bs)), nil
	default:
		return nil, errors.Errorf("error: invalid command: '%s'", word)
	}
}

func doUsage(context.Context, *beam.Session) error {
	log.Infof(usage)
	return nil
}

func doConnect(ctx context.Context, sess *beam.Session) error {
	err := sess.Reconnect(ctx)
	log.Infof("state=%s", sess.State())
	return err
}

func doSync(ctx context.Context, sess *beam.Session) error {
	return sess.SyncOnline(ctx)
}

func doInstant(ctx context.Context, sess *beam.Session) error {
	inst, err := sess.Instant(ctx)
	if err != nil && !smanet.IsChecksum(err) {
		return err
	}
	log.Infof("< %s checksum_err=%v", inst.String(), err)
	return nil
}

func doState(ctx context.Context, sess *beam.Session) error {
	id, ok := sess.DeviceID()
	log.Infof("state=%s device=%s identified=%t last_sync=%v", sess.State(), id, ok, sess.LastSync())
	return nil
}

func doStat(ctx context.Context, sess *beam.Session) error {
	log.Infof("stat=%+v", sess.Stat())
	return nil
}

func doLog(level log2.Level) action {
	return func(ctx context.Context, sess *beam.Session) error {
		log.SetLevel(level)
		sess.Log.SetLevel(level)
		return nil
	}
}

func newHistory(kind smanet.HistoryKind, span time.Duration) action {
	return func(ctx context.Context, sess *beam.Session) error {
		to := time.Now()
		ss, err := sess.History(ctx, kind, to.Add(-span), to)
		for _, s := range ss {
			log.Infof("< %s %.3f", s.Time.Format(time.RFC3339), s.Value)
		}
		log.Infof("history=%s samples=%d", kind, len(ss))
		return err
	}
}

func newRaw(template []byte) action {
	return func(ctx context.Context, sess *beam.Session) error {
		f, err := sess.Exchange(ctx, template)
		if f != nil {
			log.Infof("< %s", f.String())
		}
		return err
	}
}
