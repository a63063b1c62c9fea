// Package config reads HCL configuration with include support.
package config

import (
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/sunbeam/beam"
	"github.com/temoto/sunbeam/helpers"
	"github.com/temoto/sunbeam/log2"
	"github.com/temoto/sunbeam/smanet"
	"github.com/temoto/sunbeam/tele"
	"github.com/temoto/sunbeam/usb"
)

const (
	DefaultPollInterval    = 60 * time.Second
	DefaultHistoryInterval = 15 * time.Minute
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []Source `hcl:"include"`

	Device struct { //nolint:maligned
		Path             string `hcl:"path"`
		Interface        int    `hcl:"interface"`
		Serial           int64  `hcl:"serial"`
		EndpointOut      int    `hcl:"endpoint_out"`
		EndpointIn       int    `hcl:"endpoint_in"`
		ReadTimeoutMs    int    `hcl:"read_timeout_ms"`
		SettleMs         int    `hcl:"settle_ms"`
		ReadAttempts     int    `hcl:"read_attempts"`
		WriteRetries     int    `hcl:"write_retries"`
		MultiMaxFrames   int    `hcl:"multi_max_frames"`
		MultiDeadlineSec int    `hcl:"multi_deadline_sec"`
		LogDebug         bool   `hcl:"log_debug"`
		LogLevel         string `hcl:"log_level"`
	} `hcl:"device"`

	Poll struct {
		IntervalSec        int    `hcl:"interval_sec"`
		History            string `hcl:"history"`
		HistoryIntervalSec int    `hcl:"history_interval_sec"`
		HistorySpanSec     int    `hcl:"history_span_sec"`
	} `hcl:"poll"`

	Tele tele.Config `hcl:"tele"`
}

type Source struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

func (c *Config) read(log *log2.Log, fs FullReader, source Source, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	if err = hcl.Unmarshal(bs, c); err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s", source.Name)
		*errs = append(*errs, err)
		return
	}

	var includes []Source
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// ReadConfig merges named sources in order, later values win.
// For OsFullReader, includes are relative to directory of first name.
func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		return nil, errors.Errorf("code error ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		if err := osfs.SetBase(dir); err != nil {
			return nil, err
		}
		names = append([]string{name}, names[1:]...)
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, Source{Name: name}, &errs)
	}
	if len(errs) == 0 {
		errs = append(errs, c.Validate())
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}

func (c *Config) Validate() error {
	errs := make([]error, 0, 4)
	if c.Device.Serial < 0 || c.Device.Serial > int64(^uint32(0)-smanet.SerialNumberBias) {
		errs = append(errs, errors.NotValidf("device.serial=%d", c.Device.Serial))
	}
	for _, ep := range []int{c.Device.EndpointOut, c.Device.EndpointIn} {
		if ep < 0 || ep > 0xff {
			errs = append(errs, errors.NotValidf("device endpoint=%d", ep))
		}
	}
	if _, err := log2.ParseLevel(c.Device.LogLevel); err != nil {
		errs = append(errs, errors.Annotate(err, "device.log_level"))
	}
	if c.Poll.History != "" {
		if _, err := smanet.ParseHistoryKind(c.Poll.History); err != nil {
			errs = append(errs, errors.Annotate(err, "poll.history"))
		}
	}
	return helpers.FoldErrors(errs)
}

func (c *Config) Policy() beam.Policy {
	d := &c.Device
	return beam.Policy{
		Settle:       helpers.IntMillisecondDefault(d.SettleMs, beam.DefaultSettle),
		ReadTimeout:  helpers.IntMillisecondDefault(d.ReadTimeoutMs, beam.DefaultReadTimeout),
		ReadAttempts: d.ReadAttempts,
		WriteRetries: d.WriteRetries,
		MaxFrames:    d.MultiMaxFrames,
		Deadline:     time.Duration(d.MultiDeadlineSec) * time.Second,
	}.Merge(beam.DefaultPolicy())
}

func (c *Config) BeamOptions(log *log2.Log) beam.Options {
	return beam.Options{
		Serial:      uint32(c.Device.Serial),
		EndpointOut: uint8(c.Device.EndpointOut),
		EndpointIn:  uint8(c.Device.EndpointIn),
		ReadMax:     usb.DefaultReadMax,
		Policy:      c.Policy(),
		Log:         log,
	}
}

func (c *Config) PollInterval() time.Duration {
	return helpers.IntSecondDefault(c.Poll.IntervalSec, DefaultPollInterval)
}

func (c *Config) HistoryInterval() time.Duration {
	return helpers.IntSecondDefault(c.Poll.HistoryIntervalSec, DefaultHistoryInterval)
}

// HistoryKind is HistoryInvalid when history polling is off.
func (c *Config) HistoryKind() smanet.HistoryKind {
	k, _ := smanet.ParseHistoryKind(c.Poll.History)
	return k
}

// HistorySpan defaults to one day or one month by kind.
func (c *Config) HistorySpan() time.Duration {
	def := 24 * time.Hour
	if c.HistoryKind() == smanet.HistoryMonth {
		def = 31 * 24 * time.Hour
	}
	return helpers.IntSecondDefault(c.Poll.HistorySpanSec, def)
}

// LogLevel is debug when log_debug is set, otherwise log_level, default info.
func (c *Config) LogLevel() log2.Level {
	if c.Device.LogDebug {
		return log2.LDebug
	}
	l, _ := log2.ParseLevel(c.Device.LogLevel)
	return l
}
