package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Loader reads run reports written by the stats hook.
type Loader struct {
	Log logrus.FieldLogger
}

// NewLoader returns a Loader that logs to log, or to the standard logger when
// log is nil.
func NewLoader(log logrus.FieldLogger) *Loader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loader{Log: log}
}

// Load is shorthand for NewLoader(nil).Load(path).
func Load(path string) *Report {
	return NewLoader(nil).Load(path)
}

// Load reads the report at path. It returns nil when the report is
// unavailable (missing, unreadable, malformed or failing validation); every
// such case is logged as exactly two errors. Keys the loader does not know are
// ignored and reported in a single warning.
func (l *Loader) Load(path string) *Report {
	base := l.Log
	if base == nil {
		base = logrus.StandardLogger()
	}
	log := base.WithField("path", path)

	data, err := readReport(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.WithError(err).Error("Could not open run report: file not found")
		case errors.Is(err, fs.ErrPermission):
			log.WithError(err).Error("Could not open run report: permission denied")
		default:
			log.WithError(err).Error("Could not read run report")
		}
		log.Error("Run report unavailable, treating failure as fatal")
		return nil
	}

	if err := Validate(data); err != nil {
		log.WithError(err).Error("Could not parse run report")
		log.Error("Run report unavailable, treating failure as fatal")
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.WithError(err).Error("Could not parse run report")
		log.Error("Run report unavailable, treating failure as fatal")
		return nil
	}

	if unknown := unknownFields(raw); len(unknown) > 0 {
		log.WithField("fields", unknown).Warnf("Unexpected fields in run report: %s", strings.Join(unknown, ", "))
	}

	r, err := decode(data)
	if err != nil {
		log.WithError(err).Error("Could not decode run report")
		log.Error("Run report unavailable, treating failure as fatal")
		return nil
	}
	return r
}

// wireReport mirrors Report with counts kept as numbers so integral floats
// such as 3.0 decode.
type wireReport struct {
	NumFailures      json.Number `json:"num_failures"`
	NumUnreachable   json.Number `json:"num_unreachable"`
	Failures         []string    `json:"failures"`
	Unreachable      []string    `json:"unreachable"`
	NoHostsRemaining bool        `json:"no_hosts_remaining"`
}

func decode(data []byte) (*Report, error) {
	var w wireReport
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	r := New()
	var err error
	if r.NumFailures, err = count("num_failures", w.NumFailures); err != nil {
		return nil, err
	}
	if r.NumUnreachable, err = count("num_unreachable", w.NumUnreachable); err != nil {
		return nil, err
	}
	if w.Failures != nil {
		r.Failures = w.Failures
	}
	if w.Unreachable != nil {
		r.Unreachable = w.Unreachable
	}
	r.NoHostsRemaining = w.NoHostsRemaining
	return r, nil
}

func count(key string, n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%s: %s is not a host count", key, n)
	}
	return int(f), nil
}

// openReport is replaced in tests to simulate open failures.
var openReport = func(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func readReport(path string) ([]byte, error) {
	f, err := openReport(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

var knownFields = jsonFields(reflect.TypeOf(Report{}))

// unknownFields returns the sorted keys of raw that Report does not declare.
func unknownFields(raw map[string]json.RawMessage) []string {
	var unknown []string
	for key := range raw {
		if !knownFields[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// jsonFields returns the JSON names declared by the struct tags of t.
func jsonFields(t reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		if name := strings.Split(tag, ",")[0]; name != "" {
			fields[name] = true
		}
	}
	return fields
}
