package interaktor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is what your logrus-enabled library should take, that way
// it'll accept a logrus logger or anything else with leveled printf methods.
// There's no standard interface, this is the closest we get, unfortunately.
type Logger interface {
	Debugf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Errorf(string, ...interface{})

	Fatalf(string, ...interface{})
	Panicf(string, ...interface{})
}

type loggerKey struct{}

// NopLogger drops every message on the floor, Fatal still exits the process
var NopLogger = newNopLogger()

func newNopLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = ioutil.Discard
	l.Level = logrus.DebugLevel
	return l
}

// GoLog creates a logrus logger that renders its entries the way the stdlib logger does,
// with the level in brackets in front of the message: "[WARN]  something happened".
// The prefix and flags are interpreted like they are for log.New.
func GoLog(w io.Writer, prefix string, flags int) *logrus.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := logrus.New()
	l.Out = w
	l.Level = logrus.DebugLevel
	l.Formatter = &stdFormatter{prefix: prefix, flags: flags}
	return l
}

type stdFormatter struct {
	prefix string
	flags  int
}

func (s *stdFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var buf bytes.Buffer
	if s.flags&log.Lmsgprefix == 0 {
		buf.WriteString(s.prefix)
	}
	if s.flags&(log.Ldate|log.Ltime|log.Lmicroseconds) != 0 {
		t := entry.Time
		if s.flags&log.LUTC != 0 {
			t = t.UTC()
		}
		if s.flags&log.Ldate != 0 {
			buf.WriteString(t.Format("2006/01/02 "))
		}
		if s.flags&log.Lmicroseconds != 0 {
			buf.WriteString(t.Format("15:04:05.000000 "))
		} else if s.flags&log.Ltime != 0 {
			buf.WriteString(t.Format("15:04:05 "))
		}
	}
	if s.flags&log.Lmsgprefix != 0 {
		buf.WriteString(s.prefix)
	}

	lvl := strings.ToUpper(entry.Level.String())
	if lvl == "WARNING" {
		lvl = "WARN"
	}
	fmt.Fprintf(&buf, "%-7s %s", "["+lvl+"]", entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&buf, " %s=%v", k, entry.Data[k])
		}
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// SetLogger on the context for usage in the steps
func SetLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// ContextLogger gets the logger from the context, NopLogger when there is none
func ContextLogger(ctx context.Context) Logger {
	if ctx == nil {
		return NopLogger
	}
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return NopLogger
}
