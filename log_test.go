package interaktor_test

import (
	"bytes"
	"context"
	"log"
	"os"
	"os/exec"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taylorthurlow/interaktor"
)

func TestContextLogger(t *testing.T) {
	lg := interaktor.GoLog(nil, "", 0)
	ctx := interaktor.SetLogger(context.Background(), lg)

	require.Equal(t, lg, interaktor.ContextLogger(ctx))

	var buf bytes.Buffer
	lg = interaktor.GoLog(&buf, "", 0)

	lg.Debugf("level")
	lg.Infof("level")
	lg.Warnf("level")
	lg.Errorf("level")

	str := buf.String()
	assert.Contains(t, str, "[DEBUG] level")
	assert.Contains(t, str, "[INFO]  level")
	assert.Contains(t, str, "[WARN]  level")
	assert.Contains(t, str, "[ERROR] level")

	nl := interaktor.ContextLogger(context.Background())
	assert.Equal(t, interaktor.NopLogger, nl)
	nl.Debugf("level")
	nl.Infof("level")
	nl.Warnf("level")
	nl.Errorf("level")
}

func TestGoLog_PrefixAndFields(t *testing.T) {
	var buf bytes.Buffer
	lg := interaktor.GoLog(&buf, "[pipeline] ", log.Lmsgprefix)

	lg.WithFields(logrus.Fields{"step": "charge", "invocation": "abc"}).Info("done")

	assert.Equal(t, "[pipeline] [INFO]  done invocation=abc step=charge\n", buf.String())
}

func TestNopLoggerFatal(t *testing.T) {
	if os.Getenv("LOG_FATAL_TEST") == "1" {
		interaktor.NopLogger.Fatalf("level")
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestNopLoggerFatal$")
	cmd.Env = append(os.Environ(), "LOG_FATAL_TEST=1")
	err := cmd.Run()
	require.IsType(t, &exec.ExitError{}, err)
	require.False(t, err.(*exec.ExitError).Success())
}
