package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomFormatterLayout(t *testing.T) {
	f := &CustomFormatter{SystemName: "tracker", Location: time.UTC}
	entry := &logrus.Entry{
		Time:    time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "Event ID: X, Description: something",
		Data:    logrus.Fields{"b": 2, "a": 1},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)

	line := string(out)
	assert.True(t, strings.HasPrefix(line, "Date: 2024-05-06, Time: 07:08:09, Event Source: tracker, Event Type: WARNING, Event ID: "))
	assert.Contains(t, line, "Message: Event ID: X, Description: something, a=1, b=2")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestConfigureLevelFallback(t *testing.T) {
	l := logrus.New()
	Configure(l, Options{SystemName: "t", Level: "nonsense"})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	Configure(l, Options{SystemName: "t", Level: "debug"})
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.Debug("hello")
	assert.Contains(t, buf.String(), "Event Source: t")
}
