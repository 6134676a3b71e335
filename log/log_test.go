package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	out, level := Logger.Out, Logger.Level
	Logger.SetOutput(&buf)
	t.Cleanup(func() {
		Logger.SetOutput(out)
		Logger.SetLevel(level)
	})

	SetLevel(InfoLevel)
	Debugf("hidden %d", 1)
	Log(DebugLevel, "hidden too")
	assert.Empty(t, buf.String())

	Infof("shown %d", 2)
	WithFields(Fields{"survey": "poll"}).Info("submitted")
	assert.Contains(t, buf.String(), "shown 2")
	assert.Contains(t, buf.String(), "survey=poll")

	buf.Reset()
	SetLevel(DebugLevel)
	Log(DebugLevel, "now shown")
	assert.Contains(t, buf.String(), "now shown")
}
