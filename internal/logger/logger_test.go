// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())
}

func TestDebug(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		want    string
	}{
		{"verbose prints", true, "[DEBUG] round 3 fetched 7\n"},
		{"quiet prints nothing", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer reset()
			var buf bytes.Buffer
			SetOutput(&buf)
			SetVerbose(tt.verbose)

			Debug("round %d fetched %d", 3, 7)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestInfoAndSection(t *testing.T) {
	defer reset()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Section("Paginate")
	Info("page %d closed", 2)

	assert.Equal(t, "\n=== Paginate ===\n[INFO] page 2 closed\n", buf.String())
}

func TestWarnIgnoresVerbose(t *testing.T) {
	defer reset()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Warn("backend %s excluded", "east")
	assert.Equal(t, "[WARN] backend east excluded\n", buf.String())
}

func TestSessionTagsLines(t *testing.T) {
	defer reset()
	var buf bytes.Buffer
	SetOutput(&buf)

	log := ForSession("3f9c2a7e-0b1d-4c55-9e0a-51d2c4f0aa10")
	log.Debug("hidden while quiet")
	log.Warn("excluding %s", "west")

	SetVerbose(true)
	log.Debug("page %d closed", 1)
	ForSession("abc").Debug("short id")

	assert.Equal(t,
		"[WARN] session 3f9c2a7e: excluding west\n"+
			"[DEBUG] session 3f9c2a7e: page 1 closed\n"+
			"[DEBUG] session abc: short id\n",
		buf.String())
}

func TestMessagesWithPercentArePrintedVerbatim(t *testing.T) {
	defer reset()
	var buf bytes.Buffer
	SetOutput(&buf)

	ForSession("s1").Warn("query %q", "100%")
	assert.Equal(t, "[WARN] session s1: query \"100%\"\n", buf.String())
}
