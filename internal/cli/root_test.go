package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"eval", "keys", "run"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	capacity := cmd.PersistentFlags().Lookup("capacity")
	require.NotNil(t, capacity)
	assert.Equal(t, "10", capacity.DefValue)
}

func TestInvalidCapacity(t *testing.T) {
	_, err := execute(t, "--capacity", "0", "eval", "1")
	assert.ErrorContains(t, err, "invalid capacity")
}

func TestEval(t *testing.T) {
	out, err := execute(t, "eval", "2+3", "*4", "M3=M1/8")
	require.NoError(t, err)

	assert.Contains(t, out, "2+3 = 5\n")
	assert.Contains(t, out, "*4 = 20\n")
	assert.Contains(t, out, "M3=M1/8 = 2.5\n")
	assert.Contains(t, out, "M1 = 20\n")
	assert.Contains(t, out, "M3 = 2.5\n")
	assert.Contains(t, out, " 3  2.5\n")
}

func TestEvalReportsFailures(t *testing.T) {
	out, err := execute(t, "eval", "1/0", "7")
	assert.ErrorContains(t, err, "1 of 2 expressions failed")
	assert.Contains(t, out, "1/0: ")
	assert.Contains(t, out, "7 = 7\n")
}

func TestKeys(t *testing.T) {
	out, err := execute(t, "keys", "1", "+", "2", "ENTER", "4")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 8)
	assert.Equal(t, "|                3|", lines[5], "newest history")
	assert.Equal(t, "|                4|", lines[6], "input line")
	assert.Contains(t, out, "keypad: locked, layer 0, 1 timers pending\n", "history flush waits")
}

func TestKeysUnknown(t *testing.T) {
	_, err := execute(t, "keys", "NOPE")
	assert.ErrorContains(t, err, `unknown key "NOPE"`)
}

func TestKeysUnlockedReportsUSB(t *testing.T) {
	out, err := execute(t, "keys", "NUMLOCK", "KP1")
	require.NoError(t, err)
	assert.Contains(t, out, "usb: 59 00\n")
	assert.Contains(t, out, "keypad: unlocked, layer 0, 1 timers pending\n")
	assert.Contains(t, out, "keypad")
}

func TestRunScript(t *testing.T) {
	script := filepath.Join(t.TempDir(), "store.keys")
	require.NoError(t, os.WriteFile(script, []byte(`# store 9 in M4
9 ENTER
+M4 wait:1s -M4
"wait:8s"
M4 '*' 2 ENTER
`), 0o644))

	out, err := execute(t, "run", script)
	require.NoError(t, err)
	assert.Contains(t, out, "|               18|")
}

func TestSimWait(t *testing.T) {
	sim, err := NewSim(&RootOptions{Capacity: 4}, &bytes.Buffer{})
	require.NoError(t, err)

	require.NoError(t, sim.Apply("NUMLOCK"))
	_, showing := sim.Frame.Message()
	assert.True(t, showing)

	sim.Wait(5 * time.Second)
	_, showing = sim.Frame.Message()
	assert.False(t, showing)
}
