package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	name string
	args []string
	n    int
}

func newRecording() (*Notifier, *recorder) {
	r := &recorder{}
	n := NewNotifier()
	n.run = func(name string, args ...string) error {
		r.name, r.args = name, args
		r.n++
		return nil
	}
	return n, r
}

func TestArgs(t *testing.T) {
	args := Args(Notification{
		Title:   "Title",
		Body:    "Body",
		Urgency: UrgencyCritical,
		Timeout: 2 * time.Second,
		Icon:    "icon",
	})
	assert.Equal(t, []string{"-u", "critical", "-t", "2000", "-i", "icon", "-a", "tabshelf", "Title", "Body"}, args)

	args = Args(Notification{Title: "Only"})
	assert.Equal(t, []string{"-u", "low", "-a", "tabshelf", "Only"}, args)
}

func TestDisabledNotifierSendsNothing(t *testing.T) {
	n, r := newRecording()
	n.SetEnabled(false)

	require.NoError(t, n.SendSimple("x", "y"))
	assert.Zero(t, r.n)
	assert.False(t, n.IsEnabled())
}

func TestDomainNotifications(t *testing.T) {
	n, r := newRecording()

	require.NoError(t, n.SendImportComplete(3, "/data/backups/pre-import-1.json"))
	assert.Equal(t, "notify-send", r.name)
	assert.Contains(t, r.args, "Import complete")
	assert.Contains(t, r.args, "3 items merged\nBackup: pre-import-1.json")

	require.NoError(t, n.SendWorkspaceRestored("Morning", 2))
	assert.Contains(t, r.args, "Restored 2 windows")

	require.NoError(t, n.SendFailure("Import", errors.New("bad version")))
	assert.Contains(t, r.args, "critical")
	assert.Contains(t, r.args, "Import failed")

	require.NoError(t, n.SendBackupWritten("/x/manual-1.json"))
	assert.Contains(t, r.args, "manual-1.json")
	assert.Equal(t, 4, r.n)
}
