package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingNotifier struct {
	infos []string
	warns []string
}

func (n *recordingNotifier) Info(message string) { n.infos = append(n.infos, message) }
func (n *recordingNotifier) Warn(message string) { n.warns = append(n.warns, message) }

func TestStateDefaultsSignedOut(t *testing.T) {
	t.Parallel()
	state := NewState(nil)
	assert.False(t, state.SignedIn())
}

func TestSetSignedIn(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	state := NewState(notifier)

	state.SetSignedIn(true)
	assert.True(t, state.SignedIn())
	assert.Len(t, notifier.infos, 1)

	state.SetSignedIn(false)
	assert.False(t, state.SignedIn())
	assert.Len(t, notifier.warns, 1)

	// Nil notifier is tolerated.
	NewState(nil).SetSignedIn(true)
}
