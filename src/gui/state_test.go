package gui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gpttrans/src/messages"
)

func TestStateApplyStreamingSequence(t *testing.T) {
	var s State
	eff := s.Apply([]messages.Message{
		messages.SetLoading{Loading: true},
		messages.ShowText{Text: ""},
		messages.AppendText{Text: "Bon"},
		messages.AppendText{Text: "jour"},
	})
	assert.Equal(t, State{Text: "Bonjour", Loading: true}, s)
	assert.Equal(t, Effects{TextChanged: true, LoadingChanged: true, Raise: true}, eff)

	eff = s.Apply([]messages.Message{
		messages.ShowText{Text: "Bonjour!"},
		messages.SetLoading{Loading: false},
	})
	assert.Equal(t, State{Text: "Bonjour!"}, s)
	assert.True(t, eff.LoadingChanged)
}

func TestStateApplyShowWindowKeepsText(t *testing.T) {
	s := State{Text: "partial", Loading: true}
	eff := s.Apply([]messages.Message{messages.ShowWindow{}, messages.SetLoading{Loading: true}})
	assert.Equal(t, "partial", s.Text)
	assert.Equal(t, Effects{Raise: true}, eff)
}

func TestStateApplyOpenSettings(t *testing.T) {
	var s State
	eff := s.Apply([]messages.Message{messages.OpenSettings{}, messages.AppendText{}})
	assert.Equal(t, Effects{OpenSettings: true}, eff)
	assert.Empty(t, s.Text)
}
