package gui

import "gpttrans/src/messages"

// State is what the output window shows. It is mutated only by Apply, on
// the UI goroutine.
type State struct {
	Text    string
	Loading bool
}

// Effects tells the surface which widgets need refreshing after Apply.
type Effects struct {
	TextChanged    bool
	LoadingChanged bool
	Raise          bool
	OpenSettings   bool
}

// Apply folds a drained batch of messages into the state, in order.
func (s *State) Apply(msgs []messages.Message) Effects {
	var eff Effects
	for _, m := range msgs {
		switch m := m.(type) {
		case messages.ShowText:
			s.Text = m.Text
			eff.TextChanged = true
			eff.Raise = true
		case messages.AppendText:
			if m.Text == "" {
				continue
			}
			s.Text += m.Text
			eff.TextChanged = true
		case messages.SetLoading:
			if s.Loading != m.Loading {
				s.Loading = m.Loading
				eff.LoadingChanged = true
			}
		case messages.ShowWindow:
			eff.Raise = true
		case messages.OpenSettings:
			eff.OpenSettings = true
		}
	}
	return eff
}
