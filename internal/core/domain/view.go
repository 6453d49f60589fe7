package domain

// View is everything the page needs to render a session. Each visibility flag
// is derived independently from the session.
type View struct {
	SessionID        string        `json:"session_id"`
	State            string        `json:"state"`
	Seq              uint64        `json:"seq"`
	ShowCameraButton bool          `json:"show_camera_button"`
	ShowDetectButton bool          `json:"show_detect_button"`
	ShowMood         bool          `json:"show_mood"`
	Mood             Mood          `json:"mood,omitempty"`
	ShowGrid         bool          `json:"show_grid"`
	EmbedURLs        []string      `json:"embed_urls"`
	Busy             bool          `json:"busy"`
	Error            *SessionError `json:"error,omitempty"`
}

// View derives the render state.
func (s Session) View() View {
	c := s.Clone()
	v := View{
		SessionID:        c.ID,
		State:            c.State.String(),
		Seq:              c.Seq,
		ShowCameraButton: !c.CameraReady,
		ShowDetectButton: c.CameraReady,
		ShowMood:         c.Mood != "",
		Mood:             c.Mood,
		ShowGrid:         len(c.EmbedURLs) > 0,
		EmbedURLs:        c.EmbedURLs,
		Busy:             c.Busy(),
	}
	if c.State == StateError {
		v.Error = c.Err
	}
	return v
}
