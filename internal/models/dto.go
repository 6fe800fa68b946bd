package models

import (
	"encoding/json"
	"strings"
)

// Gender labels reported by the backend for voices and inferred for speakers.
const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderNeutral = "neutral"
	GenderUnknown = "unknown"
)

// Script is the output of a format job.
type Script struct {
	FileName string    `json:"file_name"`
	Text     string    `json:"script"`
	Speakers []Speaker `json:"speakers"`
}

// SpeakerNames returns the speaker names in script order.
func (s Script) SpeakerNames() []string {
	names := make([]string, len(s.Speakers))
	for i, sp := range s.Speakers {
		names[i] = sp.Name
	}
	return names
}

// DisplayName is the file name without its extension.
func (s Script) DisplayName() string {
	if i := strings.LastIndex(s.FileName, "."); i > 0 {
		return s.FileName[:i]
	}
	return s.FileName
}

// Audio is the output of an audio job. URL is a signed, time-limited download link.
type Audio struct {
	URL  string `json:"audio_url"`
	Name string `json:"audio_name"`
}

// AudioRequest is the body of an audio submission.
//
// VoiceID is the narrator voice; SpeakerVoices maps each speaker to a voice id.
type AudioRequest struct {
	DisplayFileName string            `json:"displayFileName"`
	Text            string            `json:"text"`
	VoiceID         string            `json:"voice_id"`
	SpeakerVoices   map[string]string `json:"speaker_voices"`
}

// Voice is a synthesized voice. Labels carries the gender label.
type Voice struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Labels string `json:"labels"`
}

// Gender returns the normalized gender label of the voice.
func (v Voice) Gender() string {
	return strings.ToLower(strings.TrimSpace(v.Labels))
}

// Speaker pairs a speaker name with its gender hint.
type Speaker struct {
	Name   string `json:"speaker"`
	Gender string `json:"gender"`
}

// UnmarshalJSON accepts either {"speaker", "gender"} or a bare name, which gets [GenderUnknown].
func (s *Speaker) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*s = Speaker{Name: name, Gender: GenderUnknown}
		return nil
	}

	type speaker Speaker
	var v speaker
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	v.Gender = strings.ToLower(strings.TrimSpace(v.Gender))
	if v.Gender == "" {
		v.Gender = GenderUnknown
	}
	*s = Speaker(v)
	return nil
}

// Subscription holds the current plan and remaining quotas.
type Subscription struct {
	Plan             string `json:"current_plan"`
	ScriptsRemaining int    `json:"scripts_remaining"`
	AudioRemaining   int    `json:"audio_remaining"`
}
