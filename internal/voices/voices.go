// Package voices maps script speakers to synthesized voices.
package voices

import (
	"fmt"
	"strings"

	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/shared"
)

// Entry is one speaker's voice. An empty VoiceID means unassigned.
type Entry struct {
	Speaker string `json:"speaker"`
	VoiceID string `json:"voice_id"`
}

// Assignment is the speaker to voice mapping of a script, in speaker order.
type Assignment []Entry

// New returns an assignment with every speaker unassigned.
func New(speakers []string) Assignment {
	a := make(Assignment, 0, len(speakers))
	for _, s := range speakers {
		a = append(a, Entry{Speaker: s})
	}
	return a
}

// AutoAssign gives each speaker a distinct voice, greedily in speaker order.
//
// For each speaker it takes the first unused voice whose gender label matches.
// Speakers of unknown gender fall back to the first unused neutral voice.
// Failing both, any unused voice is taken. Once voices run out the remaining
// speakers stay unassigned. No voice is given to two speakers.
func AutoAssign(speakers []models.Speaker, available []models.Voice) Assignment {
	used := make(map[string]bool, len(available))
	a := make(Assignment, 0, len(speakers))

	pick := func(match func(models.Voice) bool) string {
		for _, v := range available {
			if !used[v.ID] && match(v) {
				return v.ID
			}
		}
		return ""
	}

	for _, sp := range speakers {
		gender := strings.ToLower(strings.TrimSpace(sp.Gender))

		chosen := pick(func(v models.Voice) bool { return v.Gender() == gender })
		if chosen == "" && gender == models.GenderUnknown {
			chosen = pick(func(v models.Voice) bool { return v.Gender() == models.GenderNeutral })
		}
		if chosen == "" {
			chosen = pick(func(models.Voice) bool { return true })
		}

		if chosen != "" {
			used[chosen] = true
		}
		a = append(a, Entry{Speaker: sp.Name, VoiceID: chosen})
	}

	return a
}

// Reconcile returns an assignment whose speakers are exactly speakers, in that order.
// Voices already chosen for speakers that are still present are kept.
func Reconcile(a Assignment, speakers []string) Assignment {
	prev := a.Map()
	out := make(Assignment, 0, len(speakers))
	for _, s := range speakers {
		out = append(out, Entry{Speaker: s, VoiceID: prev[s]})
	}
	return out
}

// Map returns the assignment as speaker to voice id.
func (a Assignment) Map() map[string]string {
	m := make(map[string]string, len(a))
	for _, e := range a {
		m[e.Speaker] = e.VoiceID
	}
	return m
}

// Speakers returns the speaker names in order.
func (a Assignment) Speakers() []string {
	names := make([]string, len(a))
	for i, e := range a {
		names[i] = e.Speaker
	}
	return names
}

// Get returns the voice assigned to speaker.
func (a Assignment) Get(speaker string) (string, bool) {
	for _, e := range a {
		if e.Speaker == speaker {
			return e.VoiceID, true
		}
	}
	return "", false
}

// Set assigns voiceID to an existing speaker. An empty voiceID clears it.
func (a Assignment) Set(speaker, voiceID string) error {
	for i := range a {
		if a[i].Speaker == speaker {
			a[i].VoiceID = voiceID
			return nil
		}
	}
	return fmt.Errorf("%w: %s", shared.ErrUnknownSpeaker, speaker)
}

// Unassigned lists speakers without a voice.
func (a Assignment) Unassigned() []string {
	var out []string
	for _, e := range a {
		if e.VoiceID == "" {
			out = append(out, e.Speaker)
		}
	}
	return out
}

// Find looks a voice up by id, then by case-insensitive name.
func Find(available []models.Voice, idOrName string) (models.Voice, error) {
	for _, v := range available {
		if v.ID == idOrName {
			return v, nil
		}
	}
	for _, v := range available {
		if strings.EqualFold(v.Name, idOrName) {
			return v, nil
		}
	}
	return models.Voice{}, fmt.Errorf("%w: %s", shared.ErrUnknownVoice, idOrName)
}
