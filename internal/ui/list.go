package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/narrate/internal/models"
)

var (
	_ list.Item = speakerItem{}
	_ list.Item = voiceItem{}
)

// speakerItem wraps [models.Speaker] and its assigned voice to implement [list.Item].
type speakerItem struct {
	speaker models.Speaker
	voice   string
}

func (i speakerItem) FilterValue() string { return i.speaker.Name }
func (i speakerItem) Title() string       { return i.speaker.Name }
func (i speakerItem) Description() string {
	voice := i.voice
	if voice == "" {
		voice = "unassigned"
	}
	return fmt.Sprintf("%s • %s", i.speaker.Gender, voice)
}

// voiceItem wraps [models.Voice] to implement [list.Item].
type voiceItem struct {
	voice models.Voice
}

func (i voiceItem) FilterValue() string { return i.voice.Name }
func (i voiceItem) Title() string       { return i.voice.Name }
func (i voiceItem) Description() string {
	if i.voice.Labels == "" {
		return i.voice.ID
	}
	return fmt.Sprintf("%s • %s", i.voice.Gender(), i.voice.ID)
}

func speakerItems(ov *Overview) []list.Item {
	if ov == nil || ov.Script == nil {
		return nil
	}
	names := make(map[string]string, len(ov.Voices))
	for _, v := range ov.Voices {
		names[v.ID] = v.Name
	}

	items := make([]list.Item, len(ov.Script.Speakers))
	for i, sp := range ov.Script.Speakers {
		id, _ := ov.Assignment.Get(sp.Name)
		label := names[id]
		if label == "" {
			label = id
		}
		items[i] = speakerItem{speaker: sp, voice: label}
	}
	return items
}

func voiceItems(ov *Overview) []list.Item {
	if ov == nil {
		return nil
	}
	items := make([]list.Item, len(ov.Voices))
	for i, v := range ov.Voices {
		items[i] = voiceItem{voice: v}
	}
	return items
}
