// Package router classifies the latest user message into one of the fixed handling labels.
package router

import (
	"context"
	"errors"
	"strings"
)

// Router classifies a user message into a Label.
type Router interface {
	// Route returns a label in Labels() for the given text. A non-nil error is
	// informational: the returned label is always usable.
	Route(ctx context.Context, latestUserText string) (Label, error)
}

// Label is the routing category of a message.
type Label string

const (
	LabelGeneral Label = "general"
	LabelMemory  Label = "memory"
	LabelTask    Label = "task"
	LabelWeather Label = "weather"
)

// ErrUnrecognizedLabel is returned when the model answers outside the label set.
var ErrUnrecognizedLabel = errors.New("unrecognized routing label")

// Labels returns the fixed label set.
func Labels() []Label {
	return []Label{LabelGeneral, LabelMemory, LabelTask, LabelWeather}
}

// IsValid reports whether l belongs to the label set.
func (l Label) IsValid() bool {
	switch l {
	case LabelGeneral, LabelMemory, LabelTask, LabelWeather:
		return true
	}
	return false
}

func (l Label) String() string {
	return string(l)
}

// labelAliases maps the accepted spellings, including the legacy node names.
var labelAliases = map[string]Label{
	"general":      LabelGeneral,
	"alfred":       LabelGeneral,
	"alfred_node":  LabelGeneral,
	"general_node": LabelGeneral,
	"memory":       LabelMemory,
	"memory_node":  LabelMemory,
	"task":         LabelTask,
	"tasks":        LabelTask,
	"task_node":    LabelTask,
	"weather":      LabelWeather,
	"weather_node": LabelWeather,
}

const labelCutset = " \t\r\n\"'`.,;:!?*()[]{}"

// ParseLabel normalizes raw model output into a Label.
// Unknown output yields (LabelGeneral, ErrUnrecognizedLabel).
func ParseLabel(raw string) (Label, error) {
	s := strings.ToLower(strings.Trim(raw, labelCutset))
	if l, ok := labelAliases[s]; ok {
		return l, nil
	}

	// Accept a short sentence that names exactly one label, e.g. "Label: task".
	var found Label
	for _, word := range strings.Fields(s) {
		l, ok := labelAliases[strings.Trim(word, labelCutset)]
		if !ok {
			continue
		}
		if found != "" && found != l {
			return LabelGeneral, ErrUnrecognizedLabel
		}
		found = l
	}
	if found != "" {
		return found, nil
	}
	return LabelGeneral, ErrUnrecognizedLabel
}
