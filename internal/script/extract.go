package script

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/pedantalk/pedantalk/internal/podcast"
)

// turnListAliases are the object fields the model is known to wrap the turn
// list in when it ignores the "return an array" instruction.
var turnListAliases = []string{"conversation", "turns", "messages", "dialogues"}

// extractTurns pulls an ordered list of dialogue turns out of a model
// response. Strategies are tried in fixed order: the top-level value being
// the list itself, the list nested under a known alias, and finally the
// first list-valued field of the object.
func extractTurns(content string) ([]podcast.DialogueTurn, error) {
	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, err
	}

	strategies := []func(any) ([]any, bool){
		topLevelList,
		knownAliasList,
		firstListField,
	}

	var items []any
	for _, strategy := range strategies {
		if found, ok := strategy(doc); ok {
			items = found
			break
		}
	}
	if items == nil {
		return nil, errors.New("no turn list found in response")
	}

	turns := make([]podcast.DialogueTurn, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		speaker := lookupField(obj, "speaker")
		text := lookupField(obj, "text")
		if text == "" {
			continue
		}
		role := podcast.RoleGuest
		if strings.EqualFold(speaker, string(podcast.RoleHost)) {
			role = podcast.RoleHost
		}
		turns = append(turns, podcast.DialogueTurn{Speaker: role, Text: text})
	}
	if len(turns) == 0 {
		return nil, errors.New("turn list contained no usable entries")
	}
	return turns, nil
}

func topLevelList(doc any) ([]any, bool) {
	list, ok := doc.([]any)
	return list, ok
}

func knownAliasList(doc any) ([]any, bool) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, key := range turnListAliases {
		if list, ok := obj[key].([]any); ok {
			return list, true
		}
	}
	return nil, false
}

func firstListField(doc any) ([]any, bool) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, false
	}
	// Deterministic order so repeated parses agree.
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if list, ok := obj[key].([]any); ok && len(list) > 0 {
			return list, true
		}
	}
	return nil, false
}

// lookupField finds a string value under a case-insensitive key.
func lookupField(obj map[string]any, name string) string {
	for key, value := range obj {
		if strings.EqualFold(key, name) {
			if s, ok := value.(string); ok {
				return s
			}
		}
	}
	return ""
}
