package control

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseEvent reads one line of the front-end protocol:
//
//	key_down <key>
//	key_up <key>
//	set <target> <value>
//
// Tokens are separated by single spaces and may be query-escaped.
func ParseEvent(line string) (Event, error) {
	tokens, err := splitLine(line)
	if err != nil {
		return Event{}, err
	}
	if len(tokens) == 0 || tokens[0] == "" {
		return Event{}, fmt.Errorf("empty line")
	}
	kind, err := eventKindFromString(tokens[0])
	if err != nil {
		return Event{}, err
	}
	switch kind {
	case EventKeyDown, EventKeyUp:
		if len(tokens) != 2 {
			return Event{}, fmt.Errorf("invalid %s line %q", kind, line)
		}
		return Event{Kind: kind, Target: tokens[1]}, nil
	default:
		if len(tokens) != 3 {
			return Event{}, fmt.Errorf("invalid key-value pair %v", tokens[1:])
		}
		value, err := strconv.ParseFloat(tokens[2], 64)
		if err != nil {
			return Event{}, fmt.Errorf("invalid value for %s: %w", tokens[1], err)
		}
		return ValueChanged(tokens[1], value), nil
	}
}

// FormatEvent is the inverse of ParseEvent.
func FormatEvent(e Event) string {
	parts := []string{e.Kind.String(), url.QueryEscape(e.Target)}
	if e.Kind == EventValueChanged {
		parts = append(parts, strconv.FormatFloat(e.Value, 'f', -1, 64))
	}
	return strings.Join(parts, " ")
}

func splitLine(line string) ([]string, error) {
	tokens := strings.Split(strings.TrimRight(line, "\r\n"), " ")
	for i, item := range tokens {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		tokens[i] = escaped
	}
	return tokens, nil
}
