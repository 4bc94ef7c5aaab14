// Package commands parses and dispatches the slash-command palette of the
// notes panel.
package commands

import (
	"fmt"
	"strconv"
	"strings"
)

type Type string

const (
	TypeAttach        Type = "attach"
	TypeRemove        Type = "remove"
	TypeRecord        Type = "record"
	TypeStop          Type = "stop"
	TypeCancel        Type = "cancel"
	TypeLocation      Type = "location"
	TypeClearLocation Type = "clearlocation"
	TypeRefresh       Type = "refresh"
	TypeHelp          Type = "help"
)

var aliases = map[string]Type{
	"a":       TypeAttach,
	"rm":      TypeRemove,
	"rec":     TypeRecord,
	"loc":     TypeLocation,
	"unloc":   TypeClearLocation,
	"retry":   TypeRefresh,
	"reload":  TypeRefresh,
	"?":       TypeHelp,
	"discard": TypeCancel,
}

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type AttachArgs struct {
	Patterns []string
}

// RemoveArgs.Index is zero-based; the palette accepts one-based numbers.
type RemoveArgs struct {
	Index int
}

type RecordArgs struct {
	Kind string
}

type Command struct {
	Type   Type
	Raw    string
	Attach *AttachArgs
	Remove *RemoveArgs
	Record *RecordArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := splitArgs(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]
	t := Type(head)
	if alias, ok := aliases[head]; ok {
		t = alias
	}

	switch t {
	case TypeAttach:
		if len(args) == 0 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "attach requires at least one path"}
		}
		return Command{Type: t, Raw: input, Attach: &AttachArgs{Patterns: args}}, nil
	case TypeRemove:
		return parseRemove(input, args)
	case TypeRecord:
		return parseRecord(input, args)
	case TypeStop, TypeCancel, TypeLocation, TypeClearLocation, TypeRefresh, TypeHelp:
		return Command{Type: t, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseRemove(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "remove requires an attachment number"}
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid attachment number: %s", args[0])}
	}
	return Command{Type: TypeRemove, Raw: raw, Remove: &RemoveArgs{Index: n - 1}}, nil
}

func parseRecord(raw string, args []string) (Command, error) {
	kind := "audio"
	if len(args) > 0 {
		kind = strings.ToLower(args[0])
	}
	switch kind {
	case "audio", "voice":
		kind = "audio"
	case "video":
	default:
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("record expects audio or video, got %s", kind)}
	}
	return Command{Type: TypeRecord, Raw: raw, Record: &RecordArgs{Kind: kind}}, nil
}

// splitArgs splits on whitespace, keeping double-quoted runs together.
func splitArgs(s string) []string {
	var (
		out     []string
		cur     strings.Builder
		quoted  bool
		pending bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			pending = true
		case !quoted && (r == ' ' || r == '\t'):
			if pending {
				out = append(out, cur.String())
				cur.Reset()
				pending = false
			}
		default:
			cur.WriteRune(r)
			pending = true
		}
	}
	if pending {
		out = append(out, cur.String())
	}
	return out
}
