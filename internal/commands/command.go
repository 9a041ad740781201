package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/tracker/internal/model"
	"github.com/sandeepkv93/tracker/internal/query"
)

type Type string

const (
	TypeAdd      Type = "add"
	TypeTag      Type = "tag"
	TypeUntag    Type = "untag"
	TypeNewTag   Type = "newtag"
	TypeRename   Type = "rename"
	TypeTitle    Type = "title"
	TypeContent  Type = "content"
	TypePriority Type = "priority"
	TypeClose    Type = "close"
	TypeReopen   Type = "reopen"
	TypeRemind   Type = "remind"
	TypeFilter   Type = "filter"
	TypeStatus   Type = "status"
	TypePrio     Type = "prio"
	TypeSort     Type = "sort"
	TypeSearch   Type = "search"
	TypeDelete   Type = "delete"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
	ErrCodeNoSelection     ErrorCode = "no_selection"
	ErrCodeNotFound        ErrorCode = "not_found"
	ErrCodeRefused         ErrorCode = "refused"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// TextArgs carries the free text of add, tag, untag, newtag, rename, title,
// content and search.
type TextArgs struct {
	Text string
}

type PriorityArgs struct {
	Priority model.Priority
}

type RemindArgs struct {
	Enabled bool
	Hour    int
	Minute  int
}

type FilterArgs struct {
	Enabled bool
}

type StatusArgs struct {
	Status query.Status
}

// PrioArgs filters by priority; query.AnyPriority disables the constraint.
type PrioArgs struct {
	Priority int
}

type SortArgs struct {
	Key        query.SortKey
	Descending bool
}

type Command struct {
	Type     Type
	Raw      string
	Text     *TextArgs
	Priority *PriorityArgs
	Remind   *RemindArgs
	Filter   *FilterArgs
	Status   *StatusArgs
	Prio     *PrioArgs
	Sort     *SortArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, ":") {
		raw = strings.TrimSpace(raw[1:])
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := Type(strings.ToLower(parts[0]))
	args := parts[1:]
	// Text keeps its inner spacing; only the verb and outer blanks go.
	text := strings.TrimSpace(strings.TrimPrefix(raw, parts[0]))

	switch head {
	case TypeAdd, TypeTag, TypeUntag, TypeRename, TypeTitle:
		if text == "" {
			return Command{}, invalid("%s requires text", head)
		}
		return Command{Type: head, Raw: input, Text: &TextArgs{Text: text}}, nil
	case TypeNewTag, TypeContent, TypeSearch:
		return Command{Type: head, Raw: input, Text: &TextArgs{Text: text}}, nil
	case TypeClose, TypeReopen, TypeDelete:
		if len(args) > 0 {
			return Command{}, invalid("%s takes no arguments", head)
		}
		return Command{Type: head, Raw: input}, nil
	case TypePriority:
		return parsePriority(input, args)
	case TypeRemind:
		return parseRemind(input, args)
	case TypeFilter:
		return parseFilter(input, args)
	case TypeStatus:
		return parseStatus(input, args)
	case TypePrio:
		return parsePrio(input, args)
	case TypeSort:
		return parseSort(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parsePriority(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("priority requires low, medium or high")
	}
	p, err := model.ParsePriority(args[0])
	if err != nil {
		return Command{}, invalid("priority requires low, medium or high")
	}
	return Command{Type: TypePriority, Raw: raw, Priority: &PriorityArgs{Priority: p}}, nil
}

func parseRemind(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("remind requires HH:MM or off")
	}
	if strings.EqualFold(args[0], "off") {
		return Command{Type: TypeRemind, Raw: raw, Remind: &RemindArgs{Enabled: false}}, nil
	}
	hh, mm, ok := strings.Cut(args[0], ":")
	if !ok {
		return Command{}, invalid("remind requires HH:MM or off")
	}
	hour, herr := strconv.Atoi(hh)
	minute, merr := strconv.Atoi(mm)
	if herr != nil || merr != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Command{}, invalid("invalid reminder time: %s", args[0])
	}
	return Command{Type: TypeRemind, Raw: raw, Remind: &RemindArgs{Enabled: true, Hour: hour, Minute: minute}}, nil
}

func parseFilter(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("filter requires on or off")
	}
	switch strings.ToLower(args[0]) {
	case "on":
		return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{Enabled: true}}, nil
	case "off":
		return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{Enabled: false}}, nil
	default:
		return Command{}, invalid("filter requires on or off")
	}
}

func parseStatus(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("status requires all, open or closed")
	}
	switch s := query.Status(strings.ToLower(args[0])); s {
	case query.StatusAll, query.StatusOpen, query.StatusClosed:
		return Command{Type: TypeStatus, Raw: raw, Status: &StatusArgs{Status: s}}, nil
	default:
		return Command{}, invalid("status requires all, open or closed")
	}
}

func parsePrio(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("prio requires any, low, medium or high")
	}
	if strings.EqualFold(args[0], "any") {
		return Command{Type: TypePrio, Raw: raw, Prio: &PrioArgs{Priority: query.AnyPriority}}, nil
	}
	p, err := model.ParsePriority(args[0])
	if err != nil {
		return Command{}, invalid("prio requires any, low, medium or high")
	}
	return Command{Type: TypePrio, Raw: raw, Prio: &PrioArgs{Priority: int(p)}}, nil
}

func parseSort(raw string, args []string) (Command, error) {
	if len(args) == 0 || len(args) > 2 {
		return Command{}, invalid("sort requires created or modified, optionally asc or desc")
	}
	out := SortArgs{Descending: true}
	switch strings.ToLower(args[0]) {
	case "created", "creation", "creationdate":
		out.Key = query.SortCreationDate
	case "modified", "modification", "modificationdate":
		out.Key = query.SortModificationDate
	default:
		return Command{}, invalid("unknown sort key: %s", args[0])
	}
	if len(args) == 2 {
		switch strings.ToLower(args[1]) {
		case "asc", "oldest":
			out.Descending = false
		case "desc", "newest":
		default:
			return Command{}, invalid("unknown sort direction: %s", args[1])
		}
	}
	return Command{Type: TypeSort, Raw: raw, Sort: &out}, nil
}
