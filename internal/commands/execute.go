package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add      func(TextArgs) (Result, error)
	Tag      func(TextArgs) (Result, error)
	Untag    func(TextArgs) (Result, error)
	NewTag   func(TextArgs) (Result, error)
	Rename   func(TextArgs) (Result, error)
	Title    func(TextArgs) (Result, error)
	Content  func(TextArgs) (Result, error)
	Search   func(TextArgs) (Result, error)
	Priority func(PriorityArgs) (Result, error)
	Close    func() (Result, error)
	Reopen   func() (Result, error)
	Delete   func() (Result, error)
	Remind   func(RemindArgs) (Result, error)
	Filter   func(FilterArgs) (Result, error)
	Status   func(StatusArgs) (Result, error)
	Prio     func(PrioArgs) (Result, error)
	Sort     func(SortArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		return callText(cmd, handlers.Add)
	case TypeTag:
		return callText(cmd, handlers.Tag)
	case TypeUntag:
		return callText(cmd, handlers.Untag)
	case TypeNewTag:
		return callText(cmd, handlers.NewTag)
	case TypeRename:
		return callText(cmd, handlers.Rename)
	case TypeTitle:
		return callText(cmd, handlers.Title)
	case TypeContent:
		return callText(cmd, handlers.Content)
	case TypeSearch:
		return callText(cmd, handlers.Search)
	case TypePriority:
		if handlers.Priority == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Priority(*cmd.Priority)
	case TypeClose:
		return callBare(cmd, handlers.Close)
	case TypeReopen:
		return callBare(cmd, handlers.Reopen)
	case TypeDelete:
		return callBare(cmd, handlers.Delete)
	case TypeRemind:
		if handlers.Remind == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Remind(*cmd.Remind)
	case TypeFilter:
		if handlers.Filter == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Filter(*cmd.Filter)
	case TypeStatus:
		if handlers.Status == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Status(*cmd.Status)
	case TypePrio:
		if handlers.Prio == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Prio(*cmd.Prio)
	case TypeSort:
		if handlers.Sort == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Sort(*cmd.Sort)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func callText(cmd Command, fn func(TextArgs) (Result, error)) (Result, error) {
	if fn == nil {
		return Result{}, missing(cmd.Type)
	}
	args := TextArgs{}
	if cmd.Text != nil {
		args = *cmd.Text
	}
	return fn(args)
}

func callBare(cmd Command, fn func() (Result, error)) (Result, error) {
	if fn == nil {
		return Result{}, missing(cmd.Type)
	}
	return fn()
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
