package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Attach        func(AttachArgs) (Result, error)
	Remove        func(RemoveArgs) (Result, error)
	Record        func(RecordArgs) (Result, error)
	Stop          func() (Result, error)
	Cancel        func() (Result, error)
	Location      func() (Result, error)
	ClearLocation func() (Result, error)
	Refresh       func() (Result, error)
	Help          func() (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAttach:
		if handlers.Attach == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Attach(*cmd.Attach)
	case TypeRemove:
		if handlers.Remove == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Remove(*cmd.Remove)
	case TypeRecord:
		if handlers.Record == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Record(*cmd.Record)
	}

	var h func() (Result, error)
	switch cmd.Type {
	case TypeStop:
		h = handlers.Stop
	case TypeCancel:
		h = handlers.Cancel
	case TypeLocation:
		h = handlers.Location
	case TypeClearLocation:
		h = handlers.ClearLocation
	case TypeRefresh:
		h = handlers.Refresh
	case TypeHelp:
		h = handlers.Help
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
	if h == nil {
		return Result{}, missing(cmd.Type)
	}
	return h()
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
