package chat

// Group is the key of a fan-out group. A single configured group is used by the server,
// the type only exists so that several groups can live in the same registry.
type Group string

type Command interface {
	GroupName() Group
}

type PostMessageCommand struct {
	Group   Group
	User    string
	Message string
}

func (p PostMessageCommand) GroupName() Group {
	return p.Group
}

type GetMessageCommand struct {
	Cursor *string
}
