package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mcoot/tictacnet/internal/model"
)

// MaxRequestSize is the largest request read from a connection in one go
const MaxRequestSize = 1024

// Separator splits a request into verb and arguments
const Separator = "/"

// Verb names one protocol operation
type Verb string

const (
	VerbGetMyName      Verb = "GET_MY_NAME"
	VerbNewServer      Verb = "NEW_SERVER"
	VerbGetServersList Verb = "GET_SERVERS_LIST"
	VerbGetServer      Verb = "GET_SERVER"
	VerbJoinServer     Verb = "JOIN_SERVER"
	VerbMakeMove       Verb = "MAKE_MOVE"
	VerbStartGame      Verb = "START_GAME"
	VerbExitServer     Verb = "EXIT_SERVER"
	VerbQuit           Verb = "QUIT"
	VerbUnknown        Verb = ""
)

// aliases maps lowercased spellings to verbs, including the short forms older clients send
var aliases = map[string]Verb{
	"get_my_name":      VerbGetMyName,
	"new_server":       VerbNewServer,
	"get_servers_list": VerbGetServersList,
	"get_server_list":  VerbGetServersList,
	"get_server":       VerbGetServer,
	"join_server":      VerbJoinServer,
	"make_move":        VerbMakeMove,
	"start_game":       VerbStartGame,
	"start":            VerbStartGame,
	"exit_server":      VerbExitServer,
	"quit":             VerbQuit,
}

// Request is one parsed client request
type Request struct {
	Verb Verb
	Args []string
}

// Parse splits a raw request into verb and arguments.
// Surrounding whitespace is trimmed; an unrecognized verb yields VerbUnknown.
func Parse(raw string) Request {
	fields := strings.Split(strings.TrimSpace(raw), Separator)
	verb, ok := aliases[strings.ToLower(strings.TrimSpace(fields[0]))]
	if !ok {
		verb = VerbUnknown
	}
	return Request{Verb: verb, Args: fields[1:]}
}

// Format builds a raw request from a verb and its arguments
func Format(verb Verb, args ...string) string {
	return strings.Join(append([]string{string(verb)}, args...), Separator)
}

// SessionName returns the session name argument
func (r Request) SessionName() (model.SessionName, error) {
	if len(r.Args) < 1 || r.Args[0] == "" {
		return "", fmt.Errorf("%w: %s needs a server name", model.ErrInvalidRequest, r.Verb)
	}
	return model.SessionName(r.Args[0]), nil
}

// Move returns the session name and position arguments of a MAKE_MOVE request
func (r Request) Move() (model.SessionName, model.Position, error) {
	name, err := r.SessionName()
	if err != nil {
		return "", model.Position{}, err
	}
	if len(r.Args) != 3 {
		return "", model.Position{}, fmt.Errorf("%w: %s needs name/row/col", model.ErrInvalidRequest, r.Verb)
	}
	row, err := strconv.Atoi(strings.TrimSpace(r.Args[1]))
	if err != nil {
		return "", model.Position{}, fmt.Errorf("%w: row %q", model.ErrInvalidRequest, r.Args[1])
	}
	col, err := strconv.Atoi(strings.TrimSpace(r.Args[2]))
	if err != nil {
		return "", model.Position{}, fmt.Errorf("%w: col %q", model.ErrInvalidRequest, r.Args[2])
	}
	return name, model.Position{Row: row, Col: col}, nil
}
