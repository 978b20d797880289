package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/tictacnet/internal/client"
	"github.com/mcoot/tictacnet/internal/protocol"
)

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Send raw protocol requests over one connection",
		Long: `Read requests such as NEW_SERVER/Arena or MAKE_MOVE/Arena/0/1 from stdin,
one per line, and print each reply. The connection and the name the server
assigned are kept until QUIT or end of input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd)
			if err != nil {
				return err
			}
			defer hangUp(c)

			return runShell(cmd, c)
		},
	}
}

func runShell(cmd *cobra.Command, c *client.Client) error {
	out := newOutput(cmd)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		req := protocol.Parse(line)
		if req.Verb == protocol.VerbQuit {
			return nil
		}

		reply, err := c.Do(line)
		if err != nil {
			if req.Verb == protocol.VerbUnknown {
				return fmt.Errorf("server closed the connection after %q", line)
			}
			return err
		}

		if cfg.Output == FormatJSON {
			out.PrintRaw(reply)
			continue
		}
		if err := printReply(out, req.Verb, reply); err != nil {
			out.PrintError(err)
		}
	}
	return scanner.Err()
}

// printReply decodes a reply by the verb that produced it and renders it as text
func printReply(out *Output, verb protocol.Verb, reply []byte) error {
	var data any
	switch verb {
	case protocol.VerbGetMyName:
		out.Print(NameResult{Name: strings.TrimSpace(string(reply))})
		return nil
	case protocol.VerbNewServer:
		data = &protocol.CreateResponse{}
	case protocol.VerbGetServersList:
		data = &[]protocol.ServerListEntry{}
	case protocol.VerbGetServer, protocol.VerbMakeMove:
		data = &protocol.ServerState{}
	case protocol.VerbJoinServer:
		data = &protocol.JoinResponse{}
	default:
		data = &protocol.MessageResponse{}
	}

	if err := json.Unmarshal(reply, data); err != nil {
		return fmt.Errorf("decode %s reply: %w", verb, err)
	}

	switch v := data.(type) {
	case *protocol.CreateResponse:
		out.Print(*v)
	case *[]protocol.ServerListEntry:
		out.Print(*v)
	case *protocol.ServerState:
		out.Print(*v)
	case *protocol.JoinResponse:
		out.Print(*v)
	case *protocol.MessageResponse:
		out.Print(*v)
	}
	return nil
}
