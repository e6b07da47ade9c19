// The mango port speaks RESP (the Redis serialization protocol) over TCP, because every
// language already ships a client for it. The command surface is mango's own, though:
// CREATE / READ / UPDATE / DELETE with an optional TTL in seconds, plus PING and QUIT.
// Verbs the port doesn't recognize are still forwarded to the processor so the caller
// gets the processor's "Invalid operation" error rather than a transport-level one.

package port

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nobletooth/mango/pkg/processor"
	"github.com/tidwall/redcon"
)

var address = flag.String("address", "0.0.0.0:6380", "The ip:port to listen on for RESP traffic.")

// command represents one parsed wire command.
type command struct {
	verb string   // Uppercased command verb, i.e. CREATE.
	args [][]byte // Only the args sent over, without the verb.
}

// output conforms to RESP answer shapes on non pub / sub commands.
type output struct {
	closeConnection bool    // Closes the connection if true.
	writeNil        bool    // Writes a nil value if true.
	err             *string // Error to return if set.
	writeInt        *int    // Writes an integer value if set.
	writeBytes      []byte  // Writes a string value if set.
}

func closeConnectionOutput(msg string) output {
	return output{writeBytes: []byte(msg), closeConnection: true}
}

func writeNilOutput() output {
	return output{writeNil: true}
}

func writeIntOutput(i int) output {
	return output{writeInt: &i}
}

func writeStringOutput(str string) output {
	return output{writeBytes: []byte(str)}
}

func writeErrorOutput(err error) output {
	msg := "ERR " + err.Error()
	return output{err: &msg}
}

// Handler translates wire commands into processor requests.
type Handler struct {
	proc *processor.Processor
}

// NewHandler creates a Handler over the given processor.
func NewHandler(proc *processor.Processor) (*Handler, error) {
	if proc == nil {
		return nil, errors.New("expected a non-nil processor")
	}
	return &Handler{proc: proc}, nil
}

// buildRequest turns a parsed command into a processor request. Write verbs carry
// `key value [ttlSeconds]`, READ/DELETE carry `key` only.
func buildRequest(cmd command) (processor.Request, error) {
	request := processor.Request{Operation: processor.Operation(cmd.verb)}
	switch request.Operation {
	case processor.OpCreate, processor.OpUpdate:
		if len(cmd.args) != 2 && len(cmd.args) != 3 {
			return processor.Request{}, fmt.Errorf("wrong number of arguments for '%s' command", cmd.verb)
		}
		request.Key = string(cmd.args[0])
		request.Value = string(cmd.args[1])
		if len(cmd.args) == 3 {
			ttlSeconds, err := strconv.ParseInt(string(cmd.args[2]), 10, 64)
			if err != nil {
				return processor.Request{}, fmt.Errorf("invalid expiration seconds: %s", cmd.args[2])
			}
			request.ExpirationSeconds = &ttlSeconds
		}
	case processor.OpRead, processor.OpDelete:
		if len(cmd.args) != 1 {
			return processor.Request{}, fmt.Errorf("wrong number of arguments for '%s' command", cmd.verb)
		}
		request.Key = string(cmd.args[0])
	default:
		// Forward unknown verbs as-is; the processor owns the invalid-verb error.
	}
	return request, nil
}

func (h *Handler) handle(cmd command) output {
	switch cmd.verb {
	case "PING":
		return writeStringOutput("PONG")
	case "QUIT":
		return closeConnectionOutput("OK")
	default:
		request, err := buildRequest(cmd)
		if err != nil {
			return writeErrorOutput(err)
		}
		response := h.proc.Process(request)
		if response.Error != "" {
			return writeErrorOutput(errors.New(response.Error))
		}
		if request.Operation == processor.OpRead {
			if !response.Success {
				return writeNilOutput()
			}
			return writeStringOutput(fmt.Sprint(response.Value))
		}
		// Write verbs answer with 1/0 from the success bool, like Redis DEL does.
		if response.Success {
			return writeIntOutput(1)
		}
		return writeIntOutput(0)
	}
}

// RunServer starts a RESP server that resolves commands through the given processor.
// It blocks until the context is cancelled or the server fails.
func RunServer(ctx context.Context, proc *processor.Processor) error {
	if *address == "" {
		return errors.New("expected a non-empty --address flag")
	}

	handler, err := NewHandler(proc)
	if err != nil {
		return fmt.Errorf("failed to create a new resp handler: %w", err)
	}

	server := redcon.NewServerNetwork("tcp" /*net*/, *address,
		/*handler*/ func(conn redcon.Conn, cmd redcon.Command) {
			slog.Debug("Handling command.", "cmd", string(cmd.Raw))

			wireCmd := command{
				verb: strings.ToUpper(string(cmd.Args[0])), // Allows case-insensitive verbs.
				args: cmd.Args[1:],                         // Exclude the verb itself.
			}
			out := handler.handle(wireCmd)
			if out.closeConnection {
				conn.WriteBulk(out.writeBytes)
				if err := conn.Close(); err != nil {
					slog.Error("Failed to close connection.", "error", err)
				}
				return
			}
			if out.writeNil {
				conn.WriteNull()
				return
			}
			if out.err != nil {
				conn.WriteError(*out.err)
				return
			}
			if out.writeInt != nil {
				conn.WriteInt(*out.writeInt)
				return
			}
			conn.WriteBulk(out.writeBytes)
		},
		/*accept*/ func(conn redcon.Conn) bool {
			slog.Info("Accepting connection.", "addr", conn.NetConn().RemoteAddr().String())
			return true // Accept all connections.
		},
		/*close*/ func(conn redcon.Conn, err error) {
			if err != nil {
				slog.Debug("Connection closed.", "error", err)
			}
		})

	serverErrSignal := make(chan error, 1)
	go func() {
		slog.Info("Starting RESP server.", "address", *address)
		if err := server.ListenAndServe(); err != nil {
			serverErrSignal <- err
		}
		close(serverErrSignal)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Server context cancelled.", "err", ctx.Err())
		if err := server.Close(); err != nil {
			return fmt.Errorf("failed to close mango server: %w", err)
		}
	case err := <-serverErrSignal:
		return fmt.Errorf("resp server stopped unexpectedly: %w", err)
	}

	return nil // Exited with no errors.
}
