package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/warden/pkg/client"
)

// DefaultServer is used when neither --server nor WARDEN_URL is set
const DefaultServer = "http://localhost:5000"

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
	out         io.Writer
}

// env is shared by every command of one invocation
type env struct {
	out    io.Writer
	log    *logrus.Logger
	getenv func(string) string
}

// NewRootCommand creates the root command writing results to out
func NewRootCommand(out io.Writer, log *logrus.Logger) *Command {
	e := &env{out: out, log: log, getenv: os.Getenv}

	root := &Command{
		Name:        "warden-cli",
		Description: "Warden - user management CLI",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("warden-cli", flag.ContinueOnError),
		out:         out,
	}

	// Add subcommands
	root.Subcommands["register"] = e.newRegisterCommand()
	root.Subcommands["login"] = e.newLoginCommand()
	root.Subcommands["profile"] = e.newProfileCommand()
	root.Subcommands["users"] = e.newUsersCommand()

	return root
}

// Execute runs the subcommand named by args[0]
func (c *Command) Execute(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		return c.usage()
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		if subcmd.Run == nil {
			return subcmd.Execute(args[1:])
		}
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	fmt.Fprintf(c.out, "%s\n\n", c.Description)
	fmt.Fprintf(c.out, "Usage: %s <command> [args]\n\n", c.Name)
	fmt.Fprintf(c.out, "Commands:\n")
	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(c.out, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}

// connection holds the flags every remote command takes
type connection struct {
	server *string
	token  *string
}

func (e *env) newFlagSet(name string) (*flag.FlagSet, connection) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.out)

	server := e.getenv("WARDEN_URL")
	if server == "" {
		server = DefaultServer
	}
	conn := connection{
		server: fs.String("server", server, "Warden server URL"),
		token:  fs.String("token", e.getenv("WARDEN_TOKEN"), "Bearer token"),
	}
	return fs, conn
}

func (e *env) client(conn connection) *client.Client {
	e.log.WithField("server", *conn.server).Debug("connecting")
	return client.New(*conn.server, client.WithToken(*conn.token))
}

func (e *env) requireToken(conn connection) error {
	if *conn.token == "" {
		return fmt.Errorf("a token is required: pass --token or set WARDEN_TOKEN")
	}
	return nil
}
