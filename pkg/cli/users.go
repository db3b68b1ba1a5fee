package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/platinummonkey/warden/pkg/client"
)

func (e *env) newUsersCommand() *Command {
	cmd := &Command{
		Name:        "users",
		Description: "Manage users (admin)",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("users", flag.ContinueOnError),
		out:         e.out,
	}
	cmd.Subcommands["list"] = e.newUsersListCommand()
	cmd.Subcommands["update"] = e.newUsersUpdateCommand()
	cmd.Subcommands["delete"] = e.newUsersDeleteCommand()
	return cmd
}

func (e *env) newUsersListCommand() *Command {
	fs, conn := e.newFlagSet("users list")

	cmd := &Command{
		Name:        "list",
		Description: "List all users",
		Flags:       fs,
		out:         e.out,
	}
	cmd.Run = func(args []string) error {
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := e.requireToken(conn); err != nil {
			return err
		}

		users, err := e.client(conn).ListUsers(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
		}
		return w.Flush()
	}
	return cmd
}

func (e *env) newUsersUpdateCommand() *Command {
	fs, conn := e.newFlagSet("users update")
	id := fs.String("id", "", "User ID")
	name := fs.String("name", "", "New display name")
	email := fs.String("email", "", "New email address")
	password := fs.String("password", "", "New password")

	cmd := &Command{
		Name:        "update",
		Description: "Update a user's name, email or password",
		Flags:       fs,
		out:         e.out,
	}
	cmd.Run = func(args []string) error {
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			return fmt.Errorf("id is required")
		}
		if err := e.requireToken(conn); err != nil {
			return err
		}

		// Only flags given on the command line are sent
		var update client.UserUpdate
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "name":
				update.Name = name
			case "email":
				update.Email = email
			case "password":
				update.Password = password
			}
		})
		if update.Name == nil && update.Email == nil && update.Password == nil {
			return fmt.Errorf("nothing to update: pass --name, --email or --password")
		}

		user, err := e.client(conn).UpdateUser(context.Background(), *id, update)
		if err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		fmt.Fprintf(e.out, "Updated %s (%s, %s)\n", user.ID, user.Name, user.Email)
		return nil
	}
	return cmd
}

func (e *env) newUsersDeleteCommand() *Command {
	fs, conn := e.newFlagSet("users delete")
	id := fs.String("id", "", "User ID")

	cmd := &Command{
		Name:        "delete",
		Description: "Delete a user",
		Flags:       fs,
		out:         e.out,
	}
	cmd.Run = func(args []string) error {
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			return fmt.Errorf("id is required")
		}
		if err := e.requireToken(conn); err != nil {
			return err
		}

		if err := e.client(conn).DeleteUser(context.Background(), *id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		fmt.Fprintf(e.out, "Deleted %s\n", *id)
		return nil
	}
	return cmd
}
