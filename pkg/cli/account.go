package cli

import (
	"context"
	"fmt"
)

func (e *env) newRegisterCommand() *Command {
	fs, conn := e.newFlagSet("register")
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (at least 6 characters)")
	role := fs.String("role", "", "Role: user or admin")
	quiet := fs.Bool("quiet", false, "Print only the token")

	cmd := &Command{
		Name:        "register",
		Description: "Create an account and print its token",
		Flags:       fs,
		out:         e.out,
	}
	cmd.Run = func(args []string) error {
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *name == "" || *email == "" || *password == "" {
			return fmt.Errorf("name, email and password are required")
		}

		session, err := e.client(conn).Register(context.Background(), *name, *email, *password, *role)
		if err != nil {
			return fmt.Errorf("failed to register: %w", err)
		}
		e.log.WithField("user_id", session.ID).Info("registered")
		return e.printSession(session.ID, session.Name, session.Email, session.Role, session.Token, *quiet)
	}
	return cmd
}

func (e *env) newLoginCommand() *Command {
	fs, conn := e.newFlagSet("login")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password")
	quiet := fs.Bool("quiet", false, "Print only the token")

	cmd := &Command{
		Name:        "login",
		Description: "Print a token for existing credentials",
		Flags:       fs,
		out:         e.out,
	}
	cmd.Run = func(args []string) error {
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *email == "" || *password == "" {
			return fmt.Errorf("email and password are required")
		}

		session, err := e.client(conn).Login(context.Background(), *email, *password)
		if err != nil {
			return fmt.Errorf("failed to login: %w", err)
		}
		return e.printSession(session.ID, session.Name, session.Email, session.Role, session.Token, *quiet)
	}
	return cmd
}

func (e *env) newProfileCommand() *Command {
	fs, conn := e.newFlagSet("profile")

	cmd := &Command{
		Name:        "profile",
		Description: "Show the account the token belongs to",
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

		user, err := e.client(conn).Profile(context.Background())
		if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}
		fmt.Fprintf(e.out, "ID:    %s\nName:  %s\nEmail: %s\nRole:  %s\n", user.ID, user.Name, user.Email, user.Role)
		return nil
	}
	return cmd
}

func (e *env) printSession(id, name, email, role, token string, quiet bool) error {
	if quiet {
		_, err := fmt.Fprintln(e.out, token)
		return err
	}
	_, err := fmt.Fprintf(e.out, "ID:    %s\nName:  %s\nEmail: %s\nRole:  %s\nToken: %s\n", id, name, email, role, token)
	return err
}
