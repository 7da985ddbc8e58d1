package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/matheus3301/chatadmin/internal/docstore"
	"github.com/matheus3301/chatadmin/internal/entity"
	"github.com/matheus3301/chatadmin/internal/export"
	"github.com/matheus3301/chatadmin/internal/profile"
	"github.com/matheus3301/chatadmin/internal/tui/ui"
)

func (cmd *command) status() error {
	info, err := cmd.c.Daemon.Status(cmd.ctx)
	if err != nil {
		return err
	}
	if cmd.json {
		outputJSON(info)
		return nil
	}
	fmt.Printf("Profile:   %s\n", info.Profile)
	fmt.Printf("Store:     %s\n", info.Driver)
	fmt.Printf("PID:       %d\n", info.PID)
	fmt.Printf("Uptime:    %s\n", ui.FormatDuration(info.Uptime))
	fmt.Printf("Operators: %d\n", info.Operators)
	fmt.Printf("Users:     %d\n", info.Users)
	fmt.Printf("Chats:     %d\n", info.Chats)
	return nil
}

func (cmd *command) login() error {
	email, err := cmd.arg(0, "login <email>")
	if err != nil {
		return err
	}
	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}
	token, p, err := cmd.c.Identity.SignIn(cmd.ctx, email, password)
	if err != nil {
		return err
	}
	if err := profile.SaveToken(cmd.profile, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Printf("Signed in as %s (%s)\n", p.DisplayName, p.Email)
	return nil
}

func (cmd *command) logout() error {
	err := cmd.c.Identity.SignOut(cmd.ctx)
	// The saved token is useless either way.
	if clearErr := profile.ClearToken(cmd.profile); clearErr != nil && err == nil {
		err = clearErr
	}
	if err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

func (cmd *command) whoami() error {
	p, err := cmd.c.Identity.Whoami(cmd.ctx)
	if err != nil {
		return err
	}
	if cmd.json {
		outputJSON(p)
		return nil
	}
	fmt.Printf("%s (%s)\n", p.DisplayName, p.Email)
	return nil
}

func (cmd *command) listUsers() ([]entity.User, error) {
	docs, err := cmd.c.Documents.List(cmd.ctx, entity.UsersCollection, docstore.Query{OrderBy: "displayName"})
	if err != nil {
		return nil, err
	}
	users := make([]entity.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, entity.UserFromDoc(d))
	}
	return users, nil
}

func (cmd *command) users() error {
	users, err := cmd.listUsers()
	if err != nil {
		return err
	}
	if cmd.json {
		outputJSON(users)
		return nil
	}
	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NO\tNAME\tEMAIL\tPHONE NUMBER\tSTATUS\tID")
	for i, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, u.DisplayName, u.Email, u.PhoneNumber, u.EffectiveStatus(), u.ID)
	}
	return w.Flush()
}

func (cmd *command) chats() error {
	docs, err := cmd.c.Documents.List(cmd.ctx, entity.ChatsCollection, docstore.Query{})
	if err != nil {
		return err
	}
	chats := make([]entity.Chat, 0, len(docs))
	for _, d := range docs {
		chats = append(chats, entity.ChatFromDoc(d))
	}
	if cmd.json {
		outputJSON(chats)
		return nil
	}
	if len(chats) == 0 {
		fmt.Println("No chats found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NO\tNAME\tTYPE\tMEMBERS\tID")
	for i, c := range chats {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", i+1, c.Name, c.Type, len(c.Members), c.ID)
	}
	return w.Flush()
}

// putUser stands in for the registration flow that creates users.
func (cmd *command) putUser() error {
	const usage = "put-user <name> <email> <phone> [status]"
	if len(cmd.args) < 3 {
		return fmt.Errorf("usage: chatadminctl %s", usage)
	}
	u := entity.User{
		DisplayName: cmd.args[0],
		Email:       cmd.args[1],
		PhoneNumber: cmd.args[2],
	}
	if len(cmd.args) > 3 {
		st, err := entity.ParseStatus(cmd.args[3])
		if err != nil {
			return err
		}
		u.Status = st
	}
	id, err := cmd.c.Documents.Insert(cmd.ctx, entity.UsersCollection, u.Fields())
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func (cmd *command) addOperator() error {
	email, err := cmd.arg(0, "add-operator <email> [display name]")
	if err != nil {
		return err
	}
	name := strings.Join(cmd.args[1:], " ")
	password, err := readPassword("New operator password: ")
	if err != nil {
		return err
	}
	p, err := cmd.c.Identity.AddOperator(cmd.ctx, email, password, name)
	if err != nil {
		return err
	}
	fmt.Printf("Added operator %s (%s)\n", p.Email, p.UID)
	return nil
}

func (cmd *command) exportUsers() error {
	path, err := cmd.arg(0, "export <file.xlsx>")
	if err != nil {
		return err
	}
	users, err := cmd.listUsers()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if err := export.WriteUsers(f, users); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Exported %d users to %s\n", len(users), path)
	return nil
}

func (cmd *command) importUsers() error {
	path, err := cmd.arg(0, "import <file.xlsx>")
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	imported, err := export.ReadUsers(f)
	_ = f.Close()
	if err != nil {
		return err
	}
	existing, err := cmd.listUsers()
	if err != nil {
		return err
	}

	create, update := export.Match(existing, imported)
	for _, u := range update {
		if err := cmd.c.Documents.Update(cmd.ctx, entity.UsersCollection, u.ID, u.Fields()); err != nil {
			return fmt.Errorf("update %s: %w", u.Email, err)
		}
	}
	for _, u := range create {
		if _, err := cmd.c.Documents.Insert(cmd.ctx, entity.UsersCollection, u.Fields()); err != nil {
			return fmt.Errorf("insert %s: %w", u.DisplayName, err)
		}
	}
	fmt.Printf("Imported %d users: %d new, %d updated\n", len(imported), len(create), len(update))
	return nil
}

// readPassword reads CHATADMIN_PASSWORD, or prompts without echo on a
// terminal, or reads one line from piped stdin.
func readPassword(prompt string) (string, error) {
	if pw := os.Getenv("CHATADMIN_PASSWORD"); pw != "" {
		return pw, nil
	}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("read password: no input")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
