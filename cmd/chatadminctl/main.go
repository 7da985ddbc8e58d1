package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/chatadmin/internal/config"
	"github.com/matheus3301/chatadmin/internal/profile"
	"github.com/matheus3301/chatadmin/internal/rpc"
	"github.com/matheus3301/chatadmin/internal/tui/client"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	configFlag := flag.String("config", "", "config file (default ~/.chatadmin/config.toml)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	startFlag := flag.Bool("start", false, "start the daemon when it is not running")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = profile.ConfigPath()
	}
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		fatalf("%v", err)
	}
	profileName := profile.Resolve(*profileFlag, cfg)
	if err := profile.ValidateName(profileName); err != nil {
		fatalf("%v", err)
	}

	c, err := client.Connect(profileName, client.Options{AutoStart: *startFlag, Stderr: os.Stderr})
	if err != nil {
		fatalf("cannot connect to daemon for profile %q: %v", profileName, err)
	}
	defer func() { _ = c.Close() }()

	token, err := profile.LoadToken(profileName)
	if err != nil {
		fatalf("load token: %v", err)
	}
	c.SetToken(token)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := &command{ctx: ctx, c: c, profile: profileName, json: *jsonFlag, args: args[1:]}
	switch args[0] {
	case "status":
		err = cmd.status()
	case "login":
		err = cmd.login()
	case "logout":
		err = cmd.logout()
	case "whoami":
		err = cmd.whoami()
	case "users":
		err = cmd.users()
	case "chats":
		err = cmd.chats()
	case "put-user":
		err = cmd.putUser()
	case "add-operator":
		err = cmd.addOperator()
	case "export":
		err = cmd.exportUsers()
	case "import":
		err = cmd.importUsers()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fatalf("%v", err)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: chatadminctl [--profile <name>] [--json] [--start] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                                Show daemon status")
	fmt.Fprintln(os.Stderr, "  login <email>                         Sign in and save the session token")
	fmt.Fprintln(os.Stderr, "  logout                                Sign out")
	fmt.Fprintln(os.Stderr, "  whoami                                Show the signed-in operator")
	fmt.Fprintln(os.Stderr, "  users                                 List users")
	fmt.Fprintln(os.Stderr, "  chats                                 List chats")
	fmt.Fprintln(os.Stderr, "  put-user <name> <email> <phone> [status]  Register a user")
	fmt.Fprintln(os.Stderr, "  add-operator <email> [display name]   Add a console operator")
	fmt.Fprintln(os.Stderr, "  export <file.xlsx>                    Export users")
	fmt.Fprintln(os.Stderr, "  import <file.xlsx>                    Import users, matching by email")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Passwords are read from CHATADMIN_PASSWORD or prompted on the terminal.")
}

type command struct {
	ctx     context.Context
	c       *rpc.Client
	profile string
	json    bool
	args    []string
}

func (cmd *command) arg(i int, usage string) (string, error) {
	if i >= len(cmd.args) {
		return "", fmt.Errorf("usage: chatadminctl %s", usage)
	}
	return cmd.args[i], nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
