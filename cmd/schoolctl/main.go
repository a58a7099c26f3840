// Command schoolctl drives the SchoolOS API from a terminal. It keeps a
// single signed-in session on disk and applies the same access rules as the
// web portal.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/melalfey/schoolos-admin-portal/internal/config"
	"github.com/melalfey/schoolos-admin-portal/internal/log"
	"github.com/melalfey/schoolos-admin-portal/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}

	logger := log.NewWithWriter(os.Stderr, cfg.Environment, "schoolctl").Level(levelFromEnv())
	cli := newCLI(storage.NewFile(sessionPath()), cfg.API.BaseURL, logger, os.Stdin, os.Stdout)

	if err := cli.run(context.Background(), cmd, os.Args[2:]); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

// sessionPath is where the signed-in session is kept between invocations.
func sessionPath() string {
	if p := os.Getenv("SCHOOLOS_SESSION_FILE"); p != "" {
		return p
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}
	return filepath.Join(configDir, "schoolos", "session.json")
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Println("schoolctl - SchoolOS administration from the terminal")
	fmt.Println()
	fmt.Println("Usage: schoolctl <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  login <email>                   Sign in (password read from stdin)")
	fmt.Println("  logout                          Sign out and forget the session")
	fmt.Println("  whoami [--refresh]              Show the signed-in user, optionally re-read from the API")
	fmt.Println("  schools                         List schools (super admin)")
	fmt.Println("  schools create <name> <domain>  Add a school (super admin)")
	fmt.Println("  school <id>                     Show a school and its administrators")
	fmt.Println("  school <id> assign <email>      Make a user administrator of a school")
	fmt.Println("  users <role>                    List students, teachers or parents (school admin)")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  SCHOOLOS_API_BASEURL            API base URL (default: http://localhost:5000/api)")
	fmt.Println("  SCHOOLOS_SESSION_FILE           Session file (default: <user config dir>/schoolos/session.json)")
	fmt.Println("  SCHOOLOS_PASSWORD               Password for login instead of stdin")
	fmt.Println("  SCHOOLOS_LOG                    Log level for API diagnostics (default: warn)")
	fmt.Println()
}
