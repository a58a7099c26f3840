package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/melalfey/schoolos-admin-portal/internal/apiclient"
	"github.com/melalfey/schoolos-admin-portal/internal/gate"
	"github.com/melalfey/schoolos-admin-portal/internal/models"
	"github.com/melalfey/schoolos-admin-portal/internal/session"
	"github.com/melalfey/schoolos-admin-portal/internal/storage"
)

var errNotSignedIn = errors.New("not signed in, run: schoolctl login <email>")

type cli struct {
	store *session.Store
	gw    *apiclient.Gateway
	log   zerolog.Logger
	in    *bufio.Reader
	out   io.Writer
}

func newCLI(kv storage.KV, baseURL string, log zerolog.Logger, in io.Reader, out io.Writer) *cli {
	c := &cli{
		log: log,
		in:  bufio.NewReader(in),
		out: out,
	}
	c.store = session.New(kv, session.NavigatorFunc(c.navigate), session.WithLogger(log))
	c.gw = apiclient.New(baseURL, c.store,
		apiclient.WithHTTPClient(http.DefaultClient),
		apiclient.WithNotifier(apiclient.NotifierFunc(c.notify)),
		apiclient.WithLogger(log),
	)
	return c
}

// navigate reports where the portal would take the user after a session
// change.
func (c *cli) navigate(path string) {
	color.New(color.Faint).Fprintf(c.out, "  -> %s\n", path)
}

func (c *cli) notify(level apiclient.Level, message string) {
	if level == apiclient.LevelError {
		color.New(color.FgRed).Fprintf(c.out, "  ! %s\n", message)
		return
	}
	color.New(color.FgGreen).Fprintf(c.out, "  %s\n", message)
}

func (c *cli) run(ctx context.Context, cmd string, args []string) error {
	if err := c.store.Initialize(ctx); err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	switch cmd {
	case "login":
		return c.cmdLogin(ctx, args)
	case "logout":
		return c.store.Logout(ctx)
	case "whoami", "me":
		return c.cmdWhoami(ctx, args)
	case "schools":
		return c.cmdSchools(ctx, args)
	case "school":
		return c.cmdSchool(ctx, args)
	case "users":
		return c.cmdUsers(ctx, args)
	default:
		return fmt.Errorf("unknown command: %s (see schoolctl help)", cmd)
	}
}

// guard applies the portal's access rules to a command.
func (c *cli) guard(req gate.Requirement) (models.User, error) {
	decision := gate.Evaluate(c.store.Current(), req)
	switch decision.State {
	case gate.StateAuthorized:
		return *decision.User, nil
	case gate.StateForbiddenSuperAdmin:
		return models.User{}, errors.New("this command is restricted to super administrators")
	case gate.StateForbiddenRole:
		return models.User{}, fmt.Errorf("your role (%s) does not have permission to run this command", decision.User.Role)
	default:
		return models.User{}, errNotSignedIn
	}
}

func (c *cli) cmdLogin(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: schoolctl login <email>")
	}

	password := os.Getenv("SCHOOLOS_PASSWORD")
	if password == "" {
		fmt.Fprint(c.out, "Password: ")
		line, err := c.in.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	result, err := apiclient.NewAuthService(c.gw).Login(ctx, apiclient.Credentials{Email: args[0], Password: password})
	if err != nil {
		return err
	}
	if err := c.store.Login(ctx, result.Token, result.User); err != nil {
		return err
	}
	c.notify(apiclient.LevelSuccess, "Welcome back to SchoolOS, "+result.User.DisplayName()+"!")
	return nil
}

func (c *cli) cmdWhoami(ctx context.Context, args []string) error {
	user, err := c.guard(gate.AnyRole())
	if err != nil {
		return err
	}
	if len(args) > 0 && args[0] == "--refresh" {
		// Persist the profile the API reports now under the same token.
		fresh, err := apiclient.NewAuthService(c.gw).Me(ctx)
		if err != nil {
			return err
		}
		if err := c.store.Login(ctx, c.store.Token(), fresh); err != nil {
			return err
		}
		user = fresh
	}

	cyan := color.New(color.FgCyan)
	fmt.Fprintln(c.out)
	cyan.Fprintln(c.out, "  Identity")
	cyan.Fprintln(c.out, "  --------")
	fmt.Fprintf(c.out, "  ID:           %s\n", user.ID)
	fmt.Fprintf(c.out, "  Name:         %s\n", user.DisplayName())
	fmt.Fprintf(c.out, "  Email:        %s\n", user.Email)
	fmt.Fprintf(c.out, "  Role:         %s\n", user.Role)
	if user.SchoolID != "" {
		fmt.Fprintf(c.out, "  School:       %s\n", user.SchoolID)
	}
	fmt.Fprintln(c.out)
	return nil
}

func (c *cli) cmdSchools(ctx context.Context, args []string) error {
	if _, err := c.guard(gate.RequireSuperAdmin()); err != nil {
		return err
	}
	svc := apiclient.NewSchoolService(c.gw)

	subcmd := "list"
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list", "ls":
		schools, err := svc.List(ctx)
		if err != nil {
			return err
		}
		c.section("Schools")
		if len(schools) == 0 {
			fmt.Fprintln(c.out, "  (no schools yet)")
			return nil
		}
		w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tNAME\tDOMAIN\tSTATUS\tCREATED")
		for _, s := range schools {
			status := "active"
			if !s.IsActive {
				status = "inactive"
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Domain, status, s.CreatedAt.Format("Jan 02 2006"))
		}
		return w.Flush()
	case "create", "add":
		if len(args) < 2 {
			return errors.New("usage: schoolctl schools create <name> <domain>")
		}
		school, err := svc.Create(ctx, models.SchoolInput{Name: args[0], Domain: args[1]})
		if err != nil {
			return err
		}
		c.notify(apiclient.LevelSuccess, fmt.Sprintf("School %s created (%s)", school.Name, school.ID))
		return nil
	default:
		return fmt.Errorf("unknown schools subcommand: %s (use list, create)", subcmd)
	}
}

func (c *cli) cmdSchool(ctx context.Context, args []string) error {
	if _, err := c.guard(gate.RequireSuperAdmin()); err != nil {
		return err
	}
	if len(args) < 1 {
		return errors.New("usage: schoolctl school <id> [assign <email>]")
	}
	id := args[0]
	svc := apiclient.NewSchoolService(c.gw)

	if len(args) >= 3 && args[1] == "assign" {
		admin, err := svc.AddAdmin(ctx, id, args[2])
		if err != nil {
			return err
		}
		c.notify(apiclient.LevelSuccess, admin.DisplayName()+" is now an administrator")
		return nil
	}

	school, err := svc.Get(ctx, id)
	if err != nil {
		return err
	}
	admins, err := svc.Admins(ctx, id)
	if err != nil {
		return err
	}

	c.section(school.Name)
	fmt.Fprintf(c.out, "  Domain:       %s\n", school.Domain)
	fmt.Fprintf(c.out, "  Active:       %t\n", school.IsActive)
	fmt.Fprintln(c.out, "  Admins:")
	if len(admins) == 0 {
		fmt.Fprintln(c.out, "    (none assigned)")
	}
	for _, a := range admins {
		fmt.Fprintf(c.out, "    %s <%s>\n", a.DisplayName(), a.Email)
	}
	return nil
}

func (c *cli) cmdUsers(ctx context.Context, args []string) error {
	if _, err := c.guard(gate.RequireRoles(models.RoleSchoolAdmin)); err != nil {
		return err
	}

	var role models.Role
	if len(args) > 0 {
		role = models.Role(strings.TrimSuffix(args[0], "s"))
		if role == "staff" {
			role = models.RoleTeacher
		}
		if !role.Valid() {
			return fmt.Errorf("unknown role: %s", args[0])
		}
	}

	users, err := apiclient.NewUserService(c.gw).List(ctx, role)
	if err != nil {
		return err
	}

	c.section("Users")
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tEMAIL\tROLE")
	for _, u := range users {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", u.DisplayName(), u.Email, u.Role)
	}
	return w.Flush()
}

func (c *cli) section(title string) {
	cyan := color.New(color.FgCyan)
	fmt.Fprintln(c.out)
	cyan.Fprintf(c.out, "  %s\n", title)
	cyan.Fprintf(c.out, "  %s\n", strings.Repeat("-", len(title)))
}

func levelFromEnv() zerolog.Level {
	level, err := zerolog.ParseLevel(os.Getenv("SCHOOLOS_LOG"))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.WarnLevel
	}
	return level
}
