package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/ssis-app/ssis/internal/client"
	"github.com/ssis-app/ssis/internal/invalidate"
)

var readPassword = term.ReadPassword // mockable

// ctl holds the state shared by every command of one invocation.
type ctl struct {
	in     *bufio.Reader
	stdin  io.Reader
	out    io.Writer
	errOut io.Writer

	session    *client.Session
	cookieFile string
	log        zerolog.Logger
	// bus links the dialogs of this invocation to its list views and pickers.
	bus *invalidate.Bus
}

func newApp(in io.Reader, out, errOut io.Writer) *cli.App {
	c := &ctl{in: bufio.NewReader(in), stdin: in, out: out, errOut: errOut, bus: invalidate.NewBus()}
	return &cli.App{
		Name:      "ssisctl",
		Usage:     "manage colleges, programs and students through the SSIS API",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "API server root URL",
				Value:   "http://localhost:8080",
				EnvVars: []string{"SSIS_API_URL"},
			},
			&cli.StringFlag{
				Name:    "cookies",
				Usage:   "file holding the session cookie",
				Value:   defaultCookieFile(),
				EnvVars: []string{"SSIS_COOKIE_FILE"},
			},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log every request"},
		},
		Before: c.before,
		After:  c.after,
		Commands: []*cli.Command{
			c.signupCommand(),
			c.loginCommand(),
			c.logoutCommand(),
			c.whoamiCommand(),
			c.collegesCommand(),
			c.programsCommand(),
			c.studentsCommand(),
			c.statsCommand(),
		},
	}
}

func (c *ctl) before(cc *cli.Context) error {
	level := zerolog.WarnLevel
	if cc.Bool("verbose") {
		level = zerolog.DebugLevel
	}
	c.log = zerolog.New(zerolog.ConsoleWriter{Out: c.errOut, TimeFormat: "15:04:05"}).
		Level(level).With().Timestamp().Logger()

	s, err := client.NewSession(cc.String("api"), client.WithLogger(c.log))
	if err != nil {
		return err
	}
	c.cookieFile = cc.String("cookies")
	cookies, err := loadCookies(c.cookieFile)
	if err != nil {
		return err
	}
	s.SetCookies(cookies)
	c.session = s
	return nil
}

func (c *ctl) after(*cli.Context) error {
	c.bus.Close()
	if c.session == nil {
		return nil
	}
	return saveCookies(c.cookieFile, c.session.Cookies())
}

func (c *ctl) signupCommand() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "create an account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
		},
		Action: func(cc *cli.Context) error {
			pwd, err := c.password("Password: ")
			if err != nil {
				return err
			}
			if err := c.session.Signup(cc.Context, cc.String("username"), cc.String("email"), pwd); err != nil {
				return apiExit(err)
			}
			fmt.Fprintf(c.out, "Account created for %s. Log in with: ssisctl login --email %s\n",
				cc.String("username"), cc.String("email"))
			return nil
		},
	}
}

func (c *ctl) loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "start a session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
		},
		Action: func(cc *cli.Context) error {
			pwd, err := c.password("Password: ")
			if err != nil {
				return err
			}
			user, err := c.session.Login(cc.Context, cc.String("email"), pwd)
			if err != nil {
				return apiExit(err)
			}
			fmt.Fprintf(c.out, "Logged in as %s <%s>\n", user.User.Name, user.User.Email)
			return nil
		},
	}
}

func (c *ctl) logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "end the session",
		Action: func(cc *cli.Context) error {
			if err := c.session.Logout(cc.Context); err != nil {
				return apiExit(err)
			}
			fmt.Fprintln(c.out, "Logged out")
			return nil
		},
	}
}

func (c *ctl) whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:    "whoami",
		Aliases: []string{"ping"},
		Usage:   "show the logged-in user",
		Action: func(cc *cli.Context) error {
			user, err := c.session.Ping(cc.Context)
			if errors.Is(err, client.ErrNotAuthenticated) {
				return cli.Exit("not logged in", 1)
			}
			if err != nil {
				return apiExit(err)
			}
			fmt.Fprintf(c.out, "%s <%s> (id %d)\n", user.User.Name, user.User.Email, user.UserID)
			return nil
		},
	}
}

// password prompts without echo on a terminal and reads one line otherwise.
func (c *ctl) password(prompt string) (string, error) {
	if f, ok := c.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.errOut, prompt)
		pwd, err := readPassword(int(f.Fd()))
		fmt.Fprintln(c.errOut)
		if err != nil {
			return "", err
		}
		return string(pwd), nil
	}
	return c.readLine()
}

func (c *ctl) confirm(prompt string) (bool, error) {
	fmt.Fprint(c.errOut, prompt+" [y/N] ")
	line, err := c.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (c *ctl) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// apiExit turns an API error into a one-line message.
func apiExit(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return cli.Exit(apiErr.Message, 1)
	}
	if errors.Is(err, client.ErrNotAuthenticated) {
		return cli.Exit("not logged in; run ssisctl login", 1)
	}
	return err
}
