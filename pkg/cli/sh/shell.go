package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"sort"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/msgport/pkg/channel"
	"github.com/robotalks/msgport/pkg/env"
	"github.com/robotalks/msgport/pkg/ipc"
	"github.com/robotalks/msgport/pkg/msgs"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	Timeout     time.Duration

	Shell   *ishell.Shell
	Config  *env.Config
	Env     *env.Env
	Current *channel.Channel

	channels map[ipc.Key]*channel.Channel
}

const (
	shellKey         = "$shell"
	unselectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	timeout    = 5 * time.Second

	// commands
	commands = []*ishell.Cmd{
		&CreateCmd,
		&OpenCmd,
		&RemoveCmd,
		&ListCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.DurationVar(&timeout, "timeout", timeout, "Timeout of send and receive, 0 waits forever.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     timeout,

		Shell:    ishell.New(),
		Config:   conf,
		channels: make(map[ipc.Key]*channel.Channel),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unselectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustHaveChannel wraps command func requires a selected channel.
func MustHaveChannel(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Current == nil {
			c.Err(fmt.Errorf("no channel, use create or open first"))
			return
		}
		fn(c)
	}
}

// Context creates a context bounded by Timeout.
func (s *Shell) Context() (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), s.Timeout)
}

// PrintContent prints a received content.
func PrintContent(c *ishell.Context, p channel.Port, content msgs.Content) error {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(map[string]interface{}{
			"port":    p,
			"type":    msgs.TypeName(content),
			"content": content.Serializable(),
		})
		if err != nil {
			return err
		}
		c.Println(string(out))
		return nil
	}
	c.Printf("[%d] %s %s\n", p, msgs.TypeName(content), content.Serializable().String())
	return nil
}

func (s *Shell) env() (*env.Env, error) {
	if s.Env == nil {
		e, err := s.Config.NewEnv()
		if err != nil {
			return nil, err
		}
		s.Env = e
	}
	return s.Env, nil
}

// Create creates the channel and selects it.
func (s *Shell) Create(key ipc.Key) error {
	e, err := s.env()
	if err != nil {
		return err
	}
	ch, err := e.Create(key)
	if err != nil {
		return err
	}
	s.use(ch)
	return nil
}

// Open opens an existing channel and selects it.
func (s *Shell) Open(key ipc.Key) error {
	if ch := s.channels[key]; ch != nil {
		s.use(ch)
		return nil
	}
	e, err := s.env()
	if err != nil {
		return err
	}
	ch, err := e.Open(key)
	if err != nil {
		return err
	}
	s.use(ch)
	return nil
}

// Remove removes the channel. Channels not created by this shell are
// opened as owner so they can be removed.
func (s *Shell) Remove(key ipc.Key) error {
	ch := s.channels[key]
	if ch == nil || !ch.Owner() {
		e, err := s.env()
		if err != nil {
			return err
		}
		if ch, err = e.Create(key); err != nil {
			return err
		}
	}
	ch.Remove()
	delete(s.channels, key)
	if s.Current != nil && s.Current.Key() == key {
		s.Current = nil
		s.Shell.SetPrompt(unselectedPrompt)
	}
	return nil
}

// Keys returns keys of known channels in order.
func (s *Shell) Keys() []ipc.Key {
	keys := make([]ipc.Key, 0, len(s.channels))
	for key := range s.channels {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (s *Shell) use(ch *channel.Channel) {
	if prev := s.channels[ch.Key()]; prev == nil || !prev.Owner() || ch.Owner() {
		s.channels[ch.Key()] = ch
	}
	s.Current = s.channels[ch.Key()]
	s.Shell.SetPrompt(fmt.Sprintf("[%d] > ", ch.Key()))
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Exitln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	glog.Exitln("command expected")
}

func parseKeyArg(c *ishell.Context) (ipc.Key, error) {
	if len(c.Args) < 1 {
		if cur := ShellFrom(c).Current; cur != nil {
			return cur.Key(), nil
		}
		return 0, fmt.Errorf("KEY required")
	}
	key, err := ipc.ParseKey(c.Args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid KEY: %v", err)
	}
	return key, nil
}

var (
	// CreateCmd creates a channel.
	CreateCmd = ishell.Cmd{
		Name:    "create",
		Aliases: []string{"c"},
		Help:    "KEY",
		Func: func(c *ishell.Context) {
			key, err := parseKeyArg(c)
			if err == nil {
				err = ShellFrom(c).Create(key)
			}
			if err != nil {
				c.Err(err)
			}
		},
	}

	// OpenCmd opens an existing channel.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "KEY",
		Func: func(c *ishell.Context) {
			key, err := parseKeyArg(c)
			if err == nil {
				err = ShellFrom(c).Open(key)
			}
			if err != nil {
				c.Err(err)
			}
		},
	}

	// RemoveCmd removes a channel.
	RemoveCmd = ishell.Cmd{
		Name:    "remove",
		Aliases: []string{"rm"},
		Help:    "[KEY]",
		Func: func(c *ishell.Context) {
			key, err := parseKeyArg(c)
			if err == nil {
				err = ShellFrom(c).Remove(key)
			}
			if err != nil {
				c.Err(err)
			}
		},
	}

	// ListCmd lists known channels.
	ListCmd = ishell.Cmd{
		Name:    "list",
		Aliases: []string{"l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			keys := s.Keys()
			if s.OutputJSON {
				out, err := json.Marshal(keys)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(keys) == 0 {
				c.Println("No channels")
				return
			}
			for _, key := range keys {
				ch := s.channels[key]
				mark := " "
				if ch == s.Current {
					mark = "*"
				}
				owner := ""
				if ch.Owner() {
					owner = " (owner)"
				}
				c.Printf("%s %d%s\n", mark, key, owner)
			}
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).Run(flag.Args()...)
}
