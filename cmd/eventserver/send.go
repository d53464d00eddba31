package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/vango-dev/eventserver/internal/config"
	"github.com/vango-dev/eventserver/internal/errors"
	"github.com/vango-dev/eventserver/pkg/protocol"
	"github.com/vango-dev/eventserver/pkg/remote"
)

type sendOptions struct {
	addr  string
	token uint32
	name  string
}

func sendCmd(flags *globalFlags) *cobra.Command {
	opts := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send packets to an event server",
		Long: `Send packets to a running event server, acting as a remote control.

Every subcommand sends a HELO first unless --name is empty, so the
server knows the client before the event arrives.

Examples:
  eventserver send ping
  eventserver send button enter --map=KB
  eventserver send button 0x0D --map=KB --up
  eventserver send mouse 32768 32768
  eventserver send action "ActivateWindow(Home)"
  eventserver send notify "Hello" "From the command line" --icon=logo.png`,
	}

	cmd.PersistentFlags().StringVarP(&opts.addr, "addr", "a", "127.0.0.1:9777", "Event server address")
	cmd.PersistentFlags().Uint32Var(&opts.token, "token", 0, "Client token (default derived from the source address)")
	cmd.PersistentFlags().StringVar(&opts.name, "name", "eventserver-cli", "Device name sent in HELO")

	cmd.AddCommand(
		sendHeloCmd(flags, opts),
		sendSimpleCmd(flags, opts, "bye", "End the session", func(s *remote.Sender) error { return s.Bye() }),
		sendSimpleCmd(flags, opts, "ping", "Keep the session alive", func(s *remote.Sender) error { return s.Ping() }),
		sendButtonCmd(flags, opts),
		sendMouseCmd(flags, opts),
		sendActionCmd(flags, opts),
		sendNotifyCmd(flags, opts),
		sendLogCmd(flags, opts),
	)

	return cmd
}

// withSender dials the server, greets it and runs fn.
func (o *sendOptions) withSender(flags *globalFlags, greet bool, fn func(*remote.Sender) error) error {
	level := flags.logLevel
	if level == "" {
		level = "warn"
	}
	logger, err := newLogger(config.LogConfig{Level: level, Format: flags.logFormat})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sender, err := remote.Dial(ctx, o.addr, remote.Options{Token: o.token, Logger: logger})
	if err != nil {
		return errors.New("E300").
			WithDetail("Cannot reach " + o.addr).
			WithSuggestion("Use host:port, for example 127.0.0.1:9777").
			Wrap(err)
	}
	defer sender.Close()

	if greet && o.name != "" {
		if err := sender.Helo(o.name, protocol.IconNone, nil); err != nil {
			return errors.New("E301").Wrap(err)
		}
	}
	if err := fn(sender); err != nil {
		if errors.HasCode(err, "E302") {
			return err
		}
		return errors.New("E301").Wrap(err)
	}
	success("Sent %d packet(s) to %s", sender.Sent(), sender.Addr())
	return nil
}

func sendSimpleCmd(flags *globalFlags, opts *sendOptions, use, short string, fn func(*remote.Sender) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSender(flags, use != "bye", fn)
		},
	}
}

func sendHeloCmd(flags *globalFlags, opts *sendOptions) *cobra.Command {
	var iconPath string

	cmd := &cobra.Command{
		Use:   "helo",
		Short: "Announce the client, optionally with an icon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			iconType, icon, err := readIcon(iconPath)
			if err != nil {
				return err
			}
			return opts.withSender(flags, false, func(s *remote.Sender) error {
				return s.Helo(opts.name, iconType, icon)
			})
		},
	}

	cmd.Flags().StringVar(&iconPath, "icon", "", "Icon file (png, jpeg or gif)")

	return cmd
}

func sendButtonCmd(flags *globalFlags, opts *sendOptions) *cobra.Command {
	var (
		mapName string
		up      bool
		queue   bool
		hold    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "button <code|name>",
		Short: "Press or release a button",
		Long: `Press or release a button by code or by name.

A numeric argument (decimal or 0x hex) is sent as a button code. Any
other argument is sent as a button name within --map. With --hold the
button is released again after the given duration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, byCode := parseButtonCode(args[0])
			return opts.withSender(flags, true, func(s *remote.Sender) error {
				var err error
				switch {
				case byCode && up:
					err = s.ButtonUp(code, mapName)
				case byCode:
					var bf protocol.ButtonFlags
					if queue {
						bf |= protocol.ButtonQueue | protocol.ButtonNoRepeat
					}
					err = s.ButtonDown(code, mapName, bf)
				case up:
					err = s.ReleaseByName(mapName, args[0])
				default:
					err = s.ButtonByName(mapName, args[0], queue)
				}
				if err != nil || up || hold <= 0 {
					return err
				}

				time.Sleep(hold)
				if byCode {
					return s.ButtonUp(code, mapName)
				}
				return s.ReleaseByName(mapName, args[0])
			})
		},
	}

	cmd.Flags().StringVarP(&mapName, "map", "m", "KB", "Keymap name (KB, XG, R1, R2 or a joystick map)")
	cmd.Flags().BoolVar(&up, "up", false, "Release instead of press")
	cmd.Flags().BoolVar(&queue, "queue", false, "Deliver as a queued action without repeat")
	cmd.Flags().DurationVar(&hold, "hold", 0, "Release after holding for this long")

	return cmd
}

func sendMouseCmd(flags *globalFlags, opts *sendOptions) *cobra.Command {
	var relative bool

	cmd := &cobra.Command{
		Use:   "mouse <x> <y>",
		Short: "Move the pointer (0-65535 on each axis)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := parseUint16("x", args[0])
			if err != nil {
				return err
			}
			y, err := parseUint16("y", args[1])
			if err != nil {
				return err
			}
			return opts.withSender(flags, true, func(s *remote.Sender) error {
				return s.Mouse(x, y, !relative)
			})
		},
	}

	cmd.Flags().BoolVar(&relative, "relative", false, "Clear the absolute flag")

	return cmd
}

func sendActionCmd(flags *globalFlags, opts *sendOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "action <message>",
		Short: "Queue an action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var at protocol.ActionType
			switch strings.ToLower(kind) {
			case "builtin":
				at = protocol.ActionExecBuiltin
			case "button":
				at = protocol.ActionButton
			default:
				return errors.New("E302").
					WithDetailf("unknown action kind %q", kind).
					WithSuggestion("Use builtin or button")
			}
			return opts.withSender(flags, true, func(s *remote.Sender) error {
				return s.Action(at, args[0])
			})
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "builtin", "Action kind (builtin, button)")

	return cmd
}

func sendNotifyCmd(flags *globalFlags, opts *sendOptions) *cobra.Command {
	var iconPath string

	cmd := &cobra.Command{
		Use:   "notify <caption> <message>",
		Short: "Show a notification on the host",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			iconType, icon, err := readIcon(iconPath)
			if err != nil {
				return err
			}
			return opts.withSender(flags, true, func(s *remote.Sender) error {
				return s.Notification(args[0], args[1], iconType, icon)
			})
		},
	}

	cmd.Flags().StringVar(&iconPath, "icon", "", "Icon file (png, jpeg or gif)")

	return cmd
}

func sendLogCmd(flags *globalFlags, opts *sendOptions) *cobra.Command {
	var level string

	cmd := &cobra.Command{
		Use:   "log <message>",
		Short: "Write a line to the host log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, ok := logLevels[strings.ToLower(level)]
			if !ok {
				return errors.New("E302").
					WithDetailf("unknown log level %q", level).
					WithSuggestion("Use debug, info, notice, warning, error, severe or fatal")
			}
			return opts.withSender(flags, true, func(s *remote.Sender) error {
				return s.Log(lvl, args[0])
			})
		},
	}

	cmd.Flags().StringVarP(&level, "level", "l", "info", "Remote log level")

	return cmd
}

var logLevels = map[string]protocol.LogLevel{
	"debug":   protocol.LogDebug,
	"info":    protocol.LogInfo,
	"notice":  protocol.LogNotice,
	"warning": protocol.LogWarning,
	"error":   protocol.LogError,
	"severe":  protocol.LogSevere,
	"fatal":   protocol.LogFatal,
}

// parseButtonCode reports whether s is a numeric button code.
func parseButtonCode(s string) (uint16, bool) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}

func parseUint16(name, s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, errors.New("E302").
			WithDetailf("%s must be between 0 and 65535, got %q", name, s)
	}
	return uint16(v), nil
}

// readIcon loads an icon file and detects its type from the extension.
func readIcon(path string) (protocol.IconType, []byte, error) {
	if path == "" {
		return protocol.IconNone, nil, nil
	}

	var iconType protocol.IconType
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		iconType = protocol.IconPNG
	case ".jpg", ".jpeg":
		iconType = protocol.IconJPEG
	case ".gif":
		iconType = protocol.IconGIF
	default:
		return 0, nil, errors.New("E302").
			WithDetailf("unsupported icon %s", path).
			WithSuggestion("Use a .png, .jpg or .gif file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, errors.New("E302").Wrap(err)
	}
	return iconType, data, nil
}
