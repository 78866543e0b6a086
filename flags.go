// FILE: lixenwraith/spice/flags.go
package spice

import (
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
)

// FlagName converts a key to the flag name used by Flags: dots become dashes.
func FlagName(key string) string {
	return strings.ReplaceAll(key, KeyDelimiter, "-")
}

// ArgsLayer serves raw command-line arguments of the form --key=value, --key value
// and --flag (which means "true"). Values are kept as strings.
type ArgsLayer struct {
	values map[string]Value
}

// NewArgsLayer parses args. Non-flag arguments and a bare "--" are skipped.
func NewArgsLayer(args []string) (*ArgsLayer, error) {
	values, err := parseArgs(args)
	if err != nil {
		return nil, err
	}
	return &ArgsLayer{values: values}, nil
}

func (l *ArgsLayer) Name() string { return "args" }

func (l *ArgsLayer) Priority() Priority { return PriorityFlags }

func (l *ArgsLayer) Get(key string) (Value, bool, error) {
	v, ok := l.values[key]
	return v, ok, nil
}

func (l *ArgsLayer) Keys() []string {
	keys := make([]string, 0, len(l.values))
	for k := range l.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseArgs processes command-line arguments into flat key/value pairs.
func parseArgs(args []string) (map[string]Value, error) {
	result := make(map[string]Value)
	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			i++
			continue
		}

		content := strings.TrimPrefix(arg, "--")
		if content == "" {
			i++
			continue
		}

		var key, value string
		if k, v, found := strings.Cut(content, "="); found {
			key, value = k, v
			i++
		} else {
			key = content
			// a flag followed by another flag or nothing is a boolean switch
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
				value = "true"
				i++
			} else {
				value = args[i+1]
				i += 2
			}
		}

		if key == "" {
			continue
		}

		key = normalizeKey(key)
		if err := validateKey(key); err != nil {
			return nil, fmt.Errorf("command-line argument %q: %w", arg, err)
		}
		result[key] = String(value)
	}
	return result, nil
}

// CommandOption configures a CommandLayer.
type CommandOption func(*CommandLayer)

// WithFlagBinding maps key to the flag named flag.
func WithFlagBinding(key, flag string) CommandOption {
	return func(l *CommandLayer) {
		l.bindings[flag] = normalizeKey(key)
	}
}

// withKnownKeys lets flags named after FlagName(key) resolve back to key.
func withKnownKeys(keys []string) CommandOption {
	return func(l *CommandLayer) {
		for _, k := range keys {
			l.known[FlagName(k)] = k
		}
	}
}

// CommandLayer serves flags of a parsed *cli.Command. Only flags set on the command
// line are visible, so flag defaults never shadow lower layers.
type CommandLayer struct {
	cmd       *cli.Command
	bindings  map[string]string // flag -> key
	known     map[string]string // flag -> key
	keyToFlag map[string]string
}

// NewCommandLayer maps every flag of cmd to a key: an explicit binding first, then
// a known key whose FlagName matches, then the lower-cased flag name.
func NewCommandLayer(cmd *cli.Command, opts ...CommandOption) *CommandLayer {
	l := &CommandLayer{
		cmd:       cmd,
		bindings:  make(map[string]string),
		known:     make(map[string]string),
		keyToFlag: make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}

	for _, f := range cmd.Flags {
		names := f.Names()
		if len(names) == 0 {
			continue
		}
		flag := names[0]
		key, ok := l.bindings[flag]
		if !ok {
			key, ok = l.known[flag]
		}
		if !ok {
			key = normalizeKey(flag)
		}
		l.keyToFlag[key] = flag
	}
	return l
}

func (l *CommandLayer) Name() string { return "flags:" + l.cmd.Name }

func (l *CommandLayer) Priority() Priority { return PriorityFlags }

func (l *CommandLayer) Get(key string) (Value, bool, error) {
	flag, ok := l.keyToFlag[key]
	if !ok || !l.cmd.IsSet(flag) {
		return Value{}, false, nil
	}
	v, err := ValueOf(l.cmd.Value(flag))
	if err != nil {
		return Value{}, false, fmt.Errorf("flag %q: %w", flag, err)
	}
	return v, true, nil
}

func (l *CommandLayer) Keys() []string {
	keys := make([]string, 0, len(l.keyToFlag))
	for key, flag := range l.keyToFlag {
		if l.cmd.IsSet(flag) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Flags generates typed flags for every scalar or list default, named by FlagName.
func (s *Spice) Flags() []cli.Flag {
	var flags []cli.Flag
	for _, key := range s.defaults.Keys() {
		v, ok, _ := s.defaults.Get(key)
		if !ok {
			continue
		}
		name := FlagName(key)
		usage := "config: " + key
		switch v.kind {
		case KindString:
			flags = append(flags, &cli.StringFlag{Name: name, Value: v.str, Usage: usage})
		case KindInt:
			flags = append(flags, &cli.Int64Flag{Name: name, Value: v.num, Usage: usage})
		case KindFloat:
			flags = append(flags, &cli.Float64Flag{Name: name, Value: v.flt, Usage: usage})
		case KindBool:
			flags = append(flags, &cli.BoolFlag{Name: name, Value: v.b, Usage: usage})
		case KindList:
			items := make([]string, 0, len(v.list))
			for _, item := range v.list {
				if str, err := item.AsString(); err == nil {
					items = append(items, str)
				}
			}
			flags = append(flags, &cli.StringSliceFlag{Name: name, Value: items, Usage: usage})
		}
	}
	return flags
}

// BindFlags adds a CommandLayer for cmd. Flags generated by Flags map back to their keys.
func (s *Spice) BindFlags(cmd *cli.Command, opts ...CommandOption) *CommandLayer {
	opts = append([]CommandOption{withKnownKeys(s.AllKeys())}, opts...)
	layer := NewCommandLayer(cmd, opts...)
	s.AddLayer(layer)
	return layer
}

// BindArgs parses raw arguments into an ArgsLayer and adds it.
func (s *Spice) BindArgs(args []string) (*ArgsLayer, error) {
	layer, err := NewArgsLayer(args)
	if err != nil {
		return nil, err
	}
	s.AddLayer(layer)
	return layer, nil
}
