package pipeline

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const commandPrefix = "##vso["

// Result is the final state reported for a task.
type Result string

// Task results understood by the agent.
const (
	Succeeded           Result = "Succeeded"
	SucceededWithIssues Result = "SucceededWithIssues"
	Failed              Result = "Failed"
)

// Command is a single logging command, e.g.
// ##vso[task.setvariable variable=out;issecret=false;]value.
type Command struct {
	Properties map[string]string
	Area       string
	Event      string
	Data       string
}

// String renders the command in wire form without a trailing newline.
func (c Command) String() string {
	var b strings.Builder

	b.WriteString(commandPrefix)
	b.WriteString(c.Area)
	b.WriteByte('.')
	b.WriteString(c.Event)

	if len(c.Properties) > 0 {
		b.WriteByte(' ')

		keys := make([]string, 0, len(c.Properties))
		for k := range c.Properties {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(escapeProperty(c.Properties[k]))
			b.WriteByte(';')
		}
	}

	b.WriteByte(']')
	b.WriteString(escapeData(c.Data))

	return b.String()
}

// ParseCommand parses one line of task output. It reports false when the
// line is not a logging command.
func ParseCommand(line string) (Command, bool) {
	line = strings.TrimRight(line, "\r\n")

	start := strings.Index(line, commandPrefix)
	if start < 0 {
		return Command{}, false
	}

	rest := line[start+len(commandPrefix):]

	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return Command{}, false
	}

	head, data := rest[:end], rest[end+1:]

	name, props, _ := strings.Cut(head, " ")

	area, event, ok := strings.Cut(name, ".")
	if !ok || area == "" || event == "" {
		return Command{}, false
	}

	cmd := Command{
		Area:  area,
		Event: event,
		Data:  Unescape(data),
	}

	for _, p := range strings.Split(props, ";") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		k, v, _ := strings.Cut(p, "=")

		if cmd.Properties == nil {
			cmd.Properties = make(map[string]string)
		}

		cmd.Properties[k] = Unescape(v)
	}

	return cmd, true
}

var (
	dataEscaper = strings.NewReplacer(
		"%", "%AZP25",
		"\r", "%0D",
		"\n", "%0A",
	)
	propertyEscaper = strings.NewReplacer(
		"%", "%AZP25",
		"\r", "%0D",
		"\n", "%0A",
		"]", "%5D",
		";", "%3B",
	)
	unescaper = strings.NewReplacer(
		"%0D", "\r",
		"%0A", "\n",
		"%5D", "]",
		"%3B", ";",
		"%AZP25", "%",
	)
)

func escapeData(s string) string { return dataEscaper.Replace(s) }

func escapeProperty(s string) string { return propertyEscaper.Replace(s) }

// Unescape reverses the escaping applied to command data and property values.
func Unescape(s string) string { return unescaper.Replace(s) }

// Commands writes logging commands to the agent.
type Commands struct {
	w  io.Writer
	mu sync.Mutex
}

// NewCommands creates a writer for logging commands.
func NewCommands(w io.Writer) *Commands {
	return &Commands{w: w}
}

// Issue writes a raw command followed by a newline.
func (c *Commands) Issue(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintln(c.w, cmd.String())

	return err
}

// SetVariable publishes a pipeline variable.
func (c *Commands) SetVariable(name, value string, secret bool) error {
	return c.Issue(Command{
		Area:  "task",
		Event: "setvariable",
		Properties: map[string]string{
			"variable": name,
			"issecret": strconv.FormatBool(secret),
		},
		Data: value,
	})
}

// SetResult completes the task with the given result.
func (c *Commands) SetResult(result Result, message string) error {
	return c.Issue(Command{
		Area:       "task",
		Event:      "complete",
		Properties: map[string]string{"result": string(result)},
		Data:       message,
	})
}

// Debug writes a message that is only shown when system diagnostics are on.
func (c *Commands) Debug(msg string) error {
	return c.Issue(Command{Area: "task", Event: "debug", Data: msg})
}

// Error logs an error issue.
func (c *Commands) Error(msg string) error {
	return c.logIssue("error", msg)
}

// Warning logs a warning issue.
func (c *Commands) Warning(msg string) error {
	return c.logIssue("warning", msg)
}

func (c *Commands) logIssue(kind, msg string) error {
	return c.Issue(Command{
		Area:       "task",
		Event:      "logissue",
		Properties: map[string]string{"type": kind},
		Data:       msg,
	})
}

// SetProgress reports a completion percentage for the running task.
func (c *Commands) SetProgress(percent int, msg string) error {
	return c.Issue(Command{
		Area:       "task",
		Event:      "setprogress",
		Properties: map[string]string{"value": strconv.Itoa(percent)},
		Data:       msg,
	})
}
