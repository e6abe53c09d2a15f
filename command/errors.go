package command

import (
	"errors"
	"fmt"
	"strings"
)

// usageError builds the parse-time error for a command invoked with the
// wrong argument count or shape (spec.md §4.7: "reply a simple error
// formed from the command's usage"). Its Error() text is wire-ready: the
// dispatcher wraps it directly in a resp.Error reply.
func usageError(name, usage string) error {
	return fmt.Errorf("ERR wrong number of arguments for '%s' command (usage: %s)", strings.ToLower(name), usage)
}

var errWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

var errNotInteger = errors.New("ERR value is not an integer or out of range")

func unknownCommandError(name string, args [][]byte) error {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = "'" + string(a) + "'"
	}
	return fmt.Errorf("ERR unknown command '%s', with args beginning with: %s", name, strings.Join(parts, ", "))
}
