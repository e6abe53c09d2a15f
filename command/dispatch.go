package command

import "strings"

// parser turns a command's argument vector (everything after the verb,
// and after the subcommand for namespaced commands) into a typed
// Command.
type parser func(args [][]byte) (Command, error)

// table is the static verb -> parser dispatch map (spec.md §4.6: "a
// static table with a small two-level namespace for CONFIG").
var table = map[string]parser{
	"GET":  parseGet,
	"SET":  parseSet,
	"INCR": parseIncr,

	"LPUSH":  parseLPush,
	"RPUSH":  parseRPush,
	"LPOP":   parseLPop,
	"LRANGE": parseLRange,
	"LLEN":   parseLLen,
	"BLPOP":  parseBLPop,

	"ZADD":   parseZAdd,
	"ZREM":   parseZRem,
	"ZSCORE": parseZScore,
	"ZRANK":  parseZRank,
	"ZRANGE": parseZRange,
	"ZCARD":  parseZCard,

	"XADD":   parseXAdd,
	"XLEN":   parseXLen,
	"XRANGE": parseXRange,
	"XREAD":  parseXRead,

	"SUBSCRIBE":   parseSubscribe,
	"UNSUBSCRIBE": parseUnsubscribe,
	"PUBLISH":     parsePublish,

	"MULTI":   parseMulti,
	"EXEC":    parseExec,
	"DISCARD": parseDiscard,

	"DEL":       parseDel,
	"EXISTS":    parseExists,
	"TYPE":      parseType,
	"KEYS":      parseKeys,
	"EXPIRE":    parseExpireLike("EXPIRE", UnitSeconds, KindRelative),
	"PEXPIRE":   parseExpireLike("PEXPIRE", UnitMillis, KindRelative),
	"EXPIREAT":  parseExpireLike("EXPIREAT", UnitSeconds, KindAbsolute),
	"PEXPIREAT": parseExpireLike("PEXPIREAT", UnitMillis, KindAbsolute),
	"TTL":       parseTTLLike(false),
	"PTTL":      parseTTLLike(true),
	"SELECT":    parseSelect,

	"PING": parsePing,
	"ECHO": parseEcho,

	"INFO": parseInfo,

	"REPLCONF": parseReplConf,
	"PSYNC":    parsePSync,
}

// subcommandTable holds the commands whose second argument names a
// subcommand rather than being the first ordinary argument. CONFIG is
// the only one spec.md requires (CONFIG GET).
var subcommandTable = map[string]map[string]parser{
	"CONFIG": {
		"GET": parseConfigGet,
	},
}

// Parse turns a raw argument vector (the decoded command array, first
// element the verb) into a typed Command, or an error suitable for a
// wire simple-error reply.
func Parse(args [][]byte) (Command, error) {
	if len(args) == 0 {
		return nil, unknownCommandError("", nil)
	}
	verb := strings.ToUpper(string(args[0]))

	if subs, ok := subcommandTable[verb]; ok {
		if len(args) < 2 {
			return nil, unknownCommandError(verb, args[1:])
		}
		sub := strings.ToUpper(string(args[1]))
		p, ok := subs[sub]
		if !ok {
			return nil, unknownCommandError(verb+" "+sub, args[2:])
		}
		return p(args[2:])
	}

	p, ok := table[verb]
	if !ok {
		return nil, unknownCommandError(verb, args[1:])
	}
	return p(args[1:])
}

// IsControlCommand reports whether verb is one of MULTI/EXEC/DISCARD —
// the three commands a queued transaction still executes immediately
// rather than enqueuing (spec.md §4.7 dispatch step 3).
func IsControlCommand(args [][]byte) bool {
	if len(args) == 0 {
		return false
	}
	switch strings.ToUpper(string(args[0])) {
	case "MULTI", "EXEC", "DISCARD":
		return true
	default:
		return false
	}
}
