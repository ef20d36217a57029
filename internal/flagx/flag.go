// Package flagx helps several flag sets share one argument list: each
// layer picks out only the flags it understands and ignores the rest.
package flagx

import (
	"flag"
	"strconv"
	"strings"
)

// flagName returns the bare name of a flag token ("-path", "--path=x" -> "path").
// ok is false for tokens that are not flags.
func flagName(arg string) (name string, ok bool) {
	if len(arg) < 2 || arg[0] != '-' {
		return "", false
	}
	name = strings.TrimLeft(arg, "-")
	if name == "" {
		return "", false
	}
	if i := strings.IndexByte(name, '='); i >= 0 {
		name = name[:i]
	}
	return name, true
}

// FilterArgs returns a slice of command-line arguments that only contains
// the allowed flags (and their values). Flag names are given without dashes;
// both "-name" and "--name" spellings are matched.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      --config=conf.json
//
// Flags listed in boolFlags never consume the following argument, so
// "-deep /data" keeps "/data" out of the result.
func FilterArgs(args []string, allowedFlags []string, boolFlags ...string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[strings.TrimLeft(f, "-")] = struct{}{}
	}
	bools := make(map[string]struct{}, len(boolFlags))
	for _, f := range boolFlags {
		bools[strings.TrimLeft(f, "-")] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, ok := flagName(arg)
		if !ok {
			continue
		}
		if _, ok := allowed[name]; !ok {
			continue
		}

		filtered = append(filtered, arg)
		if strings.Contains(arg, "=") {
			continue
		}
		if _, ok := bools[name]; ok {
			continue
		}
		// the next token is this flag's value unless it looks like a flag;
		// negative numbers are values
		if i+1 < len(args) && (!strings.HasPrefix(args[i+1], "-") || isNumber(args[i+1])) {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// Positionals returns the arguments that are neither flags nor values of
// flags. Only flags listed in valueFlags take a value; any other flag
// token stands alone. Tokens that parse as numbers, such as "-1", are
// positionals.
func Positionals(args []string, valueFlags ...string) []string {
	values := make(map[string]struct{}, len(valueFlags))
	for _, f := range valueFlags {
		values[strings.TrimLeft(f, "-")] = struct{}{}
	}

	var out []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i+1:]...)
		}
		name, ok := flagName(arg)
		if !ok || isNumber(arg) {
			out = append(out, arg)
			continue
		}
		if strings.Contains(arg, "=") {
			continue
		}
		if _, ok := values[name]; !ok {
			continue
		}
		if i+1 < len(args) && (!strings.HasPrefix(args[i+1], "-") || isNumber(args[i+1])) {
			i++
		}
	}
	return out
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// JsonConfigFlags extracts the config file path provided via the -c or
// -config flags. If neither is present, an empty string is returned.
func JsonConfigFlags(args []string) string {
	var config string

	filtered := FilterArgs(args, []string{"c", "config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(filtered)

	return config
}
