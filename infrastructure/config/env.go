package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	domainconfig "github.com/felixgeelhaar/chartforge/domain/config"
)

// envPattern matches, in one pass, $$ (a literal dollar), ${VAR},
// ${VAR:-default}, ${VAR:?message} and $VAR.
var envPattern = regexp.MustCompile(`\$\$|\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// envExpander expands environment variables in configuration text.
type envExpander struct {
	// strict fails if a referenced variable is not set.
	strict bool
	// missing collects unset variables for the error.
	missing []string
}

// Expand replaces every reference in input. An unset plain reference
// expands to the empty string, or is reported when strict. ${VAR:?msg}
// is always reported when VAR is unset or empty.
func (e *envExpander) Expand(input string) (string, error) {
	e.missing = nil

	result := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		if match == "$$" {
			return "$"
		}

		groups := envPattern.FindStringSubmatch(match)
		name, modifier, arg := groups[1], groups[2], groups[3]
		if name == "" {
			name = groups[4]
		}

		value, exists := os.LookupEnv(name)
		switch modifier {
		case ":-":
			if value == "" {
				return arg
			}
		case ":?":
			if value == "" {
				e.missing = append(e.missing, fmt.Sprintf("%s: %s", name, arg))
				return match
			}
		default:
			if !exists && e.strict {
				e.missing = append(e.missing, name)
			}
		}
		return value
	})

	if len(e.missing) > 0 {
		return "", fmt.Errorf("%w: %s", domainconfig.ErrMissingEnvVar, strings.Join(e.missing, ", "))
	}
	return result, nil
}

// ExpandEnv expands environment variables; unset ones become empty.
func ExpandEnv(input string) string {
	result, _ := (&envExpander{}).Expand(input)
	return result
}

// ExpandEnvStrict expands environment variables and returns an error for missing vars.
func ExpandEnvStrict(input string) (string, error) {
	return (&envExpander{strict: true}).Expand(input)
}
