// Package sources parses the two external identity feeds: the authors
// directory (an [authors] table of `id = "Name <email>"`, read as TOML with
// an INI fallback for unquoted values) and the credential directory (lines
// of `id:hash:module`).
package sources

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/ini.v1"
)

const authorsSection = "authors"

// Authors is a parsed authors directory. Entries maps id to the raw
// "Name <email>" value. Invalid holds ids that are present but whose value
// could not be read; each error is a *ParseError with ID set.
type Authors struct {
	Entries map[string]string
	Invalid map[string]error
}

func newAuthors() Authors {
	return Authors{Entries: map[string]string{}, Invalid: map[string]error{}}
}

// Has reports whether id appears in the directory, valid or not.
func (a Authors) Has(id string) bool {
	if _, ok := a.Entries[id]; ok {
		return true
	}
	_, ok := a.Invalid[id]
	return ok
}

// IDs returns every id in the directory, sorted.
func (a Authors) IDs() []string {
	out := make([]string, 0, len(a.Entries)+len(a.Invalid))
	for id := range a.Entries {
		out = append(out, id)
	}
	for id := range a.Invalid {
		if _, ok := a.Entries[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

type authorsFile struct {
	Authors map[string]any `toml:"authors"`
}

// ParseAuthors reads the [authors] table. A value that is not a string is
// recorded in Invalid and does not fail the parse. Dotted ids such as
// `j.doe` decode as nested tables in TOML and are joined back together.
// Text that is not TOML at all is retried as INI, which accepts the
// unquoted `id = Name <email>` form of svn mailer configs.
func ParseAuthors(text []byte) (Authors, error) {
	var raw authorsFile
	if err := toml.Unmarshal(text, &raw); err != nil {
		authors, iniErr := parseAuthorsINI(text)
		if iniErr != nil {
			return Authors{}, fmt.Errorf("authors: %w: %v", ErrParse, err)
		}
		return authors, nil
	}
	out := newAuthors()
	out.addTable("", raw.Authors)
	return out, nil
}

func (a Authors) addTable(prefix string, table map[string]any) {
	for key, v := range table {
		id := key
		if prefix != "" {
			id = prefix + "." + key
		}
		switch v := v.(type) {
		case string:
			a.Entries[id] = v
		case map[string]any:
			if len(v) == 0 {
				a.Invalid[id] = &ParseError{ID: id, Value: "{}", Reason: "value is not a string"}
				continue
			}
			a.addTable(id, v)
		default:
			a.Invalid[id] = &ParseError{ID: id, Value: fmt.Sprint(v), Reason: "value is not a string"}
		}
	}
}

func parseAuthorsINI(text []byte) (Authors, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters:  "=:",
		IgnoreInlineComment: true,
	}, text)
	if err != nil {
		return Authors{}, err
	}
	out := newAuthors()
	sec, err := f.GetSection(authorsSection)
	if err != nil {
		// no [authors] section
		return out, nil
	}
	for _, key := range sec.Keys() {
		out.Entries[key.Name()] = strings.TrimSpace(key.String())
	}
	return out, nil
}

func LoadAuthorsFile(path string) (Authors, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return Authors{}, fmt.Errorf("read authors %s: %w", path, err)
	}
	authors, err := ParseAuthors(text)
	if err != nil {
		return Authors{}, fmt.Errorf("%s: %w", path, err)
	}
	return authors, nil
}

// SplitNameAndEmail splits "Name <email>". The string must hold exactly one
// '<' and one '>', with '>' as the final character.
func SplitNameAndEmail(raw string) (name, email string, err error) {
	if strings.Count(raw, "<") != 1 ||
		strings.Count(raw, ">") != 1 ||
		!strings.HasSuffix(raw, ">") {
		return "", "", &ParseError{Value: raw, Reason: "expected \"Name <email>\""}
	}
	lhs, rhs, _ := strings.Cut(strings.TrimSuffix(raw, ">"), "<")
	return strings.TrimSpace(lhs), strings.TrimSpace(rhs), nil
}
