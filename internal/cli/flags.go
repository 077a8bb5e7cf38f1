package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/alexanderramin/greenpath/internal/domain"
)

// enumFlag is a string flag restricted to a fixed set of values, so typos
// fail at parse time with the accepted list.
type enumFlag struct {
	value   string
	allowed map[string]bool
	name    string
}

var _ pflag.Value = (*enumFlag)(nil)

func newEnumFlag(name string, allowed map[string]bool) *enumFlag {
	return &enumFlag{name: name, allowed: allowed}
}

func (f *enumFlag) String() string { return f.value }
func (f *enumFlag) Type() string   { return f.name }

func (f *enumFlag) Set(s string) error {
	v := strings.ToLower(strings.TrimSpace(s))
	if !f.allowed[v] {
		return fmt.Errorf("must be one of %s", strings.Join(f.choices(), ", "))
	}
	f.value = v
	return nil
}

func (f *enumFlag) choices() []string {
	out := make([]string, 0, len(f.allowed))
	for k := range f.allowed {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// categoryFlag accepts any spelling ParseCategory understands.
type categoryFlag struct {
	value domain.Category
}

var _ pflag.Value = (*categoryFlag)(nil)

func (f *categoryFlag) String() string { return string(f.value) }
func (f *categoryFlag) Type() string   { return "category" }

func (f *categoryFlag) Set(s string) error {
	c, ok := domain.ParseCategory(s)
	if !ok {
		return fmt.Errorf("unknown category %q", s)
	}
	f.value = c
	return nil
}
