package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/leapline/internal/cli"
	"github.com/leapstack-labs/leapline/internal/cli/config"
)

// page is one generated markdown file.
type page struct {
	Name string
	Body []byte
}

// generateCLIDocs writes the CLI reference for the leapline command tree.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, p := range cliPages(cli.NewRootCmd()) {
		if err := os.WriteFile(filepath.Join(outDir, p.Name), p.Body, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", p.Name, err)
		}
		log.Printf("  Generated %s", p.Name)
	}
	return nil
}

// cliPages renders the index and one page per documented command, nested
// commands included.
func cliPages(root *cobra.Command) []page {
	pages := []page{{Name: "index.md", Body: cliIndex(root)}}
	var walk func(cmd *cobra.Command)
	walk = func(cmd *cobra.Command) {
		for _, sub := range documented(cmd) {
			pages = append(pages, page{Name: slug(sub) + ".md", Body: commandPage(sub)})
			walk(sub)
		}
	}
	walk(root)
	return pages
}

// documented returns the subcommands that get a page.
func documented(cmd *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, sub := range cmd.Commands() {
		if sub.Hidden || sub.Name() == "help" || sub.Name() == "__complete" {
			continue
		}
		out = append(out, sub)
	}
	return out
}

// slug names the page of cmd: "projects create" becomes projects-create.
func slug(cmd *cobra.Command) string {
	path := strings.Fields(cmd.CommandPath())
	return strings.Join(path[1:], "-")
}

func commandLink(cmd *cobra.Command) string {
	return fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), slug(cmd))
}

func cliIndex(root *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for LeapLine")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(root.Long)

	w.Header(2, "Installation")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/leapline/cmd/leapline@latest")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range documented(root) {
		rows = append(rows, []string{commandLink(cmd), cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	writeFlagsTable(w, root.PersistentFlags())

	w.Header(2, "Environment Variables")
	w.Paragraph("Every configuration key can be set from the environment. " +
		"Flags take precedence over environment variables, which take precedence over `leapline.yaml`.")
	w.Table([]string{"Variable", "Key", "Flag", "Default", "Description"}, envRows(root))

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode("0"), "Success"},
		{InlineCode("1"), "Error (check stderr for details)"},
	})
	return w.Bytes()
}

// envRows lists one row per config key with the flag that overrides it,
// if any command declares one.
func envRows(root *cobra.Command) [][]string {
	flags := configFlags(root)
	defaults, keys := configKeys()

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		flag := "-"
		if name, ok := flags[key]; ok {
			flag = InlineCode("--" + name)
		}
		rows = append(rows, []string{
			InlineCode(config.EnvVar(key)),
			InlineCode(key),
			flag,
			defaultCell(defaults[key]),
			keyDescriptions[key],
		})
	}
	return rows
}

// configFlags maps config keys to the flag setting them, across the tree.
func configFlags(root *cobra.Command) map[string]string {
	byKey := map[string]string{}
	add := func(f *pflag.Flag) {
		key := config.FlagKey(f.Name)
		if _, ok := byKey[key]; !ok {
			byKey[key] = f.Name
		}
	}
	var walk func(cmd *cobra.Command)
	walk = func(cmd *cobra.Command) {
		cmd.LocalFlags().VisitAll(add)
		for _, sub := range documented(cmd) {
			walk(sub)
		}
	}
	walk(root)
	return byKey
}

func commandPage(cmd *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.CommandPath(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, strings.TrimPrefix(cmd.CommandPath(), "leapline "))
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	if cmd.HasSubCommands() {
		w.CodeBlock("bash", cmd.CommandPath()+" <subcommand> [options]")
	} else {
		w.CodeBlock("bash", cmd.UseLine())
	}

	if len(cmd.Aliases) > 0 {
		w.Header(2, "Aliases")
		aliases := make([]string, len(cmd.Aliases))
		for i, alias := range cmd.Aliases {
			aliases[i] = InlineCode(alias)
		}
		sort.Strings(aliases)
		w.BulletList(aliases)
	}

	if subs := documented(cmd); len(subs) > 0 {
		w.Header(2, "Subcommands")
		rows := make([][]string, 0, len(subs))
		for _, sub := range subs {
			rows = append(rows, []string{commandLink(sub), cleanDescription(sub.Short)})
		}
		w.Table([]string{"Subcommand", "Description"}, rows)
	}

	if cmd.HasLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags())
	}
	if cmd.HasInheritedFlags() {
		w.Header(2, "Global Options")
		writeFlagsTable(w, cmd.InheritedFlags())
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", cleanExample(cmd.Example))
	}
	return w.Bytes()
}

// writeFlagsTable writes one row per visible flag. Flags bound to a config
// key name the environment variable that also sets it.
func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	_, keys := configKeys()
	known := make(map[string]bool, len(keys))
	for _, key := range keys {
		known[key] = true
	}

	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		short := ""
		if f.Shorthand != "" {
			short = "-" + f.Shorthand
		}
		def := f.DefValue
		if f.Value.Type() == "string" && def != "" {
			def = InlineCode(def)
		}
		env := ""
		if key := config.FlagKey(f.Name); known[key] {
			env = InlineCode(config.EnvVar(key))
		}
		rows = append(rows, []string{InlineCode("--" + f.Name), short, def, env, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Option", "Short", "Default", "Env", "Description"}, rows)
}

// cleanExample strips the indentation shared by every non-blank line.
func cleanExample(example string) string {
	lines := strings.Split(example, "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent == -1 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return strings.TrimSpace(example)
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
