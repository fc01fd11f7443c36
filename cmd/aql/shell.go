package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/peterh/liner"
	"github.com/wbrown/janus-aql/aql"
	"github.com/wbrown/janus-aql/aql/executor"
	"github.com/wbrown/janus-aql/aql/storage"
)

var shellCommands = []string{
	".help", ".exit", ".collections", ".create", ".index", ".insert", ".explain", ".bind",
}

// shell interprets interactive input lines: dot commands manage the
// database, anything else runs as a query.
type shell struct {
	exec   *executor.Executor
	db     *storage.Database
	out    io.Writer
	params map[string]aql.Value
}

func newShell(exec *executor.Executor, out io.Writer) *shell {
	return &shell{exec: exec, db: exec.Database(), out: out}
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  .help                              - Show help")
	fmt.Fprintln(s.out, "  .exit                              - Exit")
	fmt.Fprintln(s.out, "  .collections                       - List collections and indexes")
	fmt.Fprintln(s.out, "  .create <name>                     - Create a collection")
	fmt.Fprintln(s.out, "  .index <name> [unique] <f1,f2,...> - Create a hash index")
	fmt.Fprintln(s.out, "  .insert <name> <json object>       - Insert a document")
	fmt.Fprintln(s.out, "  .explain <query>                   - Show the plan for a query")
	fmt.Fprintln(s.out, "  .bind <json object>                - Set bind parameters for later queries")
	fmt.Fprintln(s.out, "  FOR ... RETURN ...                 - Run a query")
}

// execLine handles one line and reports whether the shell should exit.
func (s *shell) execLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	var err error
	switch cmd {
	case ".exit":
		return true
	case ".help":
		s.printHelp()
	case ".collections":
		s.listCollections()
	case ".create":
		err = s.create(rest)
	case ".index":
		err = s.index(rest)
	case ".insert":
		err = s.insert(rest)
	case ".explain":
		var plan string
		if plan, err = s.exec.Explain(rest); err == nil {
			fmt.Fprintln(s.out, plan)
		}
	case ".bind":
		s.params, err = parseBind(rest)
	default:
		if strings.HasPrefix(cmd, ".") {
			fmt.Fprintln(s.out, "Unknown command. Use .help for help.")
			return false
		}
		if err = runSingleQuery(s.out, s.exec, line, s.params); err == nil {
			fmt.Fprintln(s.out)
		}
	}
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
	return false
}

func (s *shell) listCollections() {
	names := s.db.CollectionNames()
	if len(names) == 0 {
		fmt.Fprintln(s.out, "No collections")
		return
	}
	for _, name := range names {
		c, ok := s.db.Collection(name)
		if !ok {
			continue
		}
		fmt.Fprintf(s.out, "%s (%s documents)\n", name, humanize.Comma(int64(c.Count())))
		for _, ix := range c.Indexes() {
			st := ix.Stats()
			fmt.Fprintf(s.out, "  #%d %s: %s keys, %s documents\n",
				ix.ID(), ix, humanize.Comma(int64(st.Keys)), humanize.Comma(int64(st.Documents)))
		}
	}
}

func (s *shell) create(name string) error {
	if name == "" {
		return errors.New("usage: .create <name>")
	}
	if _, err := s.db.CreateCollection(name); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Created collection %s\n", name)
	return nil
}

func (s *shell) index(args string) error {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return errors.New("usage: .index <name> [unique] <f1,f2,...>")
	}
	c, ok := s.db.Collection(fields[0])
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, fields[0])
	}
	unique := false
	spec := fields[1]
	if strings.EqualFold(spec, "unique") {
		if len(fields) < 3 {
			return errors.New("usage: .index <name> [unique] <f1,f2,...>")
		}
		unique = true
		spec = fields[2]
	}

	var paths []aql.Path
	for _, f := range strings.Split(spec, ",") {
		paths = append(paths, aql.ParsePath(strings.TrimSpace(f)))
	}
	ix, created, err := c.EnsureHashIndex(unique, paths...)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(s.out, "Created index #%d %s on %s\n", ix.ID(), ix, c.Name())
	} else {
		fmt.Fprintf(s.out, "Index #%d %s already exists on %s\n", ix.ID(), ix, c.Name())
	}
	return nil
}

func (s *shell) insert(args string) error {
	name, doc, ok := strings.Cut(args, " ")
	if !ok {
		return errors.New("usage: .insert <name> <json object>")
	}
	c, ok := s.db.Collection(name)
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, name)
	}
	v, err := aql.ParseJSONObject([]byte(doc))
	if err != nil {
		return err
	}
	id, err := c.Insert(v)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Inserted %s/%s\n", name, id)
	return nil
}

func (s *shell) complete(line string) []string {
	var out []string
	for _, c := range shellCommands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".janus_aql_history")
}

func runInteractive(s *shell) {
	fmt.Fprintln(s.out, "=== Janus AQL Interactive Mode ===")
	s.printHelp()
	fmt.Fprintln(s.out)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(s.complete)

	history := historyPath()
	if history != "" {
		if f, err := os.Open(history); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	for {
		input, err := line.Prompt("aql> ")
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				fmt.Fprintf(s.out, "Error reading line: %v\n", err)
			}
			break
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if s.execLine(input) {
			break
		}
	}

	if history != "" {
		if f, err := os.Create(history); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}
}
