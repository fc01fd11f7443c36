package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/wbrown/janus-aql/aql"
	"github.com/wbrown/janus-aql/aql/annotations"
	"github.com/wbrown/janus-aql/aql/executor"
	"github.com/wbrown/janus-aql/aql/storage"
)

func main() {
	var dbPath string
	var interactive bool
	var help bool
	var verbose bool
	var queryStr string
	var bindStr string
	var configPath string
	var loadSpec string
	var logLevel string

	flag.StringVar(&dbPath, "db", "", "database path (default: in-memory)")
	flag.BoolVar(&interactive, "i", false, "interactive mode")
	flag.BoolVar(&help, "h", false, "show help")
	flag.BoolVar(&verbose, "verbose", false, "verbose mode (show query annotations)")
	flag.StringVar(&queryStr, "query", "", "run a single query and exit")
	flag.StringVar(&bindStr, "bind", "", "bind parameters as a JSON object")
	flag.StringVar(&configPath, "config", "", "TOML configuration file")
	flag.StringVar(&loadSpec, "load", "", "load a JSON array of documents: collection=file.json")
	flag.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "An AQL query engine over document collections with hash indexes.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                          # Run demo queries in memory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -i                       # Interactive mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -db ./data -i            # Interactive mode on a persistent database\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -verbose -i              # Interactive mode with annotations\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -query 'FOR v IN hash FILTER v.c == @c RETURN v' -bind '{\"c\": 2}'\n", os.Args[0])
	}
	flag.Parse()

	if help {
		flag.Usage()
		os.Exit(0)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Flags override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.DB = dbPath
		case "verbose":
			cfg.Verbose = verbose
		case "log-level":
			cfg.LogLevel = logLevel
		}
	})

	log := cfg.Logger()

	db, err := openDatabase(cfg, log)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if loadSpec != "" {
		name, n, err := loadFile(db, loadSpec)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", loadSpec, err)
		}
		log.WithFields(logrus.Fields{"collection": name, "documents": n}).Info("loaded documents")
	}

	if len(db.CollectionNames()) == 0 {
		if err := loadDemo(db); err != nil {
			log.Fatalf("Failed to load demo data: %v", err)
		}
	}

	opts := cfg.ExecutorOptions()
	if cfg.Verbose {
		opts.Handler = annotations.NewOutputFormatter(os.Stderr).Handle
	}
	exec := executor.NewExecutorWithOptions(db, opts)

	switch {
	case queryStr != "":
		params, err := parseBind(bindStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -bind: %v\n", err)
			os.Exit(1)
		}
		if err := runSingleQuery(os.Stdout, exec, queryStr, params); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	case interactive:
		runInteractive(newShell(exec, os.Stdout))
	default:
		runDemo(os.Stdout, exec)
	}
}

func openDatabase(cfg Config, log logrus.FieldLogger) (*storage.Database, error) {
	if cfg.DB == "" {
		return storage.NewDatabase(), nil
	}
	return storage.Open(cfg.DB, cfg.StorageOptions(log))
}

// parseBind decodes a JSON object of bind parameters.
func parseBind(s string) (map[string]aql.Value, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	obj, err := aql.ParseJSONObject([]byte(s))
	if err != nil {
		return nil, err
	}
	params := make(map[string]aql.Value, obj.Len())
	for _, k := range obj.Keys() {
		params[k] = obj.Get(k)
	}
	return params, nil
}

// loadFile reads "collection=path" and inserts the JSON array in path.
func loadFile(db *storage.Database, spec string) (string, int, error) {
	name, path, ok := strings.Cut(spec, "=")
	if !ok || name == "" || path == "" {
		return "", 0, fmt.Errorf("expected collection=file.json, got %q", spec)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, err
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", 0, fmt.Errorf("expected a JSON array: %w", err)
	}
	values := make([]aql.Value, len(raw))
	for i, r := range raw {
		if values[i], err = aql.ParseJSON(r); err != nil {
			return "", 0, fmt.Errorf("document %d: %w", i, err)
		}
	}
	if _, err := db.LoadValues(name, values); err != nil {
		return "", 0, err
	}
	return name, len(values), nil
}

// loadDemo creates the "hash" collection: 25 documents {a: i, b: j, c: i}
// with hash indexes on (a, b) and (c).
func loadDemo(db *storage.Database) error {
	values := make([]aql.Value, 0, 25)
	for i := 1; i <= 5; i++ {
		for j := 1; j <= 5; j++ {
			values = append(values, aql.MustFromGo(map[string]interface{}{"a": i, "b": j, "c": i}))
		}
	}
	c, err := db.LoadValues("hash", values)
	if err != nil {
		return err
	}
	if _, _, err := c.EnsureHashIndex(false, aql.Paths("a", "b")...); err != nil {
		return err
	}
	_, _, err = c.EnsureHashIndex(false, aql.Paths("c")...)
	return err
}

var demoQueries = []struct {
	query  string
	params map[string]aql.Value
}{
	{query: "FOR v IN hash FILTER v.c == 1 SORT v.b RETURN [ v.b ]"},
	{query: "FOR v IN hash FILTER v.a == @a && v.b == @b RETURN [ v.a, v.b ]",
		params: map[string]aql.Value{"a": aql.Int(2), "b": aql.Int(3)}},
	{query: "LET x = 3 LET y = 5 FOR v IN hash FILTER v.a == x && v.b == y RETURN [ v.a, v.b ]"},
	{query: "FOR v1 IN hash FOR v2 IN hash FILTER v1.c == 2 && v1.b == 1 && v2.c == v1.c && v2.b == v1.b RETURN { left: v1._id, right: v2._id }"},
	{query: "FOR v IN hash FILTER v.b > 3 SORT v.a DESC LIMIT 3 RETURN v"},
}

func runDemo(out io.Writer, exec *executor.Executor) {
	fmt.Fprintln(out, "=== Janus AQL Demo ===")
	for _, dq := range demoQueries {
		fmt.Fprintf(out, "\nQuery: %s\n", dq.query)
		if plan, err := exec.Explain(dq.query); err == nil {
			fmt.Fprintf(out, "Plan:\n%s\n\n", plan)
		}
		if err := runSingleQuery(out, exec, dq.query, dq.params); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

// runSingleQuery executes a query and prints its rows as a markdown table
// with the elapsed time on the row count line.
func runSingleQuery(out io.Writer, exec *executor.Executor, text string, params map[string]aql.Value) error {
	start := time.Now()
	rows, err := exec.QueryAll(context.Background(), text, params)
	elapsed := time.Since(start)
	if err != nil {
		return err
	}

	table := executor.RowsString(rows)
	lines := strings.Split(table, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(lines[i], "_") && strings.HasSuffix(lines[i], "rows_") {
			rowLine := strings.TrimSuffix(lines[i], "_")
			lines[i] = rowLine + fmt.Sprintf(" (%.3fms)_", float64(elapsed.Microseconds())/1000.0)
			break
		}
	}
	fmt.Fprint(out, strings.Join(lines, "\n"))
	return nil
}
