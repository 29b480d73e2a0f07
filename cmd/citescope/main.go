package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/citescope/internal/datasource"
	"github.com/vanderheijden86/citescope/pkg/config"
	"github.com/vanderheijden86/citescope/pkg/events"
	"github.com/vanderheijden86/citescope/pkg/export"
	"github.com/vanderheijden86/citescope/pkg/model"
	"github.com/vanderheijden86/citescope/pkg/session"
	"github.com/vanderheijden86/citescope/pkg/stats"
	"github.com/vanderheijden86/citescope/pkg/store"
	"github.com/vanderheijden86/citescope/pkg/tui"
	"github.com/vanderheijden86/citescope/pkg/version"
	"github.com/vanderheijden86/citescope/pkg/watcher"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: XDG config dir)")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	robotSummary := flag.Bool("robot-summary", false, "Print a machine-readable dataset summary as JSON and exit")
	clustersFlag := flag.String("clusters", "", "Comma-separated cluster ids to show (e.g. '0,2,5')")
	yearsFlag := flag.String("years", "", "Year range filter FROM:TO (e.g. '1990:2010')")
	searchFlag := flag.String("search", "", "Highlight nodes matching the query")
	travelFlag := flag.String("travel", "", "Run a headless time-travel playback FROM:TO and exit")
	snapshotFlag := flag.String("snapshot", "", "Export the visible graph to an SVG or PNG file and exit")
	cacheFlag := flag.String("cache", "", "Write the decoded dataset into a SQLite cache file")
	watchFlag := flag.Bool("watch", true, "Reload when the dataset file changes (TUI only)")
	flag.Parse()

	if *help {
		fmt.Println("Usage: citescope [options] <dataset>")
		fmt.Println("\nA visibility and time-travel explorer for citation graphs.")
		fmt.Println("The dataset may be a combined JSON file, a directory with")
		fmt.Println("nodes.json/edges.json/clusters.json, or a SQLite cache.")
		fmt.Println()
		flag.PrintDefaults()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("citescope %s\n", version.Version)
		os.Exit(0)
	}

	datasetPath := flag.Arg(0)
	if datasetPath == "" {
		fmt.Fprintln(os.Stderr, "Error: dataset path required (see --help)")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v; continuing with defaults\n", err)
		cfg = config.DefaultConfig()
	}

	ds, err := loadDataset(datasetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading dataset: %v\n", err)
		os.Exit(1)
	}

	if *cacheFlag != "" {
		if err := datasource.SaveDataset(*cacheFlag, ds); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing cache: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Cached %d nodes, %d edges to %s\n", len(ds.Nodes), len(ds.Edges), *cacheFlag)
	}

	s, err := store.Load(ds, store.Options{
		NodeFraction: cfg.Sampling.NodeFraction,
		EdgeFraction: cfg.Sampling.EdgeFraction,
		SizeMin:      cfg.Size.Min,
		SizeMax:      cfg.Size.Max,
		SizePower:    cfg.Size.Power,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building buffers: %v\n", err)
		os.Exit(1)
	}
	summary := stats.Compute(s)

	if *robotSummary {
		printRobotSummary(summary)
		os.Exit(0)
	}

	bus := events.NewBus()
	defer bus.Close()
	sess := session.New(s, cfg, bus)
	defer sess.Close()

	if err := applyFilters(sess, *clustersFlag, *yearsFlag, *searchFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if *travelFlag != "" {
		selected := allClusters(sess)
		if *clustersFlag != "" {
			if selected, err = parseClusters(*clustersFlag); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(2)
			}
		}
		if err := runTravel(sess, bus, *travelFlag, selected); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *snapshotFlag != "" {
		if err := export.SaveSnapshot(s, export.SnapshotOptions{Path: *snapshotFlag}); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting snapshot: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Snapshot written to %s\n", *snapshotFlag)
	}

	// One-shot modes finish here.
	if *travelFlag != "" || *snapshotFlag != "" {
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		printHumanSummary(datasetPath, summary)
		return
	}

	if err := runTUI(datasetPath, cfg, s, sess, bus, summary, *watchFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error running viewer: %v\n", err)
		os.Exit(1)
	}
}

func loadDataset(path string) (*model.Dataset, error) {
	src, err := datasource.Resolve(path)
	if err != nil {
		return nil, err
	}
	return datasource.Open(src, func(msg string) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	})
}

// applyFilters drives the one-shot filter flags straight through the bus
// and waits for them to land, so later output reflects them.
func applyFilters(sess *session.Session, clusters, years, query string) error {
	engine := sess.Engine()

	if clusters != "" {
		selected, err := parseClusters(clusters)
		if err != nil {
			return err
		}
		if err := engine.SetClusterMask(selected); err != nil {
			return err
		}
	}
	if years != "" {
		from, to, err := parseYearRange(years)
		if err != nil {
			return err
		}
		if err := engine.SetYearRange(from, to); err != nil {
			return err
		}
	}
	if err := engine.Recompute(); err != nil {
		return err
	}

	if query != "" {
		matched := sess.Searcher().Query(query)
		if err := engine.SetSearchHighlight(matched); err != nil {
			return err
		}
		fmt.Printf("Search %q matched %d nodes\n", query, len(matched))
	}
	return nil
}

// runTravel performs the reveal headlessly, printing one line per year.
func runTravel(sess *session.Session, bus *events.Bus, spec string, selected map[int]bool) error {
	from, to, err := parseYearRange(spec)
	if err != nil {
		return err
	}

	done := make(chan bool, 1)
	unsubscribe := bus.Subscribe(func(ev events.Event) {
		switch e := ev.(type) {
		case events.YearAdvanced:
			fmt.Printf("%d: %d nodes, %d edges visible\n", e.Year, e.VisibleNodes, e.VisibleEdges)
		case events.PlaybackFinished:
			select {
			case done <- e.Completed:
			default:
			}
		}
	})
	defer unsubscribe()

	if err := sess.Controller().Start(from, to, selected); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}

	// Ctrl-C stops the reveal but keeps what was shown so far.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		sess.Controller().Stop()
	}()

	sess.Controller().Wait()
	select {
	case completed := <-done:
		if completed {
			fmt.Printf("Completed %d..%d\n", from, to)
		} else {
			fmt.Println("Stopped")
		}
	case <-time.After(2 * time.Second):
	}
	return nil
}

func runTUI(datasetPath string, cfg config.Config, s *store.Store, sess *session.Session,
	bus *events.Bus, summary stats.Summary, watch bool) error {

	m := tui.New(sess, s, bus, summary, filepath.Base(datasetPath))
	defer m.Stop()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithoutSignalHandler())

	runDone := make(chan struct{})
	defer close(runDone)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}
		p.Quit()
		select {
		case <-runDone:
		case <-sigCh:
			p.Kill()
		case <-time.After(5 * time.Second):
			p.Kill()
		}
	}()

	var w *watcher.Watcher
	if watch {
		var err error
		w, err = watcher.New(datasetPath,
			watcher.WithOnChange(func() {
				reloaded, rerr := reloadSession(datasetPath, cfg, bus)
				if rerr != nil {
					// Keep showing the last good dataset.
					return
				}
				sess.Close()
				sess = reloaded.session
				p.Send(tui.DatasetReloadedMsg{
					Session: reloaded.session,
					Store:   reloaded.store,
					Summary: reloaded.summary,
				})
			}),
			watcher.WithOnError(func(error) {}),
		)
		if err == nil {
			if err := w.Start(); err == nil {
				defer w.Stop()
			}
		}
	}

	_, err := p.Run()
	return err
}

type reloadResult struct {
	session *session.Session
	store   *store.Store
	summary stats.Summary
}

func reloadSession(path string, cfg config.Config, bus *events.Bus) (*reloadResult, error) {
	ds, err := loadDataset(path)
	if err != nil {
		return nil, err
	}
	s, err := store.Load(ds, store.Options{
		NodeFraction: cfg.Sampling.NodeFraction,
		EdgeFraction: cfg.Sampling.EdgeFraction,
		SizeMin:      cfg.Size.Min,
		SizeMax:      cfg.Size.Max,
		SizePower:    cfg.Size.Power,
	})
	if err != nil {
		return nil, err
	}
	return &reloadResult{
		session: session.New(s, cfg, bus),
		store:   s,
		summary: stats.Compute(s),
	}, nil
}

func printRobotSummary(summary stats.Summary) {
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding summary: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func printHumanSummary(path string, summary stats.Summary) {
	fmt.Printf("%s: %d nodes, %d edges, %d clusters\n",
		filepath.Base(path), summary.NodeCount, summary.EdgeCount, len(summary.ClusterSizes))
	fmt.Printf("years %d..%d, avg degree %.2f, max degree %d, %d components\n",
		summary.MinYear, summary.MaxYear, summary.AvgDegree, summary.MaxDegree, summary.Components)
	for _, id := range summary.Clusters {
		fmt.Printf("  cluster %d: %d nodes\n", id, summary.ClusterSizes[id])
	}
}

func allClusters(sess *session.Session) map[int]bool {
	selected := map[int]bool{}
	s := sess.Engine().Store()
	if s == nil {
		return selected
	}
	for _, n := range s.Nodes() {
		selected[n.ClusterID] = true
	}
	return selected
}

func parseClusters(spec string) (map[int]bool, error) {
	selected := map[int]bool{}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid cluster id %q", part)
		}
		selected[id] = true
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no cluster ids in %q", spec)
	}
	return selected, nil
}

func parseYearRange(spec string) (from, to int, err error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid year range %q (want FROM:TO)", spec)
	}
	from, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year %q", parts[0])
	}
	to, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year %q", parts[1])
	}
	return from, to, nil
}
