// Package main provides the pollgrid command line interface.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avosseberg/pollgrid"
	"github.com/avosseberg/pollgrid/classify"
	"github.com/avosseberg/pollgrid/config"
	"github.com/avosseberg/pollgrid/extract"
	"github.com/avosseberg/pollgrid/fetch"
	"github.com/avosseberg/pollgrid/logging"
	"github.com/avosseberg/pollgrid/postprocess"
	"github.com/avosseberg/pollgrid/report"
	"github.com/avosseberg/pollgrid/store"
)

var (
	offline   bool
	debug     bool
	runsLimit int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pollgrid",
		Short: "Extract party polling series from wiki polling tables",
		Long: `pollgrid scrapes opinion polling tables from wiki pages, resolves
their loosely formatted dates and percentages into clean time series,
classifies the parties involved and publishes per-country CSV and JSON
datasets.`,
		SilenceUsage: true,
	}

	updateCmd := &cobra.Command{
		Use:   "update [country]",
		Short: "Fetch the configured sources and rebuild the dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runUpdate,
	}
	updateCmd.Flags().BoolVar(&offline, "offline", false, "Rebuild from previously written files without fetching")
	updateCmd.Flags().BoolVar(&debug, "debug", false, "Verbose development logging")

	sourcesCmd := &cobra.Command{
		Use:   "sources",
		Short: "List the configured sources",
		RunE:  runSources,
	}

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Rebuild the summary files from the country data on disk",
		RunE:  runSummary,
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent update runs",
		RunE:  runRuns,
	}
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to show")

	rootCmd.AddCommand(updateCmd, sourcesCmd, summaryCmd, runsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runUpdate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	dataset, err := report.New(cfg.DataDir)
	if err != nil {
		return err
	}
	if offline {
		log.Info("rebuilding from stored files", zap.String("data_dir", cfg.DataDir))
		return dataset.RebuildSummary(cfg.Categories)
	}

	cat, err := config.LoadCatalogue(cfg.SourcesPath)
	if err != nil {
		return err
	}
	sources := cat.Sources
	if len(args) == 1 {
		src, ok := cat.ByCountry(args[0])
		if !ok {
			return fmt.Errorf("no source configured for %q", args[0])
		}
		sources = []config.Source{src}
	}
	if len(sources) == 0 {
		return fmt.Errorf("no sources configured in %s", cfg.SourcesPath)
	}

	db, err := store.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	client := fetch.NewClient(fetch.Config{
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
		Timeout:        cfg.HTTPTimeout,
		Retries:        cfg.HTTPRetries,
	}, log)

	u := updater{
		cfg:        cfg,
		log:        log,
		db:         db,
		client:     client,
		classifier: classify.NewClassifier(client, db, cfg.BaseURL, log),
		dataset:    dataset,
	}
	ctx := context.Background()
	for _, src := range sources {
		if err := u.country(ctx, src); err != nil {
			return err
		}
	}
	return dataset.RebuildSummary(cfg.Categories)
}

// updater carries the collaborators one update invocation shares.
type updater struct {
	cfg        config.Config
	log        *zap.Logger
	db         *store.Store
	client     *fetch.Client
	classifier *classify.Classifier
	dataset    *report.Dataset
}

// country fetches every page configured for one country, assembles its
// series and profiles, and publishes the result. Failures on a single
// page degrade to an empty contribution; only persistence errors stop
// the update.
func (u *updater) country(ctx context.Context, src config.Source) error {
	log := u.log.With(zap.String("country", src.Country))
	runID, err := u.db.StartRun(src.Country)
	if err != nil {
		return err
	}

	var (
		series   pollgrid.SeriesSet
		entities []extract.Entity
		skipped  int
	)
	for i, rawurl := range src.URLs {
		if i > 0 {
			time.Sleep(u.cfg.FetchDelay)
		}
		res := u.source(ctx, log, src, rawurl)
		series = pollgrid.Merge(series, res.Series)
		entities = append(entities, res.Entities...)
		skipped += res.Skipped.Tables + res.Skipped.Rows + res.Skipped.Values
	}

	profiles := u.classifyEntities(ctx, log, entities)

	observations := 0
	for id, s := range series {
		s = postprocess.DropBefore(s.Sorted(), u.cfg.CutoffYear)
		s = postprocess.RemoveIsolated(s, u.cfg.MinNeighbors, u.cfg.NeighborYears)
		if src.AnomalyFilter {
			s = postprocess.RemoveAnomalous(s, u.cfg.AnomalyThreshold, u.cfg.NeighborYears)
		}
		series[id] = s
		observations += len(s)
	}

	var latest *float64
	if selected := selectedParties(profiles, u.cfg.Categories); len(selected) > 0 {
		total := pollgrid.LatestTotal(series, selected)
		latest = &total
	}

	err = u.dataset.WriteCountry(report.Country{
		Name:     src.Country,
		ISO2:     src.ISO2,
		Sources:  src.URLs,
		Series:   series,
		Profiles: profiles,
		Aliases:  src.Aliases,
		Latest:   latest,
	})
	if err != nil {
		return err
	}

	if err := u.db.FinishRun(runID, len(src.URLs), observations, skipped); err != nil {
		return err
	}
	log.Info("country updated",
		zap.Int("observations", observations),
		zap.Int("parties", len(series)),
		zap.Int("skipped", skipped))
	return nil
}

// source fetches and extracts one page. Any failure yields an empty
// result so the rest of the country still updates.
func (u *updater) source(ctx context.Context, log *zap.Logger, src config.Source, rawurl string) extract.Result {
	log = log.With(zap.String("url", rawurl))

	page, err := u.client.Get(ctx, rawurl)
	if err != nil {
		log.Warn("fetch failed", zap.Error(err))
		return extract.Result{}
	}

	accept := src.SectionHeaders
	if len(accept) == 0 {
		accept = fetch.DefaultSections(time.Now())
	}
	tables := page.SectionTables(accept, src.ExcludedHeaders)
	if len(tables) == 0 {
		log.Warn("no polling tables found")
		return extract.Result{}
	}

	opts := extract.Options{LinkedOnly: true}
	if year, ok := fetch.EmbeddedYear(rawurl); ok {
		opts.SourceYear = year
	}
	res := extract.Run(tables, opts)
	log.Info("extracted tables",
		zap.Int("tables", len(tables)),
		zap.Int("entities", len(res.Entities)),
		zap.Int("skipped_rows", res.Skipped.Rows),
		zap.Int("skipped_values", res.Skipped.Values))
	return res
}

func (u *updater) classifyEntities(ctx context.Context, log *zap.Logger, entities []extract.Entity) map[string]pollgrid.PartyProfile {
	profiles := make(map[string]pollgrid.PartyProfile, len(entities))
	for _, e := range entities {
		if e.Link == "" {
			continue
		}
		p, err := u.classifier.Profile(ctx, e.Link)
		if err != nil {
			log.Warn("classification failed", zap.String("entity", e.Name), zap.Error(err))
			continue
		}
		profiles[e.Name] = p
	}
	return profiles
}

// selectedParties returns the entity ids whose profile matches any of
// the categories; an empty category list selects everything.
func selectedParties(profiles map[string]pollgrid.PartyProfile, categories []string) []string {
	var out []string
	for id, p := range profiles {
		if len(categories) == 0 || classify.Matches(p, categories) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cat, err := config.LoadCatalogue(cfg.SourcesPath)
	if err != nil {
		return err
	}
	if len(cat.Sources) == 0 {
		fmt.Printf("no sources configured in %s\n", cfg.SourcesPath)
		return nil
	}
	for _, src := range cat.Sources {
		fmt.Printf("%s (%s)\n", src.Country, src.ISO2)
		for _, u := range src.URLs {
			fmt.Printf("  %s\n", u)
		}
	}
	return nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	dataset, err := report.New(cfg.DataDir)
	if err != nil {
		return err
	}
	return dataset.RebuildSummary(cfg.Categories)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := store.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.RecentRuns(runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	for _, r := range runs {
		state := "running"
		if r.FinishedAt != nil {
			state = r.FinishedAt.Format(time.RFC3339)
		}
		fmt.Printf("%s  %-16s  started=%s  finished=%s  sources=%d observations=%d skipped=%d\n",
			r.RunID, r.Country, r.StartedAt.Format(time.RFC3339), state,
			r.Sources, r.Observations, r.Skipped)
	}
	return nil
}

func buildLogger(cfg config.Config) (*zap.Logger, error) {
	level := cfg.LogLevel
	dev := cfg.LogDev
	if debug {
		level = "debug"
		dev = true
	}
	return logging.New(level, dev)
}
