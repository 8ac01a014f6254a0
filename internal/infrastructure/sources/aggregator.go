package sources

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/teamnewpipe/np-web-api/internal/core/domain/apidata"
	"github.com/teamnewpipe/np-web-api/internal/core/ports"
)

// Config lists the upstream endpoints the aggregator reads from.
type Config struct {
	GitHubAPIURL    string
	GitHubWebURL    string
	GitHubRepo      string
	GitHubToken     string
	TranslationsURL string
	Package         string
	NewPipeRepoURL  string
	FDroidRepoURL   string
	MetadataURL     string
}

// Aggregator assembles the /data.json document from all upstreams.
// It implements ports.DataSource[apidata.Data].
type Aggregator struct {
	github   *GitHub
	weblate  *Weblate
	newpipe  *FDroidRepo
	fdroid   *FDroidRepo
	metadata *FDroidData
	reporter ports.ErrorReporter
	logger   *logrus.Logger
}

func NewAggregator(client *Client, cfg *Config, reporter ports.ErrorReporter, logger *logrus.Logger) *Aggregator {
	return &Aggregator{
		github:   NewGitHub(client, cfg.GitHubAPIURL, cfg.GitHubWebURL, cfg.GitHubRepo, cfg.GitHubToken),
		weblate:  NewWeblate(client, cfg.TranslationsURL),
		newpipe:  NewFDroidRepo(client, cfg.NewPipeRepoURL, cfg.Package),
		fdroid:   NewFDroidRepo(client, cfg.FDroidRepoURL, cfg.Package),
		metadata: NewFDroidData(client, cfg.MetadataURL),
		reporter: reporter,
		logger:   logger,
	}
}

// Fetch queries every upstream concurrently; the first failure aborts the whole refresh.
func (a *Aggregator) Fetch(ctx context.Context) (apidata.Data, error) {
	if a.logger != nil {
		a.logger.Info("fetching latest release data from third-party APIs")
	}

	var data apidata.Data
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := a.github.RepoStats(gctx)
		if err != nil {
			return err
		}
		data.Stats.Stargazers = stats.Stargazers
		data.Stats.Watchers = stats.Watchers
		data.Stats.Forks = stats.Forks
		return nil
	})
	g.Go(func() error {
		page, err := a.github.ContributorsPage(gctx)
		if err != nil {
			return err
		}
		data.Stats.Contributors = a.contributors(gctx, page)
		return nil
	})
	g.Go(func() error {
		n, err := a.weblate.Translations(gctx)
		if err != nil {
			return err
		}
		data.Stats.Translations = n
		return nil
	})
	g.Go(func() error {
		f, err := a.newpipe.Flavor(gctx)
		if err != nil {
			return err
		}
		data.Flavors.NewPipe = f
		return nil
	})
	g.Go(func() error {
		f, err := a.fdroid.Flavor(gctx)
		if err != nil {
			return err
		}
		data.Flavors.FDroid = f
		return nil
	})
	g.Go(func() error {
		r, err := a.metadata.Release(gctx)
		if err != nil {
			return err
		}
		data.Flavors.Stable = r
		return nil
	})

	if err := g.Wait(); err != nil {
		return apidata.Data{}, err
	}
	return data, nil
}

// contributors tolerates GitHub page layout changes: the count degrades to
// UnknownContributors and the parse error is reported instead of failing the refresh.
func (a *Aggregator) contributors(ctx context.Context, page []byte) int {
	n, err := parseContributors(page)
	if err == nil {
		return n
	}
	if a.logger != nil {
		a.logger.WithError(err).Warn("could not scrape contributors count")
	}
	if a.reporter != nil {
		a.reporter.Report(ctx, err, map[string]string{"source": sourceGitHub, "field": "contributors"})
	}
	return apidata.UnknownContributors
}
