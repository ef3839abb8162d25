// Package download retrieves and unpacks the sources of a recipe.
//
// Acquire sorts every source into one of three classes. Sources with a
// configured VCS client are cloned or updated through pkg/vcs. Remote files
// whose protocol the built-in engine speaks (http, https and ftp, when the
// configured agent for it is curl) are transferred concurrently by the bulk
// engine, which reports progress as a strictly ordered DownloadEvent batch.
// Everything else with a configured download agent is handed to that agent's
// command line, one source at a time.
//
// Sources already present locally are reported as found and skipped. A
// local source that is missing is an error, as is a remote one nobody can
// retrieve.
package download

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/glorpus-work/pkgsmith/internal/logger"
	"github.com/glorpus-work/pkgsmith/pkg/archive"
	"github.com/glorpus-work/pkgsmith/pkg/config"
	pkgerrors "github.com/glorpus-work/pkgsmith/pkg/errors"
	"github.com/glorpus-work/pkgsmith/pkg/fsutil"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/recipe"
	"github.com/glorpus-work/pkgsmith/pkg/runner"
	"github.com/glorpus-work/pkgsmith/pkg/source"
	"github.com/glorpus-work/pkgsmith/pkg/vcs"
)

// Options control one Acquire call.
type Options struct {
	// Concurrency bounds simultaneous bulk transfers. Zero uses the
	// configured max_downloads.
	Concurrency int
	// HoldVer leaves existing VCS clones at their current revision.
	HoldVer bool
}

// Coordinator downloads and extracts sources for recipes built with one
// configuration.
type Coordinator struct {
	cfg      *config.Config
	runner   *runner.Supervisor
	obs      observer.Observer
	archives *archive.Manager

	// Transports maps a bulk protocol to its transport.
	Transports map[string]Transport
	// Tick is the interval between coalesced progress events.
	Tick time.Duration
}

// New creates a Coordinator. Commands run through sup, and events go to the
// observer sup reports to.
func New(cfg *config.Config, sup *runner.Supervisor) *Coordinator {
	httpTransport := NewHTTPTransport()
	return &Coordinator{
		cfg:      cfg,
		runner:   sup,
		obs:      sup.Observer(),
		archives: archive.NewManager(),
		Transports: map[string]Transport{
			"http":  httpTransport,
			"https": httpTransport,
			"ftp":   FTPTransport{},
		},
		Tick: time.Second,
	}
}

type agentJob struct {
	agent config.DownloadAgent
	src   source.Source
}

type plan struct {
	bulk   []source.Source
	agents []agentJob
	vcs    []source.Source
}

// Acquire makes every source of r available: files in the download cache
// (or the recipe directory for local ones) and VCS sources as up to date
// clones. The first failure aborts the class it happened in and is
// returned; nothing is retried.
func (c *Coordinator) Acquire(ctx context.Context, r *recipe.Recipe, dirs *config.PkgbuildDirs, opts Options) error {
	if err := c.event(observer.Event{Kind: observer.RetrievingSources}); err != nil {
		return err
	}
	if err := os.MkdirAll(dirs.SrcDest, fsutil.DirModeDefault); err != nil {
		return pkgerrors.Wrap(err, "could not create download dir")
	}

	p, err := c.classify(r, dirs)
	if err != nil {
		return err
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = c.cfg.Downloads.MaxConcurrent
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = config.DefaultMaxConcurrent
	}

	if len(p.bulk) > 0 {
		if err := c.transferAll(ctx, dirs, p.bulk, opts.Concurrency); err != nil {
			return err
		}
	}
	for _, job := range p.agents {
		if err := c.runAgent(ctx, r, dirs, job); err != nil {
			return err
		}
	}
	env := vcs.Env{Runner: c.runner, Dirs: dirs, Pkgbase: r.Pkgbase, HoldVer: opts.HoldVer}
	for _, src := range p.vcs {
		a, err := vcs.ForSource(src, env)
		if err != nil {
			return err
		}
		if err := a.Fetch(ctx, src); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) classify(r *recipe.Recipe, dirs *config.PkgbuildDirs) (*plan, error) {
	agents, err := c.cfg.DownloadAgents()
	if err != nil {
		return nil, err
	}
	clients, err := c.cfg.VCSClients()
	if err != nil {
		return nil, err
	}

	p := &plan{}
	for _, src := range r.Sources {
		path := dirs.DownloadPath(src)

		if hasClient(clients, src) {
			p.vcs = append(p.vcs, src)
			continue
		}
		if fsutil.Exists(path) {
			if err := c.event(observer.Event{Kind: observer.FoundSource, Name: src.FileName()}); err != nil {
				return nil, err
			}
			continue
		}
		if !src.IsRemote() {
			return nil, src.Error(pkgerrors.ErrSourceMissing)
		}

		agent, ok := agentFor(agents, src.Protocol())
		switch {
		case !ok:
			return nil, src.Error(pkgerrors.ErrUnknownProtocol)
		case agent.IsCurl() && c.Transports[src.Protocol()] != nil:
			p.bulk = append(p.bulk, src)
		default:
			p.agents = append(p.agents, agentJob{agent: agent, src: src})
		}
	}

	// Group VCS sources by backend, keeping recipe order within a backend.
	sort.SliceStable(p.vcs, func(i, j int) bool {
		return p.vcs[i].VCSKind().String() < p.vcs[j].VCSKind().String()
	})

	logger.Debug("Classified sources", logger.Fields{
		"pkgbase": r.Pkgbase,
		"bulk":    len(p.bulk),
		"agents":  len(p.agents),
		"vcs":     len(p.vcs),
	})
	return p, nil
}

func hasClient(clients []config.VCSClient, src source.Source) bool {
	kind := src.VCSKind()
	if kind == source.NoVCS {
		return false
	}
	for _, cl := range clients {
		if cl.Protocol == kind {
			return true
		}
	}
	return false
}

func agentFor(agents []config.DownloadAgent, proto string) (config.DownloadAgent, bool) {
	for _, a := range agents {
		if a.Protocol == proto {
			return a, true
		}
	}
	return config.DownloadAgent{}, false
}

func (c *Coordinator) event(e observer.Event) error {
	if err := c.obs.Event(e); err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrIO, err)
	}
	return nil
}
