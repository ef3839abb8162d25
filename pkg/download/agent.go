package download

import (
	"context"
	"os"
	"strings"

	"github.com/glorpus-work/pkgsmith/internal/logger"
	"github.com/glorpus-work/pkgsmith/pkg/config"
	"github.com/glorpus-work/pkgsmith/pkg/fsutil"
	"github.com/glorpus-work/pkgsmith/pkg/observer"
	"github.com/glorpus-work/pkgsmith/pkg/recipe"
	"github.com/glorpus-work/pkgsmith/pkg/runner"
)

// agentArgs substitutes %u with url and %o with part. The url is appended
// when the template does not mention it.
func agentArgs(agent config.DownloadAgent, url, part string) []string {
	args := append([]string(nil), agent.Args...)
	hasURL := false
	for _, a := range args {
		if strings.Contains(a, "%u") {
			hasURL = true
			break
		}
	}
	if !hasURL {
		args = append(args, url)
	}
	for i, a := range args {
		a = strings.ReplaceAll(a, "%u", url)
		args[i] = strings.ReplaceAll(a, "%o", part)
	}
	return args
}

func (c *Coordinator) runAgent(ctx context.Context, r *recipe.Recipe, dirs *config.PkgbuildDirs, job agentJob) error {
	src := job.src
	final := dirs.DownloadPath(src)
	part := final + fsutil.PartSuffix
	url := strings.TrimPrefix(src.URL, "scp://")

	if err := c.event(observer.Event{Kind: observer.Downloading, Name: src.FileName()}); err != nil {
		return err
	}

	cmd := runner.Command{
		Name: job.agent.Command,
		Args: agentArgs(job.agent, url, part),
		Dir:  dirs.SrcDest,
		Kind: observer.CommandKind{Op: observer.OpDownloadSource, Pkgbase: r.Pkgbase, Source: &src},
	}
	logger.Debug("Running download agent", logger.Fields{"command": cmd.String()})
	if err := c.runner.Spawn(ctx, cmd); err != nil {
		se := src.Error(nil)
		se.Err = err
		return se
	}

	if err := os.Rename(part, final); err != nil {
		se := src.Error(nil)
		se.Err = err
		return se
	}
	return nil
}
