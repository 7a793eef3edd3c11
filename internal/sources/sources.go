// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources gathers raw findings from the fixed set of evidence
// collaborators: patent, trials, market, web, trade, and internal.
// Implements: prd001-sources (R1-R5);
//
//	docs/ARCHITECTURE § Evidence Sources.
package sources

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// Source gathers evidence about a molecule/disease pairing from one
// collaborator. The set of implementations is closed (R1.1); each is
// registered in Defaults. Per the Strategy pattern.
type Source interface {
	ID() types.SourceID
	Gather(ctx context.Context, req types.Request, cfg types.SourcesConfig) ([]types.RawFinding, error)
}

// Defaults returns the source set for a configuration. The web source
// is included only when a literature API endpoint is configured.
func Defaults(cfg types.SourcesConfig) []Source {
	srcs := []Source{
		&PatentSource{},
		&TrialsSource{},
		&MarketSource{},
		&TradeSource{},
		&InternalSource{},
	}
	if cfg.LiteratureBaseURL != "" {
		srcs = append(srcs, &WebSource{})
	}
	return srcs
}

// GatherOutput holds the combined raw findings and per-source failures.
type GatherOutput struct {
	Findings     []types.RawFinding
	SourceErrors []string
}

// GatherAll fans the request out to all sources concurrently and
// collects their findings. A failed source is reported as a warning and
// excluded; the batch proceeds with the remainder (R4.1, R4.2). All
// state is per-request: nothing is shared across analyses.
func GatherAll(ctx context.Context, srcs []Source, req types.Request, cfg types.SourcesConfig, w io.Writer) GatherOutput {
	type sourceResult struct {
		id       types.SourceID
		findings []types.RawFinding
		err      error
	}

	ch := make(chan sourceResult, len(srcs))
	var wg sync.WaitGroup

	for _, s := range srcs {
		wg.Add(1)
		go func(s Source) {
			defer wg.Done()
			findings, err := s.Gather(ctx, req, cfg)
			ch <- sourceResult{id: s.ID(), findings: findings, err: err}
		}(s)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var out GatherOutput
	for sr := range ch {
		if sr.err != nil {
			msg := fmt.Sprintf("%s: %v", sr.id, sr.err)
			out.SourceErrors = append(out.SourceErrors, msg)
			fmt.Fprintf(w, "warning: source %s failed: %v\n", sr.id, sr.err)
			continue
		}
		fmt.Fprintf(w, "gathered %-8s  %d finding(s)\n", sr.id, len(sr.findings))
		out.Findings = append(out.Findings, sr.findings...)
	}

	return out
}

// foldEqual compares two names ignoring case and surrounding whitespace.
func foldEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
