package store

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// SkillLookup resolves stored skill lists by id
type SkillLookup interface {
	CVSkills(ctx context.Context, cvID string) ([]string, error)
	JobSkills(ctx context.Context, jobID string) ([]string, error)
}

// ResolveSkills loads the CV and job skill lists concurrently
func ResolveSkills(ctx context.Context, lookup SkillLookup, cvID, jobID string) (cvSkills, requiredSkills []string, err error) {
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cvSkills, err = lookup.CVSkills(gCtx, cvID)
		return err
	})
	g.Go(func() error {
		var err error
		requiredSkills, err = lookup.JobSkills(gCtx, jobID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return cvSkills, requiredSkills, nil
}
