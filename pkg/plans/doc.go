// Package plans is the static catalog of subscription plans and their
// per-feature usage limits.
//
// The plan set (free, basic, pro, enterprise) and the feature set
// (resume_generation, job_analysis, templates, ai_analysis) are closed:
// extending either is a code change. Limits are expressed as Quota, a sum
// type of a finite cap or Unlimited, so every caller must handle both cases.
//
// # Usage
//
//	catalog, err := plans.NewCatalog(ctx, plans.NewDefaultSource())
//	if err != nil {
//		return err
//	}
//	q, err := catalog.GetLimit(plans.Free, plans.FeatureResumeGeneration)
//	if n, finite := q.Value(); finite {
//		// n units per billing period
//	}
//
// Limits can be overridden at deploy time with NewYAMLSource; plan ids in the
// file must still belong to the closed set and the free plan is required as
// the least-privilege fallback.
package plans
