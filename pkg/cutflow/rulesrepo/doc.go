// Package rulesrepo fetches cutflow rules files from a git repository.
//
// A Repository clones the configured remote on first use and pulls on later
// syncs. The rules file is then read from the working tree like any local
// file, and the commit SHA identifies which version of the rules produced a
// cutflow:
//
//	repo, err := rulesrepo.NewRepository(&cfg.Cutflow.Repo, logger)
//	if err != nil {
//		return err
//	}
//	if _, err := repo.Sync(ctx); err != nil {
//		return err
//	}
//	set, err := cutflow.LoadRules(repo.RulesFile())
//
// Pinning Revision checks out a fixed commit after each sync, so that a
// cutflow can be reproduced against the rules it was first made with.
//
// A Poller syncs on an interval and calls back when the rules file changed
// between two commits. Authentication supports access tokens over https and
// private keys over ssh; public and local repositories need none.
package rulesrepo
