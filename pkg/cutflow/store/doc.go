// Package store records cutflow runs.
//
// A Recorder implements cutflow.Recorder and converts every completed
// cutflow.Result into a Run: the run ID, tree, initial count, a SHA-256
// digest of the normalized rules and one StepRecord per result key in table
// order. Runs made with the same rules share a digest and can be compared
// over time.
//
// Two backends implement Storage:
//
//   - MemoryStorage keeps runs in a map and is used in tests.
//   - SQLiteStorage keeps runs in a versioned SQLite schema. The pure Go
//     driver "sqlite" (modernc.org/sqlite) is the default; "sqlite3"
//     (github.com/mattn/go-sqlite3) can be selected in SQLiteConfig.
//
// A Pruner enforces retention by age and by run count, optionally archiving
// pruned runs to JSON first, and its Scheduler runs it on a cron schedule:
//
//	pruner := store.NewPruner(storage, &store.RetentionConfig{
//	    RetentionDays: 30,
//	    PruneSchedule: "0 3 * * *",
//	}, logger)
//	if err := pruner.Start(ctx); err != nil {
//	    return err
//	}
//	defer pruner.Stop()
package store
