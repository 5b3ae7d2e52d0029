/*
Package cli provides command-line interface utilities for the tupling command.

Output Formatting:

Cutflow tables render as aligned text, JSON, CSV, YAML or a GitHub markdown
table. Results implementing Tabular work with every format:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, table); err != nil {
		return err
	}

Progress Reporting:

Long cutflows can report per-rule progress on stderr:

	progress := cli.NewProgressReporter(os.Stderr, "rules")
	progress.Start(int64(len(rules)))
	// ... progress.Update(n) as rules complete
	progress.Finish()

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
