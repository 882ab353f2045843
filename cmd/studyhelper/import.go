package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/service"
)

func newImportCmd(c *cli) *cobra.Command {
	var (
		asJSON bool
		list   bool
	)

	cmd := &cobra.Command{
		Use:   "import [subject...]",
		Short: "Import subjects and their questions from the remote source",
		Long: `Import merges remote subjects into the local store. With no arguments every
remote subject is merged; otherwise only the named ones, and a name the remote
does not list is reported as failed. Subjects whose text already exists
locally are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			source, err := newRemoteClient(c.config.Import, c.logger)
			if err != nil {
				return err
			}

			if list {
				candidates, err := source.FetchSubjects(ctx)
				if err != nil {
					return err
				}
				return printCandidates(cmd, candidates, asJSON)
			}

			st, err := openStore(ctx, c.config.Database, c.logger)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			offered, err := source.FetchSubjects(ctx)
			if err != nil {
				return err
			}

			importer, err := service.NewImporter(st, source, service.ImporterConfig{Workers: c.config.Import.Workers}, c.logger)
			if err != nil {
				return err
			}
			outcomes, mergeErr := importer.MergeSelected(ctx, offered, args)
			if err := printOutcomes(cmd, outcomes, asJSON); err != nil {
				return err
			}
			return mergeErr
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "only list the remote subjects")
	return cmd
}

func printCandidates(cmd *cobra.Command, candidates []domain.SubjectCandidate, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(candidates)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SUBJECT\tUPDATED")
	for _, c := range candidates {
		fmt.Fprintf(w, "%s\t%s\n", c.Text, c.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func printOutcomes(cmd *cobra.Command, outcomes []service.ImportOutcome, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(outcomes)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SUBJECT\tRESULT\tQUESTIONS\tREASON")
	for _, o := range outcomes {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", o.Subject, o.Kind, o.Count, o.Reason)
	}
	return w.Flush()
}
