package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/CTAG07/hcp/pkg/content"
	"github.com/CTAG07/hcp/pkg/envelope"
	"github.com/CTAG07/hcp/pkg/templating"
	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

func newLintCmd(a *app) *cobra.Command {
	var showStats, allowDirectives bool
	cmd := &cobra.Command{
		Use:   "lint FILE...",
		Short: "Report nesting, field and form problems in HCF files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			total := 0
			for _, path := range args {
				doc, err := readFile(path)
				if err != nil {
					return err
				}
				var issues []content.Issue
				for _, issue := range content.LintSequence(doc.Content) {
					if allowDirectives && issue.Rule == content.RuleDirective {
						continue
					}
					issues = append(issues, issue)
					fmt.Fprintf(out, "%s: %s\n", path, issue)
				}
				total += len(issues)
				if showStats {
					s := content.SummarizeSequence(doc.Content)
					fmt.Fprintf(out, "%s: %d nodes, depth %d, %d directives, %d insecure forms\n",
						path, s.Nodes, s.Depth, s.Directives, s.Insecure)
				}
				a.logger.Debug("Linted file", "path", path, "issues", len(issues))
			}
			if total > 0 {
				return fmt.Errorf("%d issue(s) found", total)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showStats, "stats", false, "also print tree statistics")
	cmd.Flags().BoolVar(&allowDirectives, "allow-directives", false, "do not report If, Ctx and Include nodes")
	return cmd
}

func newResolveCmd(a *app) *cobra.Command {
	var (
		flags         []string
		contextPath   string
		rejectInclude bool
		placeholders  bool
		format        string
	)
	cmd := &cobra.Command{
		Use:   "resolve FILE",
		Short: "Resolve If and Ctx directives in an HCF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mimeType, err := mimeForFormat(format)
			if err != nil {
				return err
			}
			doc, err := readFile(args[0])
			if err != nil {
				return err
			}
			values := map[string]content.Content{}
			if contextPath != "" {
				if values, err = readContext(contextPath); err != nil {
					return err
				}
			}

			cfg := *a.config.Templates
			if rejectInclude {
				cfg.IncludePolicy = templating.IncludeReject
			}
			var opts []templating.SequenceOption
			if placeholders || cfg.Placeholders {
				opts = append(opts, templating.WithPlaceholders())
			}

			nodes, err := templating.NewResolver(cfg).ResolveSequence(doc.Content, values, templating.NewFlagSet(flags...), opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return writeFile(cmd.OutOrStdout(), envelope.File{Content: nodes, Extra: doc.Extra}, mimeType)
		},
	}
	cmd.Flags().StringArrayVar(&flags, "flag", nil, "activate a feature flag (repeatable)")
	cmd.Flags().StringVar(&contextPath, "context", "", "YAML or JSON file mapping context keys to content")
	cmd.Flags().BoolVar(&rejectInclude, "reject-include", false, "fail on Include nodes instead of passing them through")
	cmd.Flags().BoolVar(&placeholders, "placeholders", false, "replace failing top-level nodes with error text")
	cmd.Flags().StringVar(&format, "out", "yaml", "output format: yaml, json or cbor")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import NAME FILE",
		Short: "Store an HCF file under NAME",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer func(f *os.File) {
				_ = f.Close()
			}(f)
			if err = store.ImportDocument(cmd.Context(), args[0], f, mimeForPath(args[1])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", args[0])
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var outPath, format string
	cmd := &cobra.Command{
		Use:   "export NAME",
		Short: "Write a stored document to stdout or a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var mimeType string
			switch {
			case format != "":
				m, err := mimeForFormat(format)
				if err != nil {
					return err
				}
				mimeType = m
			case outPath != "":
				mimeType = mimeForPath(outPath)
			}
			if mimeType == envelope.ResponseMimeType {
				return fmt.Errorf("documents cannot be exported as cbor")
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err = store.ExportDocument(cmd.Context(), args[0], &buf, mimeType); err != nil {
				return err
			}
			if outPath == "" {
				_, err = buf.WriteTo(cmd.OutOrStdout())
				return err
			}
			return atomic.WriteFile(outPath, &buf)
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write to this file instead of stdout")
	cmd.Flags().StringVar(&format, "format", "", "yaml or json; defaults to the --out extension or the imported format")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			infos, err := store.GetDocumentInfos(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tFORMAT\tUPDATED")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Name, info.MimeType, info.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm NAME",
		Short: "Remove a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			return store.RemoveDocument(cmd.Context(), args[0])
		},
	}
}

func newContextCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Manage stored template contexts",
	}

	set := &cobra.Command{
		Use:   "set NAME KEY VALUE_FILE",
		Short: "Set one context entry from a YAML or JSON content value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readValue(args[2])
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			return store.SetContextEntry(cmd.Context(), args[0], args[1], value)
		},
	}

	imp := &cobra.Command{
		Use:   "import NAME FILE",
		Short: "Add every entry of a key -> content file to a context",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer func(f *os.File) {
				_ = f.Close()
			}(f)
			return store.ImportContext(cmd.Context(), args[0], f, mimeForPath(args[1]))
		},
	}

	var format string
	show := &cobra.Command{
		Use:   "show NAME",
		Short: "Print a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mimeType, err := mimeForFormat(format)
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			return store.ExportContext(cmd.Context(), args[0], cmd.OutOrStdout(), mimeType)
		},
	}
	show.Flags().StringVar(&format, "out", "yaml", "output format: yaml or json")

	list := &cobra.Command{
		Use:   "list",
		Short: "List context names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			names, err := store.GetContextNames(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm NAME [KEY]",
		Short: "Remove a context, or a single key from it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if len(args) == 2 {
				return store.RemoveContextEntry(cmd.Context(), args[0], args[1])
			}
			return store.RemoveContext(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(set, imp, show, list, rm)
	return cmd
}

func newRenderCmd(a *app) *cobra.Command {
	var (
		features    []string
		identities  []string
		contextName string
		format      string
	)
	cmd := &cobra.Command{
		Use:   "render NAME",
		Short: "Render a stored document as a response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mimeType, err := mimeForFormat(format)
			if err != nil {
				return err
			}
			req := envelope.NewRequest(features...)
			for _, kv := range identities {
				scope, raw, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("identity %q is not SCOPE=UUID", kv)
				}
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("identity %q: %w", kv, err)
				}
				req.Identities[scope] = id
			}

			tm, err := a.newManager()
			if err != nil {
				return err
			}
			return tm.RenderTo(cmd.Context(), cmd.OutOrStdout(), args[0], req, contextName, mimeType)
		},
	}
	cmd.Flags().StringArrayVar(&features, "feature", nil, "request a feature (repeatable)")
	cmd.Flags().StringArrayVar(&identities, "identity", nil, "attach an identity as SCOPE=UUID (repeatable)")
	cmd.Flags().StringVar(&contextName, "context", "", "stored context to resolve against (default from config)")
	cmd.Flags().StringVar(&format, "out", "yaml", "output format: yaml, json or cbor")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show statistics for the document store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			stats, err := store.GetStats(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DOCUMENT\tNODES\tDEPTH\tDIRECTIVES\tINSECURE")
			for _, d := range stats.Documents {
				s := stats.Stats[d.Name]
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", d.Name, s.Nodes, s.Depth, s.Directives, s.Insecure)
			}
			if err = tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d document(s), %d context(s), %d context entries\n",
				len(stats.Documents), len(stats.Contexts), stats.ContextEntries)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Loading the config would create a file as a side effect.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hcpctl %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		},
	}
}
