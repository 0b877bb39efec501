package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"campusdual-backend/internal/components/telemetry"
	"campusdual-backend/internal/scrapers/campusdual"
	"campusdual-backend/lib/serviceutil"
	"campusdual-backend/lib/textutil"

	"github.com/spf13/cobra"
)

const (
	formatTable = "table"
	formatJson  = "json"
)

type outputFlags struct {
	format    *string
	match     *string
	threshold *float64
}

func addOutputFlags(cmd *cobra.Command) outputFlags {
	return outputFlags{
		format:    cmd.Flags().StringP("format", "f", formatTable, "Output format, table or json."),
		match:     cmd.Flags().StringP("match", "m", "", "Only show modules whose name matches, spacing and case are ignored."),
		threshold: cmd.Flags().Float64("threshold", 0.85, "The Jaro-Winkler similarity a name needs to match without containing the query."),
	}
}

func (f outputFlags) matches(name string) bool {
	return textutil.MatchName(name, *f.match, *f.threshold)
}

func (f outputFlags) validate() error {
	switch *f.format {
	case formatTable, formatJson:
		return nil
	}
	return fmt.Errorf("unknown format %q", *f.format)
}

// page runs extract on the saved document given as the only argument, or fetches the
// page from the portal with the sealed session when there is none.
func page[T any](
	ctx context.Context,
	args []string,
	extract func(campusdual.Extractor, io.Reader) []T,
	fetch func(*campusdual.Client, context.Context) ([]T, error),
) []T {
	tel := telemetry.SlogAPI{}

	if len(args) == 1 {
		file, err := os.Open(args[0])
		if err != nil {
			serviceutil.Fatal("failed to open document", err)
		}
		defer file.Close()
		return extract(campusdual.NewExtractor(tel), file)
	}

	config, err := loadConfig()
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	client, err := newPortalClient(config, tel)
	if err != nil {
		serviceutil.Fatal("failed to create portal client", err)
	}
	records, err := fetch(client, ctx)
	if err != nil {
		serviceutil.Fatal("failed to fetch page", err)
	}
	return records
}

func filter[T any](records []T, name func(T) string, flags outputFlags) []T {
	out := make([]T, 0, len(records))
	for _, record := range records {
		if flags.matches(name(record)) {
			out = append(out, record)
		}
	}
	return out
}

var (
	gradesFlags   outputFlags
	signupFlags   outputFlags
	signoffFlags  outputFlags
	overviewFlags outputFlags
)

func init() {
	gradesFlags = addOutputFlags(gradesCmd)
	signupFlags = addOutputFlags(signupCmd)
	signoffFlags = addOutputFlags(signoffCmd)
	overviewFlags = addOutputFlags(overviewCmd)
	rootCmd.AddCommand(gradesCmd, signupCmd, signoffCmd, overviewCmd)
}

var gradesCmd = &cobra.Command{
	Use:   "grades [path/to/page.html]",
	Short: "Lists module grades, newest announcement first.",
	Args:  cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return gradesFlags.validate()
	},
	Run: func(cmd *cobra.Command, args []string) {
		grades := page(cmd.Context(), args, campusdual.Extractor.Grades, (*campusdual.Client).Grades)
		grades = filter(grades, func(g campusdual.Grade) string { return g.Name }, gradesFlags)

		err := writeGrades(cmd.OutOrStdout(), *gradesFlags.format, grades)
		if err != nil {
			serviceutil.Fatal("failed to write grades", err)
		}
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup [path/to/page.html]",
	Short: "Lists the exams open for registration.",
	Args:  cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return signupFlags.validate()
	},
	Run: func(cmd *cobra.Command, args []string) {
		options := page(cmd.Context(), args, campusdual.Extractor.SignupOptions, (*campusdual.Client).SignupOptions)
		options = filter(options, func(o campusdual.SignupOption) string { return o.Name }, signupFlags)

		err := writeSignupOptions(cmd.OutOrStdout(), *signupFlags.format, options)
		if err != nil {
			serviceutil.Fatal("failed to write signup options", err)
		}
	},
}

var signoffCmd = &cobra.Command{
	Use:   "signoff [path/to/page.html]",
	Short: "Lists the registered exams that can still be withdrawn from.",
	Args:  cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return signoffFlags.validate()
	},
	Run: func(cmd *cobra.Command, args []string) {
		options := page(cmd.Context(), args, campusdual.Extractor.SignoffOptions, (*campusdual.Client).SignoffOptions)
		options = filter(options, func(o campusdual.SignoffOption) string { return o.Name }, signoffFlags)

		err := writeSignoffOptions(cmd.OutOrStdout(), *signoffFlags.format, options)
		if err != nil {
			serviceutil.Fatal("failed to write signoff options", err)
		}
	},
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Fetches grades, open registrations and withdrawable exams at once.",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return overviewFlags.validate()
	},
	Run: func(cmd *cobra.Command, args []string) {
		config, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		client, err := newPortalClient(config, telemetry.SlogAPI{})
		if err != nil {
			serviceutil.Fatal("failed to create portal client", err)
		}
		overview, err := client.Overview(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to fetch overview", err)
		}

		overview.Grades = filter(overview.Grades, func(g campusdual.Grade) string { return g.Name }, overviewFlags)
		overview.Signup = filter(overview.Signup, func(o campusdual.SignupOption) string { return o.Name }, overviewFlags)
		overview.Signoff = filter(overview.Signoff, func(o campusdual.SignoffOption) string { return o.Name }, overviewFlags)

		err = writeOverview(cmd.OutOrStdout(), *overviewFlags.format, overview)
		if err != nil {
			serviceutil.Fatal("failed to write overview", err)
		}
	},
}
