// Command register fills the registration form from a file and submits it
// to a registry, the way the web form would.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/Thaththathirian/lifeboat-college/internal/config"
	"github.com/Thaththathirian/lifeboat-college/internal/form"
	"github.com/Thaththathirian/lifeboat-college/internal/logger"
	"github.com/Thaththathirian/lifeboat-college/internal/registryclient"

	"github.com/joho/godotenv"
)

const serviceName = "college-register"

// Set via ldflags
var version = "dev"

var errNotSubmitted = errors.New("registration was not accepted")

func main() {
	path := flag.String("f", "registration.yaml", "registration file")
	flag.Parse()

	_ = godotenv.Load()

	slogLogger := logger.NewWithServiceContext(serviceName, version)

	sub, err := config.LoadSubmission(*path)
	if err != nil {
		log.Fatalf("failed to load registration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, sub, slogLogger, os.Stdout); err != nil {
		slogLogger.Error("registration failed", "error", err)
		os.Exit(1)
	}
}

// run drives one form session from sub and prints the outcome to out.
func run(ctx context.Context, sub *config.Submission, slogLogger *slog.Logger, out io.Writer) error {
	client := registryclient.NewClient(sub.Registry.URL, sub.Registry.Token)
	session := form.NewSession(client, slogLogger)

	values := make(form.Values, len(sub.Fields))
	for _, f := range sub.Fields {
		values[form.Field(f.Name)] = f.Value
	}
	if err := session.Fill(values); err != nil {
		return err
	}

	// Pick up where the registrant left off, then walk to the final section.
	nav := session.Navigator
	if reached, first := nav.Resume(sub.Section); first != "" {
		printErrors(out, session.State)
		return fmt.Errorf("stopped at section %d: %s is invalid", reached+1, first)
	}
	for !nav.IsTerminal() {
		if moved, first := nav.Next(); !moved {
			printErrors(out, session.State)
			return fmt.Errorf("stopped at section %d: %s is invalid", nav.Current()+1, first)
		}
	}
	slogLogger.InfoContext(ctx, "form complete", "section", nav.Section().Title, "progress", nav.Progress())

	if p := sub.Files.CancelledCheque; p != "" {
		if err := session.AttachChequeFile(p); err != nil {
			slogLogger.WarnContext(ctx, "cancelled cheque not attached", "path", p, "error", err)
		}
	}
	for _, p := range sub.Files.Infrastructure {
		if err := session.AddInfrastructureFile(p); err != nil {
			slogLogger.WarnContext(ctx, "infrastructure file not attached", "path", p, "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, sub.Registry.Timeout())
	defer cancel()

	return printOutcome(out, session.Submit(ctx))
}

func printOutcome(out io.Writer, outcome form.Outcome) error {
	switch o := outcome.(type) {
	case form.Success:
		fmt.Fprintf(out, "registered %s (status %s, submitted %s)\n", o.ID, o.Status, o.SubmittedAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	case form.FieldErrors:
		source := "form"
		if o.Remote {
			source = "registry"
		}
		fmt.Fprintf(out, "%s rejected %d field(s):\n", source, len(o.Fields))
		printFieldErrors(out, o.Fields)
	case form.Failure:
		fmt.Fprintln(out, o.Message)
	}
	return errNotSubmitted
}

func printErrors(out io.Writer, state *form.State) {
	printFieldErrors(out, state.Errors())
}

func printFieldErrors(out io.Writer, errs map[form.Field]string) {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(out, "  %s: %s\n", f, errs[form.Field(f)])
	}
}
