package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zoobzio/formz"
)

// errInvalid signals that a form was built but its values do not validate.
var errInvalid = errors.New("form is invalid")

var validateCmd = &cobra.Command{
	Use:   "validate <document>...",
	Short: "Check input documents and optionally a set of values",
	Long: `Parses each document, resolves its validators and builds the form.
With --values the given values are patched in and the form is submitted,
and every control with errors is listed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		valuesPath, _ := cmd.Flags().GetString("values")
		return runValidate(cmd.Context(), cmd.OutOrStdout(), args, format, valuesPath)
	},
}

func init() {
	validateCmd.Flags().String("values", "", "JSON or YAML file with values to check against the form")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(ctx context.Context, out io.Writer, paths []string, format, valuesPath string) error {
	codec, err := codecFor(format)
	if err != nil {
		return err
	}

	var values any
	if valuesPath != "" {
		data, err := os.ReadFile(valuesPath)
		if err != nil {
			return fmt.Errorf("failed to read values: %w", err)
		}
		if err := (formz.AutoCodec{}).Unmarshal(data, &values); err != nil {
			return fmt.Errorf("failed to parse values: %w", err)
		}
	}

	var failed []error
	for _, path := range paths {
		if err := validateFile(ctx, out, path, codec, values); err != nil {
			logger.Warn("document failed", "path", path, "error", err)
			failed = append(failed, fmt.Errorf("%s: %w", path, err))
		}
	}
	return errors.Join(failed...)
}

func validateFile(ctx context.Context, out io.Writer, path string, codec formz.Codec, values any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := formz.ParseDocument(data, codec)
	if err != nil {
		return err
	}
	inputs, err := doc.Resolve(formz.NewCatalog())
	if err != nil {
		return err
	}
	form := formz.Build(inputs, nil)

	if values == nil {
		fmt.Fprintf(out, "%s: ok (%d controls)\n", path, countControls(form))
		return nil
	}

	if err := form.PatchValue(values); err != nil {
		return err
	}
	form.Submit()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := form.Await(ctx); err != nil {
		return fmt.Errorf("waiting for validation: %w", err)
	}

	fmt.Fprintf(out, "%s: %s\n", path, form.Status())
	if form.Valid() || form.Disabled() {
		return nil
	}
	tr := formz.DefaultTranslators()
	formz.Walk(form, func(p string, c formz.Control) bool {
		if len(c.Errors()) > 0 {
			if p == "" {
				p = "(form)"
			}
			fmt.Fprintf(out, "  %s: %s\n", p, tr.FirstError(c, false))
		}
		return c.Enabled()
	})
	return errInvalid
}

func countControls(form *formz.Form) int {
	n := 0
	formz.Walk(form, func(string, formz.Control) bool {
		n++
		return true
	})
	return n - 1
}
