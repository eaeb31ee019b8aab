package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/lots/internal/form"
	"github.com/alfredjeanlab/lots/internal/model"
	"github.com/alfredjeanlab/lots/internal/ui"
	"github.com/alfredjeanlab/lots/internal/upload"
)

var (
	formValues   []string
	formToggles  []string
	formExtended []string
	formAttach   []string
	formCaptcha  string
)

var formCmd = &cobra.Command{
	Use:     "form",
	Short:   "Fill and submit server-described forms",
	GroupID: "act",
}

var formShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Show the fields of an operation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(30 * time.Second)
		defer cancel()

		op, err := form.Load(ctx, lotClient, args[0], nil)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), op.Fields())
		}
		printFields(cmd.OutOrStdout(), op.Fields())
		return nil
	},
}

var formSubmitCmd = &cobra.Command{
	Use:   "submit <path>",
	Short: "Fill an operation's fields and submit it",
	Long: `Fill an operation's fields and submit it.

Values given with -f pre-fill the recipe. Choice fields take the choice
code, group fields a JSON array of codes. Nested delivery options are set
with --ext parent:code:key=value.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prior, err := parseValues(formValues)
		if err != nil {
			return err
		}
		var exts []extendedEdit
		for _, s := range formExtended {
			e, err := parseExtended(s)
			if err != nil {
				return err
			}
			exts = append(exts, e)
		}

		ctx, cancel := commandContext(2 * time.Minute)
		defer cancel()

		op, err := form.Load(ctx, lotClient, args[0], prior)
		if err != nil {
			return err
		}
		for _, key := range formToggles {
			if err := op.Toggle(key); err != nil {
				return err
			}
		}
		for _, e := range exts {
			if err := op.EditExtended(e.Parent, e.Code, e.Key, e.Data); err != nil {
				return err
			}
		}
		if err := attachFiles(ctx, op, formAttach); err != nil {
			return err
		}

		res, err := op.Submit(ctx, formCaptcha)
		out := cmd.OutOrStdout()
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			if jsonOutput {
				_ = printJSON(out, op.Fields())
			} else {
				fmt.Fprintln(out, ui.RenderError("the form was rejected:"))
				printFields(out, op.Fields())
			}
			return err
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(out, res)
		}
		msg := res.Message
		if msg == "" {
			msg = "submitted"
		}
		fmt.Fprintln(out, msg)
		return nil
	},
}

// attachFiles uploads each key=path attachment and stores the returned
// temporary id as the field's value.
func attachFiles(ctx context.Context, op *form.Operation, specs []string) error {
	if len(specs) == 0 {
		return nil
	}
	if cfg.S3Bucket == "" {
		return fmt.Errorf("--attach needs LOTS_S3_BUCKET")
	}
	up, err := upload.NewS3Uploader(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, cfg.S3Endpoint)
	if err != nil {
		return err
	}
	for _, s := range specs {
		key, path, ok := splitField(s)
		if !ok {
			return fmt.Errorf("invalid attachment %q: expected key=path", s)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading attachment: %w", err)
		}
		id, err := up.Upload(ctx, data, "")
		if err != nil {
			return err
		}
		raw, _ := json.Marshal(id)
		if err := op.Edit(key, raw); err != nil {
			return err
		}
		logger.Debug("attached file", "field", key, "path", path, "id", id)
	}
	return nil
}

func init() {
	f := formSubmitCmd.Flags()
	f.StringArrayVarP(&formValues, "field", "f", nil, "field value as key=value (repeatable)")
	f.StringArrayVar(&formToggles, "toggle", nil, "toggle a checkbox field (repeatable)")
	f.StringArrayVar(&formExtended, "ext", nil, "nested delivery value as parent:code:key=value (repeatable)")
	f.StringArrayVar(&formAttach, "attach", nil, "upload a file into a field as key=path (repeatable)")
	f.StringVar(&formCaptcha, "captcha", "", "captcha response")

	formCmd.AddCommand(formShowCmd)
	formCmd.AddCommand(formSubmitCmd)
}
