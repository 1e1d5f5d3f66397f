package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kivisai/site/pkg/composer"
	"github.com/kivisai/site/pkg/pipeline"
	"github.com/kivisai/site/pkg/renderers/html"
)

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect, validate and render page templates",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List template ids and presets",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				p := pipeline.New()
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "templates:")
				for _, id := range p.Templates().List() {
					tpl, err := p.Templates().Get(id)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "  %-10s %s\n", id, tpl.Name)
				}
				fmt.Fprintln(out, "presets:")
				for _, name := range p.Presets().Names() {
					fmt.Fprintf(out, "  %s\n", name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Print a template as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				tpl, err := pipeline.New().Templates().Get(args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tpl)
			},
		},
		&cobra.Command{
			Use:   "validate [id...]",
			Short: "Validate templates against the composition rules",
			Long:  "Validates the named templates, or every registered template when none is given.",
			RunE: func(cmd *cobra.Command, args []string) error {
				p := pipeline.New()
				ids := args
				if len(ids) == 0 {
					ids = p.Templates().List()
				}
				failed := 0
				out := cmd.OutOrStdout()
				for _, id := range ids {
					result, err := p.Build(cmd.Context(), pipeline.Request{TemplateID: id})
					switch {
					case err == nil:
						fmt.Fprintf(out, "ok      %s\n", id)
					case errors.Is(err, pipeline.ErrInvalidPage):
						failed++
						fmt.Fprintf(out, "invalid %s\n", id)
						for _, msg := range result.Validation.Errors {
							fmt.Fprintf(out, "        - %s\n", msg)
						}
					default:
						return err
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d templates invalid", failed, len(ids))
				}
				return nil
			},
		},
		newRenderCmd(),
	)
	return cmd
}

func newRenderCmd() *cobra.Command {
	var (
		templateID  string
		preset      string
		presetArg   string
		renderer    string
		breakpoint  string
		locale      string
		variant     string
		output      string
		templateDir string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a template or preset",
		Example: `  kivisai templates render --template landing
  kivisai templates render --preset service --arg "AI Strategy" --bp mobile
  kivisai templates render --template blog --renderer json --output blog.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []pipeline.Option
			if templateDir != "" {
				registry, err := rendererRegistry(html.WithTemplatesDir(templateDir))
				if err != nil {
					return err
				}
				opts = append(opts, pipeline.WithRegistry(registry))
			}

			result, err := pipeline.New(opts...).Render(cmd.Context(), pipeline.Request{
				TemplateID:   templateID,
				Preset:       preset,
				PresetArg:    presetArg,
				Renderer:     renderer,
				Breakpoint:   composer.Breakpoint(strings.ToLower(breakpoint)),
				Locale:       locale,
				ThemeVariant: variant,
			})
			if err != nil {
				for _, msg := range result.Validation.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "- %s\n", msg)
				}
				return err
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(result.Body)
				return err
			}
			if err := os.WriteFile(output, result.Body, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Page written to %s\n", output)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&templateID, "template", "", "template id to render")
	flags.StringVar(&preset, "preset", "", "preset name to render")
	flags.StringVar(&presetArg, "arg", "", "argument for presets that take one")
	flags.StringVar(&renderer, "renderer", "", "renderer name (html, json)")
	flags.StringVar(&breakpoint, "bp", "", "responsive breakpoint (mobile, tablet)")
	flags.StringVar(&locale, "locale", "", "document locale")
	flags.StringVar(&variant, "variant", "", "theme variant")
	flags.StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	flags.StringVar(&templateDir, "template-dir", "", "directory overriding the embedded HTML templates")
	cmd.MarkFlagsMutuallyExclusive("template", "preset")
	cmd.MarkFlagsOneRequired("template", "preset")
	return cmd
}
