package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/kinesis/internal/errors"
	"github.com/vango-dev/kinesis/pkg/controller"
	"github.com/vango-dev/kinesis/pkg/snapshot"
)

func renderCmd(g *globalOptions) *cobra.Command {
	var (
		steps   []string
		out     string
		publish bool
	)

	cmd := &cobra.Command{
		Use:   "render [app]",
		Short: "Render a component to HTML",
		Long: `Mount a component into an in-memory document, dispatch the given
events in order, and print the resulting HTML.

A step is kind:target or kind:target=value, where target is the id
attribute of the element the event is raised on.

Examples:
  kinesis render counter --step click:increment --step click:increment
  kinesis render todo --step input:draft=milk --step click:add -o todo.html
  kinesis render toggle --step click:toggle --publish`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			name, comp, err := app(cfg, args)
			if err != nil {
				return err
			}
			parsed := make([]snapshot.Step, 0, len(steps))
			for _, s := range steps {
				step, err := parseStep(s)
				if err != nil {
					return err
				}
				parsed = append(parsed, step)
			}

			ctx := cmd.Context()
			logger := newLogger(cfg, cmd.ErrOrStderr())
			html, err := snapshot.RenderWith(ctx, comp, []controller.Option{controller.WithLogger(logger)}, parsed...)
			if err != nil {
				return err
			}

			if publish {
				store, err := openStore(cfg)
				if err != nil {
					return err
				}
				if store == nil {
					return errors.New(errors.CodeConfigInvalid).
						WithDetail("--publish needs snapshot.target set to file, s3 or bolt")
				}
				defer closeStore(store)
				snap := snapshot.Snapshot{Name: snapshot.NewName(name), App: name, HTML: html, CreatedAt: time.Now().UTC()}
				loc, err := store.Save(ctx, snap)
				if err != nil {
					return err
				}
				logger.Info("snapshot published", "name", snap.Name, "location", loc)
				fmt.Fprintln(cmd.OutOrStdout(), loc)
				return nil
			}

			if out != "" {
				return os.WriteFile(out, html, 0o644)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(html))
			return err
		},
	}

	cmd.Flags().StringArrayVarP(&steps, "step", "s", nil, "Event to dispatch before rendering, as kind:target[=value] (repeatable)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write HTML to this file instead of stdout")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish the HTML to the configured snapshot store")
	return cmd
}

// parseStep parses kind:target or kind:target=value.
func parseStep(s string) (snapshot.Step, error) {
	kind, rest, ok := strings.Cut(s, ":")
	if !ok || kind == "" || rest == "" {
		return snapshot.Step{}, fmt.Errorf("invalid step %q: want kind:target[=value]", s)
	}
	target, value, _ := strings.Cut(rest, "=")
	if target == "" {
		return snapshot.Step{}, fmt.Errorf("invalid step %q: empty target", s)
	}
	return snapshot.Step{Target: target, Kind: kind, Value: value}, nil
}
