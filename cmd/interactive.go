package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/urbanscope/citysearch/internal/output"
	"github.com/urbanscope/citysearch/internal/paginate"
	"github.com/urbanscope/citysearch/internal/search"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Type-ahead city search in the terminal",
	Long: `Each line is typed into the search box. An empty line focuses the box
and shows the popular cities. A number picks from the open list.
Commands: :next, :prev, :esc (close the list), :quit.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		return runREPL(ctx, os.Stdin, os.Stdout, env.Client, replOptions{
			PerPage: cfg.Search.PerPage,
			Search: []search.Option{
				search.WithDebounce(cfg.Search.Debounce()),
				search.WithMinQueryLength(cfg.Geocoder.MinQueryLength),
				search.WithPopular(env.Popular),
			},
		})
	},
}

type replOptions struct {
	PerPage int
	Search  []search.Option
}

// repl drives one search.Controller from line input.
type repl struct {
	ctl     *search.Controller
	out     io.Writer
	p       *output.Printer
	page    int
	perPage int
}

func runREPL(ctx context.Context, in io.Reader, out io.Writer, s search.Searcher, opts replOptions) error {
	r := &repl{
		out:     out,
		p:       output.NewPrinter(out, out, false),
		page:    paginate.StartPage(),
		perPage: opts.PerPage,
	}
	sopts := append([]search.Option{search.OnSelect(r.selected)}, opts.Search...)
	r.ctl = search.New(ctx, s, sopts...)
	defer r.ctl.Close()

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if quit := r.handle(sc.Text()); quit {
			return nil
		}
	}
	return eris.Wrap(sc.Err(), "interactive: read input")
}

// handle applies one input line and reports whether the session is over.
func (r *repl) handle(line string) bool {
	switch cmd := strings.TrimSpace(line); cmd {
	case ":quit", ":q":
		return true
	case "":
		r.ctl.Focus()
	case ":esc":
		r.ctl.OutsideClick()
	case ":next":
		r.page = paginate.NextPage(r.ctl.View().Results, r.page, r.perPage)
	case ":prev":
		r.page = paginate.PrevPage(r.page)
	default:
		if n, err := strconv.Atoi(cmd); err == nil {
			r.pick(n)
			return false
		}
		r.page = paginate.StartPage()
		r.ctl.Input(line)
		r.ctl.Flush()
		r.ctl.Wait()
	}
	r.render()
	return false
}

// pick selects the n-th (1-based) entry of whichever list is open.
func (r *repl) pick(n int) {
	v := r.ctl.View()
	var err error
	switch {
	case v.ShowResults:
		_, err = r.ctl.SelectResult(n - 1)
	case v.ShowPopular:
		_, err = r.ctl.SelectPopular(n - 1)
	default:
		r.p.Warning("nothing to pick from")
		return
	}
	if err != nil {
		r.p.Error("no entry %d", n)
	}
}

func (r *repl) selected(ev search.SelectionEvent) {
	r.p.Success("selected %s, %s", ev.Name, ev.Country)
	b, err := json.Marshal(ev)
	if err != nil {
		r.p.Error("encode selection: %v", err)
		return
	}
	fmt.Fprintln(r.out, string(b)) //nolint:errcheck
}

func (r *repl) render() {
	v := r.ctl.View()
	switch {
	case v.ShowPopular:
		r.p.Info("Popular cities")
		if err := output.Popular(r.out, v.Popular); err != nil {
			r.p.Error("%v", err)
		}
	case v.ShowResults:
		if err := output.Cities(r.out, paginate.Of(v.Results, r.page, r.perPage)); err != nil {
			r.p.Error("%v", err)
		}
	case v.NoResultsMessage != "":
		r.p.NoResults(v.Query)
	}
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
