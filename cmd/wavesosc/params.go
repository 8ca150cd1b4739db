package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/justyntemme/waves/pkg/dsp/oscillator"
	"github.com/justyntemme/waves/pkg/dsp/wavetable"
)

func runParams(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("params", flag.ContinueOnError)
	all := fs.Bool("all", false, "include reserved slots")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: wavesosc params [-all] [name ...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	catalog := wavetable.Default()
	reg := oscillator.Parameters(catalog)
	list := reg.Visible()
	if *all {
		list = reg.All()
	}
	if fs.NArg() > 0 {
		list = list[:0]
		for _, name := range fs.Args() {
			p := reg.Lookup(name)
			if p == nil {
				return fmt.Errorf("no parameter named %q", name)
			}
			list = append(list, p)
		}
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMIN\tMAX\tDEFAULT")
	for _, p := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Name,
			p.FormatValue(0), p.FormatValue(1), p.FormatValue(p.DefaultValue))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if hidden := reg.Count() - len(reg.Visible()); hidden > 0 && !*all && fs.NArg() == 0 {
		fmt.Fprintf(stdout, "(%d reserved slots hidden, -all shows them)\n", hidden)
	}

	fmt.Fprintf(stdout, "\n%d waves in %d banks\n", catalog.Total(), len(catalog.Banks()))
	tw = tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BANK\tINDEX\tWAVES")
	for b, bank := range catalog.Banks() {
		start := catalog.Threshold(b) - bank.Len()
		names := make([]string, bank.Len())
		for i := range names {
			names[i] = catalog.Name(start + i)
		}
		fmt.Fprintf(tw, "%s\t%d-%d\t%s\n", bank.Name, start, start+bank.Len()-1, strings.Join(names, " "))
	}
	return tw.Flush()
}
