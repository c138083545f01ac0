/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/iropt"
	"github.com/cloudwego/iropt/debug"
	"github.com/cloudwego/iropt/ir"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

func main() {
	demoCmd := &cli.Command{
		Name:        "demo",
		Description: "optimize the named scenarios (all by default) and print the IR before and after",
		Action:      demoAct,
		Args:        cli.Args{},
	}

	dotCmd := &cli.Command{
		Name:        "dot",
		Description: "optimize a scenario and write the CFG before and after as Graphviz files: dot <scenario> <prefix>",
		Action:      dotAct,
		Args:        cli.Args{},
	}

	listCmd := &cli.Command{
		Name:        "list",
		Description: "list the scenarios",
		Action:      listAct,
	}

	app := &cli.Command{
		Name:        "iropt",
		Description: "iropt runs forward substitution and switch recognition over canned IR",
		Commands:    []*cli.Command{
			demoCmd,
			dotCmd,
			listCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func scenario(name string) (*ir.Method, error) {
	if fn, ok := scenarios[name]; !ok {
		return nil, errors.New("unknown scenario: %v (have %v)", name, strings.Join(scenarioNames(), ", "))
	} else {
		return fn(), nil
	}
}

func listAct(c *cli.Command) error {
	for _, name := range scenarioNames() {
		fmt.Println(name)
	}
	return nil
}

func demoAct(c *cli.Command) error {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	// all scenarios by default
	names := []string(c.Args)
	if len(names) == 0 {
		names = scenarioNames()
	}

	// optimize each scenario
	for _, name := range names {
		m, err := scenario(name)
		if err != nil {
			return err
		}

		// print the input
		fmt.Printf("=== %s: before\n%s", name, m.Dump())
		res, err := iropt.Optimize(ctx, m, iropt.WithCheckIR(true))
		if err != nil {
			return errors.Wrap(err, "optimize %v", name)
		}

		// print the result
		for _, p := range res.Passes {
			fmt.Printf("--- %s: %s\n", p.Name, p.Status)
		}
		fmt.Printf("=== %s: after\n%s\n", name, m.Dump())
	}

	// show the totals
	fmt.Printf("%+v\n", debug.GetStats())
	return nil
}

func dotAct(c *cli.Command) error {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	// scenario name and output prefix
	if len(c.Args) != 2 {
		return errors.New("usage: dot <scenario> <prefix>")
	}

	// build the scenario
	m, err := scenario(c.Args[0])
	if err != nil {
		return err
	}

	// the graph before
	if err = writeDOT(m, c.Args[1] + ".before.dot"); err != nil {
		return err
	}

	// optimize and write the graph after
	if _, err = iropt.Optimize(ctx, m, iropt.WithCheckIR(true)); err != nil {
		return errors.Wrap(err, "optimize %v", c.Args[0])
	} else {
		return writeDOT(m, c.Args[1] + ".after.dot")
	}
}

func writeDOT(m *ir.Method, fn string) error {
	src, err := m.DOT()
	if err != nil {
		return errors.Wrap(err, "render %v", m.Name)
	}

	// write the file
	if err = os.WriteFile(fn, []byte(src), 0644); err != nil {
		return errors.Wrap(err, "write %v", fn)
	} else {
		return nil
	}
}
