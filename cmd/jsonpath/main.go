// Command jsonpath executes an RFC 9535 JSONPath query against a JSON or
// YAML document and prints the selected nodes.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/goccy/go-yaml"

	"github.com/theory/jsonpath"
)

// CLI defines the command line interface.
type CLI struct {
	Path    string   `arg:"" help:"JSONPath query to execute."`
	Input   *os.File `arg:"" optional:"" help:"Input document. Defaults to standard input."`
	YAML    bool     `short:"y" help:"Parse the input as YAML instead of JSON."`
	Located bool     `short:"l" help:"Print the normalized path of each selected node."`
	Pointer bool     `short:"p" help:"With --located, print RFC 6901 JSON Pointers instead of normalized paths."`
	Compact bool     `short:"c" help:"Print compact output instead of indented."`
}

func main() {
	os.Exit(run())
}

func run() int {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("jsonpath"),
		kong.Description("Execute an RFC 9535 JSONPath query against a JSON or YAML document."),
		kong.UsageOnError(),
	)

	if err := cli.Run(); err != nil {
		ctx.Errorf("%v", err)
		return 1
	}
	return 0
}

// Run parses the query, decodes the input document, and prints the selected
// nodes to standard output.
func (cli *CLI) Run() error {
	path, err := jsonpath.Parse(cli.Path)
	if err != nil {
		return err
	}

	input, err := cli.decodeInput()
	if err != nil {
		return err
	}

	if cli.Located {
		return cli.printLocated(path.SelectLocated(input))
	}
	return cli.printJSON(path.Select(input))
}

// decodeInput decodes the input document into Go values. YAML decoding maps
// documents to the same map, slice, and scalar types as JSON decoding.
func (cli *CLI) decodeInput() (any, error) {
	in := io.Reader(os.Stdin)
	if cli.Input != nil {
		defer cli.Input.Close()
		in = cli.Input
	}

	src, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var input any
	if cli.YAML {
		if err := yaml.Unmarshal(src, &input); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	} else {
		if err := json.Unmarshal(src, &input); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	}

	return input, nil
}

// printJSON prints nodes to standard output as a JSON array.
func (cli *CLI) printJSON(nodes jsonpath.NodeList) error {
	enc := json.NewEncoder(os.Stdout)
	if !cli.Compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(nodes); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

// printLocated prints one line per node: its location followed by its value
// as compact JSON.
func (cli *CLI) printLocated(nodes jsonpath.LocatedNodeList) error {
	loc := color.New(color.FgCyan)
	for _, node := range nodes {
		val, err := json.Marshal(node.Value)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		where := node.Path.String()
		if cli.Pointer {
			where = node.Path.Pointer()
		}
		loc.Print(where)
		fmt.Printf(": %s\n", val)
	}
	return nil
}
