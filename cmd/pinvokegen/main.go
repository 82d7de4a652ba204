package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/pinvokegen/cmd/pinvokegen/commands"
	"github.com/teranos/pinvokegen/errors"
	"github.com/teranos/pinvokegen/logger"
)

var rootCmd = &cobra.Command{
	Use:   "pinvokegen",
	Short: "pinvokegen - C# P/Invoke bindings from C and C++ declarations",
	Long: `pinvokegen - Generate C# P/Invoke bindings from a C/C++ declaration tree.

The input is a translation unit exported by a C/C++ front-end as JSON or
YAML. Records become explicit-layout structs, functions become DllImport
declarations, and inline function bodies are translated to C#.

Available commands:
  generate - Generate bindings from one or more translation units
  config   - Show, validate or create pinvokegen.toml
  version  - Show version information

Arguments starting with @ are read as response files.

Examples:
  pinvokegen generate api.ast.json -n Acme.Interop -l acme
  pinvokegen generate @acme.rsp --watch
  pinvokegen config show --format yaml`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLog, _ := cmd.Flags().GetBool("json-log")
		if err := logger.Initialize(jsonLog, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-log", false, "Write logs to stderr as JSON")

	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	args, err := commands.ExpandResponseFiles(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
