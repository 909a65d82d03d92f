package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	api "github.com/mind-engage/mindengage-qti/internal/api/http"
	"github.com/mind-engage/mindengage-qti/internal/project"
	"github.com/mind-engage/mindengage-qti/internal/qti"
	"github.com/mind-engage/mindengage-qti/internal/qti/convert"
	"github.com/mind-engage/mindengage-qti/internal/qti/edit"
	"github.com/mind-engage/mindengage-qti/internal/qti/format"
	"github.com/mind-engage/mindengage-qti/internal/qti/parser"
	"github.com/mind-engage/mindengage-qti/internal/scoring"
)

func writeJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(cmd, append(b, '\n'))
}

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file|->",
		Short: "Report the format and QTI version of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return writeText(cmd, fmt.Sprintf("format=%s version=%s",
				format.Detect(content), parser.FromContent(content).Version()))
		},
	}
}

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file|->",
		Short: "Parse a document and print items, errors and unsupported elements as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			ps, err := parserFor(cmd, content)
			if err != nil {
				return err
			}
			res := ps.Parse(content)
			if strict, _ := cmd.Flags().GetBool("strict"); strict && len(res.Errors) > 0 {
				if err := writeJSON(cmd, res); err != nil {
					return err
				}
				return fmt.Errorf("%d parse error(s)", len(res.Errors))
			}
			return writeJSON(cmd, res)
		},
	}
	cmd.Flags().Bool("strict", false, "Exit non-zero when the result carries errors")
	return cmd
}

func newFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format <file|->",
		Short: "Pretty-print XML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return writeText(cmd, edit.Format(content))
		},
	}
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <file|->",
		Short: "Convert between QTI XML and its JSON representation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			to, _ := cmd.Flags().GetString("to")
			if to == "" {
				to = string(format.JSON)
				if format.IsJSON(content) {
					to = string(format.XML)
				}
			}
			var out string
			switch format.Format(strings.ToLower(to)) {
			case format.JSON:
				out, err = convert.XMLToJSON(content)
			case format.XML:
				out, err = convert.JSONToXML(content)
			default:
				return fmt.Errorf("unknown target format %q", to)
			}
			if err != nil {
				return err
			}
			return writeText(cmd, out)
		},
	}
	cmd.Flags().String("to", "", "Target format: json or xml (default: the other one)")
	return cmd
}

func newInsertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insert <file|-> <item-file>",
		Short: "Insert an item document into a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			item, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}
			ps, err := parserFor(cmd, content)
			if err != nil {
				return err
			}
			at := edit.AppendIndex
			if cmd.Flags().Changed("after") {
				at, _ = cmd.Flags().GetInt("after")
			}
			return writeText(cmd, ps.InsertItem(content, item, at))
		},
	}
	cmd.Flags().Int("after", 0, "Insert after this 0-based item index; -1 prepends (default: append)")
	return cmd
}

func newReorderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reorder <file|->",
		Short: "Move the item at --from to --to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			ps, err := parserFor(cmd, content)
			if err != nil {
				return err
			}
			from, _ := cmd.Flags().GetInt("from")
			to, _ := cmd.Flags().GetInt("to")
			return writeText(cmd, ps.ReorderItems(content, from, to))
		},
	}
	cmd.Flags().Int("from", 0, "0-based index of the item to move")
	cmd.Flags().Int("to", 0, "0-based destination index")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newAnswerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "answer <file|->",
		Short: "Set the correct response of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			ps, err := parserFor(cmd, content)
			if err != nil {
				return err
			}
			id, _ := cmd.Flags().GetString("item")
			vals, _ := cmd.Flags().GetStringSlice("value")
			multi, _ := cmd.Flags().GetBool("multiple")
			v := qti.Multiple(vals...)
			if !multi && len(vals) == 1 {
				v = qti.Single(vals[0])
			}
			return writeText(cmd, ps.UpdateCorrectResponse(content, id, v))
		},
	}
	cmd.Flags().String("item", "", "Item identifier")
	cmd.Flags().StringSlice("value", nil, "Correct value; repeat for multiple values")
	cmd.Flags().Bool("multiple", false, "Store a single --value as a multiple-cardinality list")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score <file|->",
		Short: "Score responses against a document",
		Long: "Score reads responses as a JSON object keyed by item identifier, e.g.\n" +
			`{"q1": "A", "q2": ["B", "C"]}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			respPath, _ := cmd.Flags().GetString("responses")
			raw, err := readInput(cmd, respPath)
			if err != nil {
				return err
			}
			if !gjson.Valid(raw) || !gjson.Parse(raw).IsObject() {
				return fmt.Errorf("responses must be a JSON object keyed by item identifier")
			}
			responses := map[string]qti.Value{}
			if err := json.Unmarshal([]byte(raw), &responses); err != nil {
				return err
			}
			ps, err := parserFor(cmd, content)
			if err != nil {
				return err
			}
			res := ps.Parse(content)
			for _, e := range res.Errors {
				cmd.PrintErrln("warning:", e)
			}
			return writeJSON(cmd, scoring.New().Score(res.Items, responses))
		},
	}
	cmd.Flags().String("responses", "", "Path to the responses JSON file")
	_ = cmd.MarkFlagRequired("responses")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file|->",
		Short: "Write an IMS content package holding every item of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			if p, _ := cmd.Flags().GetString("output"); p == "" {
				return fmt.Errorf("export needs --output <file.zip>")
			}
			ps, err := parserFor(cmd, content)
			if err != nil {
				return err
			}
			p := project.New("export", content, ps.Version())
			pkg, err := api.PackageProject(p)
			if err != nil {
				return err
			}
			return writeOutput(cmd, pkg)
		},
	}
	return cmd
}
