package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scorchdb/scorch/internal/ui"
)

var (
	loadAs    string
	loadType  string
	loadQuery string
)

// LoadResult is the JSON payload for the load command.
type LoadResult struct {
	View    string `json:"view"`
	Type    string `json:"type"`
	Objects int    `json:"objects"`
	Rows    int    `json:"rows"`
}

var loadCmd = &cobra.Command{
	Use:   "load <file.json>",
	Short: "Load flattened STIX objects into the store",
	Long: `Reads a JSON file of flattened STIX objects and loads them into
per-type tables, registering a view over the loaded rows. The file is
either a bare array of objects or a wrapper with an "objects" key.

Examples:
  scorch load observations.json --as conns
  scorch load addresses.json --as "Suspicious IPs" --type ipv4-addr`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if loadAs == "" {
			return handleErrorMsg(ErrMissingArgument, "--as <view> is required", "")
		}
		name, err := viewName(loadAs)
		if err != nil {
			return storeError(err)
		}

		objects, err := readObjects(path)
		if err != nil {
			return handleError(ErrFileReadError, err, "")
		}

		s, err := openStore()
		if err != nil {
			return storeError(err)
		}
		defer s.Close()

		var spinner *ui.Spinner
		if !isJSONOutput() {
			spinner = ui.NewSpinner(fmt.Sprintf("Loading %d objects", len(objects)))
			spinner.Start()
		}
		scoType, err := s.Load(name, objects, loadType, loadQuery)
		if spinner != nil {
			spinner.Stop()
		}
		if err != nil {
			return storeError(err)
		}

		count, err := s.Count(name)
		if err != nil {
			return storeError(err)
		}

		if isJSONOutput() {
			outputSuccess(LoadResult{
				View:    name,
				Type:    scoType,
				Objects: len(objects),
				Rows:    count,
			}, &Meta{Count: count})
			return nil
		}
		fmt.Println(ui.Successf("Loaded %d objects into %s (%s)", len(objects), ui.ViewName(name), scoType))
		fmt.Println(ui.RowCount(count))
		return nil
	},
}

// readObjects parses a JSON file into flattened objects. Accepts either a
// bare array or an "objects"-keyed wrapper like a STIX bundle.
func readObjects(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var objects []map[string]any
	if err := json.Unmarshal(data, &objects); err == nil {
		return objects, nil
	}

	var wrapper struct {
		Objects []map[string]any `json:"objects"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("%s is neither an object array nor a bundle: %w", path, err)
	}
	if wrapper.Objects == nil {
		return nil, fmt.Errorf("%s has no \"objects\" array", path)
	}
	return wrapper.Objects, nil
}

func init() {
	loadCmd.Flags().StringVar(&loadAs, "as", "", "View name to register over the loaded rows")
	loadCmd.Flags().StringVarP(&loadType, "type", "t", "", "SCO type for objects without a type field")
	loadCmd.Flags().StringVar(&loadQuery, "query-id", "", "Query id to tag rows with (default: generated)")
	rootCmd.AddCommand(loadCmd)
}
