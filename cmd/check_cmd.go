// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/wikyd/sunspot/cmd/config"
	"github.com/wikyd/sunspot/internal/json"
	"github.com/wikyd/sunspot/pkg/setup"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check validates the configuration and lists the indexed fields of every declared class",
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, _ := pterm.DefaultSpinner.WithText("checking sunspot configuration...").Start()

		cfg, err := config.ParseConfig()
		if err != nil {
			sp.Fail(err.Error())
			return fmt.Errorf("parsing config: %w", err)
		}

		registry := setup.NewRegistry()
		if err := registry.LoadDeclarationsFile(cfg.DeclarationsFile); err != nil {
			sp.Fail(err.Error())
			return fmt.Errorf("loading declarations: %w", err)
		}

		report, err := newDeclarationsReport(registry)
		if err != nil {
			sp.Fail(err.Error())
			return err
		}
		sp.Success(fmt.Sprintf("%d classes declared in %s", len(report.Classes), cfg.DeclarationsFile))

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "\t")
			return enc.Encode(report)
		}
		return pterm.DefaultTable.WithHasHeader().WithData(report.tableData()).Render()
	},
	Example: `
	sunspot check --config config.yaml
	sunspot check --config config.env --json`,
}

type declarationsReport struct {
	Classes []classReport `json:"classes"`
}

type classReport struct {
	Name   string        `json:"name"`
	Types  []string      `json:"types"`
	Fields []fieldReport `json:"fields"`
}

type fieldReport struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Multiple    bool   `json:"multiple"`
	Virtual     bool   `json:"virtual"`
	Owner       string `json:"owner"`
	IndexedName string `json:"indexed_name"`
}

func newDeclarationsReport(registry *setup.Registry) (*declarationsReport, error) {
	report := &declarationsReport{Classes: []classReport{}}
	for _, name := range registry.Classes() {
		class, _ := registry.Lookup(name)
		set, err := registry.Resolve(class)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", name, err)
		}

		cr := classReport{
			Name:   name,
			Types:  registry.ConfiguredTypes(class),
			Fields: []fieldReport{},
		}
		for _, d := range set.Declarations() {
			indexedName, err := d.IndexedName()
			if err != nil {
				return nil, fmt.Errorf("resolving %s.%s: %w", name, d.Name, err)
			}
			cr.Fields = append(cr.Fields, fieldReport{
				Name:        d.Name,
				Type:        d.Type.String(),
				Multiple:    d.Multiple,
				Virtual:     d.IsVirtual(),
				Owner:       d.Owner.Name(),
				IndexedName: indexedName,
			})
		}
		report.Classes = append(report.Classes, cr)
	}
	return report, nil
}

func (r *declarationsReport) tableData() pterm.TableData {
	data := pterm.TableData{{"class", "types", "field", "type", "multiple", "indexed name"}}
	for _, c := range r.Classes {
		for _, f := range c.Fields {
			data = append(data, []string{
				c.Name,
				strings.Join(c.Types, " "),
				f.Name,
				f.Type,
				strconv.FormatBool(f.Multiple),
				f.IndexedName,
			})
		}
	}
	return data
}
