package main

import (
	"fmt"

	goversion "github.com/caarlos0/go-version"
	"github.com/spf13/cobra"
)

const asciiName = `
  _         _
 | | _____ | |__   __ _  ___ _ __
 | |/ / _ \| '_ \ / _' |/ _ \ '_ \
 |   < (_) | |_) | (_| |  __/ | | |
 |_|\_\___/|_.__/ \__, |\___|_| |_|
                  |___/
`

func buildVersion() goversion.Info {
	return goversion.GetVersionInfo(
		goversion.WithAppDetails("kobgen", "Route and registration manifest compiler for Kobweb projects", ""),
		func(i *goversion.Info) {
			i.ASCIIName = asciiName
			if commit != "" {
				i.GitCommit = commit
			}
			if version != "" {
				i.GitVersion = version
			}
			if treeState != "" {
				i.GitTreeState = treeState
			}
			if date != "" {
				i.BuildDate = date
			}
			if builtBy != "" {
				i.BuiltBy = builtBy
			}
		},
	)
}

func versionCmd() *cobra.Command {
	var (
		short  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := buildVersion()
			switch {
			case short:
				fmt.Fprintln(stdout, v.GitVersion)
			case asJSON:
				data, err := v.JSONString()
				if err != nil {
					return err
				}
				fmt.Fprintln(stdout, data)
			default:
				fmt.Fprintln(stdout, v.String())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print version information as JSON")
	return cmd
}
