package cmd

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/kiuryy/extbuild/pkg/buildsys"
)

var packCmd = &cobra.Command{
	Use:   "pack archive_name content_directory",
	Short: "Recursively packs the content of the passed directory into a .zip or .kar archive",
	Long: `Pass the name of the archive that should be generated and a directory with
the intended contents. Names ending in .kar produce a .kar archive, everything else a .zip.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return eris.New("Expected 2 arguments!")
		}

		format := buildsys.ArchiveZip
		if strings.EqualFold(filepath.Ext(args[0]), ".kar") {
			format = buildsys.ArchiveKar
		}

		return buildsys.Package(args[1], args[0], format)
	},
}

func init() {
	rootCmd.AddCommand(packCmd)
}
