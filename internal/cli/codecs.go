package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"

	"github.com/mgpai22/subsail/internal/subtitle"
)

var codecsFilter string

var codecsCmd = &cobra.Command{
	Use:   "codecs",
	Short: "List fallback codec names",
	Long: `List the single-byte and Unicode codecs that can be used as the fallback
codec (config key subtitles.fallback_codec or --codec). Aliases such as
"latin1" or "cp1251" are accepted too.

Examples:
  subsail codecs
  subsail codecs --filter cyrillic`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipConfig: "true"},
	RunE:        runCodecs,
}

func init() {
	rootCmd.AddCommand(codecsCmd)
	codecsCmd.Flags().
		StringVarP(&codecsFilter, "filter", "f", "", "Only show codecs whose name or description contains this text")
}

type codecInfo struct {
	name        string
	description string
}

func listCodecs() []codecInfo {
	seen := make(map[string]bool)
	var out []codecInfo

	add := func(enc encoding.Encoding, description string) {
		name, err := htmlindex.Name(enc)
		if err != nil {
			if name, err = ianaindex.IANA.Name(enc); err != nil {
				return
			}
		}
		if _, canonical, err := subtitle.LookupCodec(name); err != nil || canonical != name {
			return
		}
		if seen[name] {
			return
		}
		seen[name] = true
		out = append(out, codecInfo{name: name, description: description})
	}

	add(unicode.UTF8, "Unicode UTF-8")
	add(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), "Unicode UTF-16 little endian")
	add(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), "Unicode UTF-16 big endian")
	add(utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), "Unicode UTF-32 little endian")
	add(utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), "Unicode UTF-32 big endian")

	for _, enc := range charmap.All {
		cm, ok := enc.(*charmap.Charmap)
		if !ok {
			continue
		}
		add(cm, cm.String())
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func filterCodecs(codecs []codecInfo, query string) []codecInfo {
	query = strings.TrimSpace(query)
	if query == "" {
		return codecs
	}
	fold := cases.Fold()
	q := fold.String(query)
	var out []codecInfo
	for _, c := range codecs {
		if strings.Contains(fold.String(c.name), q) || strings.Contains(fold.String(c.description), q) {
			out = append(out, c)
		}
	}
	return out
}

func runCodecs(cmd *cobra.Command, args []string) error {
	codecs := filterCodecs(listCodecs(), codecsFilter)
	if len(codecs) == 0 {
		return fmt.Errorf("no codec matches %q", codecsFilter)
	}

	rows := make([][]string, 0, len(codecs))
	for _, c := range codecs {
		marker := ""
		if strings.EqualFold(c.name, subtitle.DefaultFallbackCodec) {
			marker = "default"
		}
		rows = append(rows, []string{c.name, c.description, marker})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Name", "Description", ""},
		rows,
		nil,
	))
	return nil
}
