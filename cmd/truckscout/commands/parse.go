package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/truckscout/internal/listing"
	"github.com/jmylchreest/truckscout/internal/normalize"
	"github.com/jmylchreest/truckscout/internal/output"
)

var parseCmd = &cobra.Command{
	Use:   "parse <detail.html>",
	Short: "Parse a saved listing detail page",
	Long: `Parse reads a detail page saved from the site and prints the fields
that can be read from it. Nothing is fetched: phone and images stay empty
unless --phone or --gallery point to saved AJAX fragments.

Examples:
  truckscout parse listing.html
  truckscout parse listing.html --phone phone.html --gallery gallery.html --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	flags := parseCmd.Flags()
	flags.String("href", "", "listing URL recorded in the output")
	flags.String("phone", "", "saved phone fragment")
	flags.String("gallery", "", "saved gallery fragment (URLs are printed to stderr)")
	flags.Int("max-images", 3, "gallery URLs to list")
	flags.String("number-format", string(normalize.FormatLocale), "number parsing: locale, legacy")
	flags.String("format", string(output.FormatJSON), "output format: json, jsonl, yaml")
}

func runParse(cmd *cobra.Command, args []string) error {
	initLogger()
	flags := cmd.Flags()

	numberFormat, _ := flags.GetString("number-format")
	numbers, err := normalize.NewParser(normalize.Format(numberFormat))
	if err != nil {
		return err
	}

	body, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read page: %w", err)
	}
	rec, err := listing.NewParser(numbers).Parse(string(body))
	if err != nil {
		return err
	}
	rec.Href, _ = flags.GetString("href")

	if path, _ := flags.GetString("phone"); path != "" {
		frag, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read phone fragment: %w", err)
		}
		if rec.Phone, err = listing.ParsePhone(string(frag)); err != nil {
			return err
		}
	}

	if path, _ := flags.GetString("gallery"); path != "" {
		frag, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read gallery fragment: %w", err)
		}
		limit, _ := flags.GetInt("max-images")
		urls, err := listing.ParseImageURLs(string(frag), limit)
		if err != nil {
			return err
		}
		for i, u := range urls {
			fmt.Fprintf(cmd.ErrOrStderr(), "image %d: %s\n", i+1, u)
		}
	}

	formatStr, _ := flags.GetString("format")
	w, err := output.NewWriter(cmd.OutOrStdout(), output.Format(formatStr))
	if err != nil {
		return err
	}
	if err := w.Write(rec); err != nil {
		return err
	}
	return w.Close()
}
