// Command validate checks ruleset JSON files before the server loads them.
// For every *.json file in the ruleset directory (or the files given as
// arguments) it reports:
//   - JSON structure and the engine's ruleset rules
//   - A file name that differs from the ruleset name
//   - Whether the whole fleet can actually be laid out on the board
//   - Board size, fleet size and coverage
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/battleship-server/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// layoutBudget bounds the backtracking search in fleetFits
const layoutBudget = 200000

// validateRuleset loads and checks a single ruleset file.
func validateRuleset(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var rules engine.Ruleset
	if err := json.Unmarshal(data, &rules); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateRuleset(&rules); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "ruleset validation: "))
		return result
	}

	id := strings.TrimSuffix(result.File, filepath.Ext(result.File))
	if id != rules.Name {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("File is served as %q but the ruleset is named %q", id, rules.Name))
	}
	if rules.Description == "" {
		result.Warnings = append(result.Warnings, "Description is empty")
	}

	lengths := make([]int, 0, len(rules.Fleet))
	for _, s := range rules.Fleet {
		lengths = append(lengths, s.Length)
	}
	switch fits, decided := fleetFits(rules.Width, rules.Height, lengths); {
	case !decided:
		result.Warnings = append(result.Warnings, "Could not confirm that the fleet fits on the board")
	case !fits:
		result.fail("Fleet cannot be laid out on a %dx%d board without overlap", rules.Width, rules.Height)
	}

	if result.Valid {
		cells := rules.FleetCells()
		area := rules.Width * rules.Height
		result.Info = append(result.Info,
			fmt.Sprintf("Name: %s", rules.Name),
			fmt.Sprintf("Board: %dx%d", rules.Width, rules.Height),
			fmt.Sprintf("Fleet: %d ships, %d cells", len(rules.Fleet), cells),
			fmt.Sprintf("Coverage: %.1f%%", float64(cells)*100/float64(area)),
		)
	}

	return result
}

// fleetFits reports whether ships of the given lengths can be placed on a
// width x height board as straight non-overlapping runs. decided is false
// when the search gave up before reaching an answer.
func fleetFits(width, height int, lengths []int) (fits, decided bool) {
	sorted := append([]int(nil), lengths...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	occupied := make([]bool, width*height)
	budget := layoutBudget

	free := func(x, y, length int, horizontal bool) bool {
		for i := 0; i < length; i++ {
			cx, cy := x, y
			if horizontal {
				cx += i
			} else {
				cy += i
			}
			if cx >= width || cy >= height || occupied[cy*width+cx] {
				return false
			}
		}
		return true
	}
	mark := func(x, y, length int, horizontal, v bool) {
		for i := 0; i < length; i++ {
			if horizontal {
				occupied[y*width+x+i] = v
			} else {
				occupied[(y+i)*width+x] = v
			}
		}
	}

	var place func(i int) bool
	place = func(i int) bool {
		if i == len(sorted) {
			return true
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				for _, horizontal := range []bool{true, false} {
					if budget--; budget < 0 {
						return false
					}
					if !free(x, y, sorted[i], horizontal) {
						continue
					}
					mark(x, y, sorted[i], horizontal, true)
					ok := place(i + 1)
					mark(x, y, sorted[i], horizontal, false)
					if ok {
						return true
					}
				}
			}
		}
		return false
	}

	fits = place(0)
	return fits, fits || budget >= 0
}

// collectFiles returns the explicit file arguments or every *.json in dir.
func collectFiles(dir string, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("error finding ruleset files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no ruleset files in %s", dir)
	}
	return files, nil
}

func printResult(result ValidationResult) {
	fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

	if result.Valid {
		fmt.Println("✅ VALID")
		for _, info := range result.Info {
			fmt.Println("  ✓ " + info)
		}
	} else {
		fmt.Println("❌ INVALID")
		for _, err := range result.Errors {
			fmt.Println("  ❌ " + err)
		}
	}
	for _, w := range result.Warnings {
		fmt.Println("  ⚠️  " + w)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	files, err := collectFiles(cmd.String("dir"), cmd.Args().Slice())
	if err != nil {
		return err
	}

	invalid := 0
	for _, file := range files {
		result := validateRuleset(file)
		printResult(result)
		if !result.Valid {
			invalid++
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if invalid > 0 {
		return fmt.Errorf("%d of %d rulesets have errors", invalid, len(files))
	}
	fmt.Println("✅ All rulesets are valid!")
	return nil
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate battleship ruleset files",
		ArgsUsage: "[file.json ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: "configs", Usage: "Directory scanned when no files are given", Sources: cli.EnvVars("CONFIG_DIR")},
		},
		Action: run,
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}
