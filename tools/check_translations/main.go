// Command check_translations сверяет ключи переводов в коде с locales/*.json.
//
//	go run ./tools/check_translations -path .
//
// Exits with 1 when code uses a key that a locale lacks, or when the
// locales disagree with each other.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// LocaleMap is a nested translation file
type LocaleMap map[string]interface{}

var (
	// utils.T(ctx, "key") и utils.T(ctx, "key", data)
	callKeyRegex = regexp.MustCompile(`utils\.T\s*\(\s*[^,]+,\s*"([^"]+)"`)
	// ключи, переданные строкой в хелперы вроде badRequest(w, r, "error.request.x")
	literalKeyRegex = regexp.MustCompile(`"(error\.[a-z_]+(?:\.[a-z_]+)+)"`)
)

// Report is the outcome of one check
type Report struct {
	Used    []string
	Missing map[string][]string
	Unused  map[string][]string
	// OnlyIn lists keys present in one locale and absent from another
	OnlyIn map[string][]string
}

// Failed reports whether the check should fail the build
func (r *Report) Failed() bool {
	for _, keys := range r.Missing {
		if len(keys) > 0 {
			return true
		}
	}
	for _, keys := range r.OnlyIn {
		if len(keys) > 0 {
			return true
		}
	}
	return false
}

func main() {
	var rootPath string
	flag.StringVar(&rootPath, "path", ".", "Project root path")
	flag.Parse()

	report, err := Check(rootPath, []string{"en", "ru"})
	if err != nil {
		fmt.Printf("Check failed: %v\n", err)
		os.Exit(1)
	}

	printReport(os.Stdout, report)
	if report.Failed() {
		os.Exit(1)
	}
}

// Check loads locales/<lang>.json under rootPath and compares them with
// the keys used by non-test Go files.
func Check(rootPath string, langs []string) (*Report, error) {
	used, err := findTranslationKeys(rootPath)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Used:    used,
		Missing: map[string][]string{},
		Unused:  map[string][]string{},
		OnlyIn:  map[string][]string{},
	}

	all := map[string][]string{}
	for _, lang := range langs {
		localeMap, err := loadLocaleFile(filepath.Join(rootPath, "locales", lang+".json"))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s locale: %w", lang, err)
		}
		keys := getAllKeys(localeMap, "")
		sort.Strings(keys)
		all[lang] = keys

		missing, unused := lo.Difference(used, keys)
		report.Missing[lang] = missing
		report.Unused[lang] = unused
	}

	for _, lang := range langs {
		for _, other := range langs {
			if lang == other {
				continue
			}
			only, _ := lo.Difference(all[lang], all[other])
			report.OnlyIn[lang] = lo.Uniq(append(report.OnlyIn[lang], only...))
		}
	}

	return report, nil
}

func printReport(w io.Writer, report *Report) {
	fmt.Fprintf(w, "Found %d translation keys in the code\n", len(report.Used))

	for _, lang := range lo.Keys(report.Missing) {
		if keys := report.Missing[lang]; len(keys) > 0 {
			fmt.Fprintf(w, "\nKeys missing in %s translation:\n", lang)
			for _, key := range keys {
				fmt.Fprintln(w, "  -", key)
			}
		}
		if keys := report.Unused[lang]; len(keys) > 0 {
			fmt.Fprintf(w, "\nUnused keys in %s translation (%d):\n", lang, len(keys))
			for _, key := range keys {
				fmt.Fprintln(w, "  -", key)
			}
		}
		if keys := report.OnlyIn[lang]; len(keys) > 0 {
			fmt.Fprintf(w, "\nKeys present only in %s:\n", lang)
			for _, key := range keys {
				fmt.Fprintln(w, "  -", key)
			}
		}
	}

	if !report.Failed() {
		fmt.Fprintln(w, "\nAll keys present in every translation!")
	}
}

// Get all keys from locale map recursively
func getAllKeys(localeMap LocaleMap, prefix string) []string {
	var result []string

	for key, value := range localeMap {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nestedMap, ok := value.(map[string]interface{}); ok {
			result = append(result, getAllKeys(LocaleMap(nestedMap), fullKey)...)
		} else {
			result = append(result, fullKey)
		}
	}

	return result
}

// Load locale file into a nested map
func loadLocaleFile(filePath string) (LocaleMap, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var result LocaleMap
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// findTranslationKeys собирает ключи из Go файлов, тесты не учитываются
func findTranslationKeys(rootPath string) ([]string, error) {
	keys := make(map[string]bool)

	err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Каталоги "_x", ".x", vendor и сам инструмент пропускаем
		if d.IsDir() {
			name := d.Name()
			if path != rootPath && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") ||
				name == "vendor" || name == "check_translations") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		for _, line := range strings.Split(string(content), "\n") {
			// Skip commented lines
			if strings.HasPrefix(strings.TrimSpace(line), "//") {
				continue
			}
			for _, re := range []*regexp.Regexp{callKeyRegex, literalKeyRegex} {
				for _, match := range re.FindAllStringSubmatch(line, -1) {
					keys[match[1]] = true
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := lo.Keys(keys)
	sort.Strings(result)
	return result, nil
}
