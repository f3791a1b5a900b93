package site

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the subset of the site configuration the preview image needs
type Config struct {
	Title       string      `yaml:"title" json:"title"`
	Tagline     string      `yaml:"tagline" json:"tagline"`
	URL         string      `yaml:"url" json:"url"`
	ThemeConfig ThemeConfig `yaml:"themeConfig" json:"themeConfig"`
}

type ThemeConfig struct {
	// Image is the social card path relative to the static directory
	Image string `yaml:"image" json:"image"`
}

// DefaultConfigFiles are probed, in order, when no config path is given
var DefaultConfigFiles = []string{
	"docusaurus.config.ts",
	"docusaurus.config.js",
	"docusaurus.config.mjs",
	"site.yaml",
	"site.yml",
	"site.json",
}

// Load reads a site configuration. YAML and JSON are decoded directly, Docusaurus
// TypeScript/JavaScript configs have their string fields extracted.
func Load(file string) (*Config, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read site config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml", ".json":
		var config Config
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse site config %s: %w", file, err)
		}
		return &config, nil
	case ".ts", ".js", ".mjs", ".cjs":
		return parseScript(string(data)), nil
	default:
		return nil, fmt.Errorf("unsupported site config format: %s", file)
	}
}

// Find returns the first default config file present in root
func Find(root string) (string, bool) {
	for _, name := range DefaultConfigFiles {
		candidate := filepath.Join(root, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// OGImagePath resolves the configured social card inside staticDir. It returns
// "" when the config does not name one.
func (c *Config) OGImagePath(staticDir string) string {
	if c.ThemeConfig.Image == "" || strings.Contains(c.ThemeConfig.Image, "://") {
		return ""
	}
	clean := path.Clean("/" + c.ThemeConfig.Image)
	return filepath.Join(staticDir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
}

func fieldPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^\s*` + name + `\s*:\s*(?:"((?:[^"\\]|\\.)*)"|'((?:[^'\\]|\\.)*)'|` + "`([^`]*)`" + `)`)
}

var (
	titlePattern   = fieldPattern("title")
	taglinePattern = fieldPattern("tagline")
	urlPattern     = fieldPattern("url")
	imagePattern   = fieldPattern("image")
)

var unescaper = strings.NewReplacer(`\"`, `"`, `\'`, `'`, `\\`, `\`, `\n`, "\n", `\t`, "\t")

// firstString returns the first literal assigned to the field; top-level fields
// precede nested ones in a Docusaurus config, commented-out lines never match
func firstString(pattern *regexp.Regexp, src string) string {
	match := pattern.FindStringSubmatch(src)
	if match == nil {
		return ""
	}
	switch {
	case match[1] != "":
		return unescaper.Replace(match[1])
	case match[2] != "":
		return unescaper.Replace(match[2])
	default:
		return match[3]
	}
}

func parseScript(src string) *Config {
	return &Config{
		Title:   firstString(titlePattern, src),
		Tagline: firstString(taglinePattern, src),
		URL:     firstString(urlPattern, src),
		ThemeConfig: ThemeConfig{
			Image: firstString(imagePattern, src),
		},
	}
}
