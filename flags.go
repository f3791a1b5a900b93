package ogimage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"
	"github.com/spf13/pflag"

	"github.com/vircadia/ogimage/cache"
	"github.com/vircadia/ogimage/render"
	"github.com/vircadia/ogimage/site"
)

// Default asset locations, relative to the site root
var (
	DefaultLogoPath   = filepath.Join("static", "img", "logo.png")
	DefaultFontPath   = filepath.Join("static", "font", "Manrope", "Manrope-VariableFont_wght.ttf")
	DefaultOutputPath = filepath.Join("static", "img", "og", "vircadia.png")
	DefaultStaticDir  = "static"
)

type AllFlags struct {
	GenerateOptions
	CacheOptions
	logger.Flags
}

type GenerateOptions struct {
	Root             string
	LogoPath         string
	FontPath         string
	Tagline          string
	SiteConfig       string
	OutputPath       string
	Backend          string
	RasterizerScript string
	InstallBrowsers  bool
	ChromePath       string
	NoSandbox        bool

	taglineSet bool
}

type CacheOptions struct {
	CacheTTL time.Duration
	NoCache  bool
	CacheDB  string
}

var Flags AllFlags = AllFlags{
	GenerateOptions: GenerateOptions{
		Root:            ".",
		Backend:         render.BackendAuto,
		InstallBrowsers: true,
	},
	CacheOptions: CacheOptions{
		CacheTTL: 7 * 24 * time.Hour,
	},
	Flags: logger.Flags{
		Level:        "info",
		LevelCount:   0,
		JsonLogs:     false,
		ReportCaller: false,
		LogToStderr:  true,
	},
}

// BindAllFlags adds every generator, cache and logger flag to the set
func BindAllFlags(flags *pflag.FlagSet) *AllFlags {
	flags.CountVarP(&Flags.Flags.LevelCount, "loglevel", "v", "Increase logging level")
	flags.StringVar(&Flags.Flags.Level, "log-level", "info", "Set the default log level")
	flags.BoolVar(&Flags.Flags.JsonLogs, "json-logs", false, "Print logs in json format to stderr")
	flags.BoolVar(&Flags.Flags.ReportCaller, "report-caller", false, "Report log caller info")
	flags.BoolVar(&Flags.Flags.LogToStderr, "log-to-stderr", true, "Log to stderr instead of stdout")

	flags.StringVar(&Flags.Root, "root", Flags.Root, "Site root the default paths are relative to")
	flags.StringVar(&Flags.LogoPath, "logo", "", "Logo image (default <root>/"+filepath.ToSlash(DefaultLogoPath)+")")
	flags.StringVar(&Flags.FontPath, "font", "", "Font file (default <root>/"+filepath.ToSlash(DefaultFontPath)+")")
	flags.Var(newTaglineValue(&Flags.GenerateOptions), "tagline", "Tagline text, overrides the site configuration")
	flags.StringVar(&Flags.SiteConfig, "site-config", "", "Site configuration to read the tagline from (default: docusaurus.config.ts or site.yaml in <root>)")
	flags.StringVarP(&Flags.OutputPath, "output", "o", "", "Output PNG (default <root>/"+filepath.ToSlash(DefaultOutputPath)+")")
	flags.StringVar(&Flags.Backend, "backend", Flags.Backend, "Renderer: "+strings.Join(render.Backends, ", "))
	flags.StringVar(&Flags.RasterizerScript, "rasterizer-script", "", "Path to an html-to-image browser build injected into the page")
	flags.BoolVar(&Flags.InstallBrowsers, "install-browsers", Flags.InstallBrowsers, "Install the playwright driver and chromium when missing")
	flags.StringVar(&Flags.ChromePath, "chrome", "", "Chrome binary used by the chromedp backend")
	flags.BoolVar(&Flags.NoSandbox, "no-sandbox", false, "Disable the chrome sandbox (needed as root in containers)")

	flags.DurationVar(&Flags.CacheTTL, "cache-ttl", Flags.CacheTTL, "Cache TTL for rendered images (0 keeps them forever)")
	flags.BoolVar(&Flags.NoCache, "no-cache", false, "Disable the render cache")
	flags.StringVar(&Flags.CacheDB, "cache-db", "", "Render cache database (default ~/.cache/ogimage.db)")

	return &Flags
}

// UseFlags configures logging from the parsed flags
func (a AllFlags) UseFlags() {
	logger.Configure(a.Flags)
	logger.Debugf("Using flags: root=%s backend=%s no-cache=%v", a.Root, a.Backend, a.NoCache)
}

// Manager builds the renderer set configured by the flags
func (o GenerateOptions) Manager() *render.Manager {
	return render.NewManager(
		render.NewPlaywrightRenderer(render.PlaywrightOptions{InstallBrowsers: o.InstallBrowsers}),
		render.NewChromedpRenderer(render.ChromedpOptions{ExecPath: o.ChromePath, NoSandbox: o.NoSandbox}),
		render.NewNativeRenderer(),
	)
}

// Cache opens the render cache configured by the flags
func (o CacheOptions) Cache() (*cache.Cache, error) {
	return cache.New(cache.Config{
		DBPath:  o.CacheDB,
		TTL:     o.CacheTTL,
		NoCache: o.NoCache,
	})
}

// Params resolves the options into generator parameters, filling the site
// layout defaults and reading the tagline from the site configuration
func (o GenerateOptions) Params() (Params, error) {
	if !lo.Contains(render.Backends, o.Backend) {
		return Params{}, fmt.Errorf("unknown backend %q, expected one of %s", o.Backend, strings.Join(render.Backends, ", "))
	}

	root := o.Root
	if root == "" {
		root = "."
	}
	fromRoot := func(value, def string) string {
		if value != "" {
			return value
		}
		return filepath.Join(root, def)
	}

	params := Params{
		LogoPath:         fromRoot(o.LogoPath, DefaultLogoPath),
		FontPath:         fromRoot(o.FontPath, DefaultFontPath),
		OutputPath:       o.OutputPath,
		Tagline:          o.Tagline,
		Backend:          o.Backend,
		RasterizerScript: o.RasterizerScript,
	}

	var config *site.Config
	configPath := o.SiteConfig
	if configPath == "" {
		configPath, _ = site.Find(root)
	}
	if configPath != "" {
		loaded, err := site.Load(configPath)
		if err != nil {
			return Params{}, err
		}
		config = loaded
		logger.Debugf("loaded site config %s", configPath)
	}

	if !o.taglineSet && config != nil {
		params.Tagline = config.Tagline
	}
	if params.OutputPath == "" {
		if config != nil {
			params.OutputPath = config.OGImagePath(filepath.Join(root, DefaultStaticDir))
		}
		if params.OutputPath == "" {
			params.OutputPath = filepath.Join(root, DefaultOutputPath)
		}
	}
	return params, nil
}

// taglineValue records whether --tagline was given, an explicit empty tagline is valid
type taglineValue struct {
	options *GenerateOptions
}

func newTaglineValue(options *GenerateOptions) *taglineValue {
	return &taglineValue{options: options}
}

func (v *taglineValue) String() string {
	if v.options == nil {
		return ""
	}
	return v.options.Tagline
}

func (v *taglineValue) Set(s string) error {
	v.options.Tagline = s
	v.options.taglineSet = true
	return nil
}

func (v *taglineValue) Type() string {
	return "string"
}

// WithTagline returns a copy with an explicit tagline
func (o GenerateOptions) WithTagline(tagline string) GenerateOptions {
	o.Tagline = tagline
	o.taglineSet = true
	return o
}
