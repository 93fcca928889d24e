package policies

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/marcelsud/integration-pipeline/retry"
	"gopkg.in/yaml.v3"
)

/* Loader manages call site configuration from policies.yaml
 * It starts with the built-in defaults and the file overrides them by name
 */

// Config represents the structure of policies.yaml
type Config struct {
	CallSites []CallSiteConfig `yaml:"call_sites"`
}

// CallSiteConfig represents a single call site in the YAML file
type CallSiteConfig struct {
	Name        string   `yaml:"name"`
	MaxAttempts int      `yaml:"max_attempts"`
	Backoff     []string `yaml:"backoff"` // Go durations: "10s", "24h"
	Timeout     string   `yaml:"timeout"`
}

// ErrNotFound is returned when a call site is not configured
var ErrNotFound = errors.New("call site not found")

// Loader holds the loaded call sites
type Loader struct {
	sites map[string]*CallSite
}

// NewLoader creates a loader holding the defaults
func NewLoader() *Loader {
	l := &Loader{sites: make(map[string]*CallSite)}
	for _, site := range Defaults() {
		l.sites[site.Name] = site
	}
	return l
}

// Load reads and parses the policies file
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading policies file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing policies YAML: %w", err)
	}

	loaded := make(map[string]*CallSite, len(config.CallSites))
	for _, cc := range config.CallSites {
		site, err := cc.toCallSite()
		if err != nil {
			return fmt.Errorf("validating call site: %w", err)
		}
		if _, dup := loaded[site.Name]; dup {
			return fmt.Errorf("validating call site: %s declared twice", site.Name)
		}
		loaded[site.Name] = site
	}

	for name, site := range loaded {
		l.sites[name] = site
	}
	return nil
}

// LoadIfExists is Load that keeps the defaults when the file is missing
func (l *Loader) LoadIfExists(filePath string) error {
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return l.Load(filePath)
}

// Get retrieves a call site by name
func (l *Loader) Get(name string) (*CallSite, error) {
	site, exists := l.sites[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return site, nil
}

// Policy returns the retry policy of a call site
func (l *Loader) Policy(name string) (retry.Policy, error) {
	site, err := l.Get(name)
	if err != nil {
		return retry.Policy{}, err
	}
	return site.Policy(), nil
}

// List returns all call sites sorted by name
func (l *Loader) List() []*CallSite {
	sites := make([]*CallSite, 0, len(l.sites))
	for _, site := range l.sites {
		sites = append(sites, site)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].Name < sites[j].Name })
	return sites
}

// Exists checks if a call site is configured
func (l *Loader) Exists(name string) bool {
	_, exists := l.sites[name]
	return exists
}

func (cc CallSiteConfig) toCallSite() (*CallSite, error) {
	site := &CallSite{Name: cc.Name, MaxAttempts: cc.MaxAttempts}

	for _, raw := range cc.Backoff {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid backoff %q for call site %s: %w", raw, cc.Name, err)
		}
		site.Backoff = append(site.Backoff, d)
	}

	site.Timeout = 30 * time.Second
	if cc.Timeout != "" {
		d, err := time.ParseDuration(cc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q for call site %s: %w", cc.Timeout, cc.Name, err)
		}
		site.Timeout = d
	}

	if err := site.Validate(); err != nil {
		return nil, err
	}
	return site, nil
}
