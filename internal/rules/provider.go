package rules

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/wonny/trendscore/pkg/logger"
)

// Provider resolves Rules per style and caches them
// ⭐ SSOT: 규칙 해석 순서 = 기본값 → 파일 → 프리셋 → 명시적 오버라이드
// Resolution never fails: a bad file falls back to the defaults and a preset
// key or override that would make the rules invalid is dropped on its own.
type Provider struct {
	path         string
	defaultStyle string
	overrides    Overrides
	logger       *logger.Logger

	mu     sync.RWMutex
	cache  map[string]resolved
	styles map[string]bool // 파일 기준 프리셋 이름, Reset 시 다시 읽음
}

type resolved struct {
	rules *Rules
	hash  string
}

// ProviderOption configures a Provider
type ProviderOption func(*Provider)

// WithFile sets the YAML rules file; an empty path means defaults only
func WithFile(path string) ProviderOption {
	return func(p *Provider) { p.path = path }
}

// WithStyle sets the style used when Get is called with an empty or unknown style
func WithStyle(style string) ProviderOption {
	return func(p *Provider) { p.defaultStyle = style }
}

// WithOverrides sets the explicit override layer
func WithOverrides(o Overrides) ProviderOption {
	return func(p *Provider) { p.overrides = o }
}

// WithLogger sets the logger
func WithLogger(log *logger.Logger) ProviderOption {
	return func(p *Provider) { p.logger = log }
}

// NewProvider creates a provider
func NewProvider(opts ...ProviderOption) *Provider {
	p := &Provider{
		defaultStyle: StyleBalanced,
		logger:       logger.Nop(),
		cache:        make(map[string]resolved),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.defaultStyle = strings.ToLower(strings.TrimSpace(p.defaultStyle))
	if p.defaultStyle == "" {
		p.defaultStyle = StyleBalanced
	}
	return p
}

// Path returns the configured rules file path
func (p *Provider) Path() string { return p.path }

// DefaultStyle returns the style used for empty requests
func (p *Provider) DefaultStyle() string { return p.defaultStyle }

// Get returns the rules for a style, resolving them on first use.
// The returned value is shared and must not be modified.
func (p *Provider) Get(style string) *Rules {
	return p.get(style).rules
}

// Version returns the hash of the rules Get(style) returns.
// It changes whenever a reload changes the effective rules.
func (p *Provider) Version(style string) string {
	return p.get(style).hash
}

func (p *Provider) get(style string) resolved {
	style = p.normalizeStyle(style)

	p.mu.RLock()
	cached, ok := p.cache[style]
	p.mu.RUnlock()
	if ok {
		return cached
	}

	entry := p.resolve(style)

	p.mu.Lock()
	defer p.mu.Unlock()
	// 동시에 해석된 경우 먼저 저장된 값을 유지
	if existing, ok := p.cache[style]; ok {
		return existing
	}
	p.cache[style] = entry
	return entry
}

// Reset clears the cache; the next Get re-reads the file
func (p *Provider) Reset() {
	p.mu.Lock()
	p.cache = make(map[string]resolved)
	p.styles = nil
	p.mu.Unlock()

	p.logger.Debug("Analyzer rules cache cleared")
}

// CachedStyles returns the styles currently cached
func (p *Provider) CachedStyles() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	styles := make([]string, 0, len(p.cache))
	for s := range p.cache {
		styles = append(styles, s)
	}
	return styles
}

// ResolveStyle returns the cache key a request for style maps to.
// Styles without a preset map to the default style.
func (p *Provider) ResolveStyle(style string) string { return p.normalizeStyle(style) }

func (p *Provider) normalizeStyle(style string) string {
	style = strings.ToLower(strings.TrimSpace(style))
	if style == "" || style == p.defaultStyle {
		return p.defaultStyle
	}
	if !p.knownStyles()[style] {
		p.logger.WithField("style", style).Debug("Unknown analyzer style, using default")
		return p.defaultStyle
	}
	return style
}

// knownStyles returns balanced plus the preset names of the rules file
func (p *Provider) knownStyles() map[string]bool {
	p.mu.RLock()
	styles := p.styles
	p.mu.RUnlock()
	if styles != nil {
		return styles
	}

	base := p.loadBase(p.logger.WithField("path", p.path))
	styles = map[string]bool{StyleBalanced: true}
	for name := range base.Presets {
		styles[strings.ToLower(name)] = true
	}

	p.mu.Lock()
	if p.styles == nil {
		p.styles = styles
	}
	styles = p.styles
	p.mu.Unlock()
	return styles
}

// resolve builds the rules for one style
func (p *Provider) resolve(style string) resolved {
	log := p.logger.WithFields(map[string]interface{}{
		"style": style,
		"path":  p.path,
	})

	r := p.loadBase(log)

	if style != StyleBalanced {
		if _, ok := r.Presets[style]; ok {
			r = p.applyPreset(r, style, log)
		} else {
			log.Warn("Unknown analyzer style preset, using unmodified rules")
		}
	}

	for _, f := range p.overrides.fields() {
		next, err := applyChecked(r, f.set)
		if err != nil {
			log.WithError(err).WithField("override", f.name).Warn("Rejected analyzer override")
			continue
		}
		r = next
	}

	for _, w := range Warn(r) {
		log.WithFields(map[string]interface{}{
			"code":    w.Code,
			"message": w.Message,
		}).Warn("Analyzer rules warning")
	}

	hash, _ := Hash(r)
	log.WithField("hash", hash).Info("Analyzer rules resolved")
	return resolved{rules: r, hash: hash}
}

// applyPreset applies the preset key by key, skipping keys that would
// leave the rules invalid
func (p *Provider) applyPreset(r *Rules, style string, log *logger.Logger) *Rules {
	preset := r.Presets[style]
	var unknown []string
	for _, k := range sortedKeys(preset) {
		set, known := presetSetters[k]
		if !known {
			unknown = append(unknown, k)
			continue
		}
		v := preset[k]
		next, err := applyChecked(r, func(c *Rules) { set(c, v) })
		if err != nil {
			log.WithError(err).WithField("key", k).Warn("Rejected analyzer preset key")
			continue
		}
		r = next
	}
	if len(unknown) > 0 {
		log.WithField("keys", unknown).Warn("Ignored unknown preset keys")
	}
	return r
}

// applyChecked returns a copy of r with set applied, or r itself when the
// copy fails validation
func applyChecked(r *Rules, set func(*Rules)) (*Rules, error) {
	c := r.Clone()
	set(c)
	if err := Validate(c); err != nil {
		return r, err
	}
	return c, nil
}
// loadBase returns defaults merged with the rules file (lenient decode)
func (p *Provider) loadBase(log *logger.Logger) *Rules {
	if p.path == "" {
		return Defaults()
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info("Analyzer rules file not found, using defaults")
		} else {
			log.WithError(err).Warn("Failed to read analyzer rules file, using defaults")
		}
		return Defaults()
	}

	r, err := Decode(data, false)
	if err != nil {
		log.WithError(err).Warn("Malformed analyzer rules file, using defaults")
		return Defaults()
	}

	if err := Validate(r); err != nil {
		log.WithError(err).Warn("Invalid analyzer rules file, using defaults")
		return Defaults()
	}
	return r
}
