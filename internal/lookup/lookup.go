// Package lookup answers "what will the app show for this key?" from the
// files the pipeline wrote, the way the runtime i18n layer reads them.
//
// Values are layered root locale first, then more specific locales, over the
// extract defaults; an empty default shows the key itself. Counts pick
// between "K" and "K_plural" with the CLDR plural rules of the locale, and
// "{{name}}" interpolations are filled from the supplied data.
package lookup

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"contentkit/internal/extract"
	"contentkit/internal/jsonfile"
	"contentkit/internal/translate"
)

const (
	pluralSuffix = "_plural"
	leftDelim    = "[["
	rightDelim   = "]]"
	// OriginDefault marks a value taken from the extract files.
	OriginDefault = "default"
)

var interpolation = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Result is a resolved display string.
type Result struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	// MessageID is the key actually rendered, including a plural suffix.
	MessageID string `json:"message_id"`
	Value     string `json:"value"`
	// Origin is the locale code whose file supplied the value, OriginDefault,
	// or empty when nothing matched and the key is shown as-is.
	Origin string `json:"origin,omitempty"`
}

// Found reports whether any file supplied the value.
func (r Result) Found() bool { return r.Origin != "" }

// Lookup reads extract and locale output trees.
type Lookup struct {
	extractDirs []string
	outputDir   string
}

// New builds a Lookup over the given directories.
func New(extractDirs []string, outputDir string) *Lookup {
	return &Lookup{extractDirs: extractDirs, outputDir: outputDir}
}

// Query describes one lookup. Count is optional.
type Query struct {
	Namespace string
	Key       string
	Locale    string
	Count     *int
	Data      map[string]any
}

type layer struct {
	origin string
	values map[string]string
}

// Resolve renders q.Key for q.Locale.
func (l *Lookup) Resolve(q Query) (Result, error) {
	if strings.TrimSpace(q.Namespace) == "" || q.Key == "" {
		return Result{}, errors.New("lookup: namespace and key are required")
	}
	locale := translate.ParseLocale(q.Locale)

	layers, err := l.layers(q.Namespace, locale)
	if err != nil {
		return Result{}, err
	}
	merged := map[string]string{}
	origins := map[string]string{}
	for _, lay := range layers {
		for key, value := range lay.values {
			if value == "" {
				continue
			}
			merged[key] = value
			origins[key] = lay.origin
		}
	}

	result := Result{Namespace: q.Namespace, Key: q.Key, MessageID: q.Key}
	singular, hasSingular := merged[q.Key]
	if q.Count != nil && *q.Count != 1 {
		if _, ok := merged[q.Key+pluralSuffix]; ok {
			result.MessageID = q.Key + pluralSuffix
		}
	}
	if !hasSingular && result.MessageID == q.Key {
		result.Value = q.Key
		return result, nil
	}
	result.Origin = origins[result.MessageID]

	tag := pluralTag(locale)
	bundle := i18n.NewBundle(tag)
	message := &i18n.Message{
		ID:         q.Key,
		LeftDelim:  leftDelim,
		RightDelim: rightDelim,
		Other:      toTemplate(merged[result.MessageID]),
	}
	if q.Count != nil {
		one := singular
		if one == "" {
			one = merged[result.MessageID]
		}
		message.One = toTemplate(one)
		message.Other = toTemplate(valueOr(merged[q.Key+pluralSuffix], one))
	}
	if err := bundle.AddMessages(tag, message); err != nil {
		return Result{}, fmt.Errorf("lookup: add message %q: %w", q.Key, err)
	}

	data := make(map[string]any, len(q.Data)+1)
	for k, v := range q.Data {
		data[k] = v
	}
	cfg := &i18n.LocalizeConfig{MessageID: q.Key, TemplateData: data}
	if q.Count != nil {
		data["count"] = *q.Count
		cfg.PluralCount = *q.Count
	}
	value, err := i18n.NewLocalizer(bundle, tag.String()).Localize(cfg)
	if err != nil {
		return Result{}, fmt.Errorf("lookup: localize %q: %w", q.Key, err)
	}
	result.Value = value
	return result, nil
}

// layers returns defaults, then locale files from the root of the chain to
// the requested code.
func (l *Lookup) layers(namespace string, locale translate.Locale) ([]layer, error) {
	defaults := map[string]string{}
	for i := len(l.extractDirs) - 1; i >= 0; i-- {
		file, err := extract.Read(l.extractDirs[i], namespace)
		if err != nil {
			if jsonfile.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("lookup: read extract: %w", err)
		}
		for key, value := range file {
			if value == "" {
				value = key
			}
			defaults[key] = value
		}
	}
	layers := []layer{{origin: OriginDefault, values: defaults}}

	chain := locale.Chain()
	for i := len(chain) - 1; i >= 0; i-- {
		path := filepath.Join(l.outputDir, chain[i], namespace+".json")
		values, err := jsonfile.ReadStrings(path)
		if err != nil {
			if jsonfile.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("lookup: read %s: %w", path, err)
		}
		layers = append(layers, layer{origin: chain[i], values: values})
	}
	return layers, nil
}

// pluralTag picks the first code of the chain that parses, so plural rules
// follow the most specific known language.
func pluralTag(locale translate.Locale) language.Tag {
	for _, code := range locale.Chain() {
		if tag := translate.ParseLocale(code).Tag(); tag != language.Und {
			return tag
		}
	}
	return language.English
}

// toTemplate rewrites "{{name}}" interpolations to the bundle's delimiters.
func toTemplate(value string) string {
	return interpolation.ReplaceAllString(value, leftDelim+".$1"+rightDelim)
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
