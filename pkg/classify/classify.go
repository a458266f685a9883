// Package classify decides whether a generator script produces printable
// static geometry or animated content.
//
// The decision is heuristic: an ordered table of text rules runs over the
// comment-masked script and every rule that fires contributes a feature tag.
// An explicit printable flag in the script always wins over later rules.
// Classification never fails.
package classify

import (
	"time"

	"github.com/dlclark/regexp2"
	"go.uber.org/zap"

	"github.com/goliatone/go-paramkit/internal/jsliteral"
)

// Confidence grades how certain a classification is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Feature tags reported in Classification.DetectedFeatures.
const (
	FeatureExplicitNonPrintable = "explicit-non-printable-flag"
	FeatureExplicitPrintable    = "explicit-printable-flag"
	FeatureAnimateFunction      = "animate-function"
	FeatureSceneGroupReturn     = "scene-group-return"
	FeatureParticleSystem       = "particle-system"
	FeatureShaderMaterial       = "shader-material"
	FeatureSprite               = "sprite"
	FeaturePostProcessing       = "post-processing"
	FeatureBufferGeometryReturn = "buffer-geometry-return"
	FeatureRenderLoop           = "render-loop"
	FeatureTimeParameter        = "time-parameter"
)

// Classification is the outcome for one script.
type Classification struct {
	IsPrintable      bool       `json:"isPrintable" yaml:"isPrintable"`
	Confidence       Confidence `json:"confidence" yaml:"confidence"`
	DetectedFeatures []string   `json:"detectedFeatures" yaml:"detectedFeatures"`
}

const matchTimeout = 250 * time.Millisecond

// verdict is the running state the rule table mutates.
type verdict struct {
	printable  bool
	confidence Confidence
	explicit   bool
	features   []string
}

func (v *verdict) nonPrintable() {
	if v.explicit {
		return
	}
	v.printable = false
	v.confidence = ConfidenceHigh
}

type rule struct {
	tag string
	// all patterns must match for the rule to fire
	patterns []*regexp2.Regexp
	apply    func(*verdict)
	// only the first rule to fire in a group applies
	group string
}

func mustPattern(expr string) *regexp2.Regexp {
	re := regexp2.MustCompile(expr, regexp2.None)
	re.MatchTimeout = matchTimeout
	return re
}

var rules = []rule{
	{
		tag:      FeatureExplicitNonPrintable,
		group:    "explicit",
		patterns: []*regexp2.Regexp{mustPattern(`(?<![\w$])['"]?(?:isPrintable|printable)['"]?\s*(?::|=(?!=))\s*false\b`)},
		apply: func(v *verdict) {
			v.printable = false
			v.confidence = ConfidenceHigh
			v.explicit = true
		},
	},
	{
		tag:      FeatureExplicitPrintable,
		group:    "explicit",
		patterns: []*regexp2.Regexp{mustPattern(`(?<![\w$])['"]?(?:isPrintable|printable)['"]?\s*(?::|=(?!=))\s*true\b`)},
		apply: func(v *verdict) {
			v.printable = true
			v.confidence = ConfidenceHigh
			v.explicit = true
		},
	},
	{
		tag: FeatureAnimateFunction,
		patterns: []*regexp2.Regexp{mustPattern(
			`(?m)\bfunction\s+animate\s*\(` +
				`|(?<![\w$])animate\s*(?::|=(?![=>]))\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*=>|[A-Za-z_$][\w$]*\s*=>)` +
				`|(?:^|[{,])\s*(?:async\s+)?animate\s*\([^)]*\)\s*\{`,
		)},
		apply: (*verdict).nonPrintable,
	},
	{
		tag:      FeatureSceneGroupReturn,
		patterns: []*regexp2.Regexp{mustPattern(`\breturn\s+(?:group|scene)\b`)},
		apply: func(v *verdict) {
			if v.explicit || !v.printable {
				return
			}
			v.confidence = ConfidenceMedium
		},
	},
	{
		tag:      FeatureParticleSystem,
		patterns: []*regexp2.Regexp{mustPattern(`\bPoints(?:Material)?\b|\bparticles\b`)},
		apply:    (*verdict).nonPrintable,
	},
	{
		tag:      FeatureShaderMaterial,
		patterns: []*regexp2.Regexp{mustPattern(`\b(?:Raw)?ShaderMaterial\b`)},
		apply:    (*verdict).nonPrintable,
	},
	{
		tag:      FeatureSprite,
		patterns: []*regexp2.Regexp{mustPattern(`\bSprite(?:Material)?\b`)},
		apply:    (*verdict).nonPrintable,
	},
	{
		tag:      FeaturePostProcessing,
		patterns: []*regexp2.Regexp{mustPattern(`\b(?:EffectComposer|RenderPass|UnrealBloomPass|ShaderPass)\b`)},
		apply:    (*verdict).nonPrintable,
	},
	{
		tag: FeatureBufferGeometryReturn,
		patterns: []*regexp2.Regexp{
			mustPattern(`\breturn\s+geometry\b`),
			mustPattern(`\bnew\s+(?:THREE\s*\.\s*)?\w*BufferGeometry\b`),
		},
		apply: func(v *verdict) {
			if v.explicit || !v.printable {
				return
			}
			v.confidence = ConfidenceHigh
		},
	},
	{
		tag:      FeatureRenderLoop,
		patterns: []*regexp2.Regexp{mustPattern(`\brequestAnimationFrame\b`)},
		apply:    (*verdict).nonPrintable,
	},
	{
		tag: FeatureTimeParameter,
		patterns: []*regexp2.Regexp{mustPattern(
			`\bcreateGeometry\s*(?:[=:]\s*(?:async\s+)?(?:function\s*)?)?\(\s*(?:[^()]*,\s*)?time\b`,
		)},
		apply: (*verdict).nonPrintable,
	},
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Classifier runs the rule table. The zero value is not usable; use New.
type Classifier struct {
	logger *zap.Logger
}

// New constructs a Classifier.
func New(options ...Option) *Classifier {
	c := &Classifier{logger: zap.NewNop()}
	for _, option := range options {
		if option != nil {
			option(c)
		}
	}
	return c
}

// Classify runs the default classifier over text.
func Classify(text string) Classification {
	return New().Classify(text)
}

// Classify evaluates every rule in order against text.
func (c *Classifier) Classify(text string) Classification {
	masked := jsliteral.MaskComments([]rune(text))

	v := verdict{printable: true}
	fired := make(map[string]bool)
	for _, r := range rules {
		if r.group != "" && fired[r.group] {
			continue
		}
		if !matchesAll(masked, r.patterns, c.logger) {
			continue
		}
		if r.group != "" {
			fired[r.group] = true
		}
		v.features = append(v.features, r.tag)
		r.apply(&v)
	}

	if len(v.features) == 0 || v.confidence == "" {
		v.confidence = ConfidenceLow
	}
	if v.features == nil {
		v.features = []string{}
	}

	c.logger.Debug("classified script",
		zap.Bool("printable", v.printable),
		zap.String("confidence", string(v.confidence)),
		zap.Strings("features", v.features),
	)
	return Classification{
		IsPrintable:      v.printable,
		Confidence:       v.confidence,
		DetectedFeatures: v.features,
	}
}

func matchesAll(text []rune, patterns []*regexp2.Regexp, logger *zap.Logger) bool {
	for _, re := range patterns {
		ok, err := re.MatchRunes(text)
		if err != nil {
			logger.Debug("classifier rule timed out", zap.String("pattern", re.String()), zap.Error(err))
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}
