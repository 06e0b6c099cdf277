package bootstrap

import (
	"fmt"

	"github.com/csinsight/ticket-classifier/internal/classifier"
	"github.com/csinsight/ticket-classifier/internal/config"
	"github.com/csinsight/ticket-classifier/internal/domain"
)

// EngineFactory builds classification engines per run. It satisfies
// runner.ClassifierFactory.
type EngineFactory struct {
	rules    *classifier.RuleTable
	ml       config.MLConfig
	recorder classifier.MatchRecorder
	logger   classifier.Logger
}

// NewEngineFactory creates the engine factory over a shared rule table. The
// recorder may be nil; engines then skip match timing.
func NewEngineFactory(rules *classifier.RuleTable, ml config.MLConfig, recorder classifier.MatchRecorder, logger classifier.Logger) *EngineFactory {
	return &EngineFactory{rules: rules, ml: ml, recorder: recorder, logger: logger}
}

// Build returns the engine for the requested name, bound to the given
// category mapping. Accepts both the short names used by the API ("rule",
// "ml") and the full engine identifiers stored in run metadata.
func (f *EngineFactory) Build(engine string, mapping domain.CategoryMapping) (classifier.Classifier, error) {
	switch engine {
	case "", "rule", "rule_based", domain.EngineRuleBased:
		var opts []classifier.RuleOption
		if f.recorder != nil {
			opts = append(opts, classifier.WithMatchRecorder(f.recorder))
		}
		return classifier.NewRuleBasedClassifier(f.rules, mapping, f.logger, opts...), nil
	case "ml", domain.EngineML:
		if !f.ml.Enabled {
			return nil, fmt.Errorf("ml engine is disabled")
		}
		return classifier.NewMLClassifier(f.ml.ServiceURL, f.ml.Timeout, f.rules, mapping, f.logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEngine, engine)
	}
}
