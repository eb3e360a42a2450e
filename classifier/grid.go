package classifier

import (
	"math"

	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/ensemble"
	"github.com/sjwhitworth/golearn/filters"
	"github.com/sjwhitworth/golearn/trees"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo/core/model"

	"github.com/calt-laboratory/mlpipeline/config"
	"github.com/calt-laboratory/mlpipeline/pkg/errors"
	"github.com/calt-laboratory/mlpipeline/pkg/log"
)

// logUnboundParams reports configured hyperparameters the tree backend has
// no knob for, so a non-default value is visible instead of silently
// ignored.
func logUnboundParams(algorithm string, params []string) {
	l := log.With("classifier")
	l.Warn().
		Str("algorithm", algorithm).
		Strs("unbound_params", params).
		Msg("hyperparameters not supported by the tree backend are ignored")
}

// chiMergeSignificance is the significance level used when discretizing the
// numeric feature attributes for the golearn tree learners.
const chiMergeSignificance = 0.999

// pruneFraction is the hold-out fraction golearn's ID3 uses for reduced
// error pruning.
const pruneFraction = 0.6

// discretize trains a ChiMerge filter on the numeric attributes of grid and
// returns the filtered view plus the trained filter, so the same binning can
// be replayed on held-out data.
func discretize(grid base.FixedDataGrid) (base.FixedDataGrid, *filters.ChiMergeFilter, error) {
	filt := filters.NewChiMergeFilter(grid, chiMergeSignificance)
	for _, a := range base.NonClassFloatAttributes(grid) {
		if err := filt.AddAttribute(a); err != nil {
			return nil, nil, errors.Wrap(err, "adding attribute to ChiMerge filter")
		}
	}
	if err := filt.Train(); err != nil {
		return nil, nil, errors.Wrap(err, "training ChiMerge filter")
	}
	return base.NewLazilyFilteredInstances(grid, filt), filt, nil
}

// gridLabels extracts the class column of a grid as label strings.
func gridLabels(grid base.FixedDataGrid) ([]string, error) {
	classAttrs := grid.AllClassAttributes()
	if len(classAttrs) != 1 {
		return nil, errors.Newf("expected exactly one class attribute, got %d", len(classAttrs))
	}
	specs := base.ResolveAttributes(grid, classAttrs)
	var out []string
	err := grid.MapOverRows(specs, func(row [][]byte, _ int) (bool, error) {
		out = append(out, classAttrs[0].GetStringFromSysVal(row[0]))
		return true, nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return out, nil
}

// gridToMatrix converts the non-class attributes of a grid into a dense
// feature matrix and collects the class labels.
func gridToMatrix(grid base.FixedDataGrid) (*mat.Dense, []string, error) {
	attrs := base.NonClassAttributes(grid)
	if len(attrs) == 0 {
		return nil, nil, errors.New("grid has no feature attributes")
	}
	specs := base.ResolveAttributes(grid, attrs)

	var (
		data   []float64
		labels []string
		n      int
	)
	err := grid.MapOverRows(specs, func(row [][]byte, i int) (bool, error) {
		for _, cell := range row {
			data = append(data, base.UnpackBytesToFloat(cell))
		}
		labels = append(labels, base.GetClass(grid, i))
		n++
		return true, nil
	})
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	if n == 0 {
		return nil, nil, errors.ErrEmptyData
	}
	return mat.NewDense(n, len(attrs), data), labels, nil
}

// DecisionTreeClassifier adapts golearn's ID3 decision tree.
type DecisionTreeClassifier struct {
	state  *model.StateManager
	cfg    config.DecisionTree
	tree   *trees.ID3DecisionTree
	filter *filters.ChiMergeFilter
}

// NewDecisionTreeClassifier validates the configuration and constructs an
// unfitted adapter. The ID3 backend exposes only a prune fraction:
// splitRule, maxDepth, maxNodes and nodeSize are validated, logged as
// unbound and otherwise ignored.
func NewDecisionTreeClassifier(cfg config.DecisionTree) (*DecisionTreeClassifier, error) {
	if cfg.SplitRule != config.SplitRuleGini && cfg.SplitRule != config.SplitRuleEntropy {
		return nil, errors.NewValidationError("decisionTree.splitRule", "must be GINI or ENTROPY", cfg.SplitRule)
	}
	if cfg.MaxDepth <= 0 {
		return nil, errors.NewValidationError("decisionTree.maxDepth", "must be positive", cfg.MaxDepth)
	}
	logUnboundParams("decisionTree", []string{"split_rule", "max_depth", "max_nodes", "node_size"})
	return &DecisionTreeClassifier{state: model.NewStateManager(), cfg: cfg}, nil
}

// Fit induces the tree from a labeled dataframe. Numeric attributes are
// discretized first; the trained filter is kept for Predict.
func (c *DecisionTreeClassifier) Fit(train base.FixedDataGrid) error {
	filtered, filt, err := discretize(train)
	if err != nil {
		return err
	}
	tree := trees.NewID3DecisionTree(pruneFraction)
	if err := tree.Fit(filtered); err != nil {
		return errors.Wrap(err, "fitting decision tree")
	}
	c.tree = tree
	c.filter = filt
	c.state.SetFitted()
	return nil
}

// Predict returns the predicted class labels of the held-out dataframe.
func (c *DecisionTreeClassifier) Predict(test base.FixedDataGrid) ([]string, error) {
	if !c.state.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "Predict")
	}
	predicted, err := c.tree.Predict(base.NewLazilyFilteredInstances(test, c.filter))
	if err != nil {
		return nil, errors.Wrap(err, "predicting with decision tree")
	}
	return gridLabels(predicted)
}

// RandomForestClassifier adapts golearn's random forest.
type RandomForestClassifier struct {
	state  *model.StateManager
	cfg    config.RandomForest
	forest *ensemble.RandomForest
	filter *filters.ChiMergeFilter
}

// NewRandomForestClassifier validates the configuration and constructs an
// unfitted adapter. The forest backend binds nTrees and mtry; splitRule,
// maxDepth, maxNodes, nodeSize, subsample, classWeight and seeds are
// validated, logged as unbound and otherwise ignored.
func NewRandomForestClassifier(cfg config.RandomForest) (*RandomForestClassifier, error) {
	if cfg.NTrees <= 0 {
		return nil, errors.NewValidationError("randomForest.nTrees", "must be positive", cfg.NTrees)
	}
	if cfg.Mtry < 0 {
		return nil, errors.NewValidationError("randomForest.mtry", "must be non-negative", cfg.Mtry)
	}
	if cfg.Subsample <= 0 || cfg.Subsample > 1 {
		return nil, errors.NewValidationError("randomForest.subsample", "must be in (0, 1]", cfg.Subsample)
	}
	logUnboundParams("randomForest", []string{
		"split_rule", "max_depth", "max_nodes", "node_size", "subsample", "class_weight", "seeds",
	})
	return &RandomForestClassifier{state: model.NewStateManager(), cfg: cfg}, nil
}

// Fit grows the forest. Mtry of 0 selects sqrt(#features) per tree.
func (c *RandomForestClassifier) Fit(train base.FixedDataGrid) error {
	filtered, filt, err := discretize(train)
	if err != nil {
		return err
	}
	mtry := c.cfg.Mtry
	if mtry == 0 {
		mtry = int(math.Sqrt(float64(len(base.NonClassAttributes(train)))))
		if mtry < 1 {
			mtry = 1
		}
	}
	forest := ensemble.NewRandomForest(c.cfg.NTrees, mtry)
	if err := forest.Fit(filtered); err != nil {
		return errors.Wrap(err, "fitting random forest")
	}
	c.forest = forest
	c.filter = filt
	c.state.SetFitted()
	return nil
}

// Predict returns the predicted class labels of the held-out dataframe.
func (c *RandomForestClassifier) Predict(test base.FixedDataGrid) ([]string, error) {
	if !c.state.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestClassifier", "Predict")
	}
	predicted, err := c.forest.Predict(base.NewLazilyFilteredInstances(test, c.filter))
	if err != nil {
		return nil, errors.Wrap(err, "predicting with random forest")
	}
	return gridLabels(predicted)
}
