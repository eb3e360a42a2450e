// Package config loads the immutable per-run configuration: preprocessing
// parameters, the hyperparameter record of every algorithm, artifact
// locations and the endpoints of both results sinks. Values come from an
// optional YAML file plus environment overrides; secrets (object-storage
// connection string, database DSN) are environment-only and may be supplied
// through a .env file loaded at process start.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/calt-laboratory/mlpipeline/pkg/errors"
)

// Preprocessing controls dataset splitting.
type Preprocessing struct {
	Seed      int64   `mapstructure:"seed"`
	TestSize  float64 `mapstructure:"test_size"`
	TrainSize float64 `mapstructure:"train_size"` // network pipeline only
}

// Split criteria for tree induction.
const (
	SplitRuleGini    = "GINI"
	SplitRuleEntropy = "ENTROPY"
)

// DecisionTree hyperparameters.
type DecisionTree struct {
	SplitRule string `mapstructure:"split_rule"`
	MaxDepth  int    `mapstructure:"max_depth"`
	MaxNodes  int    `mapstructure:"max_nodes"` // 0 means unbounded
	NodeSize  int    `mapstructure:"node_size"`
}

// RandomForest hyperparameters.
type RandomForest struct {
	NTrees      int       `mapstructure:"n_trees"`
	Mtry        int       `mapstructure:"mtry"` // 0 means sqrt(#features)
	SplitRule   string    `mapstructure:"split_rule"`
	MaxDepth    int       `mapstructure:"max_depth"`
	MaxNodes    int       `mapstructure:"max_nodes"`
	NodeSize    int       `mapstructure:"node_size"`
	Subsample   float64   `mapstructure:"subsample"`
	ClassWeight []float64 `mapstructure:"class_weight"` // empty means unweighted
	Seeds       []int64   `mapstructure:"seeds"`        // empty means unseeded trees
}

// AdaBoost hyperparameters.
type AdaBoost struct {
	NTrees   int `mapstructure:"n_trees"`
	MaxDepth int `mapstructure:"max_depth"`
	MaxNodes int `mapstructure:"max_nodes"`
	NodeSize int `mapstructure:"node_size"`
}

// GradientBoosting hyperparameters.
type GradientBoosting struct {
	NTrees    int     `mapstructure:"n_trees"`
	MaxDepth  int     `mapstructure:"max_depth"`
	MaxNodes  int     `mapstructure:"max_nodes"`
	NodeSize  int     `mapstructure:"node_size"`
	Shrinkage float64 `mapstructure:"shrinkage"`
	Subsample float64 `mapstructure:"subsample"`
}

// LogisticRegression hyperparameters.
type LogisticRegression struct {
	Lambda  float64 `mapstructure:"lambda"`
	Tol     float64 `mapstructure:"tol"`
	MaxIter int     `mapstructure:"max_iter"`
}

// NetworkClassifier hyperparameters.
type NetworkClassifier struct {
	KernelInitializerSeed int64 `mapstructure:"kernel_initializer_seed"`
	Epochs                int   `mapstructure:"epochs"`
	TrainBatchSize        int   `mapstructure:"train_batch_size"`
	TestBatchSize         int   `mapstructure:"test_batch_size"`
}

// Storage names every artifact location: the local data directory and the
// parallel (container, fileName) pairs on the remote side.
type Storage struct {
	DataDir string `mapstructure:"data_dir"`

	RawFileName          string `mapstructure:"raw_file_name"`
	PreprocessedFileName string `mapstructure:"preprocessed_file_name"`
	TrainFileName        string `mapstructure:"train_file_name"`
	TestFileName         string `mapstructure:"test_file_name"`
	TestLabelsFileName   string `mapstructure:"test_labels_file_name"`
	XTrainFileName       string `mapstructure:"x_train_file_name"`
	XTestFileName        string `mapstructure:"x_test_file_name"`
	YTrainFileName       string `mapstructure:"y_train_file_name"`
	YTestFileName        string `mapstructure:"y_test_file_name"`

	RawContainer          string `mapstructure:"raw_container"`
	PreprocessedContainer string `mapstructure:"preprocessed_container"`

	// ConnectionString authorizes the remote object store. Environment only.
	ConnectionString string `mapstructure:"-"`
}

// LocalPath resolves a file name inside the local data directory.
func (s Storage) LocalPath(fileName string) string {
	return filepath.Join(s.DataDir, fileName)
}

// Database configures the relational results sink.
type Database struct {
	DSN string `mapstructure:"-"` // environment only
}

// Tracking configures the experiment-tracking sink.
type Tracking struct {
	BaseURL    string `mapstructure:"base_url"`
	Experiment string `mapstructure:"experiment"`
	DatasetTag string `mapstructure:"dataset_tag"`
}

// Logging controls the zerolog setup.
type Logging struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Config is the complete, immutable configuration of one pipeline run.
type Config struct {
	Logging            Logging            `mapstructure:"logging"`
	Preprocessing      Preprocessing      `mapstructure:"preprocessing"`
	DecisionTree       DecisionTree       `mapstructure:"decision_tree"`
	RandomForest       RandomForest       `mapstructure:"random_forest"`
	AdaBoost           AdaBoost           `mapstructure:"ada_boost"`
	GradientBoosting   GradientBoosting   `mapstructure:"gradient_boosting"`
	LogisticRegression LogisticRegression `mapstructure:"logistic_regression"`
	NetworkClassifier  NetworkClassifier  `mapstructure:"network_classifier"`
	Storage            Storage            `mapstructure:"storage"`
	Database           Database           `mapstructure:"database"`
	Tracking           Tracking           `mapstructure:"tracking"`
}

// Environment variable names for secrets.
const (
	EnvStorageConnectionString = "STORAGE_CONNECTION_STRING"
	EnvDatabaseDSN             = "DATABASE_DSN"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", false)

	v.SetDefault("preprocessing.seed", 42)
	v.SetDefault("preprocessing.test_size", 0.2)
	v.SetDefault("preprocessing.train_size", 0.8)

	v.SetDefault("decision_tree.split_rule", SplitRuleGini)
	v.SetDefault("decision_tree.max_depth", 20)
	v.SetDefault("decision_tree.max_nodes", 0)
	v.SetDefault("decision_tree.node_size", 5)

	v.SetDefault("random_forest.n_trees", 500)
	v.SetDefault("random_forest.mtry", 0)
	v.SetDefault("random_forest.split_rule", SplitRuleGini)
	v.SetDefault("random_forest.max_depth", 20)
	v.SetDefault("random_forest.max_nodes", 500)
	v.SetDefault("random_forest.node_size", 1)
	v.SetDefault("random_forest.subsample", 1.0)

	v.SetDefault("ada_boost.n_trees", 500)
	v.SetDefault("ada_boost.max_depth", 50)
	v.SetDefault("ada_boost.max_nodes", 10)
	v.SetDefault("ada_boost.node_size", 2)

	v.SetDefault("gradient_boosting.n_trees", 500)
	v.SetDefault("gradient_boosting.max_depth", 20)
	v.SetDefault("gradient_boosting.max_nodes", 6)
	v.SetDefault("gradient_boosting.node_size", 1)
	v.SetDefault("gradient_boosting.shrinkage", 0.05)
	v.SetDefault("gradient_boosting.subsample", 0.7)

	v.SetDefault("logistic_regression.lambda", 0.0)
	v.SetDefault("logistic_regression.tol", 1e-5)
	v.SetDefault("logistic_regression.max_iter", 500)

	v.SetDefault("network_classifier.kernel_initializer_seed", 12)
	v.SetDefault("network_classifier.epochs", 50)
	v.SetDefault("network_classifier.train_batch_size", 32)
	v.SetDefault("network_classifier.test_batch_size", 32)

	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.raw_file_name", "breast_cancer.csv")
	v.SetDefault("storage.preprocessed_file_name", "preprocessed.csv")
	v.SetDefault("storage.train_file_name", "train.csv")
	v.SetDefault("storage.test_file_name", "test.csv")
	v.SetDefault("storage.test_labels_file_name", "test_labels.csv")
	v.SetDefault("storage.x_train_file_name", "x_train.csv")
	v.SetDefault("storage.x_test_file_name", "x_test.csv")
	v.SetDefault("storage.y_train_file_name", "y_train.csv")
	v.SetDefault("storage.y_test_file_name", "y_test.csv")
	v.SetDefault("storage.raw_container", "raw-data")
	v.SetDefault("storage.preprocessed_container", "preprocessed-data")

	v.SetDefault("tracking.base_url", "http://localhost:5000")
	v.SetDefault("tracking.experiment", "breast-cancer-classification")
	v.SetDefault("tracking.dataset_tag", "breast_cancer")
}

// Load reads the configuration once at process start. path may be empty, in
// which case defaults plus environment variables apply. A missing .env file
// is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("MLPIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}

	cfg.Storage.ConnectionString = os.Getenv(EnvStorageConnectionString)
	cfg.Database.DSN = os.Getenv(EnvDatabaseDSN)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Preprocessing.TestSize < 0 || c.Preprocessing.TestSize > 1 {
		return errors.NewValidationError("preprocessing.test_size", "must be in [0, 1]", c.Preprocessing.TestSize)
	}
	if c.Preprocessing.TrainSize < 0 || c.Preprocessing.TrainSize > 1 {
		return errors.NewValidationError("preprocessing.train_size", "must be in [0, 1]", c.Preprocessing.TrainSize)
	}
	for _, rule := range []struct {
		name  string
		value string
	}{
		{"decision_tree.split_rule", c.DecisionTree.SplitRule},
		{"random_forest.split_rule", c.RandomForest.SplitRule},
	} {
		if rule.value != SplitRuleGini && rule.value != SplitRuleEntropy {
			return errors.NewValidationError(rule.name, "must be GINI or ENTROPY", rule.value)
		}
	}
	return nil
}
