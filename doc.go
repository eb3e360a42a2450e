// Package mlpipeline provides training pipelines for binary classification
// on the breast-cancer dataset: dataset preprocessing and splitting, model
// adapters for tree ensembles, logistic regression and a feed-forward
// network, artifact storage with a remote mirror, and evaluation sinks.
//
// The runnable entrypoint lives in cmd/mlpipeline; the pipeline package
// wires the stages together.
package mlpipeline
