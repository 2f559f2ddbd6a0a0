package bench

// DefaultQueries are the benchmark queries used when no query file is
// supplied. They target an index of AI/ML research papers.
var DefaultQueries = []string{
	"attention mechanism in transformers",
	"neural network architecture",
	"deep learning optimization",
	"natural language processing",
	"reinforcement learning algorithms",
	"computer vision techniques",
	"gradient descent convergence",
	"convolutional neural network",
	"recurrent neural network LSTM",
	"generative adversarial network",
	"transfer learning pretrained models",
	"bert language model",
	"graph neural network",
	"self-supervised learning",
	"multi-task learning",
	"federated learning privacy",
	"neural machine translation",
	"object detection YOLO",
	"semantic segmentation",
	"knowledge distillation",
}

// WarmupQuerySet is cycled during the warmup phase. Warmup results are
// discarded, so the set stays small and generic.
var WarmupQuerySet = []string{
	"machine learning",
	"deep neural network",
	"optimization algorithm",
	"feature extraction",
	"model training",
}
