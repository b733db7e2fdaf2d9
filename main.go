// Package main provides the entry point for manifold, a terminal UI
// application for visualizing text embeddings. Embeddings come from Ollama or
// the Hugging Face Inference API and are stored in Qdrant, then projected to
// 2D with PCA or t-SNE for interactive exploration.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/alDuncanson/manifold/dataimport"
	"github.com/alDuncanson/manifold/embedding"
	"github.com/alDuncanson/manifold/huggingface"
	"github.com/alDuncanson/manifold/ollama"
	"github.com/alDuncanson/manifold/preload"
	"github.com/alDuncanson/manifold/projection"
	"github.com/alDuncanson/manifold/qdrant"
	"github.com/alDuncanson/manifold/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// version is set at build time via ldflags, defaults to "dev" for local builds
var version = "dev"

// Service configuration constants for connecting to backend services
const (
	// ollamaServiceURL is the HTTP endpoint for the Ollama embedding service
	ollamaServiceURL = "http://localhost:11434"

	// ollamaModelName specifies which Ollama model to use for text embeddings
	ollamaModelName = "nomic-embed-text"

	// huggingFaceModelID is the default Inference API model for embeddings
	huggingFaceModelID = "sentence-transformers/all-MiniLM-L6-v2"

	// qdrantServiceAddress is the gRPC endpoint for the Qdrant vector database
	qdrantServiceAddress = "localhost:6334"

	// vectorCollectionName is the Qdrant collection where embeddings are stored
	vectorCollectionName = "embeddings"

	// embeddingVectorDimensions is the size of vectors produced by nomic-embed-text
	embeddingVectorDimensions = 768
)

func main() {
	showVersionFlag := flag.Bool("version", false, "print version and exit")
	preloadDemoDataFlag := flag.Bool("preload", false, "seed with demo word list")
	embedderBackendFlag := flag.String("embedder", "ollama", "embedding backend: ollama or huggingface")
	projectionMethodFlag := flag.String("method", "pca", "initial projection method: pca or tsne")

	tsneDefaults := projection.DefaultTSNEConfig()
	perplexityFlag := flag.Float64("perplexity", tsneDefaults.Perplexity, "t-SNE perplexity")
	iterationsFlag := flag.Int("iterations", tsneDefaults.Iterations, "t-SNE gradient descent iterations")
	learningRateFlag := flag.Float64("rate", tsneDefaults.LearningRate, "t-SNE learning rate")
	randomSeedFlag := flag.Int64("seed", tsneDefaults.RandomSeed, "t-SNE random seed")

	hfDatasetFlag := flag.String("hf", "", "Hugging Face dataset to import, e.g. stanfordnlp/imdb")
	hfConfigFlag := flag.String("hf-config", "default", "Hugging Face dataset configuration")
	hfSplitFlag := flag.String("hf-split", "train", "Hugging Face dataset split")
	hfColumnFlag := flag.String("hf-column", "text", "Hugging Face dataset text column")
	hfRowsFlag := flag.Int("hf-rows", 200, "maximum Hugging Face rows to import, 0 for all")
	flag.Parse()

	if *showVersionFlag {
		fmt.Println(version)
		return
	}

	if *projectionMethodFlag != "pca" && *projectionMethodFlag != "tsne" {
		fmt.Fprintf(os.Stderr, "Unknown projection method %q (want pca or tsne)\n", *projectionMethodFlag)
		os.Exit(1)
	}

	// Check for positional argument (dataset file to import)
	var datasetPath string
	if flag.NArg() > 0 {
		datasetPath = flag.Arg(0)
	}

	embedder, embedderError := newEmbedder(*embedderBackendFlag)
	if embedderError != nil {
		fmt.Fprintf(os.Stderr, "%v\n", embedderError)
		os.Exit(1)
	}

	qdrantVectorClient, connectionError := qdrant.NewClient(
		qdrantServiceAddress,
		vectorCollectionName,
		embeddingVectorDimensions,
	)
	if connectionError != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to Qdrant: %v\n", connectionError)
		fmt.Fprintln(os.Stderr, "Make sure Qdrant is running: docker run -p 6333:6333 -p 6334:6334 qdrant/qdrant")
		os.Exit(1)
	}
	defer qdrantVectorClient.Close()

	if *preloadDemoDataFlag {
		if preloadError := runPreloadDemoWords(embedder, qdrantVectorClient); preloadError != nil {
			fmt.Fprintf(os.Stderr, "Preload failed: %v\n", preloadError)
			os.Exit(1)
		}
	}

	if *hfDatasetFlag != "" {
		importError := runImportHuggingFaceDataset(embedder, qdrantVectorClient,
			*hfDatasetFlag, *hfConfigFlag, *hfSplitFlag, *hfColumnFlag, *hfRowsFlag)
		if importError != nil {
			fmt.Fprintf(os.Stderr, "Hugging Face import failed: %v\n", importError)
			os.Exit(1)
		}
	}

	if datasetPath != "" {
		if importError := runImportDataset(embedder, qdrantVectorClient, datasetPath); importError != nil {
			fmt.Fprintf(os.Stderr, "Import failed: %v\n", importError)
			os.Exit(1)
		}
	}

	tsneConfig := tsneDefaults
	tsneConfig.Perplexity = *perplexityFlag
	tsneConfig.Iterations = *iterationsFlag
	tsneConfig.LearningRate = *learningRateFlag
	tsneConfig.RandomSeed = *randomSeedFlag

	terminalUserInterfaceModel := tui.NewModel(embedder, qdrantVectorClient, *projectionMethodFlag, tsneConfig, version)
	bubbleTeaProgram := tea.NewProgram(terminalUserInterfaceModel, tea.WithAltScreen())

	if _, programRunError := bubbleTeaProgram.Run(); programRunError != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", programRunError)
		os.Exit(1)
	}
}

// newEmbedder selects the embedding backend from the -embedder flag.
func newEmbedder(backend string) (embedding.Embedder, error) {
	switch backend {
	case "ollama":
		return ollama.NewClient(ollamaServiceURL, ollamaModelName), nil
	case "huggingface":
		return huggingface.NewEmbeddingsClient(huggingFaceModelID, ""), nil
	default:
		return nil, fmt.Errorf("unknown embedder %q (want ollama or huggingface)", backend)
	}
}

// runPreloadDemoWords seeds the vector database with the built-in demo words,
// storing each word's category as its label so clusters can be colored.
func runPreloadDemoWords(embedder embedding.Embedder, qdrantVectorClient *qdrant.Client) error {
	demoWordList := preload.Words()
	backgroundContext := context.Background()

	fmt.Printf("Preloading %d words...\n", len(demoWordList))

	for wordIndex, currentWord := range demoWordList {
		embeddingVector, embeddingError := embedder.Embed(currentWord.Text)
		if embeddingError != nil {
			return fmt.Errorf("embed %q: %w", currentWord.Text, embeddingError)
		}

		uniquePointIdentifier := uuid.New().String()
		upsertError := qdrantVectorClient.Upsert(backgroundContext, uniquePointIdentifier, currentWord.Text, currentWord.Category, embeddingVector)
		if upsertError != nil {
			return fmt.Errorf("upsert %q: %w", currentWord.Text, upsertError)
		}

		fmt.Printf("\r[%d/%d] %s", wordIndex+1, len(demoWordList), currentWord.Text)
	}

	fmt.Println("\nDone.")
	return nil
}

// runImportDataset loads a local CSV or JSON file into the vector database.
// JSON files whose entries already carry vectors skip the embedding round-trip.
func runImportDataset(embedder embedding.Embedder, qdrantVectorClient *qdrant.Client, datasetPath string) error {
	backgroundContext := context.Background()

	if dataimport.HasVectors(datasetPath) {
		records, loadError := dataimport.LoadVectorRecords(datasetPath)
		if loadError != nil {
			return fmt.Errorf("loading vector records: %w", loadError)
		}

		fmt.Printf("Importing %d precomputed vectors from %s...\n", len(records), datasetPath)
		for recordIndex, record := range records {
			uniquePointIdentifier := uuid.New().String()
			upsertError := qdrantVectorClient.Upsert(backgroundContext, uniquePointIdentifier, record.Text, record.Label, record.Vector)
			if upsertError != nil {
				return fmt.Errorf("upsert %q: %w", record.Text, upsertError)
			}
			fmt.Printf("\r[%d/%d] %s", recordIndex+1, len(records), truncateForProgress(record.Text, 40))
		}
		fmt.Println("\nDone.")
		return nil
	}

	samples, loadError := dataimport.LoadSamples(datasetPath)
	if loadError != nil {
		return fmt.Errorf("loading dataset: %w", loadError)
	}
	if len(samples) == 0 {
		return fmt.Errorf("no texts found in dataset")
	}

	fmt.Printf("Importing %d texts from %s...\n", len(samples), datasetPath)

	for sampleIndex, sample := range samples {
		embeddingVector, embeddingError := embedder.Embed(sample.Text)
		if embeddingError != nil {
			return fmt.Errorf("embed %q: %w", sample.Text, embeddingError)
		}

		uniquePointIdentifier := uuid.New().String()
		upsertError := qdrantVectorClient.Upsert(backgroundContext, uniquePointIdentifier, sample.Text, sample.Label, embeddingVector)
		if upsertError != nil {
			return fmt.Errorf("upsert %q: %w", sample.Text, upsertError)
		}

		fmt.Printf("\r[%d/%d] %s", sampleIndex+1, len(samples), truncateForProgress(sample.Text, 40))
	}

	fmt.Println("\nDone.")
	return nil
}

// runImportHuggingFaceDataset pulls a text column from a hosted dataset via the
// Dataset Viewer API, embeds each row, and stores the vectors with the dataset
// name as their label.
func runImportHuggingFaceDataset(embedder embedding.Embedder, qdrantVectorClient *qdrant.Client, dataset, config, split, column string, maxRows int) error {
	viewerClient := huggingface.NewClient()

	texts, fetchError := viewerClient.FetchTexts(dataset, config, split, column, maxRows)
	if fetchError != nil {
		return fmt.Errorf("fetching rows: %w", fetchError)
	}
	if len(texts) == 0 {
		return fmt.Errorf("no texts found in %s (%s/%s, column %q)", dataset, config, split, column)
	}

	backgroundContext := context.Background()
	fmt.Printf("Importing %d rows from %s...\n", len(texts), dataset)

	for textIndex, currentText := range texts {
		embeddingVector, embeddingError := embedder.Embed(currentText)
		if embeddingError != nil {
			return fmt.Errorf("embed row %d: %w", textIndex, embeddingError)
		}

		uniquePointIdentifier := uuid.New().String()
		upsertError := qdrantVectorClient.Upsert(backgroundContext, uniquePointIdentifier, currentText, dataset, embeddingVector)
		if upsertError != nil {
			return fmt.Errorf("upsert row %d: %w", textIndex, upsertError)
		}

		fmt.Printf("\r[%d/%d] %s", textIndex+1, len(texts), truncateForProgress(currentText, 40))
	}

	fmt.Println("\nDone.")
	return nil
}

func truncateForProgress(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen-3] + "..."
}
